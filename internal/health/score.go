package health

// Scoring weights. Critical problems and gateway disconnects dominate;
// version sprawl is a nuisance-level deduction. Unavailable categories deduct
// nothing: no data is not treated as bad data.
const (
	weightCriticalProblem    = 10
	weightWarningProblem     = 2
	weightGatewayOffline     = 15
	weightSyntheticFailing   = 3
	weightExcessAgentVersion = 1

	// Fleets running more than this many distinct agent versions start
	// losing points for fragmentation.
	versionSprawlThreshold = 3
)

// Status bands over the score. Contiguous and exhaustive: every score in
// [0,100] maps to exactly one band.
const (
	healthyFloor  = 80
	degradedFloor = 50
)

// score maps the four summaries onto [0,100]. Pure and monotone: more
// problems, disconnects, failing checks, or versions never raise the score.
func score(r Report) int {
	s := 100

	if r.Problems.Available {
		s -= r.Problems.Critical * weightCriticalProblem
		s -= r.Problems.Warning * weightWarningProblem
	}

	if r.Gateways.Available {
		s -= (r.Gateways.Total - r.Gateways.Connected) * weightGatewayOffline
	}

	if r.Synthetic.Available {
		s -= r.Synthetic.Failing * weightSyntheticFailing
	}

	if r.Fleet.Available && r.Fleet.DistinctVersions > versionSprawlThreshold {
		s -= (r.Fleet.DistinctVersions - versionSprawlThreshold) * weightExcessAgentVersion
	}

	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return s
}

// statusForScore maps a score onto its band.
func statusForScore(score int) Status {
	switch {
	case score >= healthyFloor:
		return StatusHealthy
	case score >= degradedFloor:
		return StatusDegraded
	default:
		return StatusCritical
	}
}
