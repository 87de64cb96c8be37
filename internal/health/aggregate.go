package health

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/obsops/fleetbrief/pkg/dynatrace"
)

const maxTopIssues = 5

// Sources carries the four raw fetch results into aggregation. A nil payload
// or non-nil error marks that category unavailable; aggregation never aborts
// on a partial failure.
type Sources struct {
	Problems    *dynatrace.ProblemsResponse
	ProblemsErr error

	Hosts    *dynatrace.EntitiesResponse
	HostsErr error

	Gateways    *dynatrace.ActiveGatesResponse
	GatewaysErr error

	Synthetic    *dynatrace.SyntheticMonitorsResponse
	SyntheticErr error

	// Window is the trailing problem window; Now anchors it so aggregation
	// stays deterministic for a given input set.
	Window time.Duration
	Now    time.Time
}

// Aggregate reduces the raw endpoint payloads into a scored Report. It is
// pure: the same Sources value always produces the same Report.
func Aggregate(in Sources) Report {
	report := Report{
		Timestamp: in.Now,
		Problems:  aggregateProblems(in),
		Fleet:     aggregateFleet(in),
		Gateways:  aggregateGateways(in),
		Synthetic: aggregateSynthetic(in),
	}

	report.Score = score(report)
	report.Status = statusForScore(report.Score)

	return report
}

func aggregateProblems(in Sources) ProblemSummary {
	if in.ProblemsErr != nil || in.Problems == nil {
		logUnavailable("problems", in.ProblemsErr)
		return ProblemSummary{}
	}

	cutoff := in.Now.Add(-in.Window).UnixMilli()

	summary := ProblemSummary{Available: true}
	for _, p := range in.Problems.Problems {
		if in.Window > 0 && p.StartTime > 0 && p.StartTime < cutoff {
			continue
		}
		summary.Total++
		switch strings.ToUpper(p.SeverityLevel) {
		case "ERROR", "CRITICAL":
			summary.Critical++
		case "WARNING":
			summary.Warning++
		}
		if len(summary.TopIssues) < maxTopIssues && p.Title != "" {
			summary.TopIssues = append(summary.TopIssues, p.Title)
		}
	}
	return summary
}

func aggregateFleet(in Sources) FleetSummary {
	if in.HostsErr != nil || in.Hosts == nil {
		logUnavailable("hosts", in.HostsErr)
		return FleetSummary{}
	}

	versions := make(map[string]int)
	for _, entity := range in.Hosts.Entities {
		if v := strings.TrimSpace(entity.Properties.InstallerVersion); v != "" {
			versions[v]++
		}
	}

	return FleetSummary{
		TotalHosts:       len(in.Hosts.Entities),
		DistinctVersions: len(versions),
		Available:        true,
	}
}

func aggregateGateways(in Sources) GatewaySummary {
	if in.GatewaysErr != nil || in.Gateways == nil {
		logUnavailable("activegates", in.GatewaysErr)
		return GatewaySummary{}
	}

	summary := GatewaySummary{Available: true}
	for _, gate := range in.Gateways.ActiveGates {
		summary.Total++
		if gate.Connected {
			summary.Connected++
		}
	}
	return summary
}

func aggregateSynthetic(in Sources) SyntheticSummary {
	if in.SyntheticErr != nil || in.Synthetic == nil {
		logUnavailable("synthetic", in.SyntheticErr)
		return SyntheticSummary{}
	}

	summary := SyntheticSummary{Available: true}
	for _, monitor := range in.Synthetic.Monitors {
		summary.Total++
		if monitor.Enabled && strings.EqualFold(monitor.Status, "failing") {
			summary.Failing++
		}
	}
	return summary
}

func logUnavailable(category string, err error) {
	event := log.Warn().Str("category", category)
	if err != nil {
		event = event.Err(err)
	}
	event.Msg("Category unavailable; aggregating without it")
}
