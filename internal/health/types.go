package health

import (
	"time"
)

// Status is the digest's overall health band.
type Status string

const (
	StatusHealthy  Status = "Healthy"
	StatusDegraded Status = "Degraded"
	StatusCritical Status = "Critical"
)

// ProblemSummary buckets open problems from the trailing window by severity.
// Total counts every problem in the window, including severities outside the
// critical/warning buckets.
type ProblemSummary struct {
	Critical  int
	Warning   int
	Total     int
	TopIssues []string // up to five problem titles, API order
	Available bool
}

// FleetSummary describes the monitored host fleet. Hosts without a reported
// agent version count toward TotalHosts but not DistinctVersions.
type FleetSummary struct {
	TotalHosts       int
	DistinctVersions int
	Available        bool
}

// GatewaySummary describes connectivity gateway health. Connected <= Total.
type GatewaySummary struct {
	Connected int
	Total     int
	Available bool
}

// SyntheticSummary describes configured synthetic checks and how many are
// currently failing.
type SyntheticSummary struct {
	Total     int
	Failing   int
	Available bool
}

// Report is the composite result of one aggregation pass. It is built once
// per run and never mutated afterwards; the renderer and delivery layers only
// read it.
type Report struct {
	Timestamp time.Time
	Score     int // 0-100
	Status    Status
	Problems  ProblemSummary
	Fleet     FleetSummary
	Gateways  GatewaySummary
	Synthetic SyntheticSummary
}

// Renderable reports whether at least one category carries data. A report
// with nothing renderable means every fetch failed; the pipeline treats that
// as a total failure.
func (r Report) Renderable() bool {
	return r.Problems.Available || r.Fleet.Available || r.Gateways.Available || r.Synthetic.Available
}
