package health

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsops/fleetbrief/pkg/dynatrace"
)

var anchor = time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC)

func fullSources() Sources {
	return Sources{
		Problems: &dynatrace.ProblemsResponse{
			TotalCount: 3,
			Problems: []dynatrace.Problem{
				{ProblemID: "P-1", Title: "CPU saturation", SeverityLevel: "ERROR", StartTime: anchor.Add(-2 * time.Hour).UnixMilli()},
				{ProblemID: "P-2", Title: "Slow disk", SeverityLevel: "WARNING", StartTime: anchor.Add(-3 * time.Hour).UnixMilli()},
				{ProblemID: "P-3", Title: "Info event", SeverityLevel: "INFO", StartTime: anchor.Add(-4 * time.Hour).UnixMilli()},
			},
		},
		Hosts: &dynatrace.EntitiesResponse{
			TotalCount: 3,
			Entities: []dynatrace.Entity{
				{EntityID: "HOST-1", Properties: dynatrace.EntityProperties{InstallerVersion: "1.285.0"}},
				{EntityID: "HOST-2", Properties: dynatrace.EntityProperties{InstallerVersion: "1.285.0"}},
				{EntityID: "HOST-3", Properties: dynatrace.EntityProperties{InstallerVersion: "1.283.0"}},
			},
		},
		Gateways: &dynatrace.ActiveGatesResponse{
			ActiveGates: []dynatrace.ActiveGate{
				{ID: "ag-1", Connected: true},
				{ID: "ag-2", Connected: false},
			},
		},
		Synthetic: &dynatrace.SyntheticMonitorsResponse{
			Monitors: []dynatrace.SyntheticMonitor{
				{EntityID: "SM-1", Enabled: true, Status: "SUCCESS"},
				{EntityID: "SM-2", Enabled: true, Status: "FAILING"},
			},
		},
		Window: 24 * time.Hour,
		Now:    anchor,
	}
}

func TestAggregateFullSources(t *testing.T) {
	report := Aggregate(fullSources())

	assert.Equal(t, ProblemSummary{
		Critical:  1,
		Warning:   1,
		Total:     3,
		TopIssues: []string{"CPU saturation", "Slow disk", "Info event"},
		Available: true,
	}, report.Problems)
	assert.Equal(t, FleetSummary{TotalHosts: 3, DistinctVersions: 2, Available: true}, report.Fleet)
	assert.Equal(t, GatewaySummary{Connected: 1, Total: 2, Available: true}, report.Gateways)
	assert.Equal(t, SyntheticSummary{Total: 2, Failing: 1, Available: true}, report.Synthetic)

	// 100 - 10 (critical) - 2 (warning) - 15 (offline gateway) - 3 (failing check)
	assert.Equal(t, 70, report.Score)
	assert.Equal(t, StatusDegraded, report.Status)
	assert.True(t, report.Renderable())
}

func TestAggregateIsDeterministic(t *testing.T) {
	first := Aggregate(fullSources())
	second := Aggregate(fullSources())
	assert.Equal(t, first, second)
}

func TestAggregateFiltersProblemsOutsideWindow(t *testing.T) {
	in := fullSources()
	in.Problems.Problems = append(in.Problems.Problems, dynatrace.Problem{
		ProblemID:     "P-old",
		Title:         "Stale incident",
		SeverityLevel: "ERROR",
		StartTime:     anchor.Add(-48 * time.Hour).UnixMilli(),
	})

	report := Aggregate(in)
	assert.Equal(t, 1, report.Problems.Critical, "stale problem must not count")
	assert.Equal(t, 3, report.Problems.Total)
	assert.NotContains(t, report.Problems.TopIssues, "Stale incident")
}

func TestAggregateCountsHostsWithoutVersion(t *testing.T) {
	in := fullSources()
	in.Hosts.Entities = append(in.Hosts.Entities, dynatrace.Entity{EntityID: "HOST-4"})

	report := Aggregate(in)
	assert.Equal(t, 4, report.Fleet.TotalHosts)
	assert.Equal(t, 2, report.Fleet.DistinctVersions, "versionless host must not add a version bucket")
}

func TestAggregateToleratesGatewayFailure(t *testing.T) {
	in := fullSources()
	in.Gateways = nil
	in.GatewaysErr = errors.New("fetch_activegates failed: 503")

	report := Aggregate(in)

	assert.False(t, report.Gateways.Available)
	assert.True(t, report.Problems.Available, "other categories must stay populated")
	assert.True(t, report.Fleet.Available)
	assert.True(t, report.Synthetic.Available)
	assert.Equal(t, 3, report.Problems.Total)

	// No gateway deduction when the category is unavailable.
	assert.Equal(t, 100-10-2-3, report.Score)
}

func TestAggregateAllSourcesFailed(t *testing.T) {
	err := errors.New("boom")
	report := Aggregate(Sources{
		ProblemsErr:  err,
		HostsErr:     err,
		GatewaysErr:  err,
		SyntheticErr: err,
		Window:       24 * time.Hour,
		Now:          anchor,
	})

	assert.False(t, report.Renderable())
	assert.Equal(t, 100, report.Score, "nothing deducted when nothing is known")
}

func TestAggregateZeroData(t *testing.T) {
	report := Aggregate(Sources{
		Problems:  &dynatrace.ProblemsResponse{},
		Hosts:     &dynatrace.EntitiesResponse{},
		Gateways:  &dynatrace.ActiveGatesResponse{},
		Synthetic: &dynatrace.SyntheticMonitorsResponse{},
		Window:    24 * time.Hour,
		Now:       anchor,
	})

	require.True(t, report.Renderable())
	assert.Equal(t, 100, report.Score)
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, 0, report.Fleet.TotalHosts)
	assert.Equal(t, 0, report.Gateways.Total)
}

func TestAggregateTopIssuesCapped(t *testing.T) {
	in := fullSources()
	in.Problems.Problems = nil
	for i := 0; i < 8; i++ {
		in.Problems.Problems = append(in.Problems.Problems, dynatrace.Problem{
			ProblemID:     "P",
			Title:         "issue",
			SeverityLevel: "WARNING",
			StartTime:     anchor.Add(-time.Hour).UnixMilli(),
		})
	}

	report := Aggregate(in)
	assert.Len(t, report.Problems.TopIssues, maxTopIssues)
	assert.Equal(t, 8, report.Problems.Warning)
}
