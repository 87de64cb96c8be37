package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsops/fleetbrief/internal/health"
)

func sampleReport() health.Report {
	return health.Report{
		Timestamp: time.Date(2026, 3, 15, 11, 0, 0, 0, time.UTC),
		Score:     96,
		Status:    health.StatusHealthy,
		Problems:  health.ProblemSummary{Critical: 0, Warning: 2, Total: 3, Available: true},
		Fleet:     health.FleetSummary{TotalHosts: 247, DistinctVersions: 2, Available: true},
		Gateways:  health.GatewaySummary{Connected: 5, Total: 5, Available: true},
		Synthetic: health.SyntheticSummary{},
	}
}

func TestRenderContainsLiteralFields(t *testing.T) {
	text, err := New(24 * time.Hour).Render(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, text, "Connected: 5/5")
	assert.Contains(t, text, "Critical: 0")
	assert.Contains(t, text, "Warnings: 2")
	assert.Contains(t, text, "Total: 3")
	assert.Contains(t, text, "Score: 96/100")
	assert.Contains(t, text, "PROBLEMS (24h)")
}

func TestRenderHealthyHeaderAndSyntheticNA(t *testing.T) {
	text, err := New(24 * time.Hour).Render(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, text, "🟢 Healthy")
	assert.Contains(t, text, "Configured: N/A")
	assert.Contains(t, text, "Failing: N/A")
	assert.NotContains(t, text, "Configured: 0", "unavailable must not look like zero")
}

func TestRenderDistinguishesUnavailableFromZero(t *testing.T) {
	r := sampleReport()
	r.Problems = health.ProblemSummary{} // fetch failed
	r.Synthetic = health.SyntheticSummary{Total: 0, Failing: 0, Available: true}

	text, err := New(24 * time.Hour).Render(r)
	require.NoError(t, err)

	assert.Contains(t, text, "Critical: N/A")
	assert.Contains(t, text, "Warnings: N/A")
	assert.Contains(t, text, "Configured: 0")
	assert.Contains(t, text, "Failing: 0")
}

func TestRenderSectionOrderIsStable(t *testing.T) {
	text, err := New(24 * time.Hour).Render(sampleReport())
	require.NoError(t, err)

	problems := strings.Index(text, "PROBLEMS")
	fleet := strings.Index(text, "AGENT FLEET")
	gateways := strings.Index(text, "GATEWAYS")
	synthetic := strings.Index(text, "SYNTHETIC")

	require.True(t, problems >= 0 && fleet >= 0 && gateways >= 0 && synthetic >= 0)
	assert.True(t, problems < fleet && fleet < gateways && gateways < synthetic,
		"sections must render in Problems, Fleet, Gateways, Synthetic order")
}

func TestRenderIssuesSection(t *testing.T) {
	r := sampleReport()
	r.Problems.TopIssues = []string{"CPU saturation on web-01", "Slow disk on db-02"}

	text, err := New(24 * time.Hour).Render(r)
	require.NoError(t, err)

	assert.Contains(t, text, "⚠️ ISSUES")
	assert.Contains(t, text, "• CPU saturation on web-01")
	assert.Contains(t, text, "• Slow disk on db-02")
}

func TestRenderOmitsIssuesWhenNone(t *testing.T) {
	text, err := New(24 * time.Hour).Render(sampleReport())
	require.NoError(t, err)
	assert.NotContains(t, text, "ISSUES")
}

func TestRenderIsDeterministic(t *testing.T) {
	renderer := New(24 * time.Hour)
	first, err := renderer.Render(sampleReport())
	require.NoError(t, err)
	second, err := renderer.Render(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFormatWindow(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   string
	}{
		{0, "24h"},
		{24 * time.Hour, "24h"},
		{48 * time.Hour, "2d"},
		{6 * time.Hour, "6h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatWindow(tt.window), "window=%v", tt.window)
	}
}
