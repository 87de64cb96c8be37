// Package report renders an aggregated health report into the fixed-layout
// text block that gets delivered as the daily digest.
package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/obsops/fleetbrief/internal/health"
)

const unavailable = "N/A"

// digestTemplate is the fixed-section message layout. Section order is
// stable: Problems, Fleet, Gateways, Synthetic. Unavailable categories render
// as N/A so a failed fetch is never mistaken for a clean zero.
const digestTemplate = `🔔 Daily Fleet Health Report
📅 {{.Timestamp}}

{{.StatusEmoji}} {{.StatusLabel}} | Score: {{.Score}}/100

📊 PROBLEMS ({{.Window}})
• Critical: {{.ProblemCritical}}
• Warnings: {{.ProblemWarning}}
• Total: {{.ProblemTotal}}

🖥️ AGENT FLEET
• Total Hosts: {{.FleetHosts}}
• Versions in use: {{.FleetVersions}}

🌐 GATEWAYS
• Connected: {{.GatewayConnected}}

🧪 SYNTHETIC CHECKS
• Configured: {{.SyntheticTotal}}
• Failing: {{.SyntheticFailing}}
{{- if .Issues}}

⚠️ ISSUES
{{- range .Issues}}
• {{.}}
{{- end}}
{{- end}}

📰 Check your platform's release notes for the latest updates
`

// Renderer turns health reports into digest text.
type Renderer struct {
	window time.Duration
	tmpl   *template.Template
}

// New builds a Renderer for the given problem window (shown in the Problems
// section header).
func New(window time.Duration) *Renderer {
	return &Renderer{
		window: window,
		tmpl:   template.Must(template.New("digest").Parse(digestTemplate)),
	}
}

type digestView struct {
	Timestamp        string
	StatusEmoji      string
	StatusLabel      string
	Score            int
	Window           string
	ProblemCritical  string
	ProblemWarning   string
	ProblemTotal     string
	FleetHosts       string
	FleetVersions    string
	GatewayConnected string
	SyntheticTotal   string
	SyntheticFailing string
	Issues           []string
}

// Render produces the digest text for a report. Total over valid reports:
// every report yields exactly one text block.
func (r *Renderer) Render(report health.Report) (string, error) {
	view := digestView{
		Timestamp:   report.Timestamp.Format("2006-01-02 15:04 MST"),
		StatusEmoji: statusEmoji(report.Status),
		StatusLabel: string(report.Status),
		Score:       report.Score,
		Window:      formatWindow(r.window),
	}

	if report.Problems.Available {
		view.ProblemCritical = fmt.Sprintf("%d", report.Problems.Critical)
		view.ProblemWarning = fmt.Sprintf("%d", report.Problems.Warning)
		view.ProblemTotal = fmt.Sprintf("%d", report.Problems.Total)
		view.Issues = report.Problems.TopIssues
	} else {
		view.ProblemCritical = unavailable
		view.ProblemWarning = unavailable
		view.ProblemTotal = unavailable
	}

	if report.Fleet.Available {
		view.FleetHosts = fmt.Sprintf("%d", report.Fleet.TotalHosts)
		view.FleetVersions = fmt.Sprintf("%d", report.Fleet.DistinctVersions)
	} else {
		view.FleetHosts = unavailable
		view.FleetVersions = unavailable
	}

	if report.Gateways.Available {
		view.GatewayConnected = fmt.Sprintf("%d/%d", report.Gateways.Connected, report.Gateways.Total)
	} else {
		view.GatewayConnected = unavailable
	}

	if report.Synthetic.Available {
		view.SyntheticTotal = fmt.Sprintf("%d", report.Synthetic.Total)
		view.SyntheticFailing = fmt.Sprintf("%d", report.Synthetic.Failing)
	} else {
		view.SyntheticTotal = unavailable
		view.SyntheticFailing = unavailable
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func statusEmoji(status health.Status) string {
	switch status {
	case health.StatusHealthy:
		return "🟢"
	case health.StatusDegraded:
		return "🟡"
	default:
		return "🔴"
	}
}

func formatWindow(window time.Duration) string {
	if window <= 0 {
		return "24h"
	}
	hours := int(window.Hours())
	if hours >= 24 && hours%24 == 0 && hours > 24 {
		return fmt.Sprintf("%dd", hours/24)
	}
	return fmt.Sprintf("%dh", hours)
}
