package reporting

import (
	"fmt"
	"strings"
	"time"

	"market-structure-lab/internal/domain"
	"market-structure-lab/internal/verification"
)

// RenderSummary summarizes a feature table as Markdown.
func RenderSummary(t *domain.FeatureTable) string {
	return RenderMarkdown(Summarize(t))
}

// RenderMarkdown renders a summary as Markdown string.
func RenderMarkdown(s *Summary) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s %s\n\n", s.Symbol, s.Timeframe))
	if !s.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339)))
	}
	if s.RunID != "" {
		sb.WriteString(fmt.Sprintf("Run: `%s`\n\n", s.RunID))
	}

	// Data Summary
	sb.WriteString("## Data Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Bars | %d |\n", s.Bars))
	sb.WriteString(fmt.Sprintf("| Feature Columns | %d |\n", s.Columns))
	sb.WriteString(fmt.Sprintf("| Start (ms) | %d |\n", s.StartMs))
	sb.WriteString(fmt.Sprintf("| End (ms) | %d |\n", s.EndMs))
	sb.WriteString("\n")

	if len(s.Warnings) > 0 {
		sb.WriteString("### Warnings\n\n")
		for _, w := range s.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", w))
		}
		sb.WriteString("\n")
	}

	// Pivots
	sb.WriteString("## Pivots\n\n")
	if len(s.Pivots) > 0 {
		sb.WriteString("| Kind | Count |\n")
		sb.WriteString("|------|-------|\n")
		for _, p := range s.Pivots {
			sb.WriteString(fmt.Sprintf("| %s | %d |\n", p.Label, p.Count))
		}
	} else {
		sb.WriteString("Pivots not computed.\n")
	}
	sb.WriteString("\n")

	// Events
	sb.WriteString("## Structural Events\n\n")
	if len(s.Events) > 0 {
		sb.WriteString("| Stream | Events | FT Valid | Liq Grab | SR Flip |\n")
		sb.WriteString("|--------|--------|----------|----------|---------|\n")
		for _, e := range s.Events {
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %d |\n",
				e.Stream, e.Events, e.FollowValid, e.LiquidityGrabs, e.SRFlips))
		}
	} else {
		sb.WriteString("Price action not computed.\n")
	}
	sb.WriteString("\n")

	// Regimes
	sb.WriteString("## Trend Regime\n\n")
	if len(s.Regimes) > 0 {
		sb.WriteString("| Regime | Bars | Share |\n")
		sb.WriteString("|--------|------|-------|\n")
		for _, r := range s.Regimes {
			sb.WriteString(fmt.Sprintf("| %s | %d | %.2f%% |\n", r.Label, r.Count, r.Share*100))
		}
	} else {
		sb.WriteString("Trend regime not computed.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderVerification renders a verification report as Markdown string.
func RenderVerification(r *verification.Report) string {
	var sb strings.Builder

	status := "FAIL"
	if r.Passed() {
		status = "PASS"
	}
	sb.WriteString(fmt.Sprintf("# Verification %s %s: %s\n\n", r.Symbol, r.Timeframe, status))
	sb.WriteString(fmt.Sprintf("Bars: %d\n\n", r.Bars))

	sb.WriteString("| Check | Checked | Divergences | Status |\n")
	sb.WriteString("|-------|---------|-------------|--------|\n")
	for _, res := range r.Results {
		st := "FAIL"
		if res.Passed {
			st = "PASS"
		}
		n := fmt.Sprintf("%d", len(res.Divergences))
		if res.Truncated {
			n += "+"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n", res.Name, res.Checked, n, st))
	}
	sb.WriteString("\n")

	for _, res := range r.Results {
		if res.Passed {
			continue
		}
		sb.WriteString(fmt.Sprintf("### %s\n\n", res.Name))
		for _, d := range res.Divergences {
			sb.WriteString(fmt.Sprintf("- %s\n", d))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
