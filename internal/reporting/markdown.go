package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderScanMarkdown renders a scan report as Markdown string.
func RenderScanMarkdown(r *ScanReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Market Cap Discrepancy Scan\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Scan: %s | Status: %s\n\n", r.ScanID, r.Status))

	// Progress
	sb.WriteString("## Progress\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", r.StartedAt.Format(time.RFC3339)))
	if r.FinishedAt != nil {
		sb.WriteString(fmt.Sprintf("| Finished | %s |\n", r.FinishedAt.Format(time.RFC3339)))
	}
	sb.WriteString(fmt.Sprintf("| Candidates | %d |\n", r.TotalCandidates))
	sb.WriteString(fmt.Sprintf("| Completed | %d (%.1f%%) |\n", r.CompletedCount, r.ProgressPct))
	sb.WriteString(fmt.Sprintf("| Est. API calls | %d |\n", r.EstimatedCalls))
	sb.WriteString(fmt.Sprintf("| Results | %d |\n", r.Summary.Results))
	sb.WriteString(fmt.Sprintf("| Errors | %d |\n", r.Summary.Errors))
	sb.WriteString(fmt.Sprintf("| Risk high / medium / low | %d / %d / %d |\n",
		r.Summary.HighRisk, r.Summary.MediumRisk, r.Summary.LowRisk))
	sb.WriteString(fmt.Sprintf("| Mean abs discrepancy | %.2f%% |\n", r.Summary.MeanAbsDiscrepancy))
	sb.WriteString("\n")

	if r.Failure != "" {
		sb.WriteString(fmt.Sprintf("**Scan failed:** %s\n\n", r.Failure))
	}

	// Results
	sb.WriteString("## Results - Ranked by Discrepancy\n\n")
	if len(r.Rows) > 0 {
		sb.WriteString("| # | Token | DEX MCap | Actual MCap | Discrepancy | Price | 24h Volume | Risk |\n")
		sb.WriteString("|---|-------|----------|-------------|-------------|-------|------------|------|\n")
		for _, row := range r.Rows {
			sb.WriteString(fmt.Sprintf("| %d | %s | $%s | $%s | %s | $%s | $%s | %s |\n",
				row.Position, row.Symbol,
				FormatNumber(row.DexReportedMcap), FormatNumber(row.ActualMcap),
				FormatPercent(row.DiscrepancyPct), FormatPrice(row.DexPrice),
				FormatNumber(row.Volume24hUSD), row.RiskLevel))
		}
		if r.Summary.Results > len(r.Rows) {
			sb.WriteString(fmt.Sprintf("\nShowing top %d of %d results.\n", len(r.Rows), r.Summary.Results))
		}
	} else {
		sb.WriteString("No results available.\n")
	}
	sb.WriteString("\n")

	// Errors
	if len(r.Errors) > 0 {
		sb.WriteString("## Scan Errors\n\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("- %s\n", e))
		}
		if r.HiddenErrors > 0 {
			sb.WriteString(fmt.Sprintf("- ... and %d more errors\n", r.HiddenErrors))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderAnalysisMarkdown renders a single-token analysis as Markdown string.
func RenderAnalysisMarkdown(r *AnalysisReport) string {
	var sb strings.Builder
	rec := r.Record

	sb.WriteString(fmt.Sprintf("# %s (%s)\n\n", rec.Name, rec.Symbol))
	sb.WriteString(fmt.Sprintf("Address: `%s`\n\n", rec.Address))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	sb.WriteString("## Market Cap\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| DEX reported | $%s |\n", FormatNumber(rec.DexReportedMcap)))
	sb.WriteString(fmt.Sprintf("| Actual | $%s |\n", FormatNumber(rec.ActualMcap)))
	sb.WriteString(fmt.Sprintf("| Discrepancy | %s |\n", FormatPercent(rec.DiscrepancyPct)))
	sb.WriteString(fmt.Sprintf("| Risk level | %s |\n", rec.RiskLevel))
	sb.WriteString(fmt.Sprintf("| Data quality | %s |\n", rec.DataQuality))
	sb.WriteString("\n")

	sb.WriteString("## Supply\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Circulating | %s |\n", FormatNumber(rec.CirculatingSupply)))
	sb.WriteString(fmt.Sprintf("| Total | %s |\n", FormatNumber(rec.TotalSupply)))
	sb.WriteString(fmt.Sprintf("| Circulation | %.1f%% |\n", r.CirculationPct))
	sb.WriteString(fmt.Sprintf("| Decimals | %d |\n", rec.Decimals))
	sb.WriteString(fmt.Sprintf("| DEX price | $%s |\n", FormatPrice(rec.DexPrice)))
	sb.WriteString("\n")

	sb.WriteString("## Sources\n\n")
	for _, src := range rec.Sources {
		sb.WriteString(fmt.Sprintf("- %s\n", src))
	}
	if rec.PairURL != "" {
		sb.WriteString(fmt.Sprintf("- Pair: %s\n", rec.PairURL))
	}
	sb.WriteString("\n")

	sb.WriteString("## Recommendations\n\n")
	if len(r.Recommendations) > 0 {
		for _, adv := range r.Recommendations {
			sb.WriteString(fmt.Sprintf("- %s\n", adv))
		}
	} else {
		sb.WriteString("No recommendations.\n")
	}

	return sb.String()
}
