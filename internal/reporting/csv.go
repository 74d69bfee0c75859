package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders scan result rows as CSV string.
func RenderCSV(rows []ResultRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("position,symbol,address,dex_reported_mcap,actual_mcap,discrepancy_pct,")
	sb.WriteString("dex_price,volume_24h_usd,liquidity_usd,risk_level,data_quality\n")

	// Rows
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%.2f,%.2f,%.4f,%.10f,%.2f,%.2f,%s,%s\n",
			r.Position,
			csvField(r.Symbol),
			r.Address,
			r.DexReportedMcap,
			r.ActualMcap,
			r.DiscrepancyPct,
			r.DexPrice,
			r.Volume24hUSD,
			r.LiquidityUSD,
			r.RiskLevel,
			r.DataQuality,
		))
	}

	return sb.String()
}

// csvField quotes values that contain separators or quotes.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
