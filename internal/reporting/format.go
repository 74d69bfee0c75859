package reporting

import (
	"fmt"
	"math"
)

// FormatNumber renders n compactly with two decimals and a K/M/B suffix.
func FormatNumber(n float64) string {
	abs := math.Abs(n)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%.2fB", n/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	default:
		return fmt.Sprintf("%.2f", n)
	}
}

// FormatPercent renders pct with one decimal and an explicit sign for positive values.
func FormatPercent(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatPrice renders a USD price with enough precision for micro-cap tokens.
func FormatPrice(p float64) string {
	if p != 0 && math.Abs(p) < 0.01 {
		return fmt.Sprintf("%.8f", p)
	}
	return fmt.Sprintf("%.6f", p)
}
