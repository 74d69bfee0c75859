// Package discrepancy computes actual market cap, the signed discrepancy against the
// reported market cap, and the quality/risk tier derived from it.
package discrepancy

import (
	"fmt"
	"math"

	"banjocap/internal/domain"
)

// Tier thresholds on |discrepancy| in percent.
const (
	LowThresholdPct    = 5.0
	MediumThresholdPct = 15.0
)

// Input is what the calculator needs from supply and price resolution.
type Input struct {
	CirculatingSupply float64
	DexPrice          float64
	DexReportedMcap   float64
}

// Result is the calculator output.
type Result struct {
	ActualMcap     float64
	DiscrepancyPct float64
	DataQuality    domain.Level
	RiskLevel      domain.Level
}

// Calculate computes actual market cap and discrepancy.
// Discrepancy is (reported - actual) / actual * 100, and 0 when actual is 0.
// A non-finite or negative actual market cap, or a non-finite discrepancy, is a ProviderError.
func Calculate(in Input) (Result, error) {
	actual := in.CirculatingSupply * in.DexPrice
	if math.IsNaN(actual) || math.IsInf(actual, 0) || actual < 0 {
		return Result{}, domain.NewProviderError(domain.SourceDexScreener, domain.KindProviderError, "calculate",
			fmt.Sprintf("invalid actual market cap %v", actual), nil)
	}

	var pct float64
	if actual > 0 {
		pct = (in.DexReportedMcap - actual) / actual * 100
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return Result{}, domain.NewProviderError(domain.SourceDexScreener, domain.KindProviderError, "calculate",
			fmt.Sprintf("invalid discrepancy %v", pct), nil)
	}

	quality, risk := Classify(pct)
	return Result{
		ActualMcap:     actual,
		DiscrepancyPct: pct,
		DataQuality:    quality,
		RiskLevel:      risk,
	}, nil
}

// Classify maps a discrepancy to data quality and risk. Both share one tier:
// |pct| < 5 is high quality / low risk, < 15 medium / medium, otherwise low / high.
func Classify(pct float64) (quality, risk domain.Level) {
	abs := math.Abs(pct)
	switch {
	case abs < LowThresholdPct:
		return domain.LevelHigh, domain.LevelLow
	case abs < MediumThresholdPct:
		return domain.LevelMedium, domain.LevelMedium
	default:
		return domain.LevelLow, domain.LevelHigh
	}
}
