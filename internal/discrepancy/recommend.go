package discrepancy

import (
	"math"

	"banjocap/internal/domain"
)

// Advisory texts, emitted in this order.
const (
	AdviceHighDiscrepancy = "High discrepancy detected - verify circulating supply"
	AdviceLockedSupply    = "Significant locked/burned tokens - check vesting schedules"
	AdviceLimitedSources  = "Limited data sources - seek additional verification"
)

// Rule thresholds.
const (
	AdviceDiscrepancyPct   = 15.0
	LockedSupplyRatio      = 0.7
	MinConfidentSourceSize = 3
)

// Recommend returns the advisories that apply to r. Every rule is evaluated
// independently; the result is empty (never nil) when none fire.
func Recommend(r *domain.TokenRecord) []string {
	out := []string{}
	if r == nil {
		return out
	}
	if math.Abs(r.DiscrepancyPct) > AdviceDiscrepancyPct {
		out = append(out, AdviceHighDiscrepancy)
	}
	if r.CirculatingSupply < r.TotalSupply*LockedSupplyRatio {
		out = append(out, AdviceLockedSupply)
	}
	if len(r.Sources) < MinConfidentSourceSize {
		out = append(out, AdviceLimitedSources)
	}
	return out
}
