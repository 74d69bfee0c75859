package domain

import "time"

// TokenRecord is the reconciled view of one token: explorer supply against DEX price.
// Records are built once and never mutated; use Clone before handing out copies.
type TokenRecord struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`

	TotalSupply       float64 `json:"totalSupply"`
	CirculatingSupply float64 `json:"circulatingSupply"` // equals TotalSupply, no burn/lock accounting

	DexPrice        float64 `json:"dexPrice"`
	DexReportedMcap float64 `json:"dexReportedMcap"`
	ActualMcap      float64 `json:"actualMcap"`
	DiscrepancyPct  float64 `json:"discrepancyPct"` // (reported - actual) / actual * 100

	DataQuality Level `json:"dataQuality"`
	RiskLevel   Level `json:"riskLevel"`

	Sources []Source `json:"sources"`
	PairURL string   `json:"pairUrl,omitempty"`

	// Batch-only enrichment from the discovery pair (nil for single analyses)
	Rank              int      `json:"rank,omitempty"`
	LiquidityUSD      *float64 `json:"liquidityUsd,omitempty"`
	Volume24hUSD      *float64 `json:"volume24hUsd,omitempty"`
	PriceChange24hPct *float64 `json:"priceChange24hPct,omitempty"`

	Recommendations []string  `json:"recommendations,omitempty"`
	FetchedAt       time.Time `json:"fetchedAt"`
}

// HasSource reports whether src contributed to the record.
func (r *TokenRecord) HasSource(src Source) bool {
	for _, s := range r.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *TokenRecord) Clone() *TokenRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Sources = append([]Source(nil), r.Sources...)
	c.Recommendations = append([]string(nil), r.Recommendations...)
	c.LiquidityUSD = clonePtr(r.LiquidityUSD)
	c.Volume24hUSD = clonePtr(r.Volume24hUSD)
	c.PriceChange24hPct = clonePtr(r.PriceChange24hPct)
	return &c
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}
