package domain

// Candidate is a token surfaced by the discovery query, not yet fully resolved.
type Candidate struct {
	Rank    int    // 1-based position after filtering and sorting
	Address string // base token contract address (checksummed)
	Symbol  string // base token symbol from the discovery pair
	Name    string // base token name from the discovery pair
	ChainID string

	// Pair data observed at discovery time
	PriceUSD          float64
	ReportedMcapUSD   float64
	LiquidityUSD      float64
	Volume24hUSD      float64
	PriceChange24hPct float64
	PairURL           string
}

// Quote returns the candidate's discovery pair as a PriceQuote.
func (c *Candidate) Quote() PriceQuote {
	return PriceQuote{
		PriceUSD:          c.PriceUSD,
		ReportedMcapUSD:   c.ReportedMcapUSD,
		LiquidityUSD:      c.LiquidityUSD,
		Volume24hUSD:      c.Volume24hUSD,
		PriceChange24hPct: c.PriceChange24hPct,
		PairURL:           c.PairURL,
		ChainID:           c.ChainID,
		PairCount:         1,
		Source:            SourceDexScreener,
	}
}
