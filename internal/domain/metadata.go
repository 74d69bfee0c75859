package domain

import "github.com/shopspring/decimal"

// TokenMetadata is the output of supply resolution for one contract.
type TokenMetadata struct {
	Address     string          // checksummed contract address
	Symbol      string          // token symbol as reported by the explorer
	Name        string          // token name as reported by the explorer
	Decimals    int             // ERC-20 decimals (0-255)
	RawSupply   decimal.Decimal // integer supply before denomination
	TotalSupply decimal.Decimal // RawSupply / 10^Decimals
	Source      Source          // provider that served the metadata
}

// PriceQuote is the output of price resolution: the canonical (highest liquidity) pair.
type PriceQuote struct {
	PriceUSD          float64
	ReportedMcapUSD   float64
	LiquidityUSD      float64
	Volume24hUSD      float64
	PriceChange24hPct float64
	PairURL           string
	ChainID           string
	PairCount         int    // number of pairs considered for selection
	Source            Source // provider that served the quote
}
