package domain

import "strings"

// SampleToken is a static demonstration entry with precomputed figures.
type SampleToken struct {
	Symbol            string
	Name              string
	Address           string
	DexReportedMcap   float64
	ActualMcap        float64
	CirculatingSupply float64
	TotalSupply       float64
	Price             float64
	DexPrice          float64
	DiscrepancyPct    float64
	Sources           []Source
}

// SampleTokens returns the built-in demonstration tokens.
func SampleTokens() []SampleToken {
	return []SampleToken{
		{
			Symbol:            "PEPE",
			Name:              "Pepe Token",
			Address:           "0x6982508145454Ce325dDbE47a25d4ec3d2311933",
			DexReportedMcap:   5200000000,
			ActualMcap:        4850000000,
			CirculatingSupply: 420690000000000,
			TotalSupply:       420690000000000,
			Price:             0.0000115,
			DexPrice:          0.0000124,
			DiscrepancyPct:    -6.7,
			Sources:           []Source{"Etherscan", "CoinGecko", SourceDexScreener},
		},
		{
			Symbol:            "SHIB",
			Name:              "Shiba Inu",
			Address:           "0x95aD61b0a150d79219dCF64E1E6Cc01f0B64C4cE",
			DexReportedMcap:   15800000000,
			ActualMcap:        14200000000,
			CirculatingSupply: 589735030408323,
			TotalSupply:       999982373051419,
			Price:             0.0000241,
			DexPrice:          0.0000268,
			DiscrepancyPct:    -10.1,
			Sources:           []Source{"Etherscan", "CoinMarketCap", SourceDexScreener},
		},
		{
			Symbol:            "BASE",
			Name:              "Base Token",
			Address:           "0x1234567890123456789012345678901234567890",
			DexReportedMcap:   125000000,
			ActualMcap:        98000000,
			CirculatingSupply: 45000000,
			TotalSupply:       100000000,
			Price:             2.18,
			DexPrice:          2.78,
			DiscrepancyPct:    -21.6,
			Sources:           []Source{SourceBasescan, SourceDexScreener},
		},
	}
}

// FilterSamples returns the samples whose symbol or name contains term (case-insensitive).
// An empty term returns all samples.
func FilterSamples(term string) []SampleToken {
	all := SampleTokens()
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return all
	}
	var out []SampleToken
	for _, s := range all {
		if strings.Contains(strings.ToLower(s.Symbol), term) || strings.Contains(strings.ToLower(s.Name), term) {
			out = append(out, s)
		}
	}
	return out
}

// Record converts the sample to a TokenRecord. Classification is left to the caller.
func (s SampleToken) Record() *TokenRecord {
	return &TokenRecord{
		Address:           s.Address,
		Symbol:            s.Symbol,
		Name:              s.Name,
		TotalSupply:       s.TotalSupply,
		CirculatingSupply: s.CirculatingSupply,
		DexPrice:          s.DexPrice,
		DexReportedMcap:   s.DexReportedMcap,
		ActualMcap:        s.ActualMcap,
		DiscrepancyPct:    s.DiscrepancyPct,
		Sources:           append([]Source(nil), s.Sources...),
	}
}
