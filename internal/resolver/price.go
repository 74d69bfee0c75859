package resolver

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"banjocap/internal/dexscreener"
	"banjocap/internal/domain"
)

// PairSource lists the trading pairs of a token.
type PairSource interface {
	Provider() domain.Source
	TokenPairs(ctx context.Context, address string) ([]dexscreener.Pair, error)
}

// PriceResolver picks the highest-liquidity pair as the canonical price reference.
type PriceResolver struct {
	source  PairSource
	chainID string // empty accepts every chain
	logger  zerolog.Logger
}

// NewPriceResolver creates a PriceResolver. When chainID is set, pairs on other
// chains are ignored before selection.
func NewPriceResolver(source PairSource, chainID string, logger zerolog.Logger) *PriceResolver {
	return &PriceResolver{
		source:  source,
		chainID: strings.ToLower(strings.TrimSpace(chainID)),
		logger:  logger.With().Str("component", "price_resolver").Logger(),
	}
}

// Resolve returns the quote of the best pair for address.
// Zero eligible pairs is a NoLiquidity failure.
func (r *PriceResolver) Resolve(ctx context.Context, address string) (*domain.PriceQuote, error) {
	pairs, err := r.source.TokenPairs(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("token pairs: %w", err)
	}

	eligible := make([]dexscreener.Pair, 0, len(pairs))
	for _, p := range pairs {
		if r.chainID != "" && !strings.EqualFold(p.ChainID, r.chainID) {
			continue
		}
		eligible = append(eligible, p)
	}

	best, ok := BestPair(eligible)
	if !ok {
		return nil, domain.NewProviderError(r.source.Provider(), domain.KindNoLiquidity, "tokens", "no trading pairs found", nil)
	}

	quote := QuoteFromPair(best, r.source.Provider())
	quote.PairCount = len(eligible)
	if err := ValidateQuote(quote); err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("address", address).
		Int("pairs", len(eligible)).
		Float64("price_usd", quote.PriceUSD).
		Float64("liquidity_usd", quote.LiquidityUSD).
		Msg("price resolved")

	return &quote, nil
}

// BestPair returns the pair with maximal liquidity.usd. Missing liquidity counts
// as zero; ties keep the first pair seen.
func BestPair(pairs []dexscreener.Pair) (dexscreener.Pair, bool) {
	if len(pairs) == 0 {
		return dexscreener.Pair{}, false
	}
	best := 0
	for i := 1; i < len(pairs); i++ {
		if pairs[i].Liquidity.USD.Float() > pairs[best].Liquidity.USD.Float() {
			best = i
		}
	}
	return pairs[best], true
}

// QuoteFromPair converts a pair into a single-pair quote.
func QuoteFromPair(p dexscreener.Pair, provider domain.Source) domain.PriceQuote {
	return domain.PriceQuote{
		PriceUSD:          p.PriceUSD.Float(),
		ReportedMcapUSD:   p.MarketCap.Float(),
		LiquidityUSD:      FiniteOrZero(p.Liquidity.USD.Float()),
		Volume24hUSD:      FiniteOrZero(p.Volume.H24.Float()),
		PriceChange24hPct: FiniteOrZero(p.PriceChange.H24.Float()),
		PairURL:           p.URL,
		ChainID:           p.ChainID,
		PairCount:         1,
		Source:            provider,
	}
}

// FiniteOrZero maps NaN and infinities to zero. Enrichment fields are
// informational and must never block serialization of a record.
func FiniteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ValidateQuote rejects negative or non-finite prices and market caps.
func ValidateQuote(q domain.PriceQuote) error {
	provider := q.Source
	if provider == "" {
		provider = domain.SourceDexScreener
	}
	if math.IsNaN(q.PriceUSD) || math.IsInf(q.PriceUSD, 0) || q.PriceUSD < 0 {
		return domain.NewProviderError(provider, domain.KindProviderError, "tokens", fmt.Sprintf("invalid price %v", q.PriceUSD), nil)
	}
	if math.IsNaN(q.ReportedMcapUSD) || math.IsInf(q.ReportedMcapUSD, 0) || q.ReportedMcapUSD < 0 {
		return domain.NewProviderError(provider, domain.KindProviderError, "tokens", fmt.Sprintf("invalid market cap %v", q.ReportedMcapUSD), nil)
	}
	return nil
}
