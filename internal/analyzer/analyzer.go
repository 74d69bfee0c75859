// Package analyzer runs the single-token flow: validate, resolve supply, resolve
// price, calculate and recommend.
package analyzer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"banjocap/internal/discrepancy"
	"banjocap/internal/domain"
	"banjocap/internal/evm"
	"banjocap/internal/observability"
)

// SupplyResolver resolves token metadata and denominated supply.
type SupplyResolver interface {
	Resolve(ctx context.Context, address string) (*domain.TokenMetadata, error)
}

// PriceResolver resolves the canonical price quote.
type PriceResolver interface {
	Resolve(ctx context.Context, address string) (*domain.PriceQuote, error)
}

// Options configures an Analyzer.
type Options struct {
	Logger zerolog.Logger
	Now    func() time.Time // default time.Now
}

// Analyzer analyzes one token at a time. Safe for concurrent use.
type Analyzer struct {
	supply SupplyResolver
	price  PriceResolver
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an Analyzer.
func New(supply SupplyResolver, price PriceResolver, opts Options) *Analyzer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{
		supply: supply,
		price:  price,
		now:    opts.Now,
		logger: opts.Logger.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze resolves address into a TokenRecord with recommendations attached.
// Failures are returned as *domain.AnalysisError. A token without trading pairs
// is not a failure: it yields a zero-price, low-quality record.
func (a *Analyzer) Analyze(ctx context.Context, address string) (*domain.TokenRecord, error) {
	record, err := a.analyze(ctx, address)
	if err != nil {
		ae := domain.NewAnalysisError(address, err)
		observability.RecordAnalysis(string(ae.Kind))
		a.logger.Warn().Str("address", address).Str("kind", string(ae.Kind)).Err(err).Msg("analysis failed")
		return nil, ae
	}
	observability.RecordAnalysis("success")
	return record, nil
}

func (a *Analyzer) analyze(ctx context.Context, address string) (*domain.TokenRecord, error) {
	addr, err := evm.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	meta, err := a.supply.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	quote, err := a.price.Resolve(ctx, addr)
	if err != nil {
		if !errors.Is(err, domain.ErrNoLiquidity) {
			return nil, err
		}
		a.logger.Info().Str("address", addr).Msg("no trading pairs, continuing without price")
		quote = nil
	}

	record, err := BuildRecord(meta, quote, a.now())
	if err != nil {
		return nil, err
	}
	record.Recommendations = discrepancy.Recommend(record)

	a.logger.Info().
		Str("address", addr).
		Str("symbol", record.Symbol).
		Float64("discrepancy_pct", record.DiscrepancyPct).
		Str("risk", record.RiskLevel.String()).
		Msg("analysis complete")

	return record, nil
}

// BuildRecord reconciles supply metadata with a price quote. A nil quote means the
// token has no liquidity: price is zero, the price provider is not listed as a
// source and data quality is forced to low.
func BuildRecord(meta *domain.TokenMetadata, quote *domain.PriceQuote, fetchedAt time.Time) (*domain.TokenRecord, error) {
	total := meta.TotalSupply.InexactFloat64()
	// No burn or lock accounting: circulating equals total.
	circulating := total

	in := discrepancy.Input{CirculatingSupply: circulating}
	if quote != nil {
		in.DexPrice = quote.PriceUSD
		in.DexReportedMcap = quote.ReportedMcapUSD
	}

	res, err := discrepancy.Calculate(in)
	if err != nil {
		return nil, err
	}

	record := &domain.TokenRecord{
		Address:           meta.Address,
		Symbol:            meta.Symbol,
		Name:              meta.Name,
		Decimals:          meta.Decimals,
		TotalSupply:       total,
		CirculatingSupply: circulating,
		DexPrice:          in.DexPrice,
		DexReportedMcap:   in.DexReportedMcap,
		ActualMcap:        res.ActualMcap,
		DiscrepancyPct:    res.DiscrepancyPct,
		DataQuality:       res.DataQuality,
		RiskLevel:         res.RiskLevel,
		Sources:           []domain.Source{meta.Source},
		FetchedAt:         fetchedAt,
	}
	if quote == nil {
		record.DataQuality = domain.LevelLow
	} else {
		record.Sources = append(record.Sources, quote.Source)
		record.PairURL = quote.PairURL
	}
	return record, nil
}
