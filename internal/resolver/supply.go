// Package resolver turns raw provider responses into supply metadata and price quotes.
//
// Supply comes from an explorer (tokeninfo, then tokensupply). Price comes from the
// highest-liquidity DEX pair. Both resolvers fail with *domain.ProviderError values
// whose Kind drives how callers recover.
package resolver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"banjocap/internal/domain"
	"banjocap/internal/explorer"
)

// MaxDecimals is the largest decimals value an ERC-20 (uint8) can report.
const MaxDecimals = 255

// MetadataSource provides token metadata and raw supply.
type MetadataSource interface {
	Provider() domain.Source
	TokenInfo(ctx context.Context, address string) (*explorer.TokenInfo, error)
	TokenSupply(ctx context.Context, address string) (string, error)
}

// SupplyResolver resolves denominated total supply.
type SupplyResolver struct {
	source MetadataSource
	logger zerolog.Logger
}

// NewSupplyResolver creates a SupplyResolver.
func NewSupplyResolver(source MetadataSource, logger zerolog.Logger) *SupplyResolver {
	return &SupplyResolver{
		source: source,
		logger: logger.With().Str("component", "supply_resolver").Logger(),
	}
}

// Resolve fetches metadata then raw supply for address and denominates the supply.
// address must already be validated.
func (r *SupplyResolver) Resolve(ctx context.Context, address string) (*domain.TokenMetadata, error) {
	info, err := r.source.TokenInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("token info: %w", err)
	}

	if info.Decimals < 0 || info.Decimals > MaxDecimals {
		return nil, r.invalid("tokeninfo", fmt.Sprintf("decimals %d out of range", info.Decimals))
	}

	raw, err := r.source.TokenSupply(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("token supply: %w", err)
	}

	rawSupply, err := parseRawSupply(raw)
	if err != nil {
		return nil, r.invalid("tokensupply", err.Error())
	}

	total := Denominate(rawSupply, info.Decimals)

	r.logger.Debug().
		Str("address", address).
		Str("symbol", info.Symbol).
		Int("decimals", info.Decimals).
		Str("total_supply", total.String()).
		Msg("supply resolved")

	return &domain.TokenMetadata{
		Address:     address,
		Symbol:      info.Symbol,
		Name:        info.Name,
		Decimals:    info.Decimals,
		RawSupply:   rawSupply,
		TotalSupply: total,
		Source:      r.source.Provider(),
	}, nil
}

func (r *SupplyResolver) invalid(op, msg string) error {
	return domain.NewProviderError(r.source.Provider(), domain.KindProviderError, op, msg, nil)
}

// Denominate returns raw / 10^decimals exactly.
func Denominate(raw decimal.Decimal, decimals int) decimal.Decimal {
	return raw.Shift(int32(-decimals))
}

// parseRawSupply parses a non-negative integer supply string.
func parseRawSupply(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid raw supply %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative raw supply %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return decimal.Zero, fmt.Errorf("non-integer raw supply %q", s)
	}
	return d, nil
}
