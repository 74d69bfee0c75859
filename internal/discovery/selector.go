// Package discovery turns a DEX search result into the ranked candidate list of a batch scan.
package discovery

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"banjocap/internal/dexscreener"
	"banjocap/internal/domain"
	"banjocap/internal/evm"
)

// DefaultMinMarketCap excludes noise from discovery results.
const DefaultMinMarketCap = 1_000_000.0

// Criteria controls candidate selection.
type Criteria struct {
	ChainID      string  // empty accepts every chain
	MinMarketCap float64 // inclusive floor on reported market cap
	Limit        int     // <= 0 means no limit
}

// Select filters, de-duplicates, sorts and truncates discovery pairs.
//
// Pairs are kept when they are on the target chain, report a market cap at or
// above the floor and carry a valid base-token address. Survivors are sorted by
// reported market cap descending (stable), duplicates of a base token after the
// first are dropped, and the top Limit are returned with 1-based ranks.
func Select(pairs []dexscreener.Pair, c Criteria) []domain.Candidate {
	kept := make([]domain.Candidate, 0, len(pairs))
	for _, p := range pairs {
		if c.ChainID != "" && !strings.EqualFold(p.ChainID, c.ChainID) {
			continue
		}
		mcap := p.MarketCap.Float()
		if !p.MarketCap.Valid || math.IsNaN(mcap) || math.IsInf(mcap, 0) || mcap < c.MinMarketCap {
			continue
		}
		addr, err := evm.NormalizeAddress(p.BaseToken.Address)
		if err != nil {
			continue
		}
		kept = append(kept, domain.Candidate{
			Address:           addr,
			Symbol:            p.BaseToken.Symbol,
			Name:              p.BaseToken.Name,
			ChainID:           p.ChainID,
			PriceUSD:          p.PriceUSD.Float(),
			ReportedMcapUSD:   mcap,
			LiquidityUSD:      p.Liquidity.USD.Float(),
			Volume24hUSD:      p.Volume.H24.Float(),
			PriceChange24hPct: p.PriceChange.H24.Float(),
			PairURL:           p.URL,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].ReportedMcapUSD > kept[j].ReportedMcapUSD
	})

	seen := make(map[string]bool, len(kept))
	out := make([]domain.Candidate, 0, len(kept))
	for _, cand := range kept {
		if seen[cand.Address] {
			continue
		}
		seen[cand.Address] = true
		out = append(out, cand)
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}

	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Searcher runs a free-text pair search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]dexscreener.Pair, error)
}

// Discoverer runs the discovery query and selects candidates.
type Discoverer struct {
	searcher Searcher
	query    string
	criteria Criteria
	logger   zerolog.Logger
}

// Options configures a Discoverer.
type Options struct {
	Query        string // default "base"
	ChainID      string
	MinMarketCap float64 // default DefaultMinMarketCap
	Logger       zerolog.Logger
}

// NewDiscoverer creates a Discoverer.
func NewDiscoverer(searcher Searcher, opts Options) *Discoverer {
	if opts.Query == "" {
		opts.Query = "base"
	}
	if opts.MinMarketCap <= 0 {
		opts.MinMarketCap = DefaultMinMarketCap
	}
	return &Discoverer{
		searcher: searcher,
		query:    opts.Query,
		criteria: Criteria{ChainID: opts.ChainID, MinMarketCap: opts.MinMarketCap},
		logger:   opts.Logger.With().Str("component", "discovery").Logger(),
	}
}

// Discover runs the query once and returns up to limit candidates.
// Any search failure wraps domain.ErrDiscoveryFailure.
func (d *Discoverer) Discover(ctx context.Context, limit int) ([]domain.Candidate, error) {
	pairs, err := d.searcher.Search(ctx, d.query)
	if err != nil {
		return nil, fmt.Errorf("%w: search %q: %w", domain.ErrDiscoveryFailure, d.query, err)
	}

	criteria := d.criteria
	criteria.Limit = limit
	candidates := Select(pairs, criteria)

	d.logger.Info().
		Str("query", d.query).
		Int("pairs", len(pairs)).
		Int("candidates", len(candidates)).
		Int("limit", limit).
		Msg("discovery complete")

	return candidates, nil
}
