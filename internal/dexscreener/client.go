// Package dexscreener is a client for the DexScreener pair API.
package dexscreener

import (
	"context"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"banjocap/internal/domain"
	"banjocap/internal/transport"
)

// DefaultBaseURL is the public DexScreener API root.
const DefaultBaseURL = "https://api.dexscreener.com"

// Token identifies one side of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Liquidity is the pair's pooled value.
type Liquidity struct {
	USD transport.Number `json:"usd"`
}

// Volume is the pair's traded volume.
type Volume struct {
	H24 transport.Number `json:"h24"`
}

// PriceChange is the pair's price movement in percent.
type PriceChange struct {
	H24 transport.Number `json:"h24"`
}

// Pair is one trading pair as reported by DexScreener.
type Pair struct {
	ChainID     string           `json:"chainId"`
	DexID       string           `json:"dexId"`
	URL         string           `json:"url"`
	PairAddress string           `json:"pairAddress"`
	BaseToken   Token            `json:"baseToken"`
	QuoteToken  Token            `json:"quoteToken"`
	PriceUSD    transport.Number `json:"priceUsd"`
	MarketCap   transport.Number `json:"marketCap"`
	FDV         transport.Number `json:"fdv"`
	Liquidity   Liquidity        `json:"liquidity"`
	Volume      Volume           `json:"volume"`
	PriceChange PriceChange      `json:"priceChange"`
}

type pairsResponse struct {
	SchemaVersion string `json:"schemaVersion"`
	Pairs         []Pair `json:"pairs"`
}

// Client queries DexScreener.
type Client struct {
	http *transport.Client
}

// NewClient creates a DexScreener client.
func NewClient(baseURL string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: transport.New(domain.SourceDexScreener, baseURL, opts...)}
}

// Provider returns the provider name recorded in TokenRecord.Sources.
func (c *Client) Provider() domain.Source {
	return c.http.Provider()
}

// BreakerState returns the circuit breaker state of the underlying transport.
func (c *Client) BreakerState() gobreaker.State {
	return c.http.BreakerState()
}

// Search runs a free-text pair search.
func (c *Client) Search(ctx context.Context, query string) ([]Pair, error) {
	var resp pairsResponse
	q := url.Values{"q": {query}}
	if err := c.http.GetJSON(ctx, "search", "/latest/dex/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// TokenPairs returns every pair known for the token address. A token without
// pairs yields an empty slice and no error.
func (c *Client) TokenPairs(ctx context.Context, address string) ([]Pair, error) {
	var resp pairsResponse
	path := "/latest/dex/tokens/" + url.PathEscape(strings.TrimSpace(address))
	if err := c.http.GetJSON(ctx, "tokens", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}
