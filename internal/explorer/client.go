// Package explorer is a client for Etherscan-family block explorer APIs (Basescan by default).
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"banjocap/internal/domain"
	"banjocap/internal/transport"
)

// DefaultBaseURL is the Basescan API root.
const DefaultBaseURL = "https://api.basescan.org"

// Client fetches token metadata and supply from an explorer.
type Client struct {
	http   *transport.Client
	apiKey string
}

// NewClient creates an explorer client. apiKey is passed through opaquely.
func NewClient(baseURL, apiKey string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:   transport.New(domain.SourceBasescan, baseURL, opts...),
		apiKey: apiKey,
	}
}

// Provider returns the provider name recorded in TokenRecord.Sources.
func (c *Client) Provider() domain.Source {
	return c.http.Provider()
}

// BreakerState returns the circuit breaker state of the underlying transport.
func (c *Client) BreakerState() gobreaker.State {
	return c.http.BreakerState()
}

// TokenInfo is the metadata returned by the tokeninfo action.
type TokenInfo struct {
	Symbol   string
	Name     string
	Decimals int
}

// envelope is the common explorer response shape.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type tokenInfoResult struct {
	Symbol    string
	Name      string
	TokenName string
	Decimals  string
	Divisor   string // Basescan reports decimals as "divisor"
}

// UnmarshalJSON accepts decimals as either a string or a number.
func (r *tokenInfoResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Symbol    string          `json:"symbol"`
		Name      string          `json:"name"`
		TokenName string          `json:"tokenName"`
		Decimals  json.RawMessage `json:"decimals"`
		Divisor   json.RawMessage `json:"divisor"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Symbol, r.Name, r.TokenName = raw.Symbol, raw.Name, raw.TokenName
	r.Decimals = rawString(raw.Decimals)
	r.Divisor = rawString(raw.Divisor)
	return nil
}

func rawString(m json.RawMessage) string {
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(m))
}

// TokenInfo fetches symbol, name and decimals for address.
func (c *Client) TokenInfo(ctx context.Context, address string) (*TokenInfo, error) {
	const op = "tokeninfo"

	env, err := c.call(ctx, op, "token", address)
	if err != nil {
		return nil, err
	}

	var results []tokenInfoResult
	if err := json.Unmarshal(env.Result, &results); err != nil {
		return nil, c.providerError(domain.KindProviderError, op, "malformed tokeninfo result", err)
	}
	if len(results) == 0 {
		return nil, c.providerError(domain.KindNotFound, op, "no token found for address", nil)
	}

	r := results[0]
	name := r.Name
	if name == "" {
		name = r.TokenName
	}
	decimalsStr := r.Decimals
	if decimalsStr == "" {
		decimalsStr = r.Divisor
	}
	if decimalsStr == "" || decimalsStr == "null" {
		return nil, c.providerError(domain.KindProviderError, op, "tokeninfo result has no decimals", nil)
	}
	decimals, err := strconv.Atoi(decimalsStr)
	if err != nil {
		return nil, c.providerError(domain.KindProviderError, op, fmt.Sprintf("invalid decimals %q", decimalsStr), err)
	}

	return &TokenInfo{Symbol: r.Symbol, Name: name, Decimals: decimals}, nil
}

// TokenSupply fetches the raw integer total supply for address.
func (c *Client) TokenSupply(ctx context.Context, address string) (string, error) {
	const op = "tokensupply"

	env, err := c.call(ctx, op, "stats", address)
	if err != nil {
		return "", err
	}

	var supply string
	if err := json.Unmarshal(env.Result, &supply); err != nil {
		return "", c.providerError(domain.KindProviderError, op, "malformed tokensupply result", err)
	}
	supply = strings.TrimSpace(supply)
	if supply == "" {
		return "", c.providerError(domain.KindProviderError, op, "empty tokensupply result", nil)
	}
	return supply, nil
}

// call performs one explorer action and checks the status flag.
func (c *Client) call(ctx context.Context, action, module, address string) (*envelope, error) {
	q := url.Values{}
	q.Set("module", module)
	q.Set("action", action)
	q.Set("contractaddress", address)
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}

	var env envelope
	if err := c.http.GetJSON(ctx, action, "/api", q, &env); err != nil {
		return nil, err
	}

	if env.Status != "1" {
		detail := strings.TrimSpace(env.Message)
		if msg := rawString(env.Result); msg != "" && msg != "[]" && msg != "null" {
			detail = strings.TrimSpace(detail + ": " + msg)
		}
		if detail == "" {
			detail = "non-success status"
		}
		kind := domain.KindProviderError
		if isNotFound(detail) {
			kind = domain.KindNotFound
		}
		return nil, c.providerError(kind, action, fmt.Sprintf("status %q: %s", env.Status, detail), nil)
	}
	return &env, nil
}

func (c *Client) providerError(kind domain.ErrorKind, op, msg string, cause error) error {
	return domain.NewProviderError(c.Provider(), kind, op, msg, cause)
}

func isNotFound(detail string) bool {
	d := strings.ToLower(detail)
	return strings.Contains(d, "no data found") ||
		strings.Contains(d, "not found") ||
		strings.Contains(d, "no token found")
}
