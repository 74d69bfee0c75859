// Package service wires providers, resolvers, the analyzer and the scanner into
// the single facade used by the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"banjocap/internal/analyzer"
	"banjocap/internal/config"
	"banjocap/internal/dexscreener"
	"banjocap/internal/discovery"
	"banjocap/internal/discrepancy"
	"banjocap/internal/domain"
	"banjocap/internal/evm"
	"banjocap/internal/explorer"
	"banjocap/internal/ratelimit"
	"banjocap/internal/resolver"
	"banjocap/internal/scanner"
	"banjocap/internal/storage"
	"banjocap/internal/storage/memory"
	"banjocap/internal/transport"
)

// Options configures a Service. Zero values fall back to in-memory stores and
// the default HTTP client.
type Options struct {
	Logger     zerolog.Logger
	HTTPClient *http.Client

	Records storage.TokenRecordStore
	Scans   storage.ScanStore
}

// Service is the consumer-facing entry point. Safe for concurrent use.
type Service struct {
	cfg    *config.Config
	logger zerolog.Logger

	limiter  *ratelimit.Limiter
	explorer *explorer.Client
	dex      *dexscreener.Client

	analyzer *analyzer.Analyzer
	scanner  *scanner.Scanner

	records storage.TokenRecordStore
	scans   storage.ScanStore
}

// New builds a Service from cfg.
func New(cfg *config.Config, opts Options) *Service {
	if opts.Records == nil {
		opts.Records = memory.NewTokenRecordStore()
	}
	if opts.Scans == nil {
		opts.Scans = memory.NewScanStore()
	}

	s := &Service{
		cfg:     cfg,
		logger:  opts.Logger.With().Str("component", "service").Logger(),
		records: opts.Records,
		scans:   opts.Scans,
	}

	s.limiter = ratelimit.New(ratelimit.Options{
		Intervals: map[string]time.Duration{
			ratelimit.SourceExplorer:    cfg.Explorer.Interval,
			ratelimit.SourceDexScreener: cfg.DexScreener.Interval,
		},
	})

	s.explorer = explorer.NewClient(cfg.Explorer.BaseURL, cfg.Explorer.APIKey,
		s.transportOptions(opts, ratelimit.SourceExplorer)...)
	s.dex = dexscreener.NewClient(cfg.DexScreener.BaseURL,
		s.transportOptions(opts, ratelimit.SourceDexScreener)...)

	supply := resolver.NewSupplyResolver(s.explorer, opts.Logger)
	price := resolver.NewPriceResolver(s.dex, cfg.Discovery.ChainID, opts.Logger)

	s.analyzer = analyzer.New(supply, price, analyzer.Options{Logger: opts.Logger})

	discoverer := discovery.NewDiscoverer(s.dex, discovery.Options{
		Query:        cfg.Discovery.Query,
		ChainID:      cfg.Discovery.ChainID,
		MinMarketCap: cfg.Discovery.MinMarketCap,
		Logger:       opts.Logger,
	})
	s.scanner = scanner.New(discoverer, supply, price, scanner.Options{
		RefreshPrice: cfg.Scan.RefreshPrice,
		OnComplete:   s.saveScan,
		Logger:       opts.Logger,
	})

	return s
}

func (s *Service) transportOptions(opts Options, key string) []transport.Option {
	out := []transport.Option{
		transport.WithTimeout(s.cfg.HTTP.Timeout),
		transport.WithMaxRetries(s.cfg.HTTP.MaxRetries),
		transport.WithRateLimiter(s.limiter, key),
		transport.WithLogger(opts.Logger),
	}
	if s.cfg.HTTP.RetryDelay > 0 {
		out = append(out, transport.WithRetryDelay(s.cfg.HTTP.RetryDelay))
	}
	if s.cfg.HTTP.BreakerFailures > 0 && s.cfg.HTTP.BreakerOpenDuration > 0 {
		out = append(out, transport.WithBreaker(s.cfg.HTTP.BreakerFailures, s.cfg.HTTP.BreakerOpenDuration))
	}
	if opts.HTTPClient != nil {
		out = append(out, transport.WithHTTPClient(opts.HTTPClient))
	}
	return out
}

// Config returns the configuration the service was built with.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Analyze runs a single-token analysis and keeps the record for later lookups.
// Failures are *domain.AnalysisError.
func (s *Service) Analyze(ctx context.Context, address string) (*domain.TokenRecord, error) {
	record, err := s.analyzer.Analyze(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := s.records.Put(ctx, record); err != nil {
		s.logger.Warn().Err(err).Str("address", record.Address).Msg("failed to store record")
	}
	return record, nil
}

// StartScan starts a background scan. limit <= 0 uses the configured default.
// ctx bounds the scan and must outlive any request that triggered it.
func (s *Service) StartScan(ctx context.Context, limit int) (string, error) {
	return s.scanner.Start(ctx, s.limit(limit))
}

// RunScan runs a scan to completion.
func (s *Service) RunScan(ctx context.Context, limit int) (*domain.ScanState, error) {
	return s.scanner.Run(ctx, s.limit(limit))
}

func (s *Service) limit(n int) int {
	if n <= 0 {
		return s.cfg.Scan.DefaultLimit
	}
	return n
}

// Subscribe streams scan snapshots. Call cancel to stop receiving.
func (s *Service) Subscribe() (<-chan *domain.ScanState, func()) {
	return s.scanner.Subscribe()
}

// CurrentScan returns a snapshot of the running or last scan, or nil.
func (s *Service) CurrentScan() *domain.ScanState {
	return s.scanner.State()
}

// ScanRunning reports whether a scan is in progress.
func (s *Service) ScanRunning() bool {
	return s.scanner.Running()
}

// Scan returns a terminated scan by id.
func (s *Service) Scan(ctx context.Context, scanID string) (*domain.ScanState, error) {
	return s.scans.GetByID(ctx, scanID)
}

// Scans returns every terminated scan, newest first.
func (s *Service) Scans(ctx context.Context) ([]*domain.ScanState, error) {
	return s.scans.List(ctx)
}

// Record returns the last stored record for address.
func (s *Service) Record(ctx context.Context, address string) (*domain.TokenRecord, error) {
	normalized, err := evm.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return s.records.Get(ctx, normalized)
}

// Recommendations returns advice for a previously analysed or scanned token.
func (s *Service) Recommendations(ctx context.Context, address string) ([]string, error) {
	record, err := s.Record(ctx, address)
	if err != nil {
		return nil, err
	}
	return Recommend(record), nil
}

// Recommend returns advice for record.
func Recommend(record *domain.TokenRecord) []string {
	return discrepancy.Recommend(record)
}

// saveScan stores a terminated scan and makes each result selectable.
func (s *Service) saveScan(state *domain.ScanState) {
	ctx := context.Background()
	if err := s.scans.Insert(ctx, state); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Warn().Err(err).Str("scan_id", state.ScanID).Msg("failed to store scan")
	}
	for _, r := range state.Results {
		record := r.Clone()
		record.Recommendations = discrepancy.Recommend(record)
		if err := s.records.Put(ctx, record); err != nil {
			s.logger.Warn().Err(err).Str("address", record.Address).Msg("failed to store scan result")
		}
	}
}

// Providers reports the circuit breaker state per provider.
func (s *Service) Providers() map[string]string {
	return map[string]string{
		s.explorer.Provider().String(): s.explorer.BreakerState().String(),
		s.dex.Provider().String():      s.dex.BreakerState().String(),
	}
}
