// Package scanner runs batch scans: one discovery query, then the supply/price
// flow for every candidate in turn, publishing a ScanState snapshot after each.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"banjocap/internal/analyzer"
	"banjocap/internal/domain"
	"banjocap/internal/observability"
	"banjocap/internal/resolver"
)

// Scanner errors.
var (
	// ErrScanInProgress is returned when a scan is started while another runs.
	ErrScanInProgress = errors.New("scan already in progress")

	// ErrScanCancelled is the reason recorded for candidates skipped by cancellation.
	ErrScanCancelled = errors.New("scan cancelled")

	// ErrInvalidLimit is returned for a non-positive candidate limit.
	ErrInvalidLimit = errors.New("limit must be positive")
)

// CandidateSource runs the discovery query.
type CandidateSource interface {
	Discover(ctx context.Context, limit int) ([]domain.Candidate, error)
}

// Options configures a Scanner.
type Options struct {
	// RefreshPrice resolves each candidate's price through the price resolver
	// instead of reusing its discovery pair. NoLiquidity then fails the candidate.
	RefreshPrice bool

	// OnComplete, if set, receives the final snapshot of every terminated scan.
	// It runs before the scanner accepts a new scan.
	OnComplete func(*domain.ScanState)

	Logger zerolog.Logger
	Now    func() time.Time // default time.Now
	NewID  func() string    // default uuid.NewString
}

// Scanner owns the state of at most one running scan. Safe for concurrent use.
type Scanner struct {
	discovery CandidateSource
	supply    analyzer.SupplyResolver
	price     analyzer.PriceResolver
	opts      Options
	logger    zerolog.Logger

	mu      sync.Mutex
	running bool
	state   *domain.ScanState // current or last scan
	subs    map[int]chan *domain.ScanState
	nextSub int
}

// New creates a Scanner. price is only used when Options.RefreshPrice is set.
func New(discovery CandidateSource, supply analyzer.SupplyResolver, price analyzer.PriceResolver, opts Options) *Scanner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Scanner{
		discovery: discovery,
		supply:    supply,
		price:     price,
		opts:      opts,
		logger:    opts.Logger.With().Str("component", "scanner").Logger(),
		subs:      make(map[int]chan *domain.ScanState),
	}
}

// Start begins a scan in the background and returns its id.
// ctx bounds the whole scan, so it must outlive the caller's request.
func (s *Scanner) Start(ctx context.Context, limit int) (string, error) {
	state, err := s.begin(limit)
	if err != nil {
		return "", err
	}
	go func() {
		if _, err := s.run(ctx, state); err != nil {
			s.logger.Error().Err(err).Str("scan_id", state.ScanID).Msg("scan failed")
		}
	}()
	return state.ScanID, nil
}

// Run performs a scan synchronously and returns its final snapshot.
// Only a discovery failure (or a scan already running) is returned as an error;
// per-candidate failures are recorded in the state.
func (s *Scanner) Run(ctx context.Context, limit int) (*domain.ScanState, error) {
	state, err := s.begin(limit)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, state)
}

// State returns a snapshot of the current or last scan, or nil if none ran yet.
func (s *Scanner) State() *domain.ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil
	}
	return s.state.Snapshot()
}

// Running reports whether a scan is in flight.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Subscribe returns a channel of snapshots and a cancel func that closes it.
// The channel holds only the latest snapshot: a slow reader skips intermediate
// ones but always sees the newest, including the final one.
func (s *Scanner) Subscribe() (<-chan *domain.ScanState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan *domain.ScanState, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// begin reserves the scanner for a new scan.
func (s *Scanner) begin(limit int) (*domain.ScanState, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, ErrScanInProgress
	}
	s.running = true

	calls := 2
	if s.opts.RefreshPrice {
		calls = 3
	}
	state := domain.NewScanState(s.opts.NewID(), limit, s.opts.Now()).WithCallsPerCandidate(calls)
	s.state = state
	s.publishLocked()
	return state, nil
}

func (s *Scanner) run(ctx context.Context, state *domain.ScanState) (*domain.ScanState, error) {
	logger := s.logger.With().Str("scan_id", state.ScanID).Logger()
	start := time.Now()

	candidates, err := s.discovery.Discover(ctx, state.Limit)
	if err != nil {
		if !errors.Is(err, domain.ErrDiscoveryFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrDiscoveryFailure, err)
		}
		final := s.finish(func(st *domain.ScanState) {
			st.Fail(err.Error(), s.opts.Now())
		}, "discovery_failure", start)
		return final, err
	}

	s.update(func(st *domain.ScanState) {
		st.TotalCandidates = len(candidates)
	})
	observability.RecordScanStarted(len(candidates))
	logger.Info().Int("candidates", len(candidates)).Int("limit", state.Limit).Msg("scan started")

	for i, c := range candidates {
		if ctx.Err() != nil {
			s.skipRemaining(candidates[i:])
			break
		}

		rec, err := s.resolve(ctx, c)
		snap := s.update(func(st *domain.ScanState) {
			if err != nil {
				st.AddError(domain.ScanError{
					Symbol:  c.Symbol,
					Address: c.Address,
					Reason:  err.Error(),
					Kind:    domain.KindOf(err),
				})
				return
			}
			st.AddResult(rec)
		})
		observability.UpdateScanProgress(snap.CompletedCount, len(snap.Errors))

		if err != nil {
			logger.Debug().Str("symbol", c.Symbol).Err(err).Msg("candidate failed")
		}
	}

	status := "success"
	if ctx.Err() != nil {
		status = "cancelled"
	}
	final := s.finish(func(st *domain.ScanState) {
		st.Finish(s.opts.Now())
	}, status, start)

	logger.Info().
		Int("results", len(final.Results)).
		Int("errors", len(final.Errors)).
		Dur("duration", time.Since(start)).
		Msg("scan finished")

	return final, nil
}

// resolve runs supply then price for one candidate and builds its record.
func (s *Scanner) resolve(ctx context.Context, c domain.Candidate) (*domain.TokenRecord, error) {
	meta, err := s.supply.Resolve(ctx, c.Address)
	if err != nil {
		return nil, err
	}

	var quote *domain.PriceQuote
	if s.opts.RefreshPrice {
		quote, err = s.price.Resolve(ctx, c.Address)
		if err != nil {
			return nil, err
		}
	} else {
		q := c.Quote()
		if err := resolver.ValidateQuote(q); err != nil {
			return nil, err
		}
		quote = &q
	}

	rec, err := analyzer.BuildRecord(meta, quote, s.opts.Now())
	if err != nil {
		return nil, err
	}
	if rec.Symbol == "" {
		rec.Symbol = c.Symbol
	}
	if rec.Name == "" {
		rec.Name = c.Name
	}
	rec.Rank = c.Rank
	liquidity := resolver.FiniteOrZero(quote.LiquidityUSD)
	volume := resolver.FiniteOrZero(quote.Volume24hUSD)
	change := resolver.FiniteOrZero(quote.PriceChange24hPct)
	rec.LiquidityUSD = &liquidity
	rec.Volume24hUSD = &volume
	rec.PriceChange24hPct = &change
	return rec, nil
}

// skipRemaining records every unprocessed candidate as cancelled so the
// results and errors still account for all candidates.
func (s *Scanner) skipRemaining(rest []domain.Candidate) {
	for _, c := range rest {
		s.update(func(st *domain.ScanState) {
			st.AddError(domain.ScanError{
				Symbol:  c.Symbol,
				Address: c.Address,
				Reason:  ErrScanCancelled.Error(),
			})
		})
	}
}

// update mutates the current state under the lock and publishes a snapshot.
func (s *Scanner) update(fn func(*domain.ScanState)) *domain.ScanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
	return s.publishLocked()
}

// finish terminates the scan with fn and hands the final state to OnComplete.
// The terminal state is installed together with the release of the scanner, so
// no observer sees a finished scan while a new one would still be rejected.
func (s *Scanner) finish(fn func(*domain.ScanState), status string, start time.Time) *domain.ScanState {
	s.mu.Lock()
	final := s.state.Snapshot()
	s.mu.Unlock()
	fn(final)

	var finishedUnix int64
	if final.FinishedAt != nil {
		finishedUnix = final.FinishedAt.Unix()
	}
	observability.RecordScanFinished(status, len(final.Results), time.Since(start).Seconds(), finishedUnix)

	if s.opts.OnComplete != nil {
		s.opts.OnComplete(final.Snapshot())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = final
	s.running = false
	return s.publishLocked()
}

// publishLocked sends a snapshot to every subscriber, replacing any unread one.
// Caller holds s.mu.
func (s *Scanner) publishLocked() *domain.ScanState {
	snap := s.state.Snapshot()
	for _, ch := range s.subs {
		select {
		case ch <- snap.Snapshot():
			continue
		default:
		}
		// Drop the stale snapshot, then deliver the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Snapshot():
		default:
		}
	}
	return snap
}
