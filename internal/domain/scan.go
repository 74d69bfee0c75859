package domain

import (
	"math"
	"sort"
	"time"
)

// ScanError records one candidate that failed resolution during a batch scan.
type ScanError struct {
	Symbol  string    `json:"symbol"`
	Address string    `json:"address"`
	Reason  string    `json:"reason"`
	Kind    ErrorKind `json:"kind,omitempty"` // informational, never changes recovery
}

// ScanState is the progress and result set of one batch scan.
// A scan owns its state exclusively; observers only ever see Snapshot copies.
type ScanState struct {
	ScanID          string         `json:"scanId"`
	Limit           int            `json:"limit"`
	IsRunning       bool           `json:"isRunning"`
	TotalCandidates int            `json:"totalCandidates"`
	CompletedCount  int            `json:"completedCount"`
	Results         []*TokenRecord `json:"results"`
	Errors          []ScanError    `json:"errors"`
	Failure         string         `json:"failure,omitempty"` // scan-level DiscoveryFailure
	StartedAt       time.Time      `json:"startedAt"`
	FinishedAt      *time.Time     `json:"finishedAt,omitempty"`

	callsPerCandidate int
}

// NewScanState creates a fresh running state.
func NewScanState(scanID string, limit int, startedAt time.Time) *ScanState {
	return &ScanState{
		ScanID:            scanID,
		Limit:             limit,
		IsRunning:         true,
		Results:           []*TokenRecord{},
		Errors:            []ScanError{},
		StartedAt:         startedAt,
		callsPerCandidate: 2,
	}
}

// WithCallsPerCandidate sets the number of provider calls one candidate costs.
func (s *ScanState) WithCallsPerCandidate(n int) *ScanState {
	s.callsPerCandidate = n
	return s
}

// AddResult appends a resolved record and advances progress.
func (s *ScanState) AddResult(r *TokenRecord) {
	s.Results = append(s.Results, r)
	s.CompletedCount++
}

// AddError appends a candidate failure and advances progress.
func (s *ScanState) AddError(e ScanError) {
	s.Errors = append(s.Errors, e)
	s.CompletedCount++
}

// Finish sorts results by absolute discrepancy (descending, stable) and stops the run.
func (s *ScanState) Finish(at time.Time) {
	SortByDiscrepancy(s.Results)
	s.IsRunning = false
	s.FinishedAt = &at
}

// Fail marks the scan as failed at scan level; no results are kept.
func (s *ScanState) Fail(reason string, at time.Time) {
	s.Failure = reason
	s.Results = []*TokenRecord{}
	s.IsRunning = false
	s.FinishedAt = &at
}

// Progress returns completion in percent (0 when there are no candidates).
func (s *ScanState) Progress() float64 {
	if s.TotalCandidates == 0 {
		return 0
	}
	return float64(s.CompletedCount) / float64(s.TotalCandidates) * 100
}

// EstimatedCalls returns the number of provider calls spent on candidates so far.
func (s *ScanState) EstimatedCalls() int {
	return s.CompletedCount * s.callsPerCandidate
}

// Snapshot returns a deep copy safe to hand to observers.
func (s *ScanState) Snapshot() *ScanState {
	c := *s
	c.Results = make([]*TokenRecord, len(s.Results))
	for i, r := range s.Results {
		c.Results[i] = r.Clone()
	}
	c.Errors = append([]ScanError{}, s.Errors...)
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// SortByDiscrepancy orders records by |DiscrepancyPct| descending, keeping input order on ties.
func SortByDiscrepancy(records []*TokenRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return math.Abs(records[i].DiscrepancyPct) > math.Abs(records[j].DiscrepancyPct)
	})
}
