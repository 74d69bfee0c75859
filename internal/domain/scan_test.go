package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortByDiscrepancy_StableOnTies(t *testing.T) {
	records := []*TokenRecord{
		{Symbol: "A", DiscrepancyPct: 3},
		{Symbol: "B", DiscrepancyPct: -20},
		{Symbol: "C", DiscrepancyPct: 20},
		{Symbol: "D", DiscrepancyPct: -3},
		{Symbol: "E", DiscrepancyPct: 55},
	}

	SortByDiscrepancy(records)

	var got []string
	for _, r := range records {
		got = append(got, r.Symbol)
	}
	assert.Equal(t, []string{"E", "B", "C", "A", "D"}, got)
}

func TestScanState_Accounting(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewScanState("scan-1", 3, start)
	s.TotalCandidates = 3

	s.AddResult(&TokenRecord{Symbol: "A", DiscrepancyPct: 1})
	s.AddError(ScanError{Symbol: "B", Address: "0xb", Reason: "boom"})
	s.AddResult(&TokenRecord{Symbol: "C", DiscrepancyPct: -40})

	assert.Equal(t, 3, s.CompletedCount)
	assert.Equal(t, len(s.Results)+len(s.Errors), s.TotalCandidates)
	assert.InDelta(t, 100.0, s.Progress(), 1e-9)
	assert.Equal(t, 6, s.EstimatedCalls())

	s.Finish(start.Add(time.Minute))
	assert.False(t, s.IsRunning)
	require.NotNil(t, s.FinishedAt)
	assert.Equal(t, "C", s.Results[0].Symbol)
}

func TestScanState_Fail(t *testing.T) {
	s := NewScanState("scan-1", 10, time.Now())
	s.AddResult(&TokenRecord{Symbol: "A"})

	s.Fail("discovery query failed", time.Now())

	assert.False(t, s.IsRunning)
	assert.Empty(t, s.Results)
	assert.Equal(t, "discovery query failed", s.Failure)
}

func TestScanState_SnapshotIsDeepCopy(t *testing.T) {
	s := NewScanState("scan-1", 2, time.Now())
	liq := 1000.0
	s.AddResult(&TokenRecord{Symbol: "A", Sources: []Source{SourceBasescan}, LiquidityUSD: &liq})

	snap := s.Snapshot()
	snap.Results[0].Symbol = "mutated"
	snap.Results[0].Sources[0] = "other"
	*snap.Results[0].LiquidityUSD = 1

	assert.Equal(t, "A", s.Results[0].Symbol)
	assert.Equal(t, SourceBasescan, s.Results[0].Sources[0])
	assert.Equal(t, 1000.0, *s.Results[0].LiquidityUSD)

	s.AddError(ScanError{Symbol: "B"})
	assert.Empty(t, snap.Errors)
}

func TestScanState_ProgressNoCandidates(t *testing.T) {
	s := NewScanState("scan-1", 5, time.Now())
	assert.Equal(t, 0.0, s.Progress())
}
