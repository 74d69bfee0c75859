package reporting

import (
	"fmt"
	"math"
	"time"

	"banjocap/internal/discrepancy"
	"banjocap/internal/domain"
)

// Defaults for Generator.
const (
	DefaultTopN      = 20
	DefaultMaxErrors = 5
)

// Generator builds reports from scan states and token records.
type Generator struct {
	topN      int
	maxErrors int
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		topN:      DefaultTopN,
		maxErrors: DefaultMaxErrors,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// WithTopN sets how many results are rendered. n <= 0 renders all.
func (g *Generator) WithTopN(n int) *Generator {
	g.topN = n
	return g
}

// WithMaxErrors sets how many error lines are listed before collapsing the rest.
func (g *Generator) WithMaxErrors(n int) *Generator {
	g.maxErrors = n
	return g
}

// ScanReport builds a report from a scan snapshot. The input is not modified.
func (g *Generator) ScanReport(state *domain.ScanState) *ScanReport {
	s := state.Snapshot()
	// Running snapshots are not sorted yet.
	domain.SortByDiscrepancy(s.Results)

	r := &ScanReport{
		GeneratedAt:     g.now(),
		ScanID:          s.ScanID,
		Status:          scanStatus(s),
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		TotalCandidates: s.TotalCandidates,
		CompletedCount:  s.CompletedCount,
		ProgressPct:     s.Progress(),
		EstimatedCalls:  s.EstimatedCalls(),
		Failure:         s.Failure,
		Summary:         summarize(s),
	}

	results := s.Results
	if g.topN > 0 && len(results) > g.topN {
		results = results[:g.topN]
	}
	r.Rows = make([]ResultRow, 0, len(results))
	for i, rec := range results {
		r.Rows = append(r.Rows, resultRow(i+1, rec))
	}

	lines := make([]string, 0, len(s.Errors))
	for _, e := range s.Errors {
		lines = append(lines, errorLine(e))
	}
	r.Errors, r.HiddenErrors = CapErrors(lines, g.maxErrors)

	return r
}

// AnalysisReport builds the report for a single analysed token.
func (g *Generator) AnalysisReport(record *domain.TokenRecord) *AnalysisReport {
	rec := record.Clone()
	recs := rec.Recommendations
	if recs == nil {
		recs = discrepancy.Recommend(rec)
	}
	var circulation float64
	if rec.TotalSupply > 0 {
		circulation = rec.CirculatingSupply / rec.TotalSupply * 100
	}
	return &AnalysisReport{
		GeneratedAt:     g.now(),
		Record:          rec,
		CirculationPct:  circulation,
		Recommendations: recs,
	}
}

// CapErrors returns at most max lines and the number left out. max <= 0 keeps all.
func CapErrors(lines []string, max int) ([]string, int) {
	if max <= 0 || len(lines) <= max {
		return lines, 0
	}
	return lines[:max], len(lines) - max
}

func scanStatus(s *domain.ScanState) string {
	switch {
	case s.IsRunning:
		return "running"
	case s.Failure != "":
		return "failed"
	default:
		return "completed"
	}
}

func summarize(s *domain.ScanState) ScanSummary {
	sum := ScanSummary{Results: len(s.Results), Errors: len(s.Errors)}
	var total float64
	for _, rec := range s.Results {
		abs := math.Abs(rec.DiscrepancyPct)
		total += abs
		if abs > sum.MaxAbsDiscrepancy {
			sum.MaxAbsDiscrepancy = abs
		}
		switch rec.RiskLevel {
		case domain.LevelHigh:
			sum.HighRisk++
		case domain.LevelMedium:
			sum.MediumRisk++
		case domain.LevelLow:
			sum.LowRisk++
		}
	}
	if len(s.Results) > 0 {
		sum.MeanAbsDiscrepancy = total / float64(len(s.Results))
	}
	return sum
}

func resultRow(pos int, rec *domain.TokenRecord) ResultRow {
	return ResultRow{
		Position:        pos,
		Symbol:          rec.Symbol,
		Name:            rec.Name,
		Address:         rec.Address,
		DexReportedMcap: rec.DexReportedMcap,
		ActualMcap:      rec.ActualMcap,
		DiscrepancyPct:  rec.DiscrepancyPct,
		DexPrice:        rec.DexPrice,
		Volume24hUSD:    deref(rec.Volume24hUSD),
		LiquidityUSD:    deref(rec.LiquidityUSD),
		RiskLevel:       rec.RiskLevel,
		DataQuality:     rec.DataQuality,
		PairURL:         rec.PairURL,
	}
}

func errorLine(e domain.ScanError) string {
	if e.Symbol == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Symbol, e.Reason)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
