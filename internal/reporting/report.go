package reporting

import (
	"time"

	"banjocap/internal/domain"
)

// ScanReport is the renderable summary of one scan.
type ScanReport struct {
	// Metadata
	GeneratedAt time.Time
	ScanID      string
	Status      string // running, completed, failed
	StartedAt   time.Time
	FinishedAt  *time.Time

	// Progress
	TotalCandidates int
	CompletedCount  int
	ProgressPct     float64
	EstimatedCalls  int

	// Scan-level failure reason (discovery), empty on success
	Failure string

	Summary ScanSummary

	// Top results, ranked by absolute discrepancy
	Rows []ResultRow

	// First MaxErrors error lines plus the count left out
	Errors       []string
	HiddenErrors int
}

// ScanSummary aggregates the full result set, not only the rendered rows.
type ScanSummary struct {
	Results            int
	Errors             int
	HighRisk           int
	MediumRisk         int
	LowRisk            int
	MeanAbsDiscrepancy float64
	MaxAbsDiscrepancy  float64
}

// ResultRow represents one row in the scan results table.
type ResultRow struct {
	Position        int // 1-based position after ranking by discrepancy
	Symbol          string
	Name            string
	Address         string
	DexReportedMcap float64
	ActualMcap      float64
	DiscrepancyPct  float64
	DexPrice        float64
	Volume24hUSD    float64
	LiquidityUSD    float64
	RiskLevel       domain.Level
	DataQuality     domain.Level
	PairURL         string
}

// AnalysisReport is the renderable view of a single-token analysis.
type AnalysisReport struct {
	GeneratedAt     time.Time
	Record          *domain.TokenRecord
	CirculationPct  float64
	Recommendations []string
}
