package reporting

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"banjocap/internal/discrepancy"
	"banjocap/internal/domain"
)

var fixedNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func record(symbol string, pct float64, risk domain.Level) *domain.TokenRecord {
	vol := 120000.0
	return &domain.TokenRecord{
		Address:         fmt.Sprintf("0x%040d", len(symbol)),
		Symbol:          symbol,
		Name:            symbol + " Token",
		DexReportedMcap: 125_000_000,
		ActualMcap:      278_000_000,
		DiscrepancyPct:  pct,
		DexPrice:        2.78,
		Volume24hUSD:    &vol,
		RiskLevel:       risk,
		DataQuality:     domain.LevelHigh,
	}
}

func finishedScan(results int, errs int) *domain.ScanState {
	st := domain.NewScanState("scan-1", results+errs, fixedNow.Add(-time.Minute))
	st.TotalCandidates = results + errs
	for i := 0; i < results; i++ {
		st.AddResult(record(fmt.Sprintf("T%d", i), float64(i), domain.LevelLow))
	}
	for i := 0; i < errs; i++ {
		st.AddError(domain.ScanError{Symbol: fmt.Sprintf("E%d", i), Reason: "token not found"})
	}
	st.Finish(fixedNow)
	return st
}

func TestScanReport_TopNAndRanking(t *testing.T) {
	st := finishedScan(25, 0)

	r := NewGenerator().WithClock(func() time.Time { return fixedNow }).ScanReport(st)

	if len(r.Rows) != DefaultTopN {
		t.Fatalf("Expected %d rows, got %d", DefaultTopN, len(r.Rows))
	}
	if r.Rows[0].Symbol != "T24" {
		t.Errorf("Expected largest discrepancy first, got %s", r.Rows[0].Symbol)
	}
	if r.Rows[0].Position != 1 || r.Rows[19].Position != 20 {
		t.Errorf("Unexpected positions %d..%d", r.Rows[0].Position, r.Rows[19].Position)
	}
	if r.Summary.Results != 25 {
		t.Errorf("Expected summary over all 25 results, got %d", r.Summary.Results)
	}
	if r.Status != "completed" {
		t.Errorf("Expected completed, got %s", r.Status)
	}
	if !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("Expected injected clock, got %v", r.GeneratedAt)
	}
}

func TestScanReport_CapsErrors(t *testing.T) {
	st := finishedScan(1, 8)

	r := NewGenerator().ScanReport(st)

	if len(r.Errors) != DefaultMaxErrors {
		t.Fatalf("Expected %d error lines, got %d", DefaultMaxErrors, len(r.Errors))
	}
	if r.HiddenErrors != 3 {
		t.Errorf("Expected 3 hidden errors, got %d", r.HiddenErrors)
	}
	if r.Errors[0] != "E0: token not found" {
		t.Errorf("Unexpected error line %q", r.Errors[0])
	}

	md := RenderScanMarkdown(r)
	if !strings.Contains(md, "... and 3 more errors") {
		t.Error("Expected collapsed error count in markdown")
	}
}

func TestScanReport_DoesNotMutateInput(t *testing.T) {
	st := domain.NewScanState("scan-2", 3, fixedNow)
	st.TotalCandidates = 3
	st.AddResult(record("LOW", 1, domain.LevelLow))
	st.AddResult(record("HIGH", -40, domain.LevelHigh))

	r := NewGenerator().ScanReport(st)

	if r.Status != "running" {
		t.Errorf("Expected running, got %s", r.Status)
	}
	if r.Rows[0].Symbol != "HIGH" {
		t.Errorf("Expected report rows ranked, got %s first", r.Rows[0].Symbol)
	}
	if st.Results[0].Symbol != "LOW" {
		t.Error("Input state must keep its order")
	}
	if r.Summary.HighRisk != 1 || r.Summary.LowRisk != 1 {
		t.Errorf("Unexpected risk counts %+v", r.Summary)
	}
	if r.Summary.MaxAbsDiscrepancy != 40 {
		t.Errorf("Expected max 40, got %f", r.Summary.MaxAbsDiscrepancy)
	}
}

func TestScanReport_Failed(t *testing.T) {
	st := domain.NewScanState("scan-3", 10, fixedNow)
	st.Fail("discovery query failed: search \"base\": boom", fixedNow)

	r := NewGenerator().ScanReport(st)
	if r.Status != "failed" {
		t.Fatalf("Expected failed, got %s", r.Status)
	}

	md := RenderScanMarkdown(r)
	if !strings.Contains(md, "**Scan failed:**") {
		t.Error("Expected failure line")
	}
	if !strings.Contains(md, "No results available.") {
		t.Error("Expected empty results message")
	}
}

func TestRenderScanMarkdown_Rows(t *testing.T) {
	st := finishedScan(0, 0)
	st.Results = []*domain.TokenRecord{record("BASE", -55.0359, domain.LevelHigh)}

	md := RenderScanMarkdown(NewGenerator().ScanReport(st))

	expected := "| 1 | BASE | $125.00M | $278.00M | -55.0% | $2.780000 | $120.00K | high |"
	if !strings.Contains(md, expected) {
		t.Errorf("Expected row %q in:\n%s", expected, md)
	}
}

func TestRenderCSV(t *testing.T) {
	rows := []ResultRow{{
		Position:        1,
		Symbol:          "A,B",
		Address:         "0x1234567890123456789012345678901234567890",
		DexReportedMcap: 100,
		ActualMcap:      200,
		DiscrepancyPct:  -50,
		DexPrice:        0.5,
		RiskLevel:       domain.LevelHigh,
		DataQuality:     domain.LevelLow,
	}}

	csv := RenderCSV(rows)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "position,symbol,address") {
		t.Errorf("Unexpected header %q", lines[0])
	}
	want := `1,"A,B",0x1234567890123456789012345678901234567890,100.00,200.00,-50.0000,0.5000000000,0.00,0.00,high,low`
	if lines[1] != want {
		t.Errorf("Expected %q, got %q", want, lines[1])
	}
}

func TestAnalysisReport(t *testing.T) {
	rec := record("BASE", -55.0359, domain.LevelHigh)
	rec.TotalSupply = 100_000_000
	rec.CirculatingSupply = 100_000_000
	rec.Sources = []domain.Source{domain.SourceBasescan, domain.SourceDexScreener}

	r := NewGenerator().AnalysisReport(rec)
	if r.CirculationPct != 100 {
		t.Errorf("Expected 100%% circulation, got %f", r.CirculationPct)
	}
	if len(r.Recommendations) != 2 || r.Recommendations[0] != discrepancy.AdviceHighDiscrepancy {
		t.Errorf("Unexpected recommendations %v", r.Recommendations)
	}

	md := RenderAnalysisMarkdown(r)
	for _, want := range []string{"# BASE Token (BASE)", "| Discrepancy | -55.0% |", "- Basescan", discrepancy.AdviceLimitedSources} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected %q in markdown", want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5_200_000_000, "5.20B"},
		{125_000_000, "125.00M"},
		{1_000_000, "1.00M"},
		{999_999, "1000.00K"},
		{1_500, "1.50K"},
		{12.5, "12.50"},
		{0, "0.00"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(12.34); got != "+12.3%" {
		t.Errorf("got %q", got)
	}
	if got := FormatPercent(-6.7); got != "-6.7%" {
		t.Errorf("got %q", got)
	}
	if got := FormatPercent(0); got != "0.0%" {
		t.Errorf("got %q", got)
	}
}

func TestCapErrors(t *testing.T) {
	lines := []string{"a", "b", "c"}
	kept, hidden := CapErrors(lines, 5)
	if len(kept) != 3 || hidden != 0 {
		t.Errorf("Expected all kept, got %d/%d", len(kept), hidden)
	}
	kept, hidden = CapErrors(lines, 2)
	if len(kept) != 2 || hidden != 1 {
		t.Errorf("Expected 2 kept 1 hidden, got %d/%d", len(kept), hidden)
	}
}
