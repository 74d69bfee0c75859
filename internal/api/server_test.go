package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banjocap/internal/domain"
	"banjocap/internal/scanner"
	"banjocap/internal/storage"
)

const testAddr = "0x1234567890123456789012345678901234567890"

type fakeBackend struct {
	mu        sync.Mutex
	record    *domain.TokenRecord
	analyzeFn func(address string) (*domain.TokenRecord, error)
	recs      map[string][]string
	current   *domain.ScanState
	scans     map[string]*domain.ScanState
	running   bool
	startErr  error
	started   []int
	updates   chan *domain.ScanState
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		recs:    map[string][]string{},
		scans:   map[string]*domain.ScanState{},
		updates: make(chan *domain.ScanState, 4),
	}
}

func (f *fakeBackend) Analyze(_ context.Context, address string) (*domain.TokenRecord, error) {
	return f.analyzeFn(address)
}

func (f *fakeBackend) Recommendations(_ context.Context, address string) ([]string, error) {
	if !strings.HasPrefix(address, "0x") {
		return nil, domain.ErrInvalidAddress
	}
	recs, ok := f.recs[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return recs, nil
}

func (f *fakeBackend) StartScan(_ context.Context, limit int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, limit)
	return "scan-1", nil
}

func (f *fakeBackend) CurrentScan() *domain.ScanState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil
	}
	return f.current.Snapshot()
}

func (f *fakeBackend) ScanRunning() bool { return f.running }

func (f *fakeBackend) Scan(_ context.Context, id string) (*domain.ScanState, error) {
	st, ok := f.scans[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return st.Snapshot(), nil
}

func (f *fakeBackend) Subscribe() (<-chan *domain.ScanState, func()) {
	return f.updates, func() {}
}

func (f *fakeBackend) Providers() map[string]string {
	return map[string]string{"Basescan": "closed", "DexScreener": "closed"}
}

func newTestServer(t *testing.T, backend Backend) *httptest.Server {
	t.Helper()
	srv := NewServer(backend, Options{Logger: zerolog.Nop()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func finishedScan(id string) *domain.ScanState {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	st := domain.NewScanState(id, 2, now)
	st.TotalCandidates = 2
	st.AddResult(&domain.TokenRecord{Address: testAddr, Symbol: "BASE", DiscrepancyPct: -55, RiskLevel: domain.LevelHigh})
	st.AddError(domain.ScanError{Symbol: "BAD", Address: testAddr, Reason: "token not found", Kind: domain.KindNotFound})
	st.Finish(now.Add(time.Minute))
	return st
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.current = finishedScan("scan-7")
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	var status StatusResponse
	decode(t, resp, &status)
	assert.Equal(t, "running", status.Status)
	assert.Equal(t, "scan-7", status.CurrentScanID)
	assert.Equal(t, "closed", status.Providers["Basescan"])
}

func TestAnalyze_StatusCodes(t *testing.T) {
	tests := []struct {
		name string
		kind domain.ErrorKind
		want int
	}{
		{"invalid address", domain.KindInvalidAddress, http.StatusBadRequest},
		{"not found", domain.KindNotFound, http.StatusNotFound},
		{"provider error", domain.KindProviderError, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.analyzeFn = func(address string) (*domain.TokenRecord, error) {
				ae := domain.NewAnalysisError(address, fmt.Errorf("boom"))
				ae.Kind = tt.kind
				return nil, ae
			}
			ts := newTestServer(t, backend)

			resp, err := http.Get(ts.URL + "/tokens/" + testAddr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)

			var body ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, string(tt.kind), body.Kind)
			assert.Equal(t, domain.DefaultSuggestions, body.Suggestions)
		})
	}
}

func TestAnalyze_OK(t *testing.T) {
	backend := newFakeBackend()
	backend.analyzeFn = func(address string) (*domain.TokenRecord, error) {
		return &domain.TokenRecord{Address: address, Symbol: "BASE", DiscrepancyPct: -55.0359}, nil
	}
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/tokens/" + testAddr)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rec domain.TokenRecord
	decode(t, resp, &rec)
	assert.Equal(t, testAddr, rec.Address)
	assert.InDelta(t, -55.0359, rec.DiscrepancyPct, 1e-9)
}

func TestRecommendations(t *testing.T) {
	backend := newFakeBackend()
	backend.recs[testAddr] = []string{"High discrepancy detected - verify circulating supply"}
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/tokens/" + testAddr + "/recommendations")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Recommendations []string `json:"recommendations"`
	}
	decode(t, resp, &body)
	assert.Len(t, body.Recommendations, 1)

	resp, err = http.Get(ts.URL + "/tokens/0x0000000000000000000000000000000000000001/recommendations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/tokens/nope/recommendations")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartScan(t *testing.T) {
	backend := newFakeBackend()
	ts := newTestServer(t, backend)

	resp, err := http.Post(ts.URL+"/scans?limit=25", "", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "/scans/scan-1", resp.Header.Get("Location"))
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "scan-1", body["scanId"])
	backend.mu.Lock()
	assert.Equal(t, []int{25}, backend.started)
	backend.mu.Unlock()

	resp, err = http.Post(ts.URL+"/scans?limit=-1", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	backend.mu.Lock()
	backend.startErr = scanner.ErrScanInProgress
	backend.mu.Unlock()
	resp, err = http.Post(ts.URL+"/scans", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetScan(t *testing.T) {
	backend := newFakeBackend()
	backend.scans["scan-1"] = finishedScan("scan-1")
	backend.current = domain.NewScanState("scan-2", 5, time.Now())
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/scans/scan-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body ScanResponse
	decode(t, resp, &body)
	assert.Equal(t, "scan-1", body.ScanID)
	assert.Equal(t, 100.0, body.Progress)
	assert.Equal(t, 4, body.EstimatedCalls)

	// Running scan is served from the scanner, not the store
	resp, err = http.Get(ts.URL + "/scans/scan-2")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/scans/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCurrentScan(t *testing.T) {
	backend := newFakeBackend()
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/scans/current")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	backend.mu.Lock()
	backend.current = finishedScan("scan-9")
	backend.mu.Unlock()

	resp, err = http.Get(ts.URL + "/scans/current")
	require.NoError(t, err)
	var body ScanResponse
	decode(t, resp, &body)
	assert.Equal(t, "scan-9", body.ScanID)
	assert.False(t, body.IsRunning)
}

func TestCurrentScan_UnencodableRecordIsServerError(t *testing.T) {
	backend := newFakeBackend()
	st := finishedScan("scan-nan")
	liquidity := math.NaN()
	st.Results[0].LiquidityUSD = &liquidity
	backend.current = st
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/scans/current")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body ErrorResponse
	decode(t, resp, &body)
	assert.Contains(t, body.Error, "failed to encode response")
}

func TestScanReport(t *testing.T) {
	backend := newFakeBackend()
	backend.scans["scan-1"] = finishedScan("scan-1")
	ts := newTestServer(t, backend)

	resp, err := http.Get(ts.URL + "/scans/scan-1/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")

	resp2, err := http.Get(ts.URL + "/scans/scan-1/report?format=csv")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Contains(t, resp2.Header.Get("Content-Type"), "text/csv")

	resp3, err := http.Get(ts.URL + "/scans/scan-1/report?format=xml")
	require.NoError(t, err)
	resp3.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp3.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, newFakeBackend())

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStream(t *testing.T) {
	backend := newFakeBackend()
	backend.current = domain.NewScanState("scan-1", 3, time.Now())
	ts := newTestServer(t, backend)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/scans/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first ScanResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "scan-1", first.ScanID)
	assert.True(t, first.IsRunning)

	backend.updates <- finishedScan("scan-1")

	var second ScanResponse
	require.NoError(t, conn.ReadJSON(&second))
	assert.False(t, second.IsRunning)
	assert.Equal(t, 2, second.CompletedCount)
}
