package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"banjocap/internal/domain"
	"banjocap/internal/reporting"
	"banjocap/internal/scanner"
	"banjocap/internal/storage"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error       string   `json:"error"`
	Kind        string   `json:"kind,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ScanResponse is a scan snapshot plus derived progress figures.
type ScanResponse struct {
	*domain.ScanState
	Progress       float64 `json:"progress"`
	EstimatedCalls int     `json:"estimatedCalls"`
}

// StatusResponse is returned by /status.
type StatusResponse struct {
	Status        string            `json:"status"`
	Uptime        string            `json:"uptime"`
	ScanRunning   bool              `json:"scanRunning"`
	CurrentScanID string            `json:"currentScanId,omitempty"`
	StreamClients int64             `json:"streamClients"`
	Providers     map[string]string `json:"providers"`
}

func newScanResponse(st *domain.ScanState) ScanResponse {
	return ScanResponse{ScanState: st, Progress: st.Progress(), EstimatedCalls: st.EstimatedCalls()}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).Round(time.Second).String(),
		ScanRunning:   s.backend.ScanRunning(),
		StreamClients: s.streamClients.Load(),
		Providers:     s.backend.Providers(),
	}
	if cur := s.backend.CurrentScan(); cur != nil {
		resp.CurrentScanID = cur.ScanID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	record, err := s.backend.Analyze(ctx, mux.Vars(r)["address"])
	if err != nil {
		var ae *domain.AnalysisError
		if errors.As(err, &ae) {
			writeJSON(w, statusForKind(ae.Kind), ErrorResponse{
				Error:       ae.Message,
				Kind:        string(ae.Kind),
				Suggestions: ae.Suggestions,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	recs, err := s.backend.Recommendations(r.Context(), address)
	switch {
	case errors.Is(err, domain.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, err.Error(), string(domain.KindInvalidAddress))
		return
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "token has not been analysed", string(domain.KindNotFound))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address":         address,
		"recommendations": recs,
	})
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", "")
			return
		}
		limit = n
	}

	id, err := s.backend.StartScan(s.scanCtx, limit)
	switch {
	case errors.Is(err, scanner.ErrScanInProgress):
		writeError(w, http.StatusConflict, err.Error(), "")
		return
	case errors.Is(err, scanner.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	w.Header().Set("Location", "/scans/"+id)
	writeJSON(w, http.StatusAccepted, map[string]string{"scanId": id})
}

func (s *Server) handleCurrentScan(w http.ResponseWriter, r *http.Request) {
	cur := s.backend.CurrentScan()
	if cur == nil {
		writeError(w, http.StatusNotFound, "no scan has been started", "")
		return
	}
	writeJSON(w, http.StatusOK, newScanResponse(cur))
}

func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupScan(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newScanResponse(st))
}

// handleScanReport renders a terminated scan as markdown, or CSV with ?format=csv.
func (s *Server) handleScanReport(w http.ResponseWriter, r *http.Request) {
	st, ok := s.lookupScan(w, r)
	if !ok {
		return
	}

	gen := reporting.NewGenerator()
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "top must be an integer", "")
			return
		}
		gen = gen.WithTopN(n)
	}
	report := gen.ScanReport(st)

	switch r.URL.Query().Get("format") {
	case "", "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(reporting.RenderScanMarkdown(report)))
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte(reporting.RenderCSV(report.Rows)))
	default:
		writeError(w, http.StatusBadRequest, "format must be md or csv", "")
	}
}

func (s *Server) lookupScan(w http.ResponseWriter, r *http.Request) (*domain.ScanState, bool) {
	id := mux.Vars(r)["id"]
	st, err := s.backend.Scan(r.Context(), id)
	if err == nil {
		return st, true
	}
	if errors.Is(err, storage.ErrNotFound) {
		// A running scan is not stored yet.
		if cur := s.backend.CurrentScan(); cur != nil && cur.ScanID == id {
			return cur, true
		}
		writeError(w, http.StatusNotFound, "scan not found", "")
		return nil, false
	}
	writeError(w, http.StatusInternalServerError, err.Error(), "")
	return nil, false
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidAddress:
		return http.StatusBadRequest
	case domain.KindNotFound, domain.KindNoLiquidity:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// writeJSON encodes v before committing the status, so an unencodable value
// becomes a 500 with a JSON error body instead of a truncated 2xx.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "failed to encode response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind})
}
