package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/phuslu/log"

	"github.com/dyike/tickerview/internal/analysis"
	"github.com/dyike/tickerview/internal/models"
	"github.com/dyike/tickerview/internal/page"
)

// Routes returns the server's handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("POST /analyze", s.throttle(http.HandlerFunc(s.handleAnalyzeForm)))
	mux.Handle("POST /api/analyze", s.throttle(http.HandlerFunc(s.handleAnalyzeAPI)))
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return withRequestLog(mux)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, err := s.bind()
	if err != nil {
		log.Error().Err(err).Msg("bind page")
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	writePage(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyzeForm serves the no-script flow: the form posts the ticker and
// gets back the whole page with every region rendered.
func (s *Server) handleAnalyzeForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	view, err := s.bind()
	if err != nil {
		log.Error().Err(err).Msg("bind page")
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}

	ctrl := analysis.NewController(s.analyzer, view)
	res, err := ctrl.Run(context.WithoutCancel(r.Context()), r.FormValue("ticker"))
	if err != nil {
		view.SetText(page.SlotNotice, err.Error())
		writePage(w, http.StatusBadRequest, view)
		return
	}

	w.Header().Set("X-Analysis-Outcome", res.Outcome.String())
	writePage(w, http.StatusOK, view)
}

// AnalyzeRequest is the JSON body accepted by /api/analyze and /ws.
type AnalyzeRequest struct {
	Ticker string `json:"ticker"`
}

// AnalyzeResponse carries the rendered regions after a run.
type AnalyzeResponse struct {
	Ticker  string               `json:"ticker,omitempty"`
	Outcome string               `json:"outcome,omitempty"`
	Error   string               `json:"error,omitempty"`
	Loading bool                 `json:"loading"`
	Regions map[page.Slot]string `json:"regions,omitempty"`
}

func (s *Server) handleAnalyzeAPI(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AnalyzeResponse{Error: "invalid JSON body"})
		return
	}

	view, err := s.bind()
	if err != nil {
		log.Error().Err(err).Msg("bind page")
		writeJSON(w, http.StatusInternalServerError, AnalyzeResponse{Error: "page unavailable"})
		return
	}

	res, err := analysis.NewController(s.analyzer, view).Run(context.WithoutCancel(r.Context()), req.Ticker)
	if err != nil {
		status := http.StatusInternalServerError
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, AnalyzeResponse{Error: err.Error()})
		return
	}

	snap := view.Snapshot()
	out := AnalyzeResponse{
		Ticker:  res.Ticker,
		Outcome: res.Outcome.String(),
		Loading: snap.Loading,
		Regions: snap.Regions,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}

func writePage(w http.ResponseWriter, status int, view *page.View) {
	html, err := view.HTML()
	if err != nil {
		log.Error().Err(err).Msg("render page")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(html))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}
