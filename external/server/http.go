package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/airwavelab/contestwatch/internal/repository"
	"github.com/airwavelab/contestwatch/internal/session"
	"github.com/airwavelab/contestwatch/internal/station"
)

const recentMatchesLimit = 50

// HTTPServer exposes the control and observation surface: session
// management, recent matches, the live event feed and Prometheus
// metrics.
type HTTPServer struct {
	server  *http.Server
	manager *session.Manager
	repo    repository.Repository
	hub     *Hub
}

func NewHTTPServer(addr string, manager *session.Manager, repo repository.Repository, hub *Hub) *HTTPServer {
	h := &HTTPServer{
		manager: manager,
		repo:    repo,
		hub:     hub,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /stations", h.handleStations)
	mux.HandleFunc("POST /monitor/start", h.handleMonitorStart)
	mux.HandleFunc("POST /monitor/stop", h.handleMonitorStop)
	mux.HandleFunc("PUT /monitor/max-concurrent", h.handleMaxConcurrent)
	mux.HandleFunc("POST /stations/{id}/start", h.handleStationStart)
	mux.HandleFunc("DELETE /stations/{id}", h.handleStationStop)
	mux.HandleFunc("GET /matches/recent", h.handleRecentMatches)
	mux.HandleFunc("GET /runs/{id}/transcripts", h.handleRunTranscripts)
	mux.HandleFunc("GET /ws", h.hub.handleWS)
	mux.Handle("GET /metrics", promhttp.Handler())

	h.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return h
}

func (h *HTTPServer) Start() {
	slog.Info("http server listening", "addr", h.server.Addr)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "error", err)
		}
	}()
}

func (h *HTTPServer) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"active_sessions": h.manager.ActiveSessionCount(),
	})
}

func (h *HTTPServer) handleStations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Statuses())
}

func (h *HTTPServer) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	started, err := h.manager.StartMonitoring(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"started": started})
}

func (h *HTTPServer) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	h.manager.StopAll()
	writeJSON(w, http.StatusAccepted, map[string]any{"stopping": true})
}

func (h *HTTPServer) handleMaxConcurrent(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxConcurrent int `json:"max_concurrent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.manager.SetMaxConcurrent(body.MaxConcurrent); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"max_concurrent": body.MaxConcurrent})
}

func (h *HTTPServer) handleStationStart(w http.ResponseWriter, r *http.Request) {
	stationID := r.PathValue("id")

	var body struct {
		DisplayName string `json:"display_name"`
		StreamURL   string `json:"stream_url"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	err := h.manager.StartStation(station.Station{
		ID:          stationID,
		DisplayName: body.DisplayName,
		StreamURL:   body.StreamURL,
	})
	switch {
	case errors.Is(err, session.ErrTooManySessions):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, session.ErrAlreadyRunning):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusCreated, map[string]any{"station_id": stationID})
	}
}

func (h *HTTPServer) handleStationStop(w http.ResponseWriter, r *http.Request) {
	stationID := r.PathValue("id")
	if err := h.manager.StopStation(stationID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"station_id": stationID})
}

func (h *HTTPServer) handleRecentMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.repo.ListRecentContestMatches(r.Context(), recentMatchesLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if matches == nil {
		matches = []repository.ContestMatch{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (h *HTTPServer) handleRunTranscripts(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	transcripts, err := h.repo.ListTranscriptsByRunID(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if transcripts == nil {
		transcripts = []repository.Transcript{}
	}
	writeJSON(w, http.StatusOK, transcripts)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
