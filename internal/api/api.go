package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/ndrandal/stocksim/internal/persist"
	"github.com/ndrandal/stocksim/internal/session"
	"github.com/ndrandal/stocksim/internal/sim"
)

// RunFunc executes one simulation with the named strategy. An empty name
// selects the configured default.
type RunFunc func(ctx context.Context, strategy string) (*sim.Result, error)

// Server provides REST API endpoints for the simulator.
type Server struct {
	reader  persist.RunReader
	run     RunFunc
	mgr     *session.Manager
	running sync.Mutex
	startAt time.Time
}

// NewServer creates a new API server.
func NewServer(reader persist.RunReader, run RunFunc, mgr *session.Manager) *Server {
	return &Server{
		reader:  reader,
		run:     run,
		mgr:     mgr,
		startAt: time.Now(),
	}
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("POST /api/runs", s.handleStartRun)
	mux.HandleFunc("GET /api/runs/{id}", s.handleRunDetail)
	mux.HandleFunc("GET /api/runs/{id}/stocks/{name}", s.handleStockHistory)
	mux.HandleFunc("GET /api/runs/{id}/investor", s.handleInvestor)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /health", s.handleHealth)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
