package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/ndrandal/stocksim/internal/persist"
	"github.com/ndrandal/stocksim/internal/strategy"
)

// readError maps lookup failures to 404 and everything else to 500.
func readError(w http.ResponseWriter, err error) {
	if errors.Is(err, persist.ErrRunNotFound) || errors.Is(err, persist.ErrStockNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// handleRuns returns stored runs newest first.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runs, err := s.reader.ListRuns(ctx, persist.RunFilter{
		Strategy: r.URL.Query().Get("strategy"),
		Limit:    parseIntParam(r, "limit", 100),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	run, err := s.reader.GetRun(ctx, r.PathValue("id"))
	if err != nil {
		readError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleStockHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	series, err := s.reader.StockHistory(ctx, r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		readError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleInvestor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv, err := s.reader.InvestorHistory(ctx, r.PathValue("id"))
	if err != nil {
		readError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// handleStartRun executes a simulation synchronously and returns its
// summary. Only one run executes at a time.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if !s.running.TryLock() {
		writeError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	defer s.running.Unlock()

	name := r.URL.Query().Get("strategy")
	// exporters finish even if the client goes away
	res, err := s.run(context.WithoutCancel(r.Context()), name)
	if errors.Is(err, strategy.ErrUnknown) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		log.Printf("api: run failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, persist.NewRun(res).RunSummary)
}

type statsResponse struct {
	Uptime     string  `json:"uptime"`
	Clients    int     `json:"clients"`
	Listed     int     `json:"listed"`
	TotalRuns  int64   `json:"totalRuns"`
	AvgReturn  float64 `json:"avgReturn"`
	BestAsset  float64 `json:"bestAsset"`
	WorstAsset float64 `json:"worstAsset"`
}

// handleStats returns runtime and aggregate statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st, err := s.reader.Stats(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Uptime:     time.Since(s.startAt).Truncate(time.Second).String(),
		Clients:    s.mgr.ClientCount(),
		Listed:     len(s.mgr.Listed()),
		TotalRuns:  st.TotalRuns,
		AvgReturn:  st.AvgReturn,
		BestAsset:  st.BestAsset,
		WorstAsset: st.WorstAsset,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
