package persist

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ndrandal/stocksim/internal/sim"
)

// MemoryRuns keeps recorded runs in process. It serves the API when no
// database is configured and implements both RunReader and sim.Exporter.
type MemoryRuns struct {
	mu   sync.RWMutex
	runs map[string]Run
}

func NewMemoryRuns() *MemoryRuns {
	return &MemoryRuns{runs: make(map[string]Run)}
}

// Export implements sim.Exporter.
func (m *MemoryRuns) Export(_ context.Context, r *sim.Result) error {
	run := NewRun(r)
	m.mu.Lock()
	m.runs[run.RunID] = run
	m.mu.Unlock()
	return nil
}

func (m *MemoryRuns) ListRuns(_ context.Context, f RunFilter) ([]RunSummary, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	m.mu.RLock()
	out := []RunSummary{}
	for _, r := range m.runs {
		if f.Strategy == "" || r.Strategy == f.Strategy {
			out = append(out, r.RunSummary)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if f.Offset >= len(out) {
		return []RunSummary{}, nil
	}
	out = out[f.Offset:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryRuns) get(runID string) (Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runs[runID]
	if !ok {
		return Run{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return r, nil
}

func (m *MemoryRuns) GetRun(_ context.Context, runID string) (RunSummary, error) {
	r, err := m.get(runID)
	return r.RunSummary, err
}

func (m *MemoryRuns) StockHistory(_ context.Context, runID, name string) (StockSeries, error) {
	r, err := m.get(runID)
	if err != nil {
		return StockSeries{}, err
	}
	for _, s := range r.Stocks {
		if s.Name == name {
			return s, nil
		}
	}
	return StockSeries{}, fmt.Errorf("%s in run %s: %w", name, runID, ErrStockNotFound)
}

func (m *MemoryRuns) InvestorHistory(_ context.Context, runID string) (InvestorRecord, error) {
	r, err := m.get(runID)
	return r.Investor, err
}

func (m *MemoryRuns) Stats(context.Context) (RunStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st RunStats
	var returns, counted float64
	for _, r := range m.runs {
		if st.TotalRuns == 0 || r.FinalAsset > st.BestAsset {
			st.BestAsset = r.FinalAsset
		}
		if st.TotalRuns == 0 || r.FinalAsset < st.WorstAsset {
			st.WorstAsset = r.FinalAsset
		}
		st.TotalRuns++
		if r.InitialAsset > 0 {
			returns += r.FinalAsset / r.InitialAsset
			counted++
		}
	}
	if counted > 0 {
		st.AvgReturn = returns / counted
	}
	return st, nil
}
