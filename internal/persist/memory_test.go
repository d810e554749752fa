package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/sim"
)

func storedRun(t *testing.T, m *MemoryRuns, id uint64, started time.Time, strat string, final float64) {
	t.Helper()
	rng := engine.NewRNG(int64(id))
	market := engine.NewMarket([]*engine.Stock{engine.NewStock("A", rng)})
	inv := engine.NewInvestor("investor1", 100, nil)
	res := &sim.Result{
		ID:        id,
		Config:    sim.Config{Strategy: strat},
		Market:    market,
		Investor:  inv,
		StartedAt: started,
	}
	if err := m.Export(context.Background(), res); err != nil {
		t.Fatal(err)
	}
	// override the final asset for stats
	m.mu.Lock()
	r := m.runs[res.RunID()]
	r.FinalAsset = final
	m.runs[res.RunID()] = r
	m.mu.Unlock()
}

func TestMemoryRunsListNewestFirst(t *testing.T) {
	m := NewMemoryRuns()
	base := time.Now()
	storedRun(t, m, 1, base, "hold", 100)
	storedRun(t, m, 2, base.Add(time.Minute), "momentum", 150)
	storedRun(t, m, 3, base.Add(2*time.Minute), "hold", 50)

	runs, err := m.ListRuns(context.Background(), RunFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 {
		t.Fatalf("runs = %d, want 3", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) || !runs[1].StartedAt.After(runs[2].StartedAt) {
		t.Fatal("runs not sorted newest first")
	}

	hold, _ := m.ListRuns(context.Background(), RunFilter{Strategy: "hold"})
	if len(hold) != 2 {
		t.Fatalf("hold runs = %d, want 2", len(hold))
	}
	page, _ := m.ListRuns(context.Background(), RunFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].RunID != runs[1].RunID {
		t.Fatalf("page = %+v", page)
	}
	empty, _ := m.ListRuns(context.Background(), RunFilter{Offset: 10})
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil page, got %v", empty)
	}
}

func TestMemoryRunsLookups(t *testing.T) {
	m := NewMemoryRuns()
	storedRun(t, m, 7, time.Now(), "hold", 100)
	id := (&sim.Result{ID: 7}).RunID()

	if _, err := m.GetRun(context.Background(), id); err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if _, err := m.GetRun(context.Background(), "nope"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	s, err := m.StockHistory(context.Background(), id, "A")
	if err != nil || s.Name != "A" || len(s.History) != 1 {
		t.Fatalf("StockHistory = %+v, %v", s, err)
	}
	if _, err := m.StockHistory(context.Background(), id, "B"); !errors.Is(err, ErrStockNotFound) {
		t.Fatalf("expected ErrStockNotFound, got %v", err)
	}
	inv, err := m.InvestorHistory(context.Background(), id)
	if err != nil || inv.Name != "investor1" {
		t.Fatalf("InvestorHistory = %+v, %v", inv, err)
	}
}

func TestMemoryRunsStats(t *testing.T) {
	m := NewMemoryRuns()
	st, _ := m.Stats(context.Background())
	if st.TotalRuns != 0 {
		t.Fatalf("empty stats = %+v", st)
	}
	storedRun(t, m, 1, time.Now(), "hold", 150)
	storedRun(t, m, 2, time.Now(), "hold", 50)
	st, _ = m.Stats(context.Background())
	if st.TotalRuns != 2 || st.BestAsset != 150 || st.WorstAsset != 50 || st.AvgReturn != 1 {
		t.Fatalf("stats = %+v", st)
	}
}
