package strategy

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ndrandal/stocksim/internal/engine"
)

const (
	up   = 0.01 // jump +10%
	down = 0.99 // jump -20%
)

type script struct {
	vals []float64
	i    int
}

func (s *script) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// newMarket builds a market whose stocks follow the given per-step jump
// patterns; patterns[i][k] is stock i's draw on step k.
func newMarket(t *testing.T, names []string, patterns [][]float64) *engine.Market {
	t.Helper()
	var draws []float64
	for range names {
		draws = append(draws, 0.3) // bound draw
	}
	for k := range patterns[0] {
		for i := range names {
			draws = append(draws, patterns[i][k])
		}
	}
	src := &script{vals: draws}
	stocks := make([]*engine.Stock, len(names))
	for i, n := range names {
		stocks[i] = engine.NewStock(n, src)
	}
	return engine.NewMarket(stocks)
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func stepN(m *engine.Market, n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

func newInvestor(cash float64, s engine.Strategy) *engine.Investor {
	inv := engine.NewInvestor("test", cash, s)
	inv.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return inv
}

func TestMomentumBuysTopRiser(t *testing.T) {
	m := newMarket(t, []string{"A", "B"}, [][]float64{repeat(down, 7), repeat(up, 7)})
	stepN(m, 7)
	inv := newInvestor(engine.DefaultInitialAsset, NewMomentum())

	NewMomentum().Decide(inv, m)

	b, _ := m.Stock("B")
	if inv.Position(b) != 100 {
		t.Fatalf("B position = %f, want 100", inv.Position(b))
	}
	a, _ := m.Stock("A")
	if inv.Holds(a) {
		t.Fatal("A should not be bought")
	}
}

func TestMomentumNeedsFullWindow(t *testing.T) {
	m := newMarket(t, []string{"A"}, [][]float64{repeat(up, 6)})
	stepN(m, 6) // history length 7, not more than the window
	inv := newInvestor(engine.DefaultInitialAsset, nil)

	NewMomentum().Decide(inv, m)

	if len(inv.Orders()) != 0 {
		t.Fatalf("expected no orders, got %+v", inv.Orders())
	}
}

func TestMomentumTieGoesToFirstListed(t *testing.T) {
	m := newMarket(t, []string{"A", "B"}, [][]float64{repeat(up, 7), repeat(up, 7)})
	stepN(m, 7)
	inv := newInvestor(engine.DefaultInitialAsset, nil)

	NewMomentum().Decide(inv, m)

	a, _ := m.Stock("A")
	b, _ := m.Stock("B")
	if inv.Position(a) != 100 || inv.Holds(b) {
		t.Fatalf("positions A=%f B=%f, want A=100 B=0", inv.Position(a), inv.Position(b))
	}
}

func TestMomentumBuyLimitedByCash(t *testing.T) {
	m := newMarket(t, []string{"A"}, [][]float64{repeat(up, 7)})
	stepN(m, 7)
	a, _ := m.Stock("A")
	inv := newInvestor(a.Price()*2.5, nil)

	NewMomentum().Decide(inv, m)

	if inv.Position(a) != 2 {
		t.Fatalf("position = %f, want 2", inv.Position(a))
	}
}

func TestMomentumSkipsWhenUnaffordable(t *testing.T) {
	m := newMarket(t, []string{"A"}, [][]float64{repeat(up, 7)})
	stepN(m, 7)
	inv := newInvestor(100, nil)

	NewMomentum().Decide(inv, m)

	if len(inv.Orders()) != 0 {
		t.Fatalf("expected no orders, got %+v", inv.Orders())
	}
}

func TestMomentumLiquidatesFallingHolding(t *testing.T) {
	m := newMarket(t, []string{"A", "B"}, [][]float64{repeat(down, 7), repeat(up, 7)})
	a, _ := m.Stock("A")
	inv := newInvestor(engine.DefaultInitialAsset, nil)
	if err := inv.Buy(a, 30); err != nil {
		t.Fatalf("buy: %v", err)
	}
	stepN(m, 7)

	NewMomentum().Decide(inv, m)

	if inv.Position(a) != 0 {
		t.Fatalf("A position = %f, want full liquidation", inv.Position(a))
	}
	var sells int
	for _, o := range inv.Orders() {
		if o.Side == engine.SideSell && o.Accepted {
			sells++
			if o.Shares != 30 {
				t.Fatalf("sold %f shares, want 30", o.Shares)
			}
		}
	}
	if sells != 1 {
		t.Fatalf("sell orders = %d, want 1", sells)
	}
}

func TestMomentumKeepsRisingHolding(t *testing.T) {
	m := newMarket(t, []string{"A"}, [][]float64{repeat(up, 7)})
	a, _ := m.Stock("A")
	inv := newInvestor(engine.DefaultInitialAsset, nil)
	if err := inv.Buy(a, 5); err != nil {
		t.Fatalf("buy: %v", err)
	}
	stepN(m, 7)

	NewMomentum().Decide(inv, m)

	if inv.Position(a) != 105 {
		t.Fatalf("A position = %f, want 105", inv.Position(a))
	}
}

func TestMomentumLookbackIsSeventhFromEnd(t *testing.T) {
	// Momentum compares against history[len-7], counting the current price.
	pattern := append(repeat(down, 1), repeat(up, 7)...)
	m := newMarket(t, []string{"A"}, [][]float64{pattern})
	stepN(m, 8) // history: 10000, 8000, 8800, ...
	a, _ := m.Stock("A")
	past, _ := a.Lookback(7)
	if past != a.History()[2] {
		t.Fatalf("lookback = %f, want history[2] = %f", past, a.History()[2])
	}
}

func TestHoldNeverTrades(t *testing.T) {
	m := newMarket(t, []string{"A"}, [][]float64{repeat(up, 10)})
	inv := newInvestor(engine.DefaultInitialAsset, Hold{})
	for i := 0; i < 10; i++ {
		m.Step()
		inv.BuyOrSell(m)
	}
	if len(inv.Orders()) != 0 || inv.Cash() != engine.DefaultInitialAsset {
		t.Fatal("hold strategy traded")
	}
}

func TestDipBuyerBuysBelowThreshold(t *testing.T) {
	m := newMarket(t, []string{"A", "B"}, [][]float64{{down}, {up}})
	m.Step() // A 8000, B 11000
	inv := newInvestor(engine.DefaultInitialAsset, nil)

	NewDipBuyer().Decide(inv, m)

	a, _ := m.Stock("A")
	b, _ := m.Stock("B")
	if inv.Position(a) != 1 {
		t.Fatalf("A position = %f, want 1", inv.Position(a))
	}
	if inv.Holds(b) {
		t.Fatal("B trades above the threshold and should not be bought")
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		s, err := ByName(name)
		if err != nil || s == nil {
			t.Fatalf("ByName(%q) = %v, %v", name, s, err)
		}
	}
	if _, err := ByName("martingale"); !errors.Is(err, ErrUnknown) {
		t.Fatalf("unknown strategy: got %v, want ErrUnknown", err)
	}
	if len(Names()) != 3 {
		t.Fatalf("Names() = %v, want 3 entries", Names())
	}
}

func TestMaxAffordable(t *testing.T) {
	cases := []struct {
		cash, price, limit, want float64
	}{
		{1e7, 10000, 100, 100},
		{25000, 10000, 100, 2},
		{9999, 10000, 100, 0},
		{1e7, 0, 100, 0},
		{1e7, -5, 100, 0},
		{1, 0.1, 100, 9},
		{0.3, 0.1, 100, 2},
		{0, 10000, 100, 0},
	}
	for _, c := range cases {
		if got := maxAffordable(c.cash, c.price, c.limit); got != c.want {
			t.Fatalf("maxAffordable(%v, %v, %v) = %v, want %v", c.cash, c.price, c.limit, got, c.want)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct {
		a, b, want float64
	}{
		{7, 2, 3},
		{1, 0.1, 9},
		{-7, 2, -4},
		{7, -2, -4},
		{6, 3, 2},
	}
	for _, c := range cases {
		if got := floorDiv(c.a, c.b); got != c.want {
			t.Fatalf("floorDiv(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
