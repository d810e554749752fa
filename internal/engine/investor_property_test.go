package engine

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"pgregory.net/rapid"
)

// Property: cash never goes negative and no position goes below zero, and a
// rejected order leaves cash and positions untouched.
func TestProperty_OrdersPreserveBookkeeping(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Int64Range(1, 1<<40).Draw(t, "seed")
		initial := rapid.Float64Range(0, 2e7).Draw(t, "initial")
		nStocks := rapid.IntRange(1, 4).Draw(t, "stocks")
		nOps := rapid.IntRange(1, 60).Draw(t, "ops")

		rng := NewRNG(seed)
		stocks := make([]*Stock, nStocks)
		for i := range stocks {
			stocks[i] = NewStock(fmt.Sprintf("S%d", i), rng)
		}
		m := NewMarket(stocks)
		inv := NewInvestor("prop", initial, nil)
		inv.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

		for i := 0; i < nOps; i++ {
			if rapid.Bool().Draw(t, "step") {
				m.Step()
			}
			s := stocks[rapid.IntRange(0, nStocks-1).Draw(t, "stock")]
			amount := float64(rapid.IntRange(0, 1500).Draw(t, "amount"))

			cashBefore, posBefore, heldBefore := inv.Cash(), inv.Position(s), inv.Holds(s)

			var err error
			buy := rapid.Bool().Draw(t, "buy")
			if buy {
				err = inv.Buy(s, amount)
			} else {
				err = inv.Sell(s, amount)
			}

			if err != nil {
				if inv.Cash() != cashBefore || inv.Position(s) != posBefore || inv.Holds(s) != heldBefore {
					t.Fatalf("rejected order changed state: %v", err)
				}
			} else {
				want := cashBefore - s.Price()*amount
				if !buy {
					want = cashBefore + s.Price()*amount
				}
				if inv.Cash() != want {
					t.Fatalf("cash = %f, want %f", inv.Cash(), want)
				}
			}

			if inv.Cash() < 0 {
				t.Fatalf("cash went negative: %f", inv.Cash())
			}
			for _, h := range inv.Holdings() {
				if h.Shares < 0 {
					t.Fatalf("position in %s went negative: %f", h.Stock.Name(), h.Shares)
				}
			}
		}
	})
}

// Property: BuyOrSell appends exactly one valuation per call.
func TestProperty_AssetHistoryOnePerTick(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ticks := rapid.IntRange(0, 200).Draw(t, "ticks")
		m := NewMarket([]*Stock{NewStock("S", NewRNG(3))})
		inv := NewInvestor("prop", DefaultInitialAsset, nil)
		for i := 0; i < ticks; i++ {
			m.Step()
			inv.BuyOrSell(m)
		}
		if len(inv.AssetHistory()) != ticks+1 {
			t.Fatalf("asset history length = %d, want %d", len(inv.AssetHistory()), ticks+1)
		}
	})
}
