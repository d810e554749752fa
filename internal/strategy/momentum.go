package strategy

import (
	"math"

	"github.com/ndrandal/stocksim/internal/engine"
)

// Momentum buys the stock with the largest absolute rise over the lookback
// window and liquidates any holding that fell over the same window.
type Momentum struct {
	Window    int
	MaxShares float64
}

// NewMomentum returns the reference policy: a 7 tick window and at most 100
// shares per buy.
func NewMomentum() Momentum {
	return Momentum{Window: 7, MaxShares: 100}
}

func (s Momentum) Decide(inv *engine.Investor, m *engine.Market) {
	var top *engine.Stock
	best := math.Inf(-1)
	for _, st := range m.Stocks() {
		if st.Len() <= s.Window {
			continue
		}
		past, _ := st.Lookback(s.Window)
		if rise := st.Price() - past; rise > best {
			best = rise
			top = st
		}
	}

	if top != nil {
		if amount := maxAffordable(inv.Cash(), top.Price(), s.MaxShares); amount > 0 {
			inv.Buy(top, amount)
		}
	}

	for _, h := range inv.Holdings() {
		st := h.Stock
		if h.Shares == 0 || st.Len() <= s.Window {
			continue
		}
		if past, _ := st.Lookback(s.Window); st.Price() < past {
			inv.Sell(st, h.Shares)
		}
	}
}
