package strategy

import "github.com/ndrandal/stocksim/internal/engine"

// DipBuyer buys a small lot of every stock still trading close to or below
// its listing price.
type DipBuyer struct {
	Threshold float64 // fraction of the initial price
	LotSize   float64
}

func NewDipBuyer() DipBuyer {
	return DipBuyer{Threshold: 1.05, LotSize: 1}
}

func (s DipBuyer) Decide(inv *engine.Investor, m *engine.Market) {
	for _, st := range m.Stocks() {
		if st.Len() == 0 || st.Price() >= st.History()[0]*s.Threshold {
			continue
		}
		if amount := maxAffordable(inv.Cash(), st.Price(), s.LotSize); amount > 0 {
			inv.Buy(st, amount)
		}
	}
}
