package engine

// DefaultMarketMomentum is the constant bias every stock sees.
const DefaultMarketMomentum = 0.01

// Market owns the listed stocks for one run.
type Market struct {
	stocks   []*Stock
	byName   map[string]*Stock
	momentum float64
}

// NewMarket lists the given stocks in order.
func NewMarket(stocks []*Stock) *Market {
	byName := make(map[string]*Stock, len(stocks))
	for _, s := range stocks {
		byName[s.Name()] = s
	}
	return &Market{
		stocks:   stocks,
		byName:   byName,
		momentum: DefaultMarketMomentum,
	}
}

// Stocks returns the listed stocks in listing order.
func (m *Market) Stocks() []*Stock {
	return m.stocks
}

// Momentum returns the market-wide bias term.
func (m *Market) Momentum() float64 {
	return m.momentum
}

// Stock looks up a listed stock by name.
func (m *Market) Stock(name string) (*Stock, bool) {
	s, ok := m.byName[name]
	return s, ok
}

// Step advances every listed stock once, in listing order.
func (m *Market) Step() {
	for _, s := range m.stocks {
		s.Step(m)
	}
}

// Prices returns a snapshot of current prices keyed by stock name.
func (m *Market) Prices() map[string]float64 {
	out := make(map[string]float64, len(m.stocks))
	for _, s := range m.stocks {
		out[s.Name()] = s.price
	}
	return out
}
