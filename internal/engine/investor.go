package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const (
	DefaultInvestorName = "investor1"
	DefaultInitialAsset = 10_000_000.0
)

// Order rejection reasons. Rejected orders leave the investor unchanged.
var (
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrNotHeld            = errors.New("stock not held")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// Strategy decides the investor's orders for one tick. Decide may call
// inv.Buy and inv.Sell any number of times.
type Strategy interface {
	Decide(inv *Investor, m *Market)
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(inv *Investor, m *Market)

// Decide calls f(inv, m).
func (f StrategyFunc) Decide(inv *Investor, m *Market) { f(inv, m) }

// Side is the direction of an order.
type Side byte

const (
	SideBuy  Side = 'B'
	SideSell Side = 'S'
)

// MarshalText encodes the side as "buy" or "sell".
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText accepts "buy" and "sell".
func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buy":
		*s = SideBuy
	case "sell":
		*s = SideSell
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is one journal entry: a buy or sell attempt and its outcome.
type Order struct {
	Tick     int     `json:"tick"`
	Stock    string  `json:"stock"`
	Side     Side    `json:"side"`
	Shares   float64 `json:"shares"`
	Price    float64 `json:"price"`
	Accepted bool    `json:"accepted"`
	Reason   string  `json:"reason,omitempty"`
}

// Holding is a position in a single stock.
type Holding struct {
	Stock  *Stock
	Shares float64
}

// Investor holds cash and positions and applies a Strategy once per tick.
type Investor struct {
	name      string
	initial   float64
	cash      float64
	asset     float64
	history   []float64
	positions map[string]*Holding
	order     []string // position keys in first-buy order
	strategy  Strategy
	journal   []Order
	logger    *slog.Logger
}

// NewInvestor creates an investor holding initialAsset in cash. A nil
// strategy never trades.
func NewInvestor(name string, initialAsset float64, strategy Strategy) *Investor {
	if strategy == nil {
		strategy = StrategyFunc(func(*Investor, *Market) {})
	}
	return &Investor{
		name:      name,
		initial:   initialAsset,
		cash:      initialAsset,
		asset:     initialAsset,
		history:   []float64{initialAsset},
		positions: make(map[string]*Holding),
		strategy:  strategy,
		logger:    slog.Default(),
	}
}

// SetLogger replaces the logger used for order diagnostics.
func (inv *Investor) SetLogger(l *slog.Logger) {
	if l != nil {
		inv.logger = l
	}
}

func (inv *Investor) Name() string { return inv.name }

// Cash returns uninvested cash.
func (inv *Investor) Cash() float64 { return inv.cash }

func (inv *Investor) InitialAsset() float64 { return inv.initial }

// Asset returns the valuation computed by the last BuyOrSell.
func (inv *Investor) Asset() float64 { return inv.asset }

// AssetHistory returns the initial asset followed by one valuation per tick.
func (inv *Investor) AssetHistory() []float64 { return inv.history }

// Tick is the number of completed revaluations.
func (inv *Investor) Tick() int { return len(inv.history) - 1 }

// Position returns the shares held in s, or 0 when s was never bought.
func (inv *Investor) Position(s *Stock) float64 {
	if h, ok := inv.positions[s.Name()]; ok {
		return h.Shares
	}
	return 0
}

// Holds reports whether a position entry exists for s, even a zero one.
func (inv *Investor) Holds(s *Stock) bool {
	_, ok := inv.positions[s.Name()]
	return ok
}

// Holdings returns a copy of all position entries in first-buy order.
func (inv *Investor) Holdings() []Holding {
	out := make([]Holding, 0, len(inv.order))
	for _, name := range inv.order {
		out = append(out, *inv.positions[name])
	}
	return out
}

// Orders returns the order journal, oldest first.
func (inv *Investor) Orders() []Order {
	return inv.journal
}

// OrdersSince returns journal entries recorded at or after tick.
func (inv *Investor) OrdersSince(tick int) []Order {
	for i, o := range inv.journal {
		if o.Tick >= tick {
			return inv.journal[i:]
		}
	}
	return nil
}

// Buy purchases amount shares of s at its current price. It fails without
// side effects when cash would go negative.
func (inv *Investor) Buy(s *Stock, amount float64) error {
	price := s.Price()
	if err := validAmount(amount); err != nil {
		return inv.reject(SideBuy, s, amount, price, err)
	}
	cost := price * amount
	if inv.cash-cost < 0 {
		return inv.reject(SideBuy, s, amount, price,
			fmt.Errorf("%w: need %.2f, have %.2f", ErrInsufficientCash, cost, inv.cash))
	}

	h, ok := inv.positions[s.Name()]
	if !ok {
		h = &Holding{Stock: s}
		inv.positions[s.Name()] = h
		inv.order = append(inv.order, s.Name())
	}
	h.Shares += amount
	inv.cash -= cost
	inv.record(SideBuy, s, amount, price, nil)
	return nil
}

// Sell disposes of amount shares of s at its current price. It fails without
// side effects when s is not held or the position is too small.
func (inv *Investor) Sell(s *Stock, amount float64) error {
	price := s.Price()
	if err := validAmount(amount); err != nil {
		return inv.reject(SideSell, s, amount, price, err)
	}
	h, ok := inv.positions[s.Name()]
	if !ok {
		return inv.reject(SideSell, s, amount, price, ErrNotHeld)
	}
	if h.Shares < amount {
		return inv.reject(SideSell, s, amount, price,
			fmt.Errorf("%w: hold %g, want %g", ErrInsufficientShares, h.Shares, amount))
	}

	h.Shares -= amount
	inv.cash += price * amount
	inv.record(SideSell, s, amount, price, nil)
	return nil
}

// BuyOrSell runs the strategy for the current tick, then revalues the
// portfolio and appends the new asset value to the history.
func (inv *Investor) BuyOrSell(m *Market) {
	inv.strategy.Decide(inv, m)
	inv.asset = inv.valuation()
	inv.history = append(inv.history, inv.asset)
}

func (inv *Investor) valuation() float64 {
	total := inv.cash
	for _, name := range inv.order {
		h := inv.positions[name]
		total += h.Shares * h.Stock.Price()
	}
	return total
}

func (inv *Investor) reject(side Side, s *Stock, amount, price float64, err error) error {
	inv.record(side, s, amount, price, err)
	inv.logger.Info("order rejected",
		"investor", inv.name,
		"side", side.String(),
		"stock", s.Name(),
		"shares", amount,
		"price", price,
		"cash", inv.cash,
		"reason", err.Error())
	return fmt.Errorf("%s %s: %w", side, s.Name(), err)
}

func (inv *Investor) record(side Side, s *Stock, amount, price float64, err error) {
	o := Order{
		Tick:     len(inv.history),
		Stock:    s.Name(),
		Side:     side,
		Shares:   amount,
		Price:    price,
		Accepted: err == nil,
	}
	if err != nil {
		o.Reason = err.Error()
	}
	inv.journal = append(inv.journal, o)
}

func validAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	return nil
}
