package engine

import "math"

const (
	InitialPrice    = 10000.0
	InitialMomentum = 10.0

	jumpUpProb     = 0.05 // draw below: +10% jump
	jumpDownProb   = 0.95 // draw above: -20% jump
	jumpUpFactor   = 1.10
	jumpDownFactor = 0.80
	momentumScale  = 0.1
	boundMagnitude = 0.5
)

// Stock is one synthetic instrument: a price driven by a clamped momentum
// random walk with rare multiplicative jumps.
type Stock struct {
	name     string
	rng      Source
	price    float64
	history  []float64
	momentum float64
	upper    float64
	lower    float64

	// drift is the last combined noise+momentum+market term. It is recorded
	// for observers and never feeds back into the price.
	drift float64
}

// NewStock creates a stock at InitialPrice. The momentum bounds are drawn
// once from rng.
func NewStock(name string, rng Source) *Stock {
	bound := math.Max(math.Abs(rng.Float64()-0.5), boundMagnitude)
	return &Stock{
		name:     name,
		rng:      rng,
		price:    InitialPrice,
		history:  []float64{InitialPrice},
		momentum: InitialMomentum,
		upper:    bound,
		lower:    -bound,
	}
}

// Name returns the stock's identifier.
func (s *Stock) Name() string { return s.name }

// Price returns the current price.
func (s *Stock) Price() float64 { return s.price }

// Momentum returns the current momentum.
func (s *Stock) Momentum() float64 { return s.momentum }

// Bounds returns the momentum clamp limits.
func (s *Stock) Bounds() (lower, upper float64) { return s.lower, s.upper }

// Drift returns the drift term computed by the last non-jump step.
func (s *Stock) Drift() float64 { return s.drift }

// History returns the price history, oldest first. The slice is shared and
// must not be modified.
func (s *Stock) History() []float64 { return s.history }

// Len returns the number of recorded prices.
func (s *Stock) Len() int { return len(s.history) }

// Lookback returns history[len-n], the n-th most recent recorded price
// counting the current one as 1. ok is false when fewer than n prices exist.
func (s *Stock) Lookback(n int) (price float64, ok bool) {
	if n <= 0 || n > len(s.history) {
		return 0, false
	}
	return s.history[len(s.history)-n], true
}

// Step advances the stock by one tick and records the resulting price.
func (s *Stock) Step(m *Market) {
	u := s.rng.Float64()
	switch {
	case u < jumpUpProb:
		s.price *= jumpUpFactor
	case u > jumpDownProb:
		s.price *= jumpDownFactor
	default:
		s.momentum += (s.rng.Float64() - 0.5) * momentumScale
		// Both breaches reset to the lower bound.
		if s.momentum > s.upper {
			s.momentum = s.lower
		} else if s.momentum < s.lower {
			s.momentum = s.lower
		}
		s.drift = s.rng.Float64() - 0.5 + s.momentum + m.Momentum()
		s.price += s.momentum * s.price
	}
	s.history = append(s.history, s.price)
}
