// Package strategy holds the investor policies a simulation can run.
package strategy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ndrandal/stocksim/internal/engine"
)

const (
	NameMomentum = "momentum"
	NameHold     = "hold"
	NameDip      = "dip"
)

// ErrUnknown is returned by ByName for unregistered names.
var ErrUnknown = errors.New("unknown strategy")

var registry = map[string]func() engine.Strategy{
	NameMomentum: func() engine.Strategy { return NewMomentum() },
	NameHold:     func() engine.Strategy { return Hold{} },
	NameDip:      func() engine.Strategy { return NewDipBuyer() },
}

// ByName returns a fresh instance of the named strategy.
func ByName(name string) (engine.Strategy, error) {
	mk, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (have %v)", ErrUnknown, name, Names())
	}
	return mk(), nil
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Hold never trades.
type Hold struct{}

func (Hold) Decide(*engine.Investor, *engine.Market) {}

// maxAffordable returns cash floor-divided by price, capped at limit, or 0
// when the price is not positive.
func maxAffordable(cash, price, limit float64) float64 {
	if price <= 0 {
		return 0
	}
	n := floorDiv(cash, price)
	if n > limit {
		return limit
	}
	return n
}

// floorDiv divides the way float floor division does: it subtracts the
// remainder first, so cash=1, price=0.1 gives 9 rather than floor(10.0).
func floorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 && (b < 0) != (mod < 0) {
		div -= 1
	}
	if div == 0 {
		return 0
	}
	q := math.Floor(div)
	if div-q > 0.5 {
		q++
	}
	return q
}
