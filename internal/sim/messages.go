package sim

import (
	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/wire"
)

// OpeningMessages describes the run before the first tick: the run header,
// the stock directory, opening prices and the opening asset.
func OpeningMessages(r *Result) []wire.Message {
	stocks := r.Market.Stocks()
	msgs := make([]wire.Message, 0, 2*len(stocks)+2)
	msgs = append(msgs, wire.Message{
		Type:      wire.MsgRunStart,
		Locate:    wire.RunLocate,
		RunID:     r.ID,
		Steps:     uint32(r.Config.Steps),
		Companies: uint32(len(stocks)),
	})
	for i, s := range stocks {
		msgs = append(msgs, wire.Message{
			Type:   wire.MsgStockDirectory,
			Locate: uint16(i + 1),
			Stock:  s.Name(),
		})
	}
	return append(msgs, snapshot(r, 0)...)
}

// TickMessages returns prices, the orders placed during tick and the asset
// valuation at the end of it.
func TickMessages(r *Result, tick int) []wire.Message {
	msgs := snapshot(r, tick)
	orders := ordersAt(r.Investor, tick)
	if len(orders) == 0 {
		return msgs
	}
	locates := make(map[string]uint16, len(r.Market.Stocks()))
	for i, s := range r.Market.Stocks() {
		locates[s.Name()] = uint16(i + 1)
	}
	// Orders go before the closing asset message.
	asset := msgs[len(msgs)-1]
	msgs = msgs[:len(msgs)-1]
	for _, o := range orders {
		msgs = append(msgs, wire.Message{
			Type:     wire.MsgOrder,
			Tick:     uint32(tick),
			Locate:   locates[o.Stock],
			Stock:    o.Stock,
			Side:     o.Side,
			Shares:   o.Shares,
			Price:    o.Price,
			Accepted: o.Accepted,
		})
	}
	return append(msgs, asset)
}

// snapshot reports current prices and the asset valuation.
func snapshot(r *Result, tick int) []wire.Message {
	stocks := r.Market.Stocks()
	msgs := make([]wire.Message, 0, len(stocks)+1)
	for i, s := range stocks {
		msgs = append(msgs, wire.Message{
			Type:     wire.MsgPrice,
			Tick:     uint32(tick),
			Locate:   uint16(i + 1),
			Stock:    s.Name(),
			Price:    s.Price(),
			Momentum: s.Momentum(),
		})
	}
	return append(msgs, wire.Message{
		Type:   wire.MsgAsset,
		Tick:   uint32(tick),
		Locate: wire.RunLocate,
		Cash:   r.Investor.Cash(),
		Asset:  r.Investor.Asset(),
	})
}

func runEnd(r *Result) wire.Message {
	return wire.Message{
		Type:   wire.MsgRunEnd,
		Tick:   uint32(r.Investor.Tick()),
		Locate: wire.RunLocate,
		Asset:  r.Investor.Asset(),
	}
}

func ordersAt(inv *engine.Investor, tick int) []engine.Order {
	var out []engine.Order
	for _, o := range inv.OrdersSince(tick) {
		if o.Tick != tick {
			break
		}
		out = append(out, o)
	}
	return out
}
