package wire

import (
	"encoding/json"
	"fmt"
)

// JSON encoder: human-readable mirror of the binary messages.
// Prices and money are formatted as 4-decimal strings.

// EncodeJSON encodes a Message into JSON bytes.
func EncodeJSON(m *Message) ([]byte, error) {
	obj := msgToMap(m)
	if obj == nil {
		return nil, fmt.Errorf("unsupported message type: %c", m.Type)
	}
	return json.Marshal(obj)
}

func msgToMap(m *Message) map[string]any {
	switch m.Type {
	case MsgRunStart:
		return map[string]any{
			"type":        "run_start",
			"tick":        m.Tick,
			"stockLocate": m.Locate,
			"runId":       FormatRunID(m.RunID),
			"steps":       m.Steps,
			"companies":   m.Companies,
		}

	case MsgStockDirectory:
		return map[string]any{
			"type":        "stock_directory",
			"tick":        m.Tick,
			"stockLocate": m.Locate,
			"stock":       m.Stock,
		}

	case MsgPrice:
		return map[string]any{
			"type":        "price",
			"tick":        m.Tick,
			"stockLocate": m.Locate,
			"stock":       m.Stock,
			"price":       formatPrice(m.Price),
			"momentum":    m.Momentum,
		}

	case MsgOrder:
		return map[string]any{
			"type":        "order",
			"tick":        m.Tick,
			"stockLocate": m.Locate,
			"stock":       m.Stock,
			"side":        string([]byte{byte(m.Side)}),
			"shares":      m.Shares,
			"price":       formatPrice(m.Price),
			"accepted":    m.Accepted,
		}

	case MsgAsset:
		return map[string]any{
			"type":        "asset",
			"tick":        m.Tick,
			"stockLocate": m.Locate,
			"cash":        formatPrice(m.Cash),
			"asset":       formatPrice(m.Asset),
		}

	case MsgRunEnd:
		return map[string]any{
			"type":        "run_end",
			"tick":        m.Tick,
			"stockLocate": m.Locate,
			"asset":       formatPrice(m.Asset),
		}
	}
	return nil
}

func formatPrice(price float64) string {
	return fmt.Sprintf("%.4f", price)
}

// FormatRunID renders a run id the way it is stored and served.
func FormatRunID(id uint64) string {
	return fmt.Sprintf("%016x", id)
}
