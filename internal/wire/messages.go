// Package wire defines the tick messages a simulation run emits, with a
// human-readable JSON encoding and a compact binary one.
package wire

import (
	"strings"

	"github.com/ndrandal/stocksim/internal/engine"
)

// Message type codes.
type MsgType byte

const (
	MsgRunStart       MsgType = 'S'
	MsgStockDirectory MsgType = 'R'
	MsgPrice          MsgType = 'P'
	MsgOrder          MsgType = 'O'
	MsgAsset          MsgType = 'A'
	MsgRunEnd         MsgType = 'E'
)

// RunLocate is the locate code of run-level messages. Stocks are numbered
// from 1 in listing order.
const RunLocate uint16 = 0

// NameWidth is the fixed width of a company name in binary frames.
const NameWidth = 32

// Message is the universal message struct. Not all fields are used for every
// message type.
type Message struct {
	Type   MsgType
	Tick   uint32
	Locate uint16
	Stock  string // company name; binary frames carry it only in the directory

	RunID     uint64
	Steps     uint32
	Companies uint32

	Side     engine.Side
	Shares   float64
	Price    float64
	Momentum float64
	Accepted bool

	Cash  float64
	Asset float64
}

// IsRunLevel reports whether m belongs to the run rather than one stock.
func (m *Message) IsRunLevel() bool {
	return m.Locate == RunLocate
}

func (t MsgType) String() string {
	switch t {
	case MsgRunStart:
		return "run_start"
	case MsgStockDirectory:
		return "stock_directory"
	case MsgPrice:
		return "price"
	case MsgOrder:
		return "order"
	case MsgAsset:
		return "asset"
	case MsgRunEnd:
		return "run_end"
	}
	return "unknown"
}

// PadName right-pads a name to NameWidth bytes with spaces, truncating
// longer names.
func PadName(name string) [NameWidth]byte {
	var b [NameWidth]byte
	n := copy(b[:], name)
	for i := n; i < NameWidth; i++ {
		b[i] = ' '
	}
	return b
}

func trimName(b []byte) string {
	return strings.TrimRight(string(b), " ")
}
