package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ndrandal/stocksim/internal/engine"
)

// Binary encoder. Each message is prefixed with a 2-byte big-endian length.
// Every body starts with the same header:
//
//	Type(1) + Locate(2) + Tick(4)
//
// Prices and money are IEEE-754 float64 bits; simulated prices are unbounded
// so a fixed-point encoding would overflow.

const headerLen = 7

// Body sizes per message type.
const (
	RunStartLen       = headerLen + 16 // RunID(8) + Steps(4) + Companies(4)
	StockDirectoryLen = headerLen + NameWidth
	PriceLen          = headerLen + 16 // Price(8) + Momentum(8)
	OrderLen          = headerLen + 18 // Side(1) + Shares(8) + Price(8) + Accepted(1)
	AssetLen          = headerLen + 16 // Cash(8) + Asset(8)
	RunEndLen         = headerLen + 8  // Asset(8)
)

var (
	ErrShortFrame  = errors.New("short frame")
	ErrUnknownType = errors.New("unknown message type")
)

// BodyLen returns the fixed body size of a message type, or 0 if unknown.
func BodyLen(t MsgType) int {
	switch t {
	case MsgRunStart:
		return RunStartLen
	case MsgStockDirectory:
		return StockDirectoryLen
	case MsgPrice:
		return PriceLen
	case MsgOrder:
		return OrderLen
	case MsgAsset:
		return AssetLen
	case MsgRunEnd:
		return RunEndLen
	}
	return 0
}

// EncodeBinary encodes a Message including the 2-byte length prefix. It
// returns nil for unknown types.
func EncodeBinary(m *Message) []byte {
	n := BodyLen(m.Type)
	if n == 0 {
		return nil
	}
	frame := make([]byte, 2+n)
	binary.BigEndian.PutUint16(frame[0:2], uint16(n))
	body := frame[2:]
	body[0] = byte(m.Type)
	binary.BigEndian.PutUint16(body[1:3], m.Locate)
	binary.BigEndian.PutUint32(body[3:7], m.Tick)
	b := body[headerLen:]

	switch m.Type {
	case MsgRunStart:
		binary.BigEndian.PutUint64(b[0:8], m.RunID)
		binary.BigEndian.PutUint32(b[8:12], m.Steps)
		binary.BigEndian.PutUint32(b[12:16], m.Companies)
	case MsgStockDirectory:
		name := PadName(m.Stock)
		copy(b[:NameWidth], name[:])
	case MsgPrice:
		putFloat(b[0:8], m.Price)
		putFloat(b[8:16], m.Momentum)
	case MsgOrder:
		b[0] = byte(m.Side)
		putFloat(b[1:9], m.Shares)
		putFloat(b[9:17], m.Price)
		if m.Accepted {
			b[17] = 1
		}
	case MsgAsset:
		putFloat(b[0:8], m.Cash)
		putFloat(b[8:16], m.Asset)
	case MsgRunEnd:
		putFloat(b[0:8], m.Asset)
	}
	return frame
}

// DecodeBinary decodes one length-prefixed frame from the start of data and
// returns the message and the number of bytes consumed.
func DecodeBinary(data []byte) (*Message, int, error) {
	if len(data) < 2 {
		return nil, 0, fmt.Errorf("decode length: %w", ErrShortFrame)
	}
	n := int(binary.BigEndian.Uint16(data[0:2]))
	if len(data) < 2+n {
		return nil, 0, fmt.Errorf("decode body (%d of %d bytes): %w", len(data)-2, n, ErrShortFrame)
	}
	m, err := DecodeBody(data[2 : 2+n])
	if err != nil {
		return nil, 0, err
	}
	return m, 2 + n, nil
}

// DecodeBody decodes a message body without its length prefix.
func DecodeBody(body []byte) (*Message, error) {
	if len(body) < headerLen {
		return nil, fmt.Errorf("decode header: %w", ErrShortFrame)
	}
	t := MsgType(body[0])
	want := BodyLen(t)
	if want == 0 {
		return nil, fmt.Errorf("decode type 0x%02x: %w", body[0], ErrUnknownType)
	}
	if len(body) < want {
		return nil, fmt.Errorf("decode %s (%d of %d bytes): %w", t, len(body), want, ErrShortFrame)
	}
	m := &Message{
		Type:   t,
		Locate: binary.BigEndian.Uint16(body[1:3]),
		Tick:   binary.BigEndian.Uint32(body[3:7]),
	}
	b := body[headerLen:]

	switch t {
	case MsgRunStart:
		m.RunID = binary.BigEndian.Uint64(b[0:8])
		m.Steps = binary.BigEndian.Uint32(b[8:12])
		m.Companies = binary.BigEndian.Uint32(b[12:16])
	case MsgStockDirectory:
		m.Stock = trimName(b[:NameWidth])
	case MsgPrice:
		m.Price = getFloat(b[0:8])
		m.Momentum = getFloat(b[8:16])
	case MsgOrder:
		m.Side = engine.Side(b[0])
		m.Shares = getFloat(b[1:9])
		m.Price = getFloat(b[9:17])
		m.Accepted = b[17] == 1
	case MsgAsset:
		m.Cash = getFloat(b[0:8])
		m.Asset = getFloat(b[8:16])
	case MsgRunEnd:
		m.Asset = getFloat(b[0:8])
	}
	return m, nil
}

// DecodeAll decodes every concatenated frame in data.
func DecodeAll(data []byte) ([]*Message, error) {
	var out []*Message
	for len(data) > 0 {
		m, n, err := DecodeBinary(data)
		if err != nil {
			return out, err
		}
		out = append(out, m)
		data = data[n:]
	}
	return out, nil
}

func putFloat(b []byte, v float64) {
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
}

func getFloat(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
