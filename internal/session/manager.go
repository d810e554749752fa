package session

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ndrandal/stocksim/internal/wire"
)

// Manager handles client registration, subscriptions, and message fan-out.
// It implements sim.Observer.
type Manager struct {
	mu         sync.RWMutex
	clients    map[uint64]*Client
	bufferSize int

	dirMu     sync.RWMutex
	directory []wire.Message // run start + stock directory of the current run
}

// NewManager creates a session manager.
func NewManager(bufferSize int) *Manager {
	return &Manager{
		clients:    make(map[uint64]*Client),
		bufferSize: bufferSize,
	}
}

// Register adds a new client. Returns the client for further use.
func (m *Manager) Register(conn *websocket.Conn) *Client {
	c := NewClient(conn, m.bufferSize)
	m.add(c)
	log.Printf("client %d connected (%s)", c.ID, conn.RemoteAddr())
	return c
}

func (m *Manager) add(c *Client) {
	m.mu.Lock()
	m.clients[c.ID] = c
	m.mu.Unlock()
}

// Unregister removes a client.
func (m *Manager) Unregister(c *Client) {
	m.mu.Lock()
	delete(m.clients, c.ID)
	m.mu.Unlock()

	c.Close()
	log.Printf("client %d disconnected", c.ID)
}

// ResolveNames splits a subscription request into names, or all for "*".
func (m *Manager) ResolveNames(names []string) (out []string, all bool) {
	for _, n := range names {
		if n == "*" {
			return nil, true
		}
		if n != "" {
			out = append(out, n)
		}
	}
	return out, false
}

// Observe fans one tick's messages out to subscribed clients. Run-level
// messages reach every client. Messages are encoded once per format.
func (m *Manager) Observe(msgs []wire.Message) {
	if len(msgs) == 0 {
		return
	}
	m.track(msgs)

	var jsonEncoded, binaryEncoded [][]byte
	var jsonOnce, binaryOnce sync.Once

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.clients {
		var encoded [][]byte
		switch c.Format() {
		case FormatJSON:
			jsonOnce.Do(func() { jsonEncoded = encodeAllJSON(msgs) })
			encoded = jsonEncoded
		case FormatBinary:
			binaryOnce.Do(func() { binaryEncoded = encodeAllBinary(msgs) })
			encoded = binaryEncoded
		}
		if encoded == nil {
			continue
		}
		for i := range msgs {
			if encoded[i] == nil {
				continue
			}
			if msgs[i].IsRunLevel() || c.IsSubscribed(msgs[i].Stock) {
				c.Send(encoded[i]) // dropped when the buffer is full
			}
		}
	}
}

// track keeps the current run's header and directory for late subscribers.
func (m *Manager) track(msgs []wire.Message) {
	m.dirMu.Lock()
	defer m.dirMu.Unlock()
	for _, msg := range msgs {
		switch msg.Type {
		case wire.MsgRunStart:
			m.directory = []wire.Message{msg}
		case wire.MsgStockDirectory:
			m.directory = append(m.directory, msg)
		}
	}
}

// Directory returns the run header and stock directory of the latest run.
func (m *Manager) Directory() []wire.Message {
	m.dirMu.RLock()
	defer m.dirMu.RUnlock()
	return append([]wire.Message(nil), m.directory...)
}

// Listed returns the company names of the latest run.
func (m *Manager) Listed() []string {
	var out []string
	for _, msg := range m.Directory() {
		if msg.Type == wire.MsgStockDirectory {
			out = append(out, msg.Stock)
		}
	}
	return out
}

// SendToClient sends messages directly to a specific client (e.g., stock directory on subscribe).
func (m *Manager) SendToClient(c *Client, msgs []wire.Message) {
	var encoded [][]byte
	switch c.Format() {
	case FormatJSON:
		encoded = encodeAllJSON(msgs)
	case FormatBinary:
		encoded = encodeAllBinary(msgs)
	}
	for _, data := range encoded {
		if data != nil {
			c.Send(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// encodeAllJSON encodes msgs index for index; unencodable entries are nil.
func encodeAllJSON(msgs []wire.Message) [][]byte {
	out := make([][]byte, len(msgs))
	for i := range msgs {
		data, err := wire.EncodeJSON(&msgs[i])
		if err != nil {
			continue
		}
		out[i] = data
	}
	return out
}

func encodeAllBinary(msgs []wire.Message) [][]byte {
	out := make([][]byte, len(msgs))
	for i := range msgs {
		out[i] = wire.EncodeBinary(&msgs[i])
	}
	return out
}
