package session

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Format represents the client's preferred encoding format.
type Format int

const (
	FormatJSON   Format = 0
	FormatBinary Format = 1
)

// Client represents a connected WebSocket client.
type Client struct {
	ID   uint64
	Conn *websocket.Conn

	mu        sync.RWMutex
	format    Format
	stocks    map[string]bool // company name -> subscribed
	allStocks bool

	sendCh     chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	bufferSize int

	// stats
	Dropped uint64
}

var clientIDCounter uint64

// NewClient creates a new client wrapping a WebSocket connection.
func NewClient(conn *websocket.Conn, bufferSize int) *Client {
	c := &Client{
		ID:         atomic.AddUint64(&clientIDCounter, 1),
		Conn:       conn,
		format:     FormatJSON,
		stocks:     make(map[string]bool),
		sendCh:     make(chan []byte, bufferSize),
		done:       make(chan struct{}),
		bufferSize: bufferSize,
	}
	return c
}

// Format returns the client's current encoding format.
func (c *Client) Format() Format {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.format
}

// SetFormat sets the client's encoding format.
func (c *Client) SetFormat(f Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// Subscribe adds stocks to the client's subscription. Names need not be
// listed yet; a later run may list them.
func (c *Client) Subscribe(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		c.stocks[n] = true
	}
}

// SubscribeAll subscribes the client to every stock.
func (c *Client) SubscribeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allStocks = true
}

// Unsubscribe removes stocks from the client's subscription.
func (c *Client) Unsubscribe(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range names {
		delete(c.stocks, n)
	}
}

// IsSubscribed checks if the client is subscribed to a given stock.
func (c *Client) IsSubscribed(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allStocks {
		return true
	}
	return c.stocks[name]
}

// Subscriptions returns the subscribed names, or nil when subscribed to all.
func (c *Client) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.allStocks {
		return nil
	}
	out := make([]string, 0, len(c.stocks))
	for n := range c.stocks {
		out = append(out, n)
	}
	return out
}

// IsAllSubscribed returns true if the client is subscribed to every stock.
func (c *Client) IsAllSubscribed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allStocks
}

// Send enqueues data to be sent to the client.
// Returns false if the buffer is full (message dropped).
func (c *Client) Send(data []byte) bool {
	select {
	case c.sendCh <- data:
		return true
	default:
		atomic.AddUint64(&c.Dropped, 1)
		return false
	}
}

// SendCh returns the send channel for the write pump.
func (c *Client) SendCh() <-chan []byte {
	return c.sendCh
}

// Done returns a channel that is closed when the client is disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close terminates the client connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.Conn != nil {
			c.Conn.Close()
		}
	})
}
