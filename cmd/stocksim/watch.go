package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/subcommands"
	"github.com/gorilla/websocket"

	"github.com/ndrandal/stocksim/internal/wire"
)

// watchCmd connects to the live feed and prints every message in
// human-readable form.
type watchCmd struct {
	url           string
	stocks        string
	useJSON       bool
	statsInterval int
	showHex       bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print the live feed of a running server" }
func (*watchCmd) Usage() string {
	return `stocksim watch [-url ws://host:8100/feed] [-stocks "A,B"] [-json] [-hex] [-stats n]

  Subscribes to the given stocks (or * for all) and decodes each binary
  frame. With -json the server's JSON lines are printed as received.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.url, "url", "ws://localhost:8100/feed", "WebSocket endpoint")
	f.StringVar(&c.stocks, "stocks", "*", "Comma-separated stock names or * for all")
	f.BoolVar(&c.useJSON, "json", false, "Request JSON format instead of binary")
	f.IntVar(&c.statsInterval, "stats", 0, "Print message rate stats every N seconds (0 = off)")
	f.BoolVar(&c.showHex, "hex", false, "Print raw hex dump alongside decoded output")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	log.Printf("connecting to %s", c.url)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		log.Printf("dial: %v", err)
		return subcommands.ExitFailure
	}
	defer conn.Close()
	log.Println("connected")

	format := "binary"
	if c.useJSON {
		format = "json"
	}
	if err := sendControl(conn, map[string]any{"action": "format", "format": format}); err != nil {
		log.Printf("%v", err)
		return subcommands.ExitFailure
	}
	names := splitNames(c.stocks)
	if err := sendControl(conn, map[string]any{"action": "subscribe", "stocks": names}); err != nil {
		log.Printf("%v", err)
		return subcommands.ExitFailure
	}
	log.Printf("subscribed to %s in %s mode", c.stocks, format)

	var msgCount uint64
	if c.statsInterval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(c.statsInterval) * time.Second)
			defer ticker.Stop()
			var last uint64
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
				cur := atomic.LoadUint64(&msgCount)
				rate := float64(cur-last) / float64(c.statsInterval)
				log.Printf("[stats] %d msgs total | %.1f msgs/sec", cur, rate)
				last = cur
			}
		}()
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Println("shutting down...")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(200 * time.Millisecond)
		conn.Close()
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return subcommands.ExitSuccess
			}
			log.Printf("read: %v", err)
			return subcommands.ExitFailure
		}
		atomic.AddUint64(&msgCount, 1)

		if msgType == websocket.TextMessage || c.useJSON {
			fmt.Println(string(data))
			continue
		}
		if c.showHex {
			fmt.Println(hexDump(data))
		}
		msgs, err := wire.DecodeAll(data)
		for _, m := range msgs {
			fmt.Println(formatMessage(m))
		}
		if err != nil {
			fmt.Printf("???      %v (%d bytes)\n", err, len(data))
		}
	}
}

func sendControl(conn *websocket.Conn, msg map[string]any) error {
	data, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send control: %w", err)
	}
	return nil
}

func splitNames(s string) []string {
	var out []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// formatMessage renders one decoded message on a single line.
func formatMessage(m *wire.Message) string {
	switch m.Type {
	case wire.MsgRunStart:
		return fmt.Sprintf("RUNSTART run=%s  steps=%d  companies=%d",
			wire.FormatRunID(m.RunID), m.Steps, m.Companies)
	case wire.MsgStockDirectory:
		return fmt.Sprintf("STOCKDIR locate=%-3d  stock=%s", m.Locate, m.Stock)
	case wire.MsgPrice:
		return fmt.Sprintf("PRICE    tick=%-5d  locate=%-3d  %12.4f  momentum=%+.4f",
			m.Tick, m.Locate, m.Price, m.Momentum)
	case wire.MsgOrder:
		status := "filled"
		if !m.Accepted {
			status = "rejected"
		}
		return fmt.Sprintf("ORDER    tick=%-5d  locate=%-3d  %4s  %g @ %.4f  %s",
			m.Tick, m.Locate, strings.ToUpper(m.Side.String()), m.Shares, m.Price, status)
	case wire.MsgAsset:
		return fmt.Sprintf("ASSET    tick=%-5d  cash=%.2f  asset=%.2f", m.Tick, m.Cash, m.Asset)
	case wire.MsgRunEnd:
		return fmt.Sprintf("RUNEND   tick=%-5d  asset=%.2f", m.Tick, m.Asset)
	}
	return fmt.Sprintf("UNKNOWN  type=%c (0x%02x)", byte(m.Type), byte(m.Type))
}

func hexDump(data []byte) string {
	var sb strings.Builder
	sb.WriteString("         hex: ")
	for i, b := range data {
		if i > 0 && i%16 == 0 {
			sb.WriteString("\n              ")
		}
		fmt.Fprintf(&sb, "%02x ", b)
	}
	return sb.String()
}
