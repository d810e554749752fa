package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/sim"
	"github.com/ndrandal/stocksim/internal/strategy"
)

func TestMoney(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.5, "999.50"},
		{1000, "1,000.00"},
		{10000000, "10,000,000.00"},
		{1234567.891, "1,234,567.89"},
		{-2500.5, "-2,500.50"},
	}
	for _, c := range cases {
		if got := Money(c.in); got != c.want {
			t.Fatalf("Money(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(10000, 11000).StringFixed(2); got != "10.00" {
		t.Fatalf("Percent = %s, want 10.00", got)
	}
	if got := Percent(10000, 8000).StringFixed(2); got != "-20.00" {
		t.Fatalf("Percent = %s, want -20.00", got)
	}
	if !Percent(0, 5).IsZero() {
		t.Fatal("Percent from zero should be zero")
	}
}

func TestSummaryExport(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Steps, cfg.Companies, cfg.Strategy = 10, 3, strategy.NameMomentum
	res, err := sim.New(cfg, engine.NewRNG(7), nil).Run(context.Background(), strategy.NewMomentum())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var buf bytes.Buffer
	if err := NewSummary(&buf).Export(context.Background(), res); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := buf.String()

	for _, want := range []string{res.RunID(), "momentum", "10 steps", "investor1", "cash", "asset", "orders"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	for _, st := range res.Market.Stocks() {
		if !strings.Contains(out, st.Name()) {
			t.Errorf("summary missing stock %q", st.Name())
		}
	}
	if !strings.Contains(out, "10,000.00") {
		t.Errorf("summary missing opening price:\n%s", out)
	}
}
