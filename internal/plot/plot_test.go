package plot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/sim"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Fatalf("%s is not a PNG", path)
	}
}

func TestLineGraphWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.png")
	if err := LineGraph([]float64{1, 3, 2, 5}, path, "title", "x", "y"); err != nil {
		t.Fatalf("LineGraph: %v", err)
	}
	assertPNG(t, path)
}

func TestLineGraphEmpty(t *testing.T) {
	err := LineGraph(nil, filepath.Join(t.TempDir(), "g.png"), "t", "x", "y")
	if !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestLineGraphMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "g.png")
	if err := LineGraph([]float64{1}, path, "t", "x", "y"); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}

func TestExporterWritesAllGraphs(t *testing.T) {
	root := t.TempDir()
	rng := engine.NewRNG(1)
	stocks := []*engine.Stock{engine.NewStock("Nexo Dynamics", rng), engine.NewStock("Vault Capital", rng)}
	m := engine.NewMarket(stocks)
	inv := engine.NewInvestor("investor1", engine.DefaultInitialAsset, nil)
	for i := 0; i < 5; i++ {
		m.Step()
		inv.BuyOrSell(m)
	}

	e := &Exporter{HistoryDir: filepath.Join(root, "stock_history"), PlotDir: root}
	if err := e.Export(context.Background(), &sim.Result{Market: m, Investor: inv}); err != nil {
		t.Fatalf("export: %v", err)
	}
	assertPNG(t, filepath.Join(root, "stock_history", "Nexo Dynamics.png"))
	assertPNG(t, filepath.Join(root, "stock_history", "Vault Capital.png"))
	assertPNG(t, filepath.Join(root, "investor1.png"))
}
