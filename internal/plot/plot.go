// Package plot renders price and asset histories as PNG line graphs.
package plot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ndrandal/stocksim/internal/sim"
)

// Image size of every graph.
const (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

// ErrEmptySeries is returned when there is nothing to draw.
var ErrEmptySeries = errors.New("empty series")

// LineGraph draws series against its index and writes the image to saveTo.
// The format follows the file extension.
func LineGraph(series []float64, saveTo, title, xLabel, yLabel string) error {
	if len(series) == 0 {
		return fmt.Errorf("plot %s: %w", saveTo, ErrEmptySeries)
	}
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(series))
	for i, v := range series {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot %s: %w", saveTo, err)
	}
	p.Add(line)

	if err := p.Save(Width, Height, saveTo); err != nil {
		return fmt.Errorf("save %s: %w", saveTo, err)
	}
	return nil
}

// Exporter writes one price graph per stock into HistoryDir and the
// investor's asset graph into PlotDir.
type Exporter struct {
	HistoryDir string
	PlotDir    string
}

// Export implements sim.Exporter.
func (e *Exporter) Export(ctx context.Context, r *sim.Result) error {
	if err := os.MkdirAll(e.HistoryDir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	for _, s := range r.Market.Stocks() {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(e.HistoryDir, s.Name()+".png")
		if err := LineGraph(s.History(), path, "Price graph of "+s.Name(), "time", s.Name()+" price"); err != nil {
			return err
		}
	}

	dir := e.PlotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	inv := r.Investor
	path := filepath.Join(dir, inv.Name()+".png")
	if err := LineGraph(inv.AssetHistory(), path, "Asset History of "+inv.Name(), "time", inv.Name()+" Asset"); err != nil {
		return err
	}
	log.Printf("wrote %d price graphs to %s and %s", len(r.Market.Stocks()), e.HistoryDir, path)
	return nil
}
