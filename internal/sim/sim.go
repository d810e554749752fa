// Package sim drives one simulation run: it resolves the company roster,
// lists the stocks, steps the market and the investor for a fixed number of
// ticks and hands the finished run to the configured exporters.
package sim

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"log/slog"
	"time"

	"github.com/ndrandal/stocksim/internal/company"
	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/roster"
	"github.com/ndrandal/stocksim/internal/wire"
)

// Config sizes a run.
type Config struct {
	Steps        int
	Companies    int
	InitialAsset float64
	InvestorName string
	Strategy     string // label recorded with the run
}

// DefaultConfig returns the reference run: 100 steps over 10 companies.
func DefaultConfig() Config {
	return Config{
		Steps:        100,
		Companies:    10,
		InitialAsset: engine.DefaultInitialAsset,
		InvestorName: engine.DefaultInvestorName,
	}
}

// Exporter receives the finished run. Exporters run in registration order
// and the first error aborts the run.
type Exporter interface {
	Export(ctx context.Context, r *Result) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(ctx context.Context, r *Result) error

func (f ExporterFunc) Export(ctx context.Context, r *Result) error { return f(ctx, r) }

// Observer receives the messages of every tick as it completes. Observe is
// called from the simulation loop and must not block.
type Observer interface {
	Observe(msgs []wire.Message)
}

// Result is a finished run.
type Result struct {
	ID         uint64
	Seed       int64 // replays the run through RunSeed
	Config     Config
	Market     *engine.Market
	Investor   *engine.Investor
	StartedAt  time.Time
	FinishedAt time.Time
	RNGState   []byte // shared stream state after the run

	// Messages is the full tick stream, as delivered to observers.
	Messages []wire.Message
}

// RunID returns the printable run id.
func (r *Result) RunID() string { return wire.FormatRunID(r.ID) }

// Locate returns the 1-based listing position of a stock, or 0.
func (r *Result) Locate(name string) uint16 {
	for i, s := range r.Market.Stocks() {
		if s.Name() == name {
			return uint16(i + 1)
		}
	}
	return 0
}

// Simulator runs simulations against a shared random stream.
type Simulator struct {
	cfg       Config
	rng       *engine.RNG
	supply    roster.Supply
	store     roster.Store
	exporters []Exporter
	observers []Observer
	logger    *slog.Logger
}

// New creates a simulator. A nil store means every run lists fresh names.
func New(cfg Config, rng *engine.RNG, store roster.Store) *Simulator {
	return &Simulator{
		cfg:    cfg,
		rng:    rng,
		store:  store,
		logger: slog.Default(),
	}
}

// SetSupply replaces the company name supply. By default fresh names are
// drawn from the run's own generator.
func (s *Simulator) SetSupply(supply roster.Supply) { s.supply = supply }

// SetLogger sets the logger handed to each run's investor.
func (s *Simulator) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// AddExporter appends exporters to the post-run chain.
func (s *Simulator) AddExporter(e ...Exporter) { s.exporters = append(s.exporters, e...) }

// AddObserver registers a per-tick observer.
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Config returns the run configuration.
func (s *Simulator) Config() Config { return s.cfg }

// Run executes one simulation with the given strategy on a seed drawn from
// the shared stream. The tick loop is sequential and not cancellable; ctx is
// used for roster and export I/O.
func (s *Simulator) Run(ctx context.Context, strategy engine.Strategy) (*Result, error) {
	return s.RunSeed(ctx, strategy, s.rng.Derive())
}

// RunSeed executes one simulation on NewRNG(seed). Given the same roster,
// config and strategy, a run's recorded Seed reproduces it exactly.
func (s *Simulator) RunSeed(ctx context.Context, strategy engine.Strategy, seed int64) (*Result, error) {
	if s.cfg.Steps < 0 {
		return nil, fmt.Errorf("run: negative step count %d", s.cfg.Steps)
	}
	started := time.Now()

	inv := engine.NewInvestor(s.cfg.InvestorName, s.cfg.InitialAsset, strategy)
	inv.SetLogger(s.logger)

	rng := engine.NewRNG(seed)
	// Names come from their own stream so prices replay the same whether
	// the roster was recovered or generated.
	nameRNG := engine.NewRNG(rng.Derive())
	supply := s.supply
	if supply == nil {
		supply = company.NewGenerator(nameRNG)
	}

	names, err := s.resolveNames(ctx, supply)
	if err != nil {
		return nil, err
	}

	stocks := make([]*engine.Stock, len(names))
	for i, name := range names {
		stocks[i] = engine.NewStock(name, rng)
	}
	market := engine.NewMarket(stocks)

	res := &Result{
		ID:        runID(rng.Seed(), started),
		Seed:      rng.Seed(),
		Config:    s.cfg,
		Market:    market,
		Investor:  inv,
		StartedAt: started,
	}
	log.Printf("run %s: %d steps, %d companies, seed %d", res.RunID(), s.cfg.Steps, len(names), res.Seed)

	s.emit(res, OpeningMessages(res))
	for tick := 1; tick <= s.cfg.Steps; tick++ {
		market.Step()
		inv.BuyOrSell(market)
		s.emit(res, TickMessages(res, tick))
	}
	s.emit(res, []wire.Message{runEnd(res)})

	res.FinishedAt = time.Now()
	res.RNGState = s.rng.StateBytes()

	for _, e := range s.exporters {
		if err := e.Export(ctx, res); err != nil {
			return res, fmt.Errorf("export run %s: %w", res.RunID(), err)
		}
	}
	log.Printf("run %s finished in %v: asset %.2f", res.RunID(), res.FinishedAt.Sub(started), inv.Asset())
	return res, nil
}

func (s *Simulator) resolveNames(ctx context.Context, supply roster.Supply) ([]string, error) {
	if s.store == nil {
		if s.cfg.Companies < 0 {
			return nil, errors.New("resolve roster: negative company count")
		}
		return supply.Names(s.cfg.Companies, nil), nil
	}
	return roster.Resolve(ctx, s.store, supply, s.cfg.Companies)
}

func (s *Simulator) emit(res *Result, msgs []wire.Message) {
	res.Messages = append(res.Messages, msgs...)
	for _, o := range s.observers {
		o.Observe(msgs)
	}
}

// runID hashes the seed and start time into a run identifier.
func runID(seed int64, started time.Time) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(seed))
	binary.BigEndian.PutUint64(buf[8:16], uint64(started.UnixNano()))
	h := fnv.New64a()
	h.Write(buf[:])
	return h.Sum64()
}
