package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ndrandal/stocksim/internal/archive"
	"github.com/ndrandal/stocksim/internal/config"
	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/persist"
	"github.com/ndrandal/stocksim/internal/plot"
	"github.com/ndrandal/stocksim/internal/roster"
	"github.com/ndrandal/stocksim/internal/sim"
)

// pipeline holds what every simulation of one process shares: the
// generator, the roster chain and the optional database.
type pipeline struct {
	cfg      *config.Config
	rng      *engine.RNG
	store    *persist.Store
	recorder *persist.Recorder
	roster   roster.Store
	logger   *slog.Logger
}

// openPipeline connects to MongoDB when configured and restores the
// generator state left by the last recorded run unless a seed is pinned.
func openPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	p := &pipeline{
		cfg:    cfg,
		rng:    engine.NewRNG(cfg.Seed),
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}

	var mongoRoster roster.Store
	if cfg.MongoURI != "" {
		store, err := persist.NewStore(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close(context.Background())
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		p.store = store
		p.recorder = persist.NewRecorder(store)
		mongoRoster = persist.NewMongoRoster(store)

		if cfg.Seed == 0 {
			if _, err := p.recorder.RestoreRNG(ctx, p.rng); err != nil {
				log.Printf("warning: failed to restore generator state: %v", err)
			}
		}
	}
	log.Printf("PRNG seed: %d", p.rng.Seed())

	p.roster = rosterChain(cfg, mongoRoster)
	return p, nil
}

// rosterChain reads the roster file first, then the database roster, then
// the names of graphs left in the history directory.
func rosterChain(cfg *config.Config, db roster.Store) roster.Store {
	legacy := roster.Store(&roster.ImageDirStore{Dir: cfg.HistoryDir})
	if db != nil {
		legacy = roster.WithFallback(db, legacy)
	}
	return roster.WithFallback(roster.NewFileStore(cfg.RosterPath), legacy)
}

// simulator builds a simulator for one run with every configured exporter.
func (p *pipeline) simulator(cfg sim.Config, extra ...sim.Exporter) *sim.Simulator {
	s := sim.New(cfg, p.rng, p.roster)
	s.SetLogger(p.logger)
	if !p.cfg.NoPlots {
		s.AddExporter(&plot.Exporter{HistoryDir: p.cfg.HistoryDir, PlotDir: p.cfg.PlotDir})
	}
	if p.cfg.ArchiveDir != "" {
		s.AddExporter(archive.New(p.cfg.ArchiveDir, p.cfg.ArchiveMaxGB))
	}
	if p.recorder != nil {
		s.AddExporter(p.recorder)
	}
	s.AddExporter(extra...)
	return s
}

func (p *pipeline) Close() {
	if p.store != nil {
		p.store.Close(context.Background())
	}
}
