package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/ndrandal/stocksim/internal/api"
	"github.com/ndrandal/stocksim/internal/config"
	"github.com/ndrandal/stocksim/internal/persist"
	"github.com/ndrandal/stocksim/internal/session"
	"github.com/ndrandal/stocksim/internal/sim"
	"github.com/ndrandal/stocksim/internal/strategy"
)

// serveCmd exposes runs over REST and streams them live over WebSocket.
type serveCmd struct {
	cfg config.Config
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the run API and live feed" }
func (*serveCmd) Usage() string {
	return `stocksim serve [-port n] [-mongo-uri uri] [-run-retention days]

  Starts the HTTP server. POST /api/runs starts a simulation whose messages
  are streamed to /feed subscribers; finished runs are stored in MongoDB, or
  in memory when no database is configured.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	c.cfg.Register(f)
	c.cfg.RegisterServer(f)
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	log.Println("stocksim server starting")

	p, err := openPipeline(ctx, &c.cfg)
	if err != nil {
		log.Printf("%v", err)
		return subcommands.ExitFailure
	}
	defer p.Close()

	mgr := session.NewManager(c.cfg.SendBufferSize)

	var reader persist.RunReader
	var extra []sim.Exporter
	if p.store != nil {
		reader = persist.NewMongoRunReader(p.store.DB())
		// Start run retention pruner
		go persist.RunRetention(ctx, p.store, c.cfg.RunRetentionDays)
	} else {
		mem := persist.NewMemoryRuns()
		reader, extra = mem, []sim.Exporter{mem}
		log.Println("no database configured, keeping runs in memory")
	}

	run := func(ctx context.Context, name string) (*sim.Result, error) {
		if name == "" {
			name = c.cfg.Strategy
		}
		st, err := strategy.ByName(name)
		if err != nil {
			return nil, err
		}
		cfg := c.cfg.Sim()
		cfg.Strategy = name
		s := p.simulator(cfg, extra...)
		s.AddObserver(mgr)
		return s.Run(ctx, st)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", session.Handler(mgr))
	api.NewServer(reader, run, mgr).Register(mux)

	addr := c.cfg.Addr()
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("WebSocket feed on ws://%s/feed", addr)
	log.Printf("Health check: http://%s/health", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("server error: %v", err)
		return subcommands.ExitFailure
	}

	log.Println("stocksim server stopped")
	return subcommands.ExitSuccess
}
