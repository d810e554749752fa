package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ndrandal/stocksim/internal/config"
	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/report"
	"github.com/ndrandal/stocksim/internal/sim"
	"github.com/ndrandal/stocksim/internal/strategy"
)

// runCmd runs one simulation and prints its summary.
type runCmd struct {
	cfg    config.Config
	quiet  bool
	replay int64
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run one simulation and write its graphs" }
func (*runCmd) Usage() string {
	return `stocksim run [-steps n] [-companies n] [-strategy name] [-seed n] [-replay run-seed]

  Lists the roster's companies, runs the investor for the given number of
  ticks, writes a price graph per stock and the investor's asset graph, and
  prints a summary. -replay reruns a recorded run from its seed; use the
  same roster, steps and strategy to reproduce it exactly.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.cfg.Register(f)
	f.BoolVar(&c.quiet, "q", false, "Do not print the run summary")
	f.Int64Var(&c.replay, "replay", 0, "Seed recorded with a previous run to replay (0 = new run)")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	st, _ := strategy.ByName(c.cfg.Strategy)

	p, err := openPipeline(ctx, &c.cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer p.Close()

	s := p.simulator(c.cfg.Sim())
	if !c.quiet {
		s.AddExporter(report.NewSummary(os.Stdout))
	}
	run := s.Run
	if c.replay != 0 {
		run = func(ctx context.Context, st engine.Strategy) (*sim.Result, error) {
			return s.RunSeed(ctx, st, c.replay)
		}
	}
	if _, err := run(ctx, st); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
