package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/ndrandal/stocksim/internal/company"
	"github.com/ndrandal/stocksim/internal/config"
	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/roster"
)

// rosterCmd prints or rebuilds the company roster.
type rosterCmd struct {
	cfg   config.Config
	reset bool
}

func (*rosterCmd) Name() string     { return "roster" }
func (*rosterCmd) Synopsis() string { return "print or reset the company roster" }
func (*rosterCmd) Usage() string {
	return `stocksim roster [-reset] [-companies n] [-seed n]

  Prints the companies the next run will list. With -reset the roster file
  is replaced by freshly generated names.
`
}

func (c *rosterCmd) SetFlags(f *flag.FlagSet) {
	c.cfg.Register(f)
	f.BoolVar(&c.reset, "reset", false, "Replace the roster with fresh names")
}

func (c *rosterCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.cfg.Companies <= 0 {
		fmt.Fprintf(os.Stderr, "Error: companies must be positive, got %d\n", c.cfg.Companies)
		return subcommands.ExitUsageError
	}
	file := roster.NewFileStore(c.cfg.RosterPath)

	var names []string
	var err error
	if c.reset {
		names = company.NewGenerator(engine.NewRNG(c.cfg.Seed)).Names(c.cfg.Companies, nil)
		err = file.Save(ctx, names)
	} else {
		names, err = file.Load(ctx)
		if err == nil && len(names) == 0 {
			names, err = (&roster.ImageDirStore{Dir: c.cfg.HistoryDir}).Load(ctx)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if len(names) == 0 {
		fmt.Println("roster is empty; the next run lists fresh companies")
		return subcommands.ExitSuccess
	}
	for i, n := range names {
		fmt.Printf("%3d  %s\n", i+1, n)
	}
	return subcommands.ExitSuccess
}
