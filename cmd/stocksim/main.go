// Command stocksim runs stock market simulations, serves them over HTTP and
// WebSocket, and inspects the live feed.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&runCmd{}, "simulation")
	subcommands.Register(&serveCmd{}, "simulation")
	subcommands.Register(&watchCmd{}, "feed")
	subcommands.Register(&rosterCmd{}, "roster")

	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	// Context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	os.Exit(int(subcommands.Execute(ctx)))
}
