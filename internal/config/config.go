package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/sim"
	"github.com/ndrandal/stocksim/internal/strategy"
)

// Config holds all simulator configuration.
type Config struct {
	// Simulation
	Steps        int
	Companies    int
	Seed         int64
	InitialAsset float64
	InvestorName string
	Strategy     string

	// Output
	HistoryDir string
	PlotDir    string
	RosterPath string
	NoPlots    bool

	// Run archive (opt-in: only active when ArchiveDir is set)
	ArchiveDir   string
	ArchiveMaxGB int

	// Database (opt-in: only active when MongoURI is set)
	MongoURI         string
	RunRetentionDays int

	// Server
	Port           int
	Host           string
	SendBufferSize int
}

// Register binds the simulation, output, archive and database flags to f,
// defaulting each from its environment variable.
func (c *Config) Register(f *flag.FlagSet) {
	f.IntVar(&c.Steps, "steps", envInt("SIM_STEPS", 100), "Number of ticks to simulate")
	f.IntVar(&c.Companies, "companies", envInt("SIM_COMPANIES", 10), "Number of listed companies")
	f.Int64Var(&c.Seed, "seed", envInt64("SIM_SEED", 0), "PRNG seed (0 = time based)")
	f.Float64Var(&c.InitialAsset, "initial-asset", envFloat("SIM_INITIAL_ASSET", engine.DefaultInitialAsset), "Investor starting cash")
	f.StringVar(&c.InvestorName, "investor", envStr("SIM_INVESTOR", engine.DefaultInvestorName), "Investor name")
	f.StringVar(&c.Strategy, "strategy", envStr("SIM_STRATEGY", strategy.NameMomentum), fmt.Sprintf("Investor strategy %v", strategy.Names()))

	f.StringVar(&c.HistoryDir, "history-dir", envStr("SIM_HISTORY_DIR", "stock_history"), "Directory for per-stock price graphs")
	f.StringVar(&c.PlotDir, "plot-dir", envStr("SIM_PLOT_DIR", "."), "Directory for the investor asset graph")
	f.StringVar(&c.RosterPath, "roster", envStr("SIM_ROSTER", "roster.json"), "Roster file carrying company names across runs")
	f.BoolVar(&c.NoPlots, "no-plots", false, "Skip writing PNG graphs")

	f.StringVar(&c.ArchiveDir, "archive-dir", envStr("SIM_ARCHIVE_DIR", ""), "Directory for gzipped run archives (empty = disabled)")
	f.IntVar(&c.ArchiveMaxGB, "archive-max-gb", envInt("SIM_ARCHIVE_MAX_GB", 1), "Archive size limit in GB before oldest runs are rotated out")

	f.StringVar(&c.MongoURI, "mongo-uri", envStr("MONGO_URI", ""), "MongoDB connection URI (empty = disabled)")
}

// RegisterServer binds the flags only the server uses.
func (c *Config) RegisterServer(f *flag.FlagSet) {
	f.IntVar(&c.Port, "port", envInt("SIM_PORT", 8100), "HTTP and WebSocket server port")
	f.StringVar(&c.Host, "host", envStr("SIM_HOST", "0.0.0.0"), "Listen host")
	f.IntVar(&c.SendBufferSize, "send-buffer", envInt("SEND_BUFFER", 4096), "Per-client send buffer size")
	f.IntVar(&c.RunRetentionDays, "run-retention", envInt("RUN_RETENTION_DAYS", 30), "Stored run retention in days (0 = keep forever)")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Steps < 0:
		return fmt.Errorf("steps must not be negative, got %d", c.Steps)
	case c.Companies <= 0:
		return fmt.Errorf("companies must be positive, got %d", c.Companies)
	case c.InitialAsset < 0:
		return fmt.Errorf("initial asset must not be negative, got %g", c.InitialAsset)
	case c.ArchiveDir != "" && c.ArchiveMaxGB <= 0:
		return errors.New("archive-max-gb must be positive when archiving")
	}
	if _, err := strategy.ByName(c.Strategy); err != nil {
		return err
	}
	return nil
}

// Sim returns the simulator settings.
func (c *Config) Sim() sim.Config {
	return sim.Config{
		Steps:        c.Steps,
		Companies:    c.Companies,
		InitialAsset: c.InitialAsset,
		InvestorName: c.InvestorName,
		Strategy:     c.Strategy,
	}
}

// Addr is the server listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
