package persist

import (
	"time"

	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/sim"
)

// RunSummary is the listing view of a stored run.
type RunSummary struct {
	RunID        string    `json:"runId"        bson:"run_id"`
	Seed         int64     `json:"seed"         bson:"seed"`
	Strategy     string    `json:"strategy"     bson:"strategy"`
	Steps        int       `json:"steps"        bson:"steps"`
	Companies    int       `json:"companies"    bson:"companies"`
	InvestorName string    `json:"investor"     bson:"investor_name"`
	InitialAsset float64   `json:"initialAsset" bson:"initial_asset"`
	FinalAsset   float64   `json:"finalAsset"   bson:"final_asset"`
	StartedAt    time.Time `json:"startedAt"    bson:"started_at"`
	FinishedAt   time.Time `json:"finishedAt"   bson:"finished_at"`
}

// Run is a full stored run.
type Run struct {
	RunSummary `bson:",inline"`
	Stocks     []StockSeries  `json:"stocks"   bson:"stocks"`
	Investor   InvestorRecord `json:"investorRecord" bson:"investor"`
}

// StockSeries is one stock's recorded price path.
type StockSeries struct {
	Locate   uint16    `json:"locate"   bson:"locate"`
	Name     string    `json:"name"     bson:"name"`
	Lower    float64   `json:"lower"    bson:"lower"`
	Upper    float64   `json:"upper"    bson:"upper"`
	Momentum float64   `json:"momentum" bson:"momentum"`
	History  []float64 `json:"history"  bson:"history"`
}

// InvestorRecord is the investor's end state and journal.
type InvestorRecord struct {
	Name         string          `json:"name"         bson:"name"`
	Cash         float64         `json:"cash"         bson:"cash"`
	Asset        float64         `json:"asset"        bson:"asset"`
	AssetHistory []float64       `json:"assetHistory" bson:"asset_history"`
	Holdings     []HoldingRecord `json:"holdings"     bson:"holdings"`
	Orders       []OrderRecord   `json:"orders"       bson:"orders"`
}

type HoldingRecord struct {
	Stock  string  `json:"stock"  bson:"stock"`
	Shares float64 `json:"shares" bson:"shares"`
}

type OrderRecord struct {
	Tick     int     `json:"tick"             bson:"tick"`
	Stock    string  `json:"stock"            bson:"stock"`
	Side     string  `json:"side"             bson:"side"`
	Shares   float64 `json:"shares"           bson:"shares"`
	Price    float64 `json:"price"            bson:"price"`
	Accepted bool    `json:"accepted"         bson:"accepted"`
	Reason   string  `json:"reason,omitempty" bson:"reason,omitempty"`
}

// NewRun builds the stored form of a finished run.
func NewRun(r *sim.Result) Run {
	inv := r.Investor
	run := Run{
		RunSummary: RunSummary{
			RunID:        r.RunID(),
			Seed:         r.Seed,
			Strategy:     r.Config.Strategy,
			Steps:        r.Config.Steps,
			Companies:    len(r.Market.Stocks()),
			InvestorName: inv.Name(),
			InitialAsset: inv.InitialAsset(),
			FinalAsset:   inv.Asset(),
			StartedAt:    r.StartedAt,
			FinishedAt:   r.FinishedAt,
		},
		Stocks: make([]StockSeries, 0, len(r.Market.Stocks())),
		Investor: InvestorRecord{
			Name:         inv.Name(),
			Cash:         inv.Cash(),
			Asset:        inv.Asset(),
			AssetHistory: inv.AssetHistory(),
			Holdings:     []HoldingRecord{},
			Orders:       make([]OrderRecord, 0, len(inv.Orders())),
		},
	}
	for i, s := range r.Market.Stocks() {
		lower, upper := s.Bounds()
		run.Stocks = append(run.Stocks, StockSeries{
			Locate:   uint16(i + 1),
			Name:     s.Name(),
			Lower:    lower,
			Upper:    upper,
			Momentum: s.Momentum(),
			History:  s.History(),
		})
	}
	for _, h := range inv.Holdings() {
		run.Investor.Holdings = append(run.Investor.Holdings, HoldingRecord{Stock: h.Stock.Name(), Shares: h.Shares})
	}
	for _, o := range inv.Orders() {
		run.Investor.Orders = append(run.Investor.Orders, orderRecord(o))
	}
	return run
}

func orderRecord(o engine.Order) OrderRecord {
	return OrderRecord{
		Tick:     o.Tick,
		Stock:    o.Stock,
		Side:     o.Side.String(),
		Shares:   o.Shares,
		Price:    o.Price,
		Accepted: o.Accepted,
		Reason:   o.Reason,
	}
}
