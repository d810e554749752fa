package persist

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Lookup failures.
var (
	ErrRunNotFound   = errors.New("run not found")
	ErrStockNotFound = errors.New("stock not found")
)

// RunFilter controls which runs to list.
type RunFilter struct {
	Strategy string
	Limit    int
	Offset   int
}

// RunStats holds aggregate statistics over all stored runs.
type RunStats struct {
	TotalRuns  int64   `json:"totalRuns"`
	AvgReturn  float64 `json:"avgReturn"`
	BestAsset  float64 `json:"bestAsset"`
	WorstAsset float64 `json:"worstAsset"`
}

// RunReader abstracts read-only run queries.
type RunReader interface {
	ListRuns(ctx context.Context, f RunFilter) ([]RunSummary, error)
	GetRun(ctx context.Context, runID string) (RunSummary, error)
	StockHistory(ctx context.Context, runID, name string) (StockSeries, error)
	InvestorHistory(ctx context.Context, runID string) (InvestorRecord, error)
	Stats(ctx context.Context) (RunStats, error)
}

// MongoRunReader implements RunReader using a mongo.Database.
type MongoRunReader struct {
	db *mongo.Database
}

// NewMongoRunReader creates a new MongoRunReader.
func NewMongoRunReader(db *mongo.Database) *MongoRunReader {
	return &MongoRunReader{db: db}
}

// summaryProjection leaves out the per-tick series.
var summaryProjection = bson.M{"stocks": 0, "investor": 0}

// ListRuns returns runs newest first with pagination.
func (r *MongoRunReader) ListRuns(ctx context.Context, f RunFilter) ([]RunSummary, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	filter := bson.M{}
	if f.Strategy != "" {
		filter["strategy"] = f.Strategy
	}

	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(int64(f.Limit)).
		SetSkip(int64(f.Offset))

	cursor, err := r.db.Collection(runsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := []RunSummary{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run's summary.
func (r *MongoRunReader) GetRun(ctx context.Context, runID string) (RunSummary, error) {
	var out RunSummary
	opts := options.FindOne().SetProjection(summaryProjection)
	err := r.db.Collection(runsCollection).FindOne(ctx, bson.M{"run_id": runID}, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return RunSummary{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("query run %s: %w", runID, err)
	}
	return out, nil
}

// StockHistory returns the recorded price path of one stock in a run.
func (r *MongoRunReader) StockHistory(ctx context.Context, runID, name string) (StockSeries, error) {
	var doc struct {
		Stocks []StockSeries `bson:"stocks"`
	}
	opts := options.FindOne().SetProjection(bson.M{
		"stocks": bson.M{"$elemMatch": bson.M{"name": name}},
	})
	err := r.db.Collection(runsCollection).FindOne(ctx, bson.M{"run_id": runID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return StockSeries{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return StockSeries{}, fmt.Errorf("query stock %s in run %s: %w", name, runID, err)
	}
	if len(doc.Stocks) == 0 {
		return StockSeries{}, fmt.Errorf("%s in run %s: %w", name, runID, ErrStockNotFound)
	}
	return doc.Stocks[0], nil
}

// InvestorHistory returns the investor's end state, asset path and journal.
func (r *MongoRunReader) InvestorHistory(ctx context.Context, runID string) (InvestorRecord, error) {
	var doc struct {
		Investor InvestorRecord `bson:"investor"`
	}
	opts := options.FindOne().SetProjection(bson.M{"investor": 1})
	err := r.db.Collection(runsCollection).FindOne(ctx, bson.M{"run_id": runID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return InvestorRecord{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return InvestorRecord{}, fmt.Errorf("query investor in run %s: %w", runID, err)
	}
	return doc.Investor, nil
}

// Stats returns the run count and final-asset aggregates.
func (r *MongoRunReader) Stats(ctx context.Context) (RunStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_runs", Value: bson.M{"$sum": 1}},
			{Key: "avg_return", Value: bson.M{"$avg": bson.M{
				"$cond": bson.A{
					bson.M{"$gt": bson.A{"$initial_asset", 0}},
					bson.M{"$divide": bson.A{"$final_asset", "$initial_asset"}},
					nil,
				},
			}}},
			{Key: "best_asset", Value: bson.M{"$max": "$final_asset"}},
			{Key: "worst_asset", Value: bson.M{"$min": "$final_asset"}},
		}}},
	}

	cursor, err := r.db.Collection(runsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return RunStats{}, fmt.Errorf("query run stats: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		TotalRuns  int64   `bson:"total_runs"`
		AvgReturn  float64 `bson:"avg_return"`
		BestAsset  float64 `bson:"best_asset"`
		WorstAsset float64 `bson:"worst_asset"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return RunStats{}, fmt.Errorf("decode run stats: %w", err)
	}

	if len(results) == 0 {
		return RunStats{}, nil
	}
	return RunStats{
		TotalRuns:  results[0].TotalRuns,
		AvgReturn:  results[0].AvgReturn,
		BestAsset:  results[0].BestAsset,
		WorstAsset: results[0].WorstAsset,
	}, nil
}
