package persist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/stocksim/internal/engine"
	"github.com/ndrandal/stocksim/internal/sim"
)

// Recorder stores finished runs, together with the generator state and the
// roster, in a single transaction.
type Recorder struct {
	store *Store
}

func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Export implements sim.Exporter.
func (rec *Recorder) Export(ctx context.Context, r *sim.Result) error {
	start := time.Now()
	run := NewRun(r)

	names := make([]string, len(run.Stocks))
	for i, s := range run.Stocks {
		names[i] = s.Name
	}

	session, err := rec.store.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc context.Context) (any, error) {
		db := rec.store.db
		now := time.Now()

		// 1. Upsert the run document
		if _, err := db.Collection(runsCollection).ReplaceOne(sc,
			bson.M{"run_id": run.RunID},
			run,
			options.Replace().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("save run %s: %w", run.RunID, err)
		}

		// 2. Upsert PRNG state
		if _, err := db.Collection(stateCollection).UpdateOne(sc,
			bson.M{"key": keyRNGState},
			bson.M{"$set": bson.M{
				"key":         keyRNGState,
				"value_bytes": r.RNGState,
				"updated_at":  now,
			}},
			options.UpdateOne().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("save rng state: %w", err)
		}

		// 3. Upsert the roster
		if err := saveRoster(sc, db, names, now); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("record transaction: %w", err)
	}

	log.Printf("run %s recorded in %v", run.RunID, time.Since(start))
	return nil
}

// RestoreRNG loads the generator state saved by the last recorded run.
// It returns false when no state has been saved.
func (rec *Recorder) RestoreRNG(ctx context.Context, rng *engine.RNG) (bool, error) {
	var doc struct {
		ValueBytes []byte `bson:"value_bytes"`
	}
	err := rec.store.db.Collection(stateCollection).FindOne(ctx, bson.M{"key": keyRNGState}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load rng state: %w", err)
	}
	if len(doc.ValueBytes) < 16 {
		return false, nil
	}
	rng.RestoreStateBytes(doc.ValueBytes)
	log.Println("restored generator state from last recorded run")
	return true, nil
}
