package persist

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection names.
const (
	runsCollection  = "runs"
	stateCollection = "sim_state"
)

// sim_state keys.
const (
	keyRNGState = "rng_state"
	keyRoster   = "roster"
)

// EnsureIndexes creates idempotent indexes on all collections.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	type idx struct {
		collection string
		model      mongo.IndexModel
	}

	indexes := []idx{
		{
			collection: runsCollection,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "run_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: runsCollection,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "started_at", Value: -1}},
			},
		},
		{
			collection: runsCollection,
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "strategy", Value: 1}},
			},
		},
		{
			collection: stateCollection,
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}

	for _, i := range indexes {
		_, err := db.Collection(i.collection).Indexes().CreateOne(ctx, i.model)
		if err != nil {
			return fmt.Errorf("create index on %s: %w", i.collection, err)
		}
	}

	log.Println("MongoDB indexes ensured")
	return nil
}
