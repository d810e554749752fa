package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoRoster keeps the company roster in sim_state. It satisfies
// roster.Store.
type MongoRoster struct {
	db *mongo.Database
}

func NewMongoRoster(store *Store) *MongoRoster {
	return &MongoRoster{db: store.db}
}

func (m *MongoRoster) Load(ctx context.Context) ([]string, error) {
	var doc struct {
		Values []string `bson:"value_strings"`
	}
	err := m.db.Collection(stateCollection).FindOne(ctx, bson.M{"key": keyRoster}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return doc.Values, nil
}

func (m *MongoRoster) Save(ctx context.Context, names []string) error {
	return saveRoster(ctx, m.db, names, time.Now())
}

func saveRoster(ctx context.Context, db *mongo.Database, names []string, now time.Time) error {
	if names == nil {
		names = []string{}
	}
	_, err := db.Collection(stateCollection).UpdateOne(ctx,
		bson.M{"key": keyRoster},
		bson.M{"$set": bson.M{
			"key":           keyRoster,
			"value_strings": names,
			"updated_at":    now,
		}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save roster: %w", err)
	}
	return nil
}
