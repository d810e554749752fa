package persist

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// RunRetention periodically deletes runs older than the retention period.
// Blocks until ctx is cancelled. Pass retentionDays <= 0 to disable.
func RunRetention(ctx context.Context, store *Store, retentionDays int) {
	if retentionDays <= 0 {
		log.Println("run retention disabled (keep forever)")
		return
	}

	interval := 1 * time.Hour
	log.Printf("run retention: pruning runs older than %d days every %v", retentionDays, interval)

	// Run once immediately on startup, then on the ticker.
	prune(ctx, store, retentionDays)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune(ctx, store, retentionDays)
		}
	}
}

func prune(ctx context.Context, store *Store, retentionDays int) {
	cutoff := retentionCutoff(time.Now(), retentionDays)

	result, err := store.db.Collection(runsCollection).DeleteMany(ctx, bson.M{
		"started_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		log.Printf("run retention prune error: %v", err)
		return
	}

	if result.DeletedCount > 0 {
		log.Printf("run retention: pruned %d runs older than %s", result.DeletedCount, cutoff.Format(time.DateOnly))
	}
}

func retentionCutoff(now time.Time, retentionDays int) time.Time {
	return now.AddDate(0, 0, -retentionDays)
}
