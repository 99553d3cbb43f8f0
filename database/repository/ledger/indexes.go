// FILE: database/repository/ledger/indexes.go
package ledgerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the Mongo ledger relies on.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Insertion position doubles as the record id.
		{
			Keys:    bson.D{{Key: "seq", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_seq"),
		},
		// Slot lookups when checking for conflicting acceptances.
		{
			Keys:    bson.D{{Key: "record.date", Value: 1}, {Key: "record.timeSlot", Value: 1}, {Key: "record.status", Value: 1}},
			Options: options.Index().SetName("date_slot_status_idx"),
		},
	}

	_, err := db.Collection(bookingsCollection).Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create ledger indexes: %w", err)
	}
	return nil
}
