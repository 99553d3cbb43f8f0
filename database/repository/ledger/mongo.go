// File: database/repository/ledger/mongo.go
package ledgerRepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autoshop/models"
)

const (
	bookingsCollection = "bookings"
	countersCollection = "counters"
	bookingCounterID   = "bookings"
)

// ledgerDocument is a booking as stored in MongoDB. Seq is the insertion position.
type ledgerDocument struct {
	Seq       int64                `bson:"seq"`
	Record    models.BookingRecord `bson:"record"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

type mongoLedgerRepo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// NewMongoLedgerRepo constructs a ledger backed by the given database.
func NewMongoLedgerRepo(db *mongo.Database) LedgerRepository {
	return &mongoLedgerRepo{
		coll:     db.Collection(bookingsCollection),
		counters: db.Collection(countersCollection),
	}
}

// nextSeq atomically hands out the next zero-based insertion position.
func (r *mongoLedgerRepo) nextSeq(ctx context.Context) (int64, error) {
	var counter struct {
		Value int64 `bson:"value"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingCounterID},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Value - 1, nil
}

func (r *mongoLedgerRepo) Append(ctx context.Context, record models.BookingRecord) (models.RecordID, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	record.Status = models.StatusPending
	seq, err := r.nextSeq(ctx)
	if err != nil {
		return 0, &models.StorageError{Op: "append", Path: bookingsCollection, Err: err}
	}
	now := time.Now().UTC()
	doc := ledgerDocument{Seq: seq, Record: record, CreatedAt: now, UpdatedAt: now}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return 0, &models.StorageError{Op: "append", Path: bookingsCollection, Err: err}
	}
	return models.RecordID(seq), nil
}

func (r *mongoLedgerRepo) List(ctx context.Context) ([]models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: bookingsCollection, Err: err}
	}
	defer cursor.Close(ctx)

	var docs []ledgerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &models.StorageError{Op: "read", Path: bookingsCollection, Err: err}
	}
	entries := make([]models.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		entries = append(entries, models.LedgerEntry{ID: models.RecordID(d.Seq), Record: d.Record})
	}
	return entries, nil
}

func (r *mongoLedgerRepo) Get(ctx context.Context, id models.RecordID) (*models.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc ledgerDocument
	err := r.coll.FindOne(ctx, bson.M{"seq": int64(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, &models.StorageError{Op: "read", Path: bookingsCollection, Err: err}
	}
	return &models.LedgerEntry{ID: models.RecordID(doc.Seq), Record: doc.Record}, nil
}

func (r *mongoLedgerRepo) UpdateStatus(ctx context.Context, id models.RecordID, status models.BookingStatus) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"seq": int64(id)},
		bson.M{"$set": bson.M{"record.status": status, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return &models.StorageError{Op: "write", Path: bookingsCollection, Err: err}
	}
	if res.MatchedCount == 0 {
		return notFound(id)
	}
	return nil
}
