package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelpot/pixelpot-backend/internal/models"
	"github.com/pixelpot/pixelpot-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// jackpotDocID is the _id of the singleton jackpot document.
const jackpotDocID = "current"

// Compile-time check to ensure LedgerRepository implements repositories.LedgerRepository
var _ repositories.LedgerRepository = (*LedgerRepository)(nil)

// LedgerRepository implements the repositories.LedgerRepository interface on
// MongoDB. Mutation units run as multi-document transactions, so the backing
// deployment must support sessions (replica set or mongos).
type LedgerRepository struct {
	client     *mongo.Client
	jackpot    *mongo.Collection
	history    *mongo.Collection
	targets    *mongo.Collection
	attempts   *mongo.Collection
	baseAmount float64
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *mongo.Database, baseAmount float64) *LedgerRepository {
	return &LedgerRepository{
		client:     db.Client(),
		jackpot:    db.Collection("jackpot"),
		history:    db.Collection("jackpot_history"),
		targets:    db.Collection("daily_targets"),
		attempts:   db.Collection("click_attempts"),
		baseAmount: baseAmount,
	}
}

// Setup creates the unique indexes the gate and rotator rely on and seeds the
// singleton jackpot document with the base amount if it does not exist yet.
func (r *LedgerRepository) Setup(ctx context.Context) error {
	_, err := r.attempts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "identifier", Value: 1}, {Key: "attemptDate", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("identifier_attemptDate_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create click attempt index: %w", err)
	}

	_, err = r.targets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create daily target index: %w", err)
	}

	seed := bson.M{"$setOnInsert": bson.M{
		"currentAmount":  r.baseAmount,
		"lastUpdatedAt":  time.Now().UTC(),
		"lastModifiedBy": models.SystemActorID,
		"version":        int64(1),
	}}
	_, err = r.jackpot.UpdateByID(ctx, jackpotDocID, seed, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to seed jackpot state: %w", err)
	}
	return nil
}

// GetJackpot returns the singleton jackpot state.
func (r *LedgerRepository) GetJackpot(ctx context.Context) (*models.JackpotState, error) {
	var state models.JackpotState
	err := r.jackpot.FindOne(ctx, bson.M{"_id": jackpotDocID}).Decode(&state)
	if err != nil {
		return nil, fmt.Errorf("failed to read jackpot state: %w", err)
	}
	return &state, nil
}

// GetOrCreateDailyTarget returns the target for the date, inserting the
// candidate coordinates at version 1 when no target exists. The upsert makes
// concurrent first reads for the same date converge on a single row.
func (r *LedgerRepository) GetOrCreateDailyTarget(ctx context.Context, date string, candidateX, candidateY int) (*models.DailyTarget, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"date":    date,
		"x":       candidateX,
		"y":       candidateY,
		"version": int64(1),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var target models.DailyTarget
	err := r.targets.FindOneAndUpdate(ctx, bson.M{"date": date}, update, opts).Decode(&target)
	if mongo.IsDuplicateKeyError(err) {
		// Lost the creation race against a concurrent upsert; the winner's
		// row is there now.
		err = r.targets.FindOne(ctx, bson.M{"date": date}).Decode(&target)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get or create daily target for %s: %w", date, err)
	}
	return &target, nil
}

// HasAttempt reports whether a click attempt exists for the identifier on the date.
func (r *LedgerRepository) HasAttempt(ctx context.Context, identifier, date string) (bool, error) {
	count, err := r.attempts.CountDocuments(ctx, bson.M{"identifier": identifier, "attemptDate": date})
	if err != nil {
		return false, fmt.Errorf("failed to check click attempt: %w", err)
	}
	return count > 0, nil
}

// JackpotHistory returns up to limit history entries, newest first.
func (r *LedgerRepository) JackpotHistory(ctx context.Context, limit int64) ([]*models.JackpotHistoryEntry, error) {
	opts := options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit)
	cursor, err := r.history.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find jackpot history: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.JackpotHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode jackpot history: %w", err)
	}
	if entries == nil {
		entries = []*models.JackpotHistoryEntry{}
	}
	return entries, nil
}

// WithMutation runs fn inside a MongoDB transaction. The error fn returns is
// surfaced unchanged, so sentinel errors like ErrDuplicateAttempt survive the
// transaction boundary.
func (r *LedgerRepository) WithMutation(ctx context.Context, fn func(ctx context.Context, tx repositories.LedgerTx) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start ledger session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &ledgerTx{repo: r})
	})
	return err
}

// ledgerTx implements repositories.LedgerTx against the session context
// threaded through WithMutation.
type ledgerTx struct {
	repo *LedgerRepository
}

// GetJackpot reads the jackpot state within the transaction. Concurrent
// transactions that both write the document raise a transient write conflict,
// which WithTransaction resolves by re-running the whole unit.
func (t *ledgerTx) GetJackpot(ctx context.Context) (*models.JackpotState, error) {
	var state models.JackpotState
	err := t.repo.jackpot.FindOne(ctx, bson.M{"_id": jackpotDocID}).Decode(&state)
	if err != nil {
		return nil, fmt.Errorf("failed to read jackpot state: %w", err)
	}
	return &state, nil
}

// UpdateJackpot overwrites the jackpot amount and bumps the version.
func (t *ledgerTx) UpdateJackpot(ctx context.Context, newAmount float64, actorID string, now time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"currentAmount":  newAmount,
			"lastUpdatedAt":  now.UTC(),
			"lastModifiedBy": actorID,
		},
		"$inc": bson.M{"version": int64(1)},
	}
	res, err := t.repo.jackpot.UpdateByID(ctx, jackpotDocID, update)
	if err != nil {
		return fmt.Errorf("failed to update jackpot state: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("jackpot state document %q not found", jackpotDocID)
	}
	return nil
}

// AppendHistory appends one audit entry to the history log.
func (t *ledgerTx) AppendHistory(ctx context.Context, entry *models.JackpotHistoryEntry) error {
	_, err := t.repo.history.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append jackpot history entry: %w", err)
	}
	return nil
}

// RotateTarget inserts or replaces the day's target in one atomic statement.
// On insert $inc starts the version from zero, so both branches land on the
// right version without a read-then-write race.
func (t *ledgerTx) RotateTarget(ctx context.Context, date string, x, y int) (*models.DailyTarget, error) {
	update := bson.M{
		"$set":         bson.M{"x": x, "y": y},
		"$inc":         bson.M{"version": int64(1)},
		"$setOnInsert": bson.M{"date": date},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var target models.DailyTarget
	err := t.repo.targets.FindOneAndUpdate(ctx, bson.M{"date": date}, update, opts).Decode(&target)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate daily target for %s: %w", date, err)
	}
	return &target, nil
}

// RecordAttempt claims the (identifier, date) key. The unique index turns a
// lost race into ErrDuplicateAttempt, which aborts the whole mutation unit.
func (t *ledgerTx) RecordAttempt(ctx context.Context, attempt *models.ClickAttempt) error {
	_, err := t.repo.attempts.InsertOne(ctx, attempt)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateAttempt
		}
		return fmt.Errorf("failed to record click attempt: %w", err)
	}
	return nil
}
