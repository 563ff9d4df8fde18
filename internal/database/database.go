package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"networth-tracker/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	itemsCollection     = "items"
	snapshotsCollection = "snapshots"
	entriesCollection   = "snapshot_entries"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("record not found")
	// ErrItemInUse is returned when deleting an item that snapshot entries still reference.
	ErrItemInUse = errors.New("item is used by one or more snapshots")
	// ErrPartialWrite is returned when a multi-document write failed after some
	// of its documents were already committed.
	ErrPartialWrite = errors.New("write partially committed")
)

// DB wraps MongoDB operations
type DB struct {
	client    *mongo.Client
	items     *mongo.Collection
	snapshots *mongo.Collection
	entries   *mongo.Collection
	logger    *zap.Logger
}

// New creates a new database connection
func New(ctx context.Context, uri, dbName string, logger *zap.Logger) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	database := client.Database(dbName)
	logger.Info("connected to MongoDB", zap.String("database", dbName))
	return &DB{
		client:    client,
		items:     database.Collection(itemsCollection),
		snapshots: database.Collection(snapshotsCollection),
		entries:   database.Collection(entriesCollection),
		logger:    logger,
	}, nil
}

// Close closes the database connection
func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the per-user scans rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	byUser := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}
	for _, coll := range []*mongo.Collection{db.items, db.snapshots} {
		if _, err := coll.Indexes().CreateOne(ctx, byUser); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", coll.Name(), err)
		}
	}
	_, err := db.entries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		byUser,
		{Keys: bson.D{{Key: "snapshotId", Value: 1}}},
		{Keys: bson.D{{Key: "itemId", Value: 1}}},
		{
			Keys:    bson.D{{Key: "snapshotId", Value: 1}, {Key: "itemId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create entry indexes: %w", err)
	}
	return nil
}

// findAll decodes every document of coll matching filter.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func ownedBy(userID, id string) bson.M {
	return bson.M{"_id": id, "userId": userID}
}

// ListSnapshots returns all snapshots of a user, unordered
func (db *DB) ListSnapshots(ctx context.Context, userID string) ([]models.Snapshot, error) {
	snapshots, err := findAll[models.Snapshot](ctx, db.snapshots, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch snapshots: %w", err)
	}
	return snapshots, nil
}

// ListItems returns all items of a user ordered by sort order
func (db *DB) ListItems(ctx context.Context, userID string) ([]models.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}})
	items, err := findAll[models.Item](ctx, db.items, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}
	return items, nil
}

// ListEntries returns all snapshot entries of a user, unordered
func (db *DB) ListEntries(ctx context.Context, userID string) ([]models.SnapshotEntry, error) {
	entries, err := findAll[models.SnapshotEntry](ctx, db.entries, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	return entries, nil
}

// RecentSnapshots returns the newest snapshots of a user (limit 0 = no limit)
func (db *DB) RecentSnapshots(ctx context.Context, userID string, limit int) ([]models.Snapshot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	snapshots, err := findAll[models.Snapshot](ctx, db.snapshots, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent snapshots: %w", err)
	}
	return snapshots, nil
}

// FindSnapshot finds a snapshot by ID
func (db *DB) FindSnapshot(ctx context.Context, userID, id string) (*models.Snapshot, error) {
	var s models.Snapshot
	err := db.snapshots.FindOne(ctx, ownedBy(userID, id)).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find snapshot: %w", err)
	}
	return &s, nil
}

// FindItem finds an item by ID
func (db *DB) FindItem(ctx context.Context, userID, id string) (*models.Item, error) {
	var it models.Item
	err := db.items.FindOne(ctx, ownedBy(userID, id)).Decode(&it)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &it, nil
}

// InsertItem inserts a new item
func (db *DB) InsertItem(ctx context.Context, item *models.Item) error {
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().Unix()
	if _, err := db.items.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

// UpdateItem updates an item
func (db *DB) UpdateItem(ctx context.Context, userID, id string, update bson.M) error {
	update["updatedAt"] = time.Now().Unix()
	res, err := db.items.UpdateOne(ctx, ownedBy(userID, id), bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem deletes an item unless a snapshot entry still references it
func (db *DB) DeleteItem(ctx context.Context, userID, id string) error {
	used, err := db.entries.CountDocuments(ctx, bson.M{"userId": userID, "itemId": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check item usage: %w", err)
	}
	if used > 0 {
		return ErrItemInUse
	}

	res, err := db.items.DeleteOne(ctx, ownedBy(userID, id))
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertSnapshot inserts a snapshot together with its entries. If the entries
// cannot be written the snapshot is removed again.
func (db *DB) InsertSnapshot(ctx context.Context, s *models.Snapshot, entries []models.SnapshotEntry) error {
	s.ID = uuid.NewString()
	s.CreatedAt = time.Now().Unix()
	if _, err := db.snapshots.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, len(entries))
	for i := range entries {
		entries[i].ID = uuid.NewString()
		entries[i].UserID = s.UserID
		entries[i].SnapshotID = s.ID
		docs[i] = entries[i]
	}
	if _, err := db.entries.InsertMany(ctx, docs); err != nil {
		rolledBack := true
		if _, cleanupErr := db.entries.DeleteMany(ctx, bson.M{"snapshotId": s.ID}); cleanupErr != nil {
			db.logger.Error("failed to roll back snapshot entries", zap.String("snapshot", s.ID), zap.Error(cleanupErr))
			rolledBack = false
		}
		if _, cleanupErr := db.snapshots.DeleteOne(ctx, bson.M{"_id": s.ID}); cleanupErr != nil {
			db.logger.Error("failed to roll back snapshot", zap.String("snapshot", s.ID), zap.Error(cleanupErr))
			rolledBack = false
		}
		if !rolledBack {
			return fmt.Errorf("failed to insert snapshot entries: %w (%w)", ErrPartialWrite, err)
		}
		return fmt.Errorf("failed to insert snapshot entries: %w", err)
	}
	return nil
}

// UpdateSnapshot updates a snapshot
func (db *DB) UpdateSnapshot(ctx context.Context, userID, id string, update bson.M) error {
	update["updatedAt"] = time.Now().Unix()
	res, err := db.snapshots.UpdateOne(ctx, ownedBy(userID, id), bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSnapshot deletes a snapshot and its entries, entries first.
func (db *DB) DeleteSnapshot(ctx context.Context, userID, id string) error {
	if _, err := db.FindSnapshot(ctx, userID, id); err != nil {
		return err
	}

	// A failed DeleteMany may have removed some entries already.
	res, err := db.entries.DeleteMany(ctx, bson.M{"userId": userID, "snapshotId": id})
	if err != nil {
		return fmt.Errorf("failed to delete snapshot entries: %w (%w)", ErrPartialWrite, err)
	}

	if _, err := db.snapshots.DeleteOne(ctx, ownedBy(userID, id)); err != nil {
		if res.DeletedCount > 0 {
			return fmt.Errorf("failed to delete snapshot: %w (%w)", ErrPartialWrite, err)
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// SetEntry sets the value of an item within a snapshot, creating the entry if needed
func (db *DB) SetEntry(ctx context.Context, userID, snapshotID, itemID string, value float64) error {
	filter := bson.M{"userId": userID, "snapshotId": snapshotID, "itemId": itemID}
	update := bson.M{
		"$set":         bson.M{"value": value},
		"$setOnInsert": bson.M{"_id": uuid.NewString()},
	}
	if _, err := db.entries.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to set entry: %w", err)
	}
	return nil
}

// DeleteEntry removes an item from a snapshot
func (db *DB) DeleteEntry(ctx context.Context, userID, snapshotID, itemID string) error {
	res, err := db.entries.DeleteOne(ctx, bson.M{"userId": userID, "snapshotId": snapshotID, "itemId": itemID})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
