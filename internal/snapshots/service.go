package snapshots

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"networth-tracker/internal/database"
	"networth-tracker/internal/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ErrInvalidInput wraps every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Store is the persistence the write path needs.
type Store interface {
	ListItems(ctx context.Context, userID string) ([]models.Item, error)
	FindItem(ctx context.Context, userID, id string) (*models.Item, error)
	InsertItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, userID, id string, update bson.M) error
	DeleteItem(ctx context.Context, userID, id string) error

	RecentSnapshots(ctx context.Context, userID string, limit int) ([]models.Snapshot, error)
	FindSnapshot(ctx context.Context, userID, id string) (*models.Snapshot, error)
	InsertSnapshot(ctx context.Context, s *models.Snapshot, entries []models.SnapshotEntry) error
	UpdateSnapshot(ctx context.Context, userID, id string, update bson.M) error
	DeleteSnapshot(ctx context.Context, userID, id string) error

	SetEntry(ctx context.Context, userID, snapshotID, itemID string, value float64) error
	DeleteEntry(ctx context.Context, userID, snapshotID, itemID string) error
}

// Invalidator drops derived data of a user after a committed write.
type Invalidator interface {
	Invalidate(userID string)
}

// ItemInput describes an item to create or update. Empty fields are left
// unchanged on update.
type ItemInput struct {
	Name      string
	Category  models.Category
	SortOrder *int
}

// EntryInput is the value of one item in a new snapshot.
type EntryInput struct {
	ItemID string
	Value  float64
}

// SnapshotInput describes a new snapshot. When TotalValue is nil the total is
// the sum of the entry values.
type SnapshotInput struct {
	Date       time.Time
	Frequency  models.Frequency
	TotalValue *float64
	Entries    []EntryInput
}

// SnapshotUpdate changes the header fields of a snapshot. Nil fields are kept.
type SnapshotUpdate struct {
	Date       *time.Time
	Frequency  *models.Frequency
	TotalValue *float64
}

// Service performs item, snapshot and entry writes and invalidates the owner's
// analytics once a write that affects them has been committed.
type Service struct {
	store       Store
	invalidator Invalidator
	logger      *zap.Logger
}

// NewService creates a write service.
func NewService(store Store, invalidator Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, invalidator: invalidator, logger: logger}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func (s *Service) committed(userID, op string) {
	s.invalidator.Invalidate(userID)
	s.logger.Debug("analytics invalidated", zap.String("user", userID), zap.String("op", op))
}

// finish invalidates when the write reached the store, including a write that
// failed half way through, and returns err.
func (s *Service) finish(userID, op string, err error) error {
	if err == nil || errors.Is(err, database.ErrPartialWrite) {
		s.committed(userID, op)
	}
	if err != nil {
		s.logger.Warn("write failed", zap.String("user", userID), zap.String("op", op), zap.Error(err))
	}
	return err
}

// ListItems returns the user's items ordered by sort order.
func (s *Service) ListItems(ctx context.Context, userID string) ([]models.Item, error) {
	return s.store.ListItems(ctx, userID)
}

// CreateItem creates an item. New items are not referenced by any snapshot, so
// analytics are left untouched.
func (s *Service) CreateItem(ctx context.Context, userID string, in ItemInput) (*models.Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("item name is required")
	}
	category := models.Category(strings.TrimSpace(string(in.Category)))
	if category == "" {
		return nil, invalid("item category is required")
	}

	item := &models.Item{UserID: userID, Name: name, Category: category}
	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	}
	if err := s.store.InsertItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItem renames, recategorizes or reorders an item. A category change moves
// the item's values between breakdown rows, so analytics are invalidated.
func (s *Service) UpdateItem(ctx context.Context, userID, id string, in ItemInput) error {
	update := bson.M{}
	if name := strings.TrimSpace(in.Name); name != "" {
		update["name"] = name
	}
	if category := strings.TrimSpace(string(in.Category)); category != "" {
		update["category"] = category
	}
	if in.SortOrder != nil {
		update["sortOrder"] = *in.SortOrder
	}
	if len(update) == 0 {
		return invalid("nothing to update")
	}

	return s.finish(userID, "update item", s.store.UpdateItem(ctx, userID, id, update))
}

// DeleteItem deletes an item that no snapshot references.
func (s *Service) DeleteItem(ctx context.Context, userID, id string) error {
	return s.store.DeleteItem(ctx, userID, id)
}

// RecentSnapshots returns the newest snapshots first.
func (s *Service) RecentSnapshots(ctx context.Context, userID string, limit int) ([]models.Snapshot, error) {
	return s.store.RecentSnapshots(ctx, userID, limit)
}

// CreateSnapshot records a snapshot with its entries. Every entry must reference
// one of the user's items.
func (s *Service) CreateSnapshot(ctx context.Context, userID string, in SnapshotInput) (*models.Snapshot, error) {
	if in.Date.IsZero() {
		return nil, invalid("date is required")
	}
	if in.Frequency == "" {
		in.Frequency = models.FrequencyMonthly
	}
	if !in.Frequency.Valid() {
		return nil, invalid("frequency must be %q or %q", models.FrequencyMonthly, models.FrequencyWeekly)
	}
	if len(in.Entries) == 0 {
		return nil, invalid("at least one entry is required")
	}
	if in.TotalValue != nil && !isFinite(*in.TotalValue) {
		return nil, invalid("total value must be a finite number")
	}

	items, err := s.store.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(items))
	for _, it := range items {
		owned[it.ID] = true
	}

	seen := make(map[string]bool, len(in.Entries))
	entries := make([]models.SnapshotEntry, 0, len(in.Entries))
	total := decimal.Zero
	for _, e := range in.Entries {
		if !owned[e.ItemID] {
			return nil, invalid("unknown item %q", e.ItemID)
		}
		if seen[e.ItemID] {
			return nil, invalid("item %q listed twice", e.ItemID)
		}
		if !isFinite(e.Value) {
			return nil, invalid("value of item %q must be a finite number", e.ItemID)
		}
		seen[e.ItemID] = true
		total = total.Add(decimal.NewFromFloat(e.Value))
		entries = append(entries, models.SnapshotEntry{ItemID: e.ItemID, Value: e.Value})
	}

	snapshot := &models.Snapshot{
		UserID:     userID,
		Date:       in.Date.UTC(),
		Frequency:  in.Frequency,
		TotalValue: total.InexactFloat64(),
	}
	if in.TotalValue != nil {
		snapshot.TotalValue = *in.TotalValue
	}

	if err := s.finish(userID, "create snapshot", s.store.InsertSnapshot(ctx, snapshot, entries)); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// UpdateSnapshot changes a snapshot's date, frequency or total.
func (s *Service) UpdateSnapshot(ctx context.Context, userID, id string, in SnapshotUpdate) error {
	update := bson.M{}
	if in.Date != nil {
		if in.Date.IsZero() {
			return invalid("date is required")
		}
		update["date"] = in.Date.UTC()
	}
	if in.Frequency != nil {
		if !in.Frequency.Valid() {
			return invalid("frequency must be %q or %q", models.FrequencyMonthly, models.FrequencyWeekly)
		}
		update["frequency"] = *in.Frequency
	}
	if in.TotalValue != nil {
		if !isFinite(*in.TotalValue) {
			return invalid("total value must be a finite number")
		}
		update["totalValue"] = *in.TotalValue
	}
	if len(update) == 0 {
		return invalid("nothing to update")
	}

	return s.finish(userID, "update snapshot", s.store.UpdateSnapshot(ctx, userID, id, update))
}

// DeleteSnapshot deletes a snapshot and its entries.
func (s *Service) DeleteSnapshot(ctx context.Context, userID, id string) error {
	return s.finish(userID, "delete snapshot", s.store.DeleteSnapshot(ctx, userID, id))
}

// SetEntry sets an item's value within an existing snapshot. The snapshot total
// is not recomputed.
func (s *Service) SetEntry(ctx context.Context, userID, snapshotID, itemID string, value float64) error {
	if !isFinite(value) {
		return invalid("value must be a finite number")
	}
	if _, err := s.store.FindSnapshot(ctx, userID, snapshotID); err != nil {
		return err
	}
	if _, err := s.store.FindItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.finish(userID, "set entry", s.store.SetEntry(ctx, userID, snapshotID, itemID, value))
}

// DeleteEntry removes an item from a snapshot. The snapshot total is not recomputed.
func (s *Service) DeleteEntry(ctx context.Context, userID, snapshotID, itemID string) error {
	return s.finish(userID, "delete entry", s.store.DeleteEntry(ctx, userID, snapshotID, itemID))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
