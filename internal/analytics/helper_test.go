package analytics

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"networth-tracker/internal/models"
)

const tolerance = 1e-6

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 12, 0, 0, 0, time.UTC)
}

func point(date time.Time, total float64, entries ...models.ResolvedEntry) models.SeriesPoint {
	if entries == nil {
		entries = []models.ResolvedEntry{}
	}
	return models.SeriesPoint{
		Snapshot: models.Snapshot{ID: date.Format(time.RFC3339), Date: date, Frequency: models.FrequencyMonthly, TotalValue: total},
		Entries:  entries,
	}
}

func entry(item *models.Item, value float64) models.ResolvedEntry {
	e := models.ResolvedEntry{SnapshotEntry: models.SnapshotEntry{Value: value}, Item: item}
	if item != nil {
		e.ItemID = item.ID
	}
	return e
}

func assertApprox(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > tolerance {
		t.Fatalf("%s: want %v, got %v", name, want, got)
	}
}

// fakeRepo is an in-memory Repository. Calls are counted so tests can tell a
// cache hit from a recomputation.
type fakeRepo struct {
	mu        sync.Mutex
	snapshots []models.Snapshot
	items     []models.Item
	entries   []models.SnapshotEntry
	err       error
	calls     int
}

func (r *fakeRepo) ListSnapshots(_ context.Context, userID string) ([]models.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	var out []models.Snapshot
	for _, s := range r.snapshots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListItems(_ context.Context, userID string) ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Item
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListEntries(_ context.Context, userID string) ([]models.SnapshotEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SnapshotEntry
	for _, e := range r.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeRepo) snapshotCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeRepo) addSnapshot(s models.Snapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, s)
	r.mu.Unlock()
}
