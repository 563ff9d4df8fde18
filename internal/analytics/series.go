package analytics

import (
	"context"
	"fmt"
	"sort"

	"networth-tracker/internal/models"

	"golang.org/x/sync/errgroup"
)

// Repository is the read side of the snapshot store. Each call returns every
// record of one kind owned by userID, in no particular order.
type Repository interface {
	ListSnapshots(ctx context.Context, userID string) ([]models.Snapshot, error)
	ListItems(ctx context.Context, userID string) ([]models.Item, error)
	ListEntries(ctx context.Context, userID string) ([]models.SnapshotEntry, error)
}

// BuildSeries loads a user's snapshots with their entries resolved against items
// and returns them sorted by date ascending. Snapshots sharing a date keep the
// order the repository returned them in.
//
// The three collections are fetched in one batch each, concurrently. An entry
// whose item was deleted is kept with a nil Item.
func BuildSeries(ctx context.Context, repo Repository, userID string) ([]models.SeriesPoint, error) {
	var (
		snapshots []models.Snapshot
		items     []models.Item
		entries   []models.SnapshotEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if snapshots, err = repo.ListSnapshots(gctx, userID); err != nil {
			return fmt.Errorf("failed to load snapshots: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if items, err = repo.ListItems(gctx, userID); err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if entries, err = repo.ListEntries(gctx, userID); err != nil {
			return fmt.Errorf("failed to load entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		return []models.SeriesPoint{}, nil
	}

	itemsByID := make(map[string]*models.Item, len(items))
	for i := range items {
		itemsByID[items[i].ID] = &items[i]
	}

	entriesBySnapshot := make(map[string][]models.ResolvedEntry)
	for _, e := range entries {
		entriesBySnapshot[e.SnapshotID] = append(entriesBySnapshot[e.SnapshotID], models.ResolvedEntry{
			SnapshotEntry: e,
			Item:          itemsByID[e.ItemID],
		})
	}

	series := make([]models.SeriesPoint, 0, len(snapshots))
	for _, s := range snapshots {
		resolved := entriesBySnapshot[s.ID]
		if resolved == nil {
			resolved = []models.ResolvedEntry{}
		}
		series = append(series, models.SeriesPoint{Snapshot: s, Entries: resolved})
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series, nil
}
