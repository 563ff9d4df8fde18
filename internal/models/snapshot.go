package models

import "time"

// Frequency is the cadence a snapshot was recorded with.
type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyWeekly  Frequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyWeekly
}

// Snapshot is one dated data point of a user's net worth.
//
// TotalValue is the sum of the entry values at creation time. It is authoritative:
// analytics never recompute it from entries, so entries edited afterwards do not
// move the total until the snapshot itself is updated.
type Snapshot struct {
	ID         string    `bson:"_id" json:"id"`
	UserID     string    `bson:"userId" json:"userId"`
	Date       time.Time `bson:"date" json:"date"`
	Frequency  Frequency `bson:"frequency" json:"frequency"`
	TotalValue float64   `bson:"totalValue" json:"totalValue"`
	CreatedAt  int64     `bson:"createdAt" json:"createdAt"`
	UpdatedAt  int64     `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// SnapshotEntry is the value assigned to one Item within one Snapshot.
type SnapshotEntry struct {
	ID         string  `bson:"_id" json:"id"`
	UserID     string  `bson:"userId" json:"userId"`
	SnapshotID string  `bson:"snapshotId" json:"snapshotId"`
	ItemID     string  `bson:"itemId" json:"itemId"`
	Value      float64 `bson:"value" json:"value"`
}

// ResolvedEntry is an entry joined with its Item. Item is nil when the entry
// references an item that no longer exists.
type ResolvedEntry struct {
	SnapshotEntry
	Item *Item `json:"item"`
}

// SeriesPoint is a snapshot with its resolved entries, as used by analytics.
type SeriesPoint struct {
	Snapshot
	Entries []ResolvedEntry `json:"entries"`
}
