package services

import (
	"context"
	"log"
	"time"

	"mcstatus/internal/models"
)

// PresenceTracker records online players and answers the recently-seen query.
// Store failures are logged and absorbed: writes leave prior state, reads
// return an empty list.
type PresenceTracker struct {
	store   PresenceStore
	metrics *Metrics
	now     func() time.Time
}

// NewPresenceTracker wraps store with the wall clock
func NewPresenceTracker(store PresenceStore, metrics *Metrics) *PresenceTracker {
	return &PresenceTracker{store: store, metrics: metrics, now: time.Now}
}

// WithClock replaces the tracker clock (tests)
func (t *PresenceTracker) WithClock(now func() time.Time) *PresenceTracker {
	t.now = now
	return t
}

// RecordSeen marks every name as seen now
func (t *PresenceTracker) RecordSeen(ctx context.Context, names []string) {
	if len(names) == 0 {
		return
	}
	if err := t.store.UpsertSeen(ctx, names, t.now()); err != nil {
		t.metrics.RecordStoreError("upsert")
		log.Printf("⚠️  [PRESENCE] Failed to record %d players: %v", len(names), err)
	}
}

// RecentlySeen returns players seen within window who are not in excluding
func (t *PresenceTracker) RecentlySeen(ctx context.Context, excluding []string, window time.Duration) []models.PresenceRecord {
	records, err := t.store.QueryRecentlySeen(ctx, excluding, window, t.now())
	if err != nil {
		t.metrics.RecordStoreError("query")
		log.Printf("⚠️  [PRESENCE] Failed to load recently seen players: %v", err)
		return []models.PresenceRecord{}
	}
	if records == nil {
		return []models.PresenceRecord{}
	}
	return records
}
