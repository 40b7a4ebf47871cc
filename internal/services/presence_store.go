package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"mcstatus/internal/models"
)

// PresenceStore persists the last time each player name was seen online.
//
// UpsertSeen must be idempotent and must never move a record's lastSeen
// backwards. QueryRecentlySeen returns every record not in excluding whose
// lastSeen is at or after now-window, newest first.
type PresenceStore interface {
	UpsertSeen(ctx context.Context, names []string, now time.Time) error
	QueryRecentlySeen(ctx context.Context, excluding []string, window time.Duration, now time.Time) ([]models.PresenceRecord, error)
}

// ArtifactRefStore persists the identifier of the synced status message
type ArtifactRefStore interface {
	// LastKnownID returns "" when no message has been recorded yet
	LastKnownID(ctx context.Context) (string, error)
	SaveID(ctx context.Context, id string) error
}

// Pinger is implemented by every storage backend
type Pinger interface {
	Ping(ctx context.Context) error
}

// dedupeNames drops blanks and repeats, keeping first-seen order
func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// nameSet normalizes names the same way dedupeNames does before upsert
func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range dedupeNames(names) {
		set[name] = struct{}{}
	}
	return set
}

// sortRecentlySeen orders records newest first, breaking ties by name
func sortRecentlySeen(records []models.PresenceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].LastSeenAt.Equal(records[j].LastSeenAt) {
			return records[i].LastSeenAt.After(records[j].LastSeenAt)
		}
		return records[i].Name < records[j].Name
	})
}
