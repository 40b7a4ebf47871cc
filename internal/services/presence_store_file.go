package services

import (
	"context"
	"time"

	"mcstatus/internal/database"
	"mcstatus/internal/models"
)

// FilePresenceStore keeps presence records in the JSON file database
type FilePresenceStore struct {
	db *database.FileDB
}

// NewFilePresenceStore creates a presence store over db
func NewFilePresenceStore(db *database.FileDB) *FilePresenceStore {
	return &FilePresenceStore{db: db}
}

// UpsertSeen sets lastSeen to now for every name in one atomic file write
func (s *FilePresenceStore) UpsertSeen(ctx context.Context, names []string, now time.Time) error {
	names = dedupeNames(names)
	if len(names) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now = now.UTC()
	return s.db.Update(func(data *database.FileData) error {
		index := make(map[string]int, len(data.Players))
		for i, record := range data.Players {
			index[record.Name] = i
		}

		for _, name := range names {
			if i, ok := index[name]; ok {
				if now.After(data.Players[i].LastSeenAt) {
					data.Players[i].LastSeenAt = now
				}
				continue
			}
			index[name] = len(data.Players)
			data.Players = append(data.Players, models.PresenceRecord{Name: name, LastSeenAt: now})
		}
		return nil
	})
}

// QueryRecentlySeen filters the in-memory snapshot of the file
func (s *FilePresenceStore) QueryRecentlySeen(ctx context.Context, excluding []string, window time.Duration, now time.Time) ([]models.PresenceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cutoff := now.Add(-window)
	skip := nameSet(excluding)

	var records []models.PresenceRecord
	s.db.Read(func(data database.FileData) {
		for _, record := range data.Players {
			if _, excluded := skip[record.Name]; excluded {
				continue
			}
			if record.LastSeenAt.Before(cutoff) {
				continue
			}
			records = append(records, record)
		}
	})

	sortRecentlySeen(records)
	return records, nil
}

// FileArtifactRefStore keeps the status message id in the JSON file database
type FileArtifactRefStore struct {
	db *database.FileDB
}

// NewFileArtifactRefStore creates an artifact ref store over db
func NewFileArtifactRefStore(db *database.FileDB) *FileArtifactRefStore {
	return &FileArtifactRefStore{db: db}
}

// LastKnownID returns the stored message id
func (s *FileArtifactRefStore) LastKnownID(ctx context.Context) (string, error) {
	var id string
	s.db.Read(func(data database.FileData) {
		id = data.LastMessageID
	})
	return id, nil
}

// SaveID stores the message id
func (s *FileArtifactRefStore) SaveID(ctx context.Context, id string) error {
	return s.db.Update(func(data *database.FileData) error {
		data.LastMessageID = id
		return nil
	})
}
