package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"mcstatus/internal/models"
)

// FileData is the on-disk layout of the JSON database
type FileData struct {
	Players       []models.PresenceRecord `json:"players"`
	LastMessageID string                  `json:"lastMessageId,omitempty"`
}

// FileDB is a single-file JSON database.
// Every write replaces the file atomically (temp file + rename), so a crash
// mid-write leaves the previous snapshot intact.
type FileDB struct {
	path string
	mu   sync.Mutex
	data FileData
}

// NewFileDB opens (or creates) the JSON database at path
func NewFileDB(path string) (*FileDB, error) {
	db := &FileDB{path: path}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Printf("📦 [FILEDB] No database at %s, starting empty", path)
		if err := db.flush(db.data); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read database file: %w", err)
	case len(raw) > 0:
		if err := json.Unmarshal(raw, &db.data); err != nil {
			return nil, fmt.Errorf("failed to parse database file %s: %w", path, err)
		}
		log.Printf("✅ [FILEDB] Loaded %d player records from %s", len(db.data.Players), path)
	}

	return db, nil
}

// Path returns the backing file path
func (db *FileDB) Path() string {
	return db.path
}

// Read calls fn with a copy of the current data
func (db *FileDB) Read(fn func(data FileData)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	fn(db.snapshot())
}

// Update applies fn to a copy of the data and persists the result.
// If fn or the write fails, the in-memory state is left unchanged.
func (db *FileDB) Update(fn func(data *FileData) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := db.snapshot()
	if err := fn(&next); err != nil {
		return err
	}
	if err := db.flush(next); err != nil {
		return err
	}
	db.data = next
	return nil
}

// Ping verifies the data directory is still writable
func (db *FileDB) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(db.path), ".ping-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Close is a no-op; every Update is already durable
func (db *FileDB) Close(ctx context.Context) error {
	return nil
}

func (db *FileDB) snapshot() FileData {
	players := make([]models.PresenceRecord, len(db.data.Players))
	copy(players, db.data.Players)
	return FileData{Players: players, LastMessageID: db.data.LastMessageID}
}

func (db *FileDB) flush(data FileData) error {
	if data.Players == nil {
		data.Players = []models.PresenceRecord{}
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.path), filepath.Base(db.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, db.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace database file: %w", err)
	}
	return nil
}
