package window

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket and key names.
var (
	bucketWindow   = []byte("active_window")
	keyCurrent     = []byte("current")
	defaultTimeout = time.Second
)

// SnapshotStore persists the last known active window so a restarted
// monitor can pick up a window that is still open.
type SnapshotStore interface {
	// Load returns the persisted window, or nil when none is stored.
	// A corrupt record is reported as ErrSnapshotCorrupt.
	Load() (*ActiveWindow, error)

	// Save replaces the persisted window.
	Save(w *ActiveWindow) error

	// Close releases the underlying database.
	Close() error
}

// snapshotStore implements SnapshotStore using BoltDB.
type snapshotStore struct {
	db     *bolt.DB
	logger Logger
}

// NewSnapshotStore opens (creating if needed) the state database at
// dbPath.
//
// Parameters:
//   - dbPath: database file path, ~ expanded
//   - log: logger for diagnostic messages
//
// Returns:
//   - Configured SnapshotStore
//   - Error if the database cannot be opened
func NewSnapshotStore(dbPath string, log Logger) (SnapshotStore, error) {
	dbPath = expandHome(dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: defaultTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, createErr := tx.CreateBucketIfNotExists(bucketWindow); createErr != nil {
			return fmt.Errorf("failed to create window bucket: %w", createErr)
		}
		return nil
	}); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after initialization error",
				"error", closeErr)
		}
		return nil, err
	}

	log.Debug("snapshot store opened", "db_path", dbPath)

	return &snapshotStore{db: db, logger: log}, nil
}

// Load implements SnapshotStore.Load.
func (s *snapshotStore) Load() (*ActiveWindow, error) {
	var w *ActiveWindow

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketWindow).Get(keyCurrent)
		if data == nil {
			return nil
		}

		w = &ActiveWindow{}
		if err := json.Unmarshal(data, w); err != nil {
			w = nil
			return fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return w, nil
}

// Save implements SnapshotStore.Save.
func (s *snapshotStore) Save(w *ActiveWindow) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal window: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketWindow).Put(keyCurrent, data); err != nil {
			return fmt.Errorf("failed to store window: %w", err)
		}
		return nil
	})
}

// Close implements SnapshotStore.Close.
func (s *snapshotStore) Close() error {
	return s.db.Close()
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
