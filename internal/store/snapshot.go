package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SnapshotStore is the durability port of the interpreted backend: one
// opaque blob per namespace key, reloaded at open and rewritten after every
// mutating statement. Injecting it keeps the backend testable without a
// filesystem.
type SnapshotStore interface {
	// Load returns the blob stored under key. The second result is false
	// when no snapshot exists yet; that is not an error.
	Load(key string) ([]byte, bool, error)

	// Save durably replaces the blob stored under key.
	Save(key string, data []byte) error
}

// FileSnapshotStore persists snapshots as files in a directory, one file per
// key, written with the temp-file, fsync, rename pattern.
type FileSnapshotStore struct {
	dir string
}

// NewFileSnapshotStore creates the directory if needed and returns a store
// over it.
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

func (f *FileSnapshotStore) path(key string) string {
	name := strings.ReplaceAll(key, "/", "_") + ".json"
	return filepath.Join(f.dir, name)
}

// Load reads the snapshot file for key.
func (f *FileSnapshotStore) Load(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading snapshot: %w", err)
	}
	return data, true, nil
}

// Save atomically replaces the snapshot file for key.
func (f *FileSnapshotStore) Save(key string, data []byte) error {
	path := f.path(key)
	tmp, err := os.CreateTemp(f.dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming snapshot: %w", err)
	}
	return nil
}

// MemorySnapshotStore keeps snapshots in a map. Used in tests.
type MemorySnapshotStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemorySnapshotStore returns an empty in-memory snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{blobs: make(map[string][]byte)}
}

// Load returns the blob stored under key.
func (m *MemorySnapshotStore) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, true, nil
}

// Save replaces the blob stored under key.
func (m *MemorySnapshotStore) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blobs[key] = cp
	return nil
}
