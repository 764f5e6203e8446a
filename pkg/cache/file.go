package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/diskv/v3"
)

const (
	// DefaultNamespace is the sub-directory the default file store writes to.
	DefaultNamespace = "exchange-sdk"

	tempDirName = ".tmp"
)

// DefaultDirectory is the root under the system temp dir used by DefaultFileStore.
func DefaultDirectory() string {
	return filepath.Join(os.TempDir(), "exchange-sdk-cache")
}

// FileStore keeps one JSON file per key on the local filesystem using diskv.
// Writes go through a temp dir and are renamed into place, so readers never
// observe a partially written entry.
type FileStore struct {
	dir  string
	disk *diskv.Diskv
}

// NewFileStore creates a store under directory/namespace, creating it if needed.
func NewFileStore(directory, namespace string) (*FileStore, error) {
	if directory == "" {
		return nil, errors.New("cache directory is required")
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}

	dir := filepath.Join(directory, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	disk := diskv.New(diskv.Options{
		BasePath: dir,
		// Shard by the first byte of the hashed key.
		Transform: func(s string) []string { return []string{s[:2]} },
		TempDir:   filepath.Join(dir, tempDirName),
		PathPerm:  0o755,
		FilePerm:  0o644,
	})

	return &FileStore{dir: dir, disk: disk}, nil
}

// DefaultFileStore creates the store used when the caller supplies none.
func DefaultFileStore() (*FileStore, error) {
	return NewFileStore(DefaultDirectory(), DefaultNamespace)
}

// Name implements Store.
func (s *FileStore) Name() string {
	return "file"
}

// Dir returns the directory entries are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// diskKey maps a cache key to a filesystem-safe diskv key.
func diskKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get reads the entry for key. Expired and unreadable entries are removed.
func (s *FileStore) Get(ctx context.Context, key string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dk := diskKey(key)
	data, err := s.disk.Read(dk)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	var entry storedEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Value == nil {
		_ = s.disk.Erase(dk)
		return nil, fmt.Errorf("%w: %s", ErrInvalidEntry, dk)
	}

	if entry.Key != key {
		return nil, ErrCacheMiss
	}

	if entry.IsExpired() {
		_ = s.disk.Erase(dk)
		return nil, ErrCacheMiss
	}

	return entry.Value, nil
}

// Set writes the entry for key.
func (s *FileStore) Set(ctx context.Context, key string, value Document, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == nil {
		return errors.New("cache value cannot be nil")
	}

	data, err := json.Marshal(newStoredEntry(key, value, ttl))
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := s.disk.Write(diskKey(key), data); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// Delete removes the entry for key; a missing entry is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.disk.Erase(diskKey(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Clear removes every entry in the store directory. The directory is
// recreated on the next write.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.disk.EraseAll(); err != nil {
		return fmt.Errorf("clear cache directory: %w", err)
	}
	return nil
}
