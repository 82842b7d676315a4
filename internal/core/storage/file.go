package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

const fileExt = ".json"

// FileStore keeps one JSON file per collection in a directory. Writes go through a temporary
// file and a rename, so a crash never leaves a half-written collection behind.
type FileStore struct {
	dir string

	mu     sync.Mutex
	hashes map[string]uint64
	closed bool
}

var _ Storage = (*FileStore)(nil)

// NewFileStore opens dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: filepath.Clean(dir), hashes: make(map[string]uint64)}, nil
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(collection string) string {
	return filepath.Join(s.dir, collection+fileExt)
}

func (s *FileStore) Save(ctx context.Context, collection string, recs []registry.Record) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validCollection(collection); err != nil {
		return false, err
	}
	data, err := registry.MarshalAll(recs)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", collection, err)
	}
	sum := checksum(data)

	if changed, err := s.changed(collection, sum); err != nil || !changed {
		return false, err
	}

	tmp, err := os.CreateTemp(s.dir, collection+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	if err := os.Rename(tmp.Name(), s.path(collection)); err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}

	s.mu.Lock()
	s.hashes[collection] = sum
	s.mu.Unlock()
	return true, nil
}

// changed compares sum against the last write, falling back to the file on disk.
func (s *FileStore) changed(collection string, sum uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	prev, ok := s.hashes[collection]
	if !ok {
		data, err := os.ReadFile(s.path(collection))
		if err != nil {
			return true, nil
		}
		prev = checksum(data)
		s.hashes[collection] = prev
	}
	return prev != sum, nil
}

func (s *FileStore) Load(ctx context.Context, collection string) ([]registry.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", collection, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	recs, err := registry.UnmarshalAll(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}

	s.mu.Lock()
	s.hashes[collection] = checksum(data)
	s.mu.Unlock()
	return recs, nil
}

func (s *FileStore) Delete(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validCollection(collection); err != nil {
		return err
	}
	if err := os.Remove(s.path(collection)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	s.mu.Lock()
	delete(s.hashes, collection)
	s.mu.Unlock()
	return nil
}

func (s *FileStore) Collections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	var out []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), fileExt)
		if e.IsDir() || !ok || validCollection(name) != nil {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
