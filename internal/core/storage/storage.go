// Package storage keeps exported entity records between runs. Records are grouped into named
// collections ("characters", one per zone) that are always written and read whole.
package storage

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/mudcore/internal/core/schema/registry"
	"github.com/zeusync/mudcore/pkg/concurrent"
	"github.com/zeusync/mudcore/pkg/sequence"
)

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Storage persists collections of records. Implementations are safe for concurrent use, so
// collections may be written in parallel.
type Storage interface {
	// Save replaces a collection. It reports false when the encoded records are identical to
	// what was last written and the write was skipped.
	Save(ctx context.Context, collection string, recs []registry.Record) (bool, error)
	// Load returns a collection, or ErrNotFound.
	Load(ctx context.Context, collection string) ([]registry.Record, error)
	Delete(ctx context.Context, collection string) error
	// Collections lists stored collection names, sorted.
	Collections(ctx context.Context) ([]string, error)
	Close() error
}

// Open picks a backend by driver name.
func Open(driver, dir, sqlitePath string) (Storage, error) {
	switch driver {
	case DriverFile, "":
		return NewFileStore(dir)
	case DriverSQLite:
		return OpenSQLite(sqlitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// SaveAll writes several collections in parallel and returns how many were actually written.
func SaveAll(ctx context.Context, s Storage, batches map[string][]registry.Record) (int, error) {
	names := slices.Sorted(maps.Keys(batches))
	written, err := concurrent.Map(ctx, sequence.From(names), 0, func(ctx context.Context, name string) (bool, error) {
		return s.Save(ctx, name, batches[name])
	})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, w := range written {
		if w {
			n++
		}
	}
	return n, nil
}

var collectionName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func validCollection(name string) error {
	if !collectionName.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

func checksum(data []byte) uint64 {
	return xxhash.Sum64(data)
}
