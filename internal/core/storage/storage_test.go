package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

type backend struct {
	name string
	open func(t *testing.T, dir string) Storage
}

var backends = []backend{
	{"file", func(t *testing.T, dir string) Storage {
		s, err := NewFileStore(filepath.Join(dir, "saves"))
		require.NoError(t, err)
		return s
	}},
	{"sqlite", func(t *testing.T, dir string) Storage {
		s, err := OpenSQLite(filepath.Join(dir, "world.db"))
		require.NoError(t, err)
		return s
	}},
}

func characters() []registry.Record {
	return []registry.Record{
		{"Name": "Bob", "SaveInRoom": map[string]any{"room": "5"}},
		{"Name": "Alice", "MetaTypes": []any{"character"}},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, t.TempDir())
			defer s.Close()

			written, err := s.Save(ctx, "characters", characters())
			require.NoError(t, err)
			assert.True(t, written)

			got, err := s.Load(ctx, "characters")
			require.NoError(t, err)
			assert.Equal(t, characters(), got)

			written, err = s.Save(ctx, "characters", characters())
			require.NoError(t, err)
			assert.False(t, written, "unchanged collections are not rewritten")

			changed := characters()
			changed[0]["Name"] = "Robert"
			written, err = s.Save(ctx, "characters", changed)
			require.NoError(t, err)
			assert.True(t, written)

			got, err = s.Load(ctx, "characters")
			require.NoError(t, err)
			assert.Equal(t, "Robert", got[0]["Name"])
		})
	}
}

func TestMissingAndDelete(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			s := b.open(t, t.TempDir())
			defer s.Close()

			_, err := s.Load(ctx, "zone-town")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.Save(ctx, "zone-town", nil)
			require.NoError(t, err)
			_, err = s.Save(ctx, "characters", characters())
			require.NoError(t, err)

			empty, err := s.Load(ctx, "zone-town")
			require.NoError(t, err)
			assert.Empty(t, empty)

			names, err := s.Collections(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"characters", "zone-town"}, names)

			require.NoError(t, s.Delete(ctx, "characters"))
			_, err = s.Load(ctx, "characters")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.Delete(ctx, "characters"), "deleting twice is fine")
		})
	}
}

func TestInvalidCollection(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t, t.TempDir())
			defer s.Close()
			for _, name := range []string{"", "..", "../escape", "a/b", ".hidden"} {
				_, err := s.Save(context.Background(), name, nil)
				assert.ErrorIs(t, err, ErrInvalidCollection, name)
			}
		})
	}
}

func TestChecksumSurvivesReopen(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			ctx := context.Background()
			dir := t.TempDir()

			s := b.open(t, dir)
			_, err := s.Save(ctx, "characters", characters())
			require.NoError(t, err)
			require.NoError(t, s.Close())

			reopened := b.open(t, dir)
			defer reopened.Close()
			written, err := reopened.Save(ctx, "characters", characters())
			require.NoError(t, err)
			assert.False(t, written)
		})
	}
}

func TestSaveAll(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	batches := map[string][]registry.Record{
		"characters": characters(),
		"zone-town":  {{"Name": "a guard"}},
		"zone-inn":   {},
	}
	n, err := SaveAll(ctx, s, batches)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	batches["zone-town"] = []registry.Record{{"Name": "two guards"}}
	n, err = SaveAll(ctx, s, batches)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = SaveAll(ctx, s, map[string][]registry.Record{"bad/name": nil})
	assert.ErrorIs(t, err, ErrInvalidCollection)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DriverFile, filepath.Join(dir, "files"), "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(DriverSQLite, "", filepath.Join(dir, "db.sqlite"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("redis", dir, "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
