package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "modernc.org/sqlite"

	"github.com/zeusync/mudcore/internal/core/schema/registry"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps one row per record in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; readers share the connection too.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, collection string, recs []registry.Record) (bool, error) {
	if err := validCollection(collection); err != nil {
		return false, err
	}
	if s.db == nil {
		return false, ErrClosed
	}

	rows := make([][]byte, 0, len(recs))
	digest := xxhash.New()
	for _, rec := range recs {
		data, err := registry.Marshal(rec)
		if err != nil {
			return false, fmt.Errorf("encode %s: %w", collection, err)
		}
		_, _ = digest.Write(data)
		_, _ = digest.Write([]byte{'\n'})
		rows = append(rows, data)
	}
	sum := int64(digest.Sum64())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	defer func() { _ = tx.Rollback() }()

	var prev int64
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM collections WHERE name = ?`, collection).Scan(&prev)
	switch {
	case err == nil && prev == sum:
		return false, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("save %s: %w", collection, err)
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO collections (name, checksum, updated_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET checksum = excluded.checksum, updated_at = excluded.updated_at`,
		collection, sum, time.Now().UTC().UnixMilli(),
	); err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE collection = ?`, collection); err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	for i, data := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (collection, position, data) VALUES (?, ?, ?)`,
			collection, i, data,
		); err != nil {
			return false, fmt.Errorf("save %s record %d: %w", collection, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("save %s: %w", collection, err)
	}
	return true, nil
}

func (s *SQLiteStore) Load(ctx context.Context, collection string) ([]registry.Record, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	if s.db == nil {
		return nil, ErrClosed
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE name = ?`, collection).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", collection, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM records WHERE collection = ? ORDER BY position`, collection)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	defer rows.Close()

	recs := []registry.Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("load %s: %w", collection, err)
		}
		rec, err := registry.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load %s: %w", collection, err)
	}
	return recs, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, collection string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	if s.db == nil {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, collection); err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

func (s *SQLiteStore) Collections(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
