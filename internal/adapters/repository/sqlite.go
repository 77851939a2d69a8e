package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/sect/internal/domain/profile"
	"github.com/okian/sect/pkg/logger"
	"github.com/okian/sect/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	name TEXT PRIMARY KEY,
	document TEXT NOT NULL,
	size INTEGER NOT NULL DEFAULT 0,
	roster_limit INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteStore keeps profiles in a single SQLite file. Each profile is one row
// holding the exported JSON document, so a stored row can be exported as is.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
	log logger.Logger
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("repository")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// database/sql pools connections; SQLite serializes writers anyway and an
	// in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite %s: %w", path, err)
		}
	}

	return &SQLiteStore{db: db, now: o.now, log: o.logger}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, name string) (profile.Snapshot, error) {
	name, err := normalizeName(name)
	if err != nil {
		return profile.Snapshot{}, err
	}

	var doc string
	err = s.db.QueryRowContext(ctx, `SELECT document FROM profiles WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return profile.Snapshot{}, fmt.Errorf("load profile %s: %w", name, err)
	}
	return profile.Parse([]byte(doc))
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, name string, snap profile.Snapshot) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	doc, err := profile.Marshal(snap)
	if err != nil {
		metrics.RecordProfileSave("error")
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles (name, document, size, roster_limit, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	document = excluded.document,
	size = excluded.size,
	roster_limit = excluded.roster_limit,
	updated_at = excluded.updated_at`,
		name, string(doc), len(snap.Disciples), snap.Limit, s.now().UnixMilli())
	if err != nil {
		metrics.RecordProfileSave("error")
		metrics.RecordErrorByComponent("repository", "save")
		s.log.Error(ctx, "profile save failed", logger.String("profile", name), logger.Error(err))
		return fmt.Errorf("save profile %s: %w", name, err)
	}
	metrics.RecordProfileSave("ok")
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]ProfileInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, size, roster_limit, updated_at FROM profiles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := []ProfileInfo{}
	for rows.Next() {
		var (
			info    ProfileInfo
			updated int64
		)
		if err := rows.Scan(&info.Name, &info.Size, &info.Limit, &updated); err != nil {
			return nil, fmt.Errorf("list profiles: %w", err)
		}
		info.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	name, err := normalizeName(name)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Setting implements Store.
func (s *SQLiteStore) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: setting %s", ErrNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("read setting %s: %w", key, err)
	}
	return v, nil
}

// SetSetting implements Store.
func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("write setting %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
