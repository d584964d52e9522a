package session

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps JSON encoded values in a sessions table.
type SQLiteStore[T any] struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite[T any](path string, ttl time.Duration) (*SQLiteStore[T], error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session: sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore[T]{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore[T]) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var (
		v    T
		data string
	)
	now := s.now().UnixMilli()
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM sessions WHERE id = ? AND (expires_at = 0 OR expires_at >= ?)`, id, now,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		// only an expired row is removed; a live one written since the read stays
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM sessions WHERE id = ? AND expires_at != 0 AND expires_at < ?`, id, now,
		); err != nil {
			return v, false, fmt.Errorf("session: expire: %w", err)
		}
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("session: get: %w", err)
	}
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, false, fmt.Errorf("session: failed to unmarshal: %w", err)
	}
	return v, true, nil
}

func (s *SQLiteStore[T]) Put(ctx context.Context, id string, v T) error {
	if id == "" {
		return fmt.Errorf("session: missing session id")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: failed to marshal: %w", err)
	}
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).UnixMilli()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		id, string(data), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("session: put: %w", err)
	}
	return nil
}

func (s *SQLiteStore[T]) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (s *SQLiteStore[T]) NewID() string {
	return newID()
}
