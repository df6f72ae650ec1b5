package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rapidbounce/postfactory/internal/session/session_models"
	_ "modernc.org/sqlite"
)

// schema is applied at open. One row per session keyed by id, holding the
// latest state snapshot; events live in their own table so the log can be
// compacted without touching state. New state keys need no migration: the
// snapshot is a JSON object.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    state      TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS session_events (
    session_id TEXT    NOT NULL REFERENCES sessions(id),
    seq        INTEGER NOT NULL,
    stage      TEXT    NOT NULL DEFAULT '',
    kind       TEXT    NOT NULL,
    payload    TEXT    NOT NULL DEFAULT 'null',
    created_at TEXT    NOT NULL,
    PRIMARY KEY (session_id, seq)
);
`

// Store is the durable session store backed by a single sqlite file. WAL plus
// busy_timeout lets concurrent runs share the file; per-session write
// serialization comes from the pipeline's strict stage ordering.
type Store struct {
	db        *sql.DB
	maxEvents int
}

// Open opens (or creates) the sqlite session store at path. Any failure here
// (unwritable directory, corrupt file, bad schema) is returned to the caller,
// which is expected to fall back to the in-memory store.
func Open(path string, maxEvents int) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sessions dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Store{db: db, maxEvents: maxEvents}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateSession(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, state) VALUES (?, ?, '{}')`,
		id, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *Store) GetState(ctx context.Context, id string) (map[string]any, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session_models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if state == nil {
		state = make(map[string]any)
	}
	return state, nil
}

// MutateState sets one key in the session's state snapshot. Read-modify-write
// happens inside a transaction so concurrent sessions cannot interleave on the
// same row.
func (s *Store) MutateState(ctx context.Context, id string, key string, value any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session_models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read state: %w", err)
	}

	var state map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if state == nil {
		state = make(map[string]json.RawMessage)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	state[key] = encoded

	updated, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET state = ? WHERE id = ?`, string(updated), id); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return tx.Commit()
}

// AppendEvent appends to the session's event log, then compacts: once the log
// exceeds maxEvents, the oldest entries are dropped. The state snapshot is
// untouched by compaction, so the final value of every state key survives.
func (s *Store) AppendEvent(ctx context.Context, id string, ev session_models.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return session_models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO session_events (session_id, seq, stage, kind, payload, created_at)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM session_events WHERE session_id = ?), ?, ?, ?, ?)`,
		id, id, ev.Stage, ev.Kind, string(payload), ev.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	if s.maxEvents > 0 {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM session_events WHERE session_id = ? AND seq <= (
			     SELECT COALESCE(MAX(seq), 0) - ? FROM session_events WHERE session_id = ?)`,
			id, s.maxEvents, id)
		if err != nil {
			return fmt.Errorf("compact events: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) Events(ctx context.Context, id string) ([]session_models.Event, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session_models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, stage, kind, payload, created_at FROM session_events WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []session_models.Event
	for rows.Next() {
		var (
			ev        session_models.Event
			payload   string
			createdAt string
		)
		if err := rows.Scan(&ev.Seq, &ev.Stage, &ev.Kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		var decoded any
		if err := json.Unmarshal([]byte(payload), &decoded); err == nil {
			ev.Payload = decoded
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			ev.Timestamp = ts
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
