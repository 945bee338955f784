package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/tweet-ingest/app/storage/engine"
)

// State keeps a named json-serialized value per group, e.g. ingest checkpoint
type State[T any] struct {
	*engine.SQL
	engine.RWLocker
	name string
}

// state-related command constants
const (
	CmdCreateStateTable engine.DBCmd = iota + 200
	CmdCreateStateIndexes
	CmdSetState
)

var stateQueries = engine.NewQueryMap().
	Add(CmdCreateStateTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS state (
			gid TEXT NOT NULL,
			name TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (gid, name)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS state (
			gid TEXT NOT NULL,
			name TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at BIGINT NOT NULL,
			PRIMARY KEY (gid, name)
		)`,
	}).
	AddSame(CmdCreateStateIndexes, `CREATE INDEX IF NOT EXISTS idx_state_gid ON state(gid)`).
	Add(CmdSetState, engine.Query{
		Sqlite: `INSERT INTO state (gid, name, data, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (gid, name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		Postgres: `INSERT INTO state (gid, name, data, updated_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (gid, name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	})

// NewState creates state storage for the name
func NewState[T any](ctx context.Context, db *engine.SQL, name string) (*State[T], error) {
	if db == nil {
		return nil, fmt.Errorf("no db provided")
	}
	if name == "" {
		return nil, fmt.Errorf("state name is empty")
	}
	res := &State[T]{SQL: db, RWLocker: db.MakeLock(), name: name}
	cfg := engine.TableConfig{
		Name:          "state",
		CreateTable:   CmdCreateStateTable,
		CreateIndexes: CmdCreateStateIndexes,
		MigrateFunc:   func(context.Context, *sqlx.Tx, string) error { return nil },
		QueriesMap:    stateQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init state table: %w", err)
	}
	return res, nil
}

// Load reads the stored value into obj. ErrNotFound returned if nothing stored yet.
func (s *State[T]) Load(ctx context.Context, obj *T) error {
	s.RLock()
	defer s.RUnlock()

	var data string
	query := s.Adopt(`SELECT data FROM state WHERE gid = ? AND name = ?`)
	if err := s.GetContext(ctx, &data, query, s.GID(), s.name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("state %s: %w", s.name, ErrNotFound)
		}
		return fmt.Errorf("failed to get state %s: %w", s.name, err)
	}
	if err := json.Unmarshal([]byte(data), obj); err != nil {
		return fmt.Errorf("failed to unmarshal state %s: %w", s.name, err)
	}
	return nil
}

// Save stores obj, replacing the previous value
func (s *State[T]) Save(ctx context.Context, obj *T) error {
	if obj == nil {
		return fmt.Errorf("nil state not allowed")
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal state %s: %w", s.name, err)
	}
	query, err := stateQueries.PickFor(s.SQL, CmdSetState)
	if err != nil {
		return fmt.Errorf("failed to get set query: %w", err)
	}

	s.Lock()
	defer s.Unlock()
	if _, err = s.ExecContext(ctx, query, s.GID(), s.name, string(data), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to set state %s: %w", s.name, err)
	}
	return nil
}

// Delete removes the stored value
func (s *State[T]) Delete(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()
	if _, err := s.ExecContext(ctx, s.Adopt(`DELETE FROM state WHERE gid = ? AND name = ?`), s.GID(), s.name); err != nil {
		return fmt.Errorf("failed to delete state %s: %w", s.name, err)
	}
	return nil
}

// LastUpdated returns the time the value was saved last
func (s *State[T]) LastUpdated(ctx context.Context) (time.Time, error) {
	s.RLock()
	defer s.RUnlock()

	var ts int64
	query := s.Adopt(`SELECT updated_at FROM state WHERE gid = ? AND name = ?`)
	if err := s.GetContext(ctx, &ts, query, s.GID(), s.name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, fmt.Errorf("state %s: %w", s.name, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("failed to get state %s update time: %w", s.name, err)
	}
	return time.UnixMilli(ts), nil
}
