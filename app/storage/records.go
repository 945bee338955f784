// Package storage provides persistence for ingested records, extra lexicon words and ingest state.
// Each table is represented by a struct embedding the engine and a lock, and methods of the struct
// implement the business logic for the data type. Both sqlite and postgres are supported.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/tweet-ingest/app/storage/engine"
	"github.com/umputun/tweet-ingest/lib/record"
)

// ErrNotFound returned when a record is not stored
var ErrNotFound = errors.New("not found")

// Records is a storage for record snapshots. Besides the full snapshot as json, a few attributes are kept
// in columns for lookups and retention.
type Records struct {
	*engine.SQL
	engine.RWLocker
}

// RecordsStats is a summary of stored records
type RecordsStats struct {
	Total   int `db:"total"`
	Spam    int `db:"spam"`
	Daemons int `db:"daemons"`
	Replies int `db:"replies"`
}

// String implements Stringer interface
func (s RecordsStats) String() string {
	return fmt.Sprintf("total: %d, spam: %d, daemons: %d, replies: %d", s.Total, s.Spam, s.Daemons, s.Replies)
}

// records-related command constants
const (
	CmdCreateRecordsTable engine.DBCmd = iota + 100
	CmdCreateRecordsIndexes
	CmdUpsertRecord
)

var recordsQueries = engine.NewQueryMap().
	Add(CmdCreateRecordsTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS records (
			gid TEXT NOT NULL DEFAULT '',
			id INTEGER NOT NULL,
			parent_id INTEGER NOT NULL DEFAULT -1,
			text_hash TEXT NOT NULL,
			quality INTEGER NOT NULL,
			daemon INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (gid, id)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS records (
			gid TEXT NOT NULL DEFAULT '',
			id BIGINT NOT NULL,
			parent_id BIGINT NOT NULL DEFAULT -1,
			text_hash TEXT NOT NULL,
			quality INTEGER NOT NULL,
			daemon INTEGER NOT NULL DEFAULT 0,
			version BIGINT NOT NULL DEFAULT 0,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (gid, id)
		)`,
	}).
	AddSame(CmdCreateRecordsIndexes, `
		CREATE INDEX IF NOT EXISTS idx_records_parent ON records(gid, parent_id);
		CREATE INDEX IF NOT EXISTS idx_records_text_hash ON records(gid, text_hash);
		CREATE INDEX IF NOT EXISTS idx_records_created ON records(gid, created_at)`).
	Add(CmdUpsertRecord, engine.Query{
		Sqlite: `INSERT INTO records (gid, id, parent_id, text_hash, quality, daemon, version, created_at, updated_at, data)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (gid, id) DO UPDATE SET parent_id = excluded.parent_id, text_hash = excluded.text_hash,
				quality = excluded.quality, daemon = excluded.daemon, version = excluded.version,
				created_at = excluded.created_at, updated_at = excluded.updated_at, data = excluded.data`,
		Postgres: `INSERT INTO records (gid, id, parent_id, text_hash, quality, daemon, version, created_at, updated_at, data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (gid, id) DO UPDATE SET parent_id = EXCLUDED.parent_id, text_hash = EXCLUDED.text_hash,
				quality = EXCLUDED.quality, daemon = EXCLUDED.daemon, version = EXCLUDED.version,
				created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at, data = EXCLUDED.data`,
	})

// NewRecords creates records storage and initializes the table
func NewRecords(ctx context.Context, db *engine.SQL) (*Records, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Records{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "records",
		CreateTable:   CmdCreateRecordsTable,
		CreateIndexes: CmdCreateRecordsIndexes,
		MigrateFunc:   func(context.Context, *sqlx.Tx, string) error { return nil },
		QueriesMap:    recordsQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init records storage: %w", err)
	}
	return res, nil
}

// Save inserts or replaces records in a single transaction. Each saved record is marked persistent.
func (r *Records) Save(ctx context.Context, recs ...*record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	query, err := recordsQueries.PickFor(r.SQL, CmdUpsertRecord)
	if err != nil {
		return fmt.Errorf("failed to get upsert query: %w", err)
	}

	r.Lock()
	defer r.Unlock()

	tx, err := r.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now()
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		snap := rec.Snapshot()
		snap.UpdatedAt = &now
		data, e := json.Marshal(snap)
		if e != nil {
			return fmt.Errorf("failed to marshal record %d: %w", rec.ID(), e)
		}
		daemon := 0
		if snap.Daemon {
			daemon = 1
		}
		_, e = tx.ExecContext(ctx, query, r.GID(), snap.ID, snap.ParentID, TextHash(snap.LowerText), snap.Quality,
			daemon, snap.Version, snap.CreatedAt.UnixMilli(), now.UnixMilli(), string(data))
		if e != nil {
			return fmt.Errorf("failed to save record %d: %w", rec.ID(), e)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	for _, rec := range recs {
		if rec != nil {
			rec.SetUpdatedAt(now)
		}
	}
	log.Printf("[DEBUG] saved %d records", len(recs))
	return nil
}

// Get returns the record by id, ErrNotFound if not stored
func (r *Records) Get(ctx context.Context, id int64) (*record.Record, error) {
	r.RLock()
	defer r.RUnlock()

	var data string
	query := r.Adopt(`SELECT data FROM records WHERE gid = ? AND id = ?`)
	if err := r.GetContext(ctx, &data, query, r.GID(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}
	return decodeRecord(data)
}

// FindByText returns the oldest stored non-daemon record with the given lower-cased text
func (r *Records) FindByText(ctx context.Context, lowerText string) (*record.Record, error) {
	r.RLock()
	defer r.RUnlock()

	var data string
	query := r.Adopt(`SELECT data FROM records WHERE gid = ? AND text_hash = ? AND daemon = 0 ORDER BY id LIMIT 1`)
	if err := r.GetContext(ctx, &data, query, r.GID(), TextHash(lowerText)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record with text hash %s: %w", TextHash(lowerText), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find record by text: %w", err)
	}
	return decodeRecord(data)
}

// Replies returns stored records replying to parentID, ordered by id
func (r *Records) Replies(ctx context.Context, parentID int64) ([]*record.Record, error) {
	return r.list(ctx, `SELECT data FROM records WHERE gid = ? AND parent_id = ? ORDER BY id`, r.GID(), parentID)
}

// Spam returns up to limit most recent records classified as spam
func (r *Records) Spam(ctx context.Context, limit int) ([]*record.Record, error) {
	return r.list(ctx, `SELECT data FROM records WHERE gid = ? AND quality >= 0 AND quality < ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, r.GID(), record.QualSpam, limit)
}

// Stats returns counts of stored records
func (r *Records) Stats(ctx context.Context) (RecordsStats, error) {
	r.RLock()
	defer r.RUnlock()

	query := r.Adopt(`
		SELECT
			COUNT(*) AS total,
			COUNT(CASE WHEN quality >= 0 AND quality < ? THEN 1 END) AS spam,
			COUNT(CASE WHEN daemon = 1 THEN 1 END) AS daemons,
			COUNT(CASE WHEN parent_id <> -1 THEN 1 END) AS replies
		FROM records WHERE gid = ?`)
	var res RecordsStats
	if err := r.GetContext(ctx, &res, query, record.QualSpam, r.GID()); err != nil {
		return RecordsStats{}, fmt.Errorf("failed to get records stats: %w", err)
	}
	return res, nil
}

// Cleanup removes records created before now-age, returns the number of removed records
func (r *Records) Cleanup(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, fmt.Errorf("invalid retention age %v", age)
	}
	r.Lock()
	defer r.Unlock()

	cutoff := time.Now().Add(-age).UnixMilli()
	res, err := r.ExecContext(ctx, r.Adopt(`DELETE FROM records WHERE gid = ? AND created_at < ?`), r.GID(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected > 0 {
		log.Printf("[DEBUG] removed %d records older than %v", affected, age)
	}
	return affected, nil
}

func (r *Records) list(ctx context.Context, query string, args ...any) ([]*record.Record, error) {
	r.RLock()
	defer r.RUnlock()

	var rows []string
	if err := r.SelectContext(ctx, &rows, r.Adopt(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	res := make([]*record.Record, 0, len(rows))
	for _, data := range rows {
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

// TextHash returns the hash of lower-cased text used for text lookups
func TextHash(lowerText string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(lowerText)))
	return hex.EncodeToString(h[:])
}

func decodeRecord(data string) (*record.Record, error) {
	var snap record.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return record.FromSnapshot(snap), nil
}
