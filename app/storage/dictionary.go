package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/tweet-ingest/app/storage/engine"
	"github.com/umputun/tweet-ingest/lib/lexicon"
)

// Dictionary is a storage for extra lexicon words. Each entry is a word or phrase with the tag (language or
// bucket name) and the lexicon kind it contributes to. Entries are merged with embedded word lists when the
// lexicon is built.
type Dictionary struct {
	*engine.SQL
	engine.RWLocker
}

// DictionaryEntry is a single dictionary word
type DictionaryEntry struct {
	ID   int64  `db:"id" json:"id"`
	Tag  string `db:"tag" json:"tag"`
	Kind string `db:"kind" json:"kind"`
	Word string `db:"word" json:"word"`
}

// DictionaryStats returns counts of dictionary entries per kind
type DictionaryStats struct {
	Noise     int `db:"noise_count" json:"noise"`
	Detection int `db:"detection_count" json:"detection"`
	Aux       int `db:"aux_count" json:"aux"`
	Phrases   int `db:"phrase_count" json:"phrases"`
}

// String implements Stringer interface
func (d *DictionaryStats) String() string {
	return fmt.Sprintf("noise: %d, detection: %d, aux: %d, phrases: %d", d.Noise, d.Detection, d.Aux, d.Phrases)
}

// dictionary-related command constants
const (
	CmdCreateDictionaryTable engine.DBCmd = iota + 300
	CmdCreateDictionaryIndexes
	CmdAddDictionaryEntry
)

var dictionaryQueries = engine.NewQueryMap().
	Add(CmdCreateDictionaryTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS dictionary (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gid TEXT NOT NULL DEFAULT '',
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			tag TEXT NOT NULL DEFAULT '',
			kind TEXT CHECK (kind IN ('noise', 'detection', 'aux', 'phrase')),
			word TEXT NOT NULL,
			UNIQUE(gid, tag, kind, word)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS dictionary (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			tag TEXT NOT NULL DEFAULT '',
			kind TEXT CHECK (kind IN ('noise', 'detection', 'aux', 'phrase')),
			word TEXT NOT NULL,
			UNIQUE(gid, tag, kind, word)
		)`,
	}).
	AddSame(CmdCreateDictionaryIndexes, `
		CREATE INDEX IF NOT EXISTS idx_dictionary_gid_kind ON dictionary(gid, kind);
		CREATE INDEX IF NOT EXISTS idx_dictionary_word ON dictionary(word)`).
	Add(CmdAddDictionaryEntry, engine.Query{
		Sqlite:   `INSERT OR IGNORE INTO dictionary (gid, tag, kind, word) VALUES (?, ?, ?, ?)`,
		Postgres: `INSERT INTO dictionary (gid, tag, kind, word) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
	})

// NewDictionary creates a new Dictionary storage
func NewDictionary(ctx context.Context, db *engine.SQL) (*Dictionary, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection is nil")
	}
	res := &Dictionary{SQL: db, RWLocker: db.MakeLock()}
	cfg := engine.TableConfig{
		Name:          "dictionary",
		CreateTable:   CmdCreateDictionaryTable,
		CreateIndexes: CmdCreateDictionaryIndexes,
		MigrateFunc:   func(context.Context, *sqlx.Tx, string) error { return nil },
		QueriesMap:    dictionaryQueries,
	}
	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init dictionary storage: %w", err)
	}
	return res, nil
}

// Add adds a word to the dictionary, already present words are ignored
func (d *Dictionary) Add(ctx context.Context, tag string, kind lexicon.Kind, word string) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	query, err := dictionaryQueries.PickFor(d.SQL, CmdAddDictionaryEntry)
	if err != nil {
		return fmt.Errorf("failed to get add query: %w", err)
	}

	d.Lock()
	defer d.Unlock()

	if _, err = d.ExecContext(ctx, query, d.GID(), tag, string(kind), word); err != nil {
		return fmt.Errorf("failed to add word: %w", err)
	}
	return nil
}

// Delete removes an entry from the dictionary by its ID
func (d *Dictionary) Delete(ctx context.Context, id int64) error {
	d.Lock()
	defer d.Unlock()

	result, err := d.ExecContext(ctx, d.Adopt(`DELETE FROM dictionary WHERE gid = ? AND id = ?`), d.GID(), id)
	if err != nil {
		return fmt.Errorf("failed to remove word: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("word with id %d: %w", id, ErrNotFound)
	}
	return nil
}

// Entries returns all entries of the kind ordered by id. Empty kind returns entries of all kinds.
func (d *Dictionary) Entries(ctx context.Context, kind lexicon.Kind) ([]DictionaryEntry, error) {
	if kind != "" {
		if err := kind.Validate(); err != nil {
			return nil, err
		}
	}
	d.RLock()
	defer d.RUnlock()

	query, args := `SELECT id, tag, kind, word FROM dictionary WHERE gid = ? ORDER BY id`, []any{d.GID()}
	if kind != "" {
		query, args = `SELECT id, tag, kind, word FROM dictionary WHERE gid = ? AND kind = ? ORDER BY id`, []any{d.GID(), string(kind)}
	}
	var res []DictionaryEntry
	if err := d.SelectContext(ctx, &res, d.Adopt(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	return res, nil
}

// Sources groups all entries into lexicon sources by tag and kind, in order of first appearance
func (d *Dictionary) Sources(ctx context.Context) ([]lexicon.Source, error) {
	entries, err := d.Entries(ctx, "")
	if err != nil {
		return nil, err
	}

	type key struct{ tag, kind string }
	idx := map[key]int{}
	var res []lexicon.Source
	for _, e := range entries {
		k := key{e.Tag, e.Kind}
		i, ok := idx[k]
		if !ok {
			i = len(res)
			idx[k] = i
			res = append(res, lexicon.Source{Tag: e.Tag, Kind: lexicon.Kind(e.Kind)})
		}
		res[i].Words = append(res[i].Words, e.Word)
	}
	return res, nil
}

// Import reads words from the reader, one per line, and adds them with the tag and kind.
// Empty and comment lines are skipped. If withCleanup is true removes all entries with the same tag and kind first.
func (d *Dictionary) Import(ctx context.Context, tag string, kind lexicon.Kind, r io.Reader, withCleanup bool) (*DictionaryStats, error) {
	if r == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	src, err := lexicon.ReadSource(bufio.NewReader(r), tag, kind)
	if err != nil {
		return nil, fmt.Errorf("can't read %s/%s: %w", kind, tag, err)
	}
	query, err := dictionaryQueries.PickFor(d.SQL, CmdAddDictionaryEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to get add query: %w", err)
	}

	d.Lock()
	defer d.Unlock()

	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if withCleanup {
		delQuery := d.Adopt(`DELETE FROM dictionary WHERE gid = ? AND tag = ? AND kind = ?`)
		if _, err = tx.ExecContext(ctx, delQuery, d.GID(), tag, string(kind)); err != nil {
			return nil, fmt.Errorf("failed to remove old entries: %w", err)
		}
	}

	added := 0
	for _, w := range src.Words {
		w = strings.TrimSpace(w)
		if w == "" || strings.HasPrefix(w, "//") {
			continue
		}
		if _, err = tx.ExecContext(ctx, query, d.GID(), tag, string(kind), w); err != nil {
			return nil, fmt.Errorf("failed to add entry %q: %w", w, err)
		}
		added++
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[DEBUG] imported %d dictionary words: gid=%s, tag=%s, kind=%s", added, d.GID(), tag, kind)
	return d.stats(ctx)
}

// Stats returns counts of dictionary entries per kind
func (d *Dictionary) Stats(ctx context.Context) (*DictionaryStats, error) {
	d.RLock()
	defer d.RUnlock()
	return d.stats(ctx)
}

func (d *Dictionary) stats(ctx context.Context) (*DictionaryStats, error) {
	query := d.Adopt(`
		SELECT
			COUNT(CASE WHEN kind = 'noise' THEN 1 END) AS noise_count,
			COUNT(CASE WHEN kind = 'detection' THEN 1 END) AS detection_count,
			COUNT(CASE WHEN kind = 'aux' THEN 1 END) AS aux_count,
			COUNT(CASE WHEN kind = 'phrase' THEN 1 END) AS phrase_count
		FROM dictionary WHERE gid = ?`)

	var stats DictionaryStats
	if err := d.GetContext(ctx, &stats, query, d.GID()); err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
