// Package ingest turns batches of upstream records into stored, linked and scored records.
// Pipeline processes a batch in the following steps:
//
//   - builds records, sorts them by id and drops duplicates inside the batch
//   - detects language and text terms, applies quality rules
//   - links replies to parents, a missing parent becomes a daemon placeholder
//   - links retweets to the retweeted originals
//   - reconciles records with already stored copies
//   - saves all touched records and reports spam
//
// Records seen recently are kept in memory, so most lookups don't hit the storage. Storage lookups for
// parents and originals are limited per batch.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"

	"github.com/umputun/tweet-ingest/app/storage"
	"github.com/umputun/tweet-ingest/lib/lexicon"
	"github.com/umputun/tweet-ingest/lib/record"
)

//go:generate moq --out mocks/store.go --pkg mocks --with-resets --skip-ensure . Store

// Store is a persistent storage of records
type Store interface {
	Get(ctx context.Context, id int64) (*record.Record, error)
	FindByText(ctx context.Context, lowerText string) (*record.Record, error)
	Save(ctx context.Context, recs ...*record.Record) error
}

// Params defines pipeline parameters
type Params struct {
	Window       time.Duration // how long recent records and texts are kept in memory
	MaxRecent    int           // max number of recent records and texts kept in memory
	DaemonSearch int           // max storage lookups per batch for parents and retweeted originals
	MaxLinks     int           // max links in text, -1 to disable
	MaxEmoji     int           // max emojis in text, -1 to disable
	SpamLog      io.Writer     // optional, spam records are written as json lines
}

// Pipeline processes batches of upstream records. Batches are processed one at a time,
// all record mutations happen under the pipeline lock.
type Pipeline struct {
	Params
	store    Store
	analyzer *Analyzer
	dups     *duplicates
	rules    []Rule
	recent   cache.Cache[int64, *record.Record]

	mu     sync.Mutex
	totals Stats
}

// Stats reports results of processed batches
type Stats struct {
	Batches     int `json:"batches"`
	Received    int `json:"received"`
	Dropped     int `json:"dropped"` // removed by in-batch deduplication
	Replies     int `json:"replies"`
	Retweets    int `json:"retweets"`
	Daemons     int `json:"daemons"`
	Reactivated int `json:"reactivated"`
	Merged      int `json:"merged"`
	Duplicates  int `json:"duplicates"`
	Spam        int `json:"spam"`
	Saved       int `json:"saved"`
}

// String implements Stringer interface
func (s Stats) String() string {
	return fmt.Sprintf("received: %d, dropped: %d, replies: %d, retweets: %d, daemons: %d, reactivated: %d, "+
		"merged: %d, duplicates: %d, spam: %d, saved: %d", s.Received, s.Dropped, s.Replies, s.Retweets, s.Daemons,
		s.Reactivated, s.Merged, s.Duplicates, s.Spam, s.Saved)
}

func (s *Stats) add(o Stats) {
	s.Batches += o.Batches
	s.Received += o.Received
	s.Dropped += o.Dropped
	s.Replies += o.Replies
	s.Retweets += o.Retweets
	s.Daemons += o.Daemons
	s.Reactivated += o.Reactivated
	s.Merged += o.Merged
	s.Duplicates += o.Duplicates
	s.Spam += o.Spam
	s.Saved += o.Saved
}

// spamEntry is a line of the spam log
type spamEntry struct {
	Time    time.Time `json:"time"`
	ID      int64     `json:"id"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Quality int       `json:"quality"`
	Reasons string    `json:"reasons"`
}

const (
	defaultWindow    = time.Hour
	defaultMaxRecent = 10000
)

// New makes a pipeline for the store and lexicon
func New(store Store, lex *lexicon.Lexicon, params Params) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if lex == nil {
		return nil, errors.New("lexicon is nil")
	}
	if params.Window <= 0 {
		params.Window = defaultWindow
	}
	if params.MaxRecent <= 0 {
		params.MaxRecent = defaultMaxRecent
	}

	res := &Pipeline{
		Params:   params,
		store:    store,
		analyzer: NewAnalyzer(lex),
		dups:     newDuplicates(params.MaxRecent, params.Window),
		recent:   cache.NewCache[int64, *record.Record]().WithMaxKeys(params.MaxRecent).WithTTL(params.Window),
	}
	res.rules = append(res.rules, res.dups.rule)
	if params.MaxLinks >= 0 {
		res.rules = append(res.rules, LinksRule(params.MaxLinks))
	}
	if params.MaxEmoji >= 0 {
		res.rules = append(res.rules, EmojiRule(params.MaxEmoji))
	}
	return res, nil
}

// Process runs the batch through all steps and saves the result. Stats of the batch are returned
// and added to totals.
func (p *Pipeline) Process(ctx context.Context, batch []record.Upstream) (Stats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	defer p.dups.discard() // no-op after commit

	stats := Stats{Batches: 1, Received: len(batch)}
	recs := make([]*record.Record, 0, len(batch))
	for _, u := range batch {
		recs = append(recs, record.FromUpstream(u))
	}
	recs = record.SortAndDeduplicate(recs)
	stats.Dropped = len(batch) - len(recs)

	tbl := record.NewTable()
	for _, r := range recs {
		p.analyzer.Analyze(r)
		p.score(r, &stats)
		tbl.Put(r)
	}

	budget := p.DaemonSearch
	if err := p.linkReplies(ctx, tbl, recs, &budget, &stats); err != nil {
		return stats, err
	}
	if err := p.linkRetweets(ctx, tbl, recs, &budget, &stats); err != nil {
		return stats, err
	}
	if err := p.reconcile(ctx, tbl, recs, &stats); err != nil {
		return stats, err
	}

	all := tbl.Records()
	for _, r := range all {
		if err := r.SetVersion(r.Version() + 1); err != nil {
			return stats, fmt.Errorf("failed to bump version of %d: %w", r.ID(), err)
		}
		r.SetUpdateCount(r.UpdateCount() + 1)
	}
	if err := p.store.Save(ctx, all...); err != nil {
		return stats, fmt.Errorf("failed to save batch: %w", err)
	}
	stats.Saved = len(all)
	p.dups.commit()
	for _, r := range all {
		p.recent.Set(r.ID(), r, p.Window)
	}

	for _, fresh := range recs {
		r, ok := tbl.Get(fresh.ID())
		if !ok || !r.IsSpam() {
			continue
		}
		stats.Spam++
		p.reportSpam(r)
	}

	p.totals.add(stats)
	log.Printf("[INFO] batch processed, %s", stats)
	return stats, nil
}

// Stats returns totals of all processed batches
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totals
}

// score applies quality rules, every hit multiplies quality by the rule factor
func (p *Pipeline) score(r *record.Record, stats *Stats) {
	for _, rule := range p.rules {
		c := rule(r)
		if !c.Hit {
			continue
		}
		r.MultiplyQuality(c.Factor)
		r.AddQualAction(c.String() + ";")
		if c.Name == "duplicate" {
			stats.Duplicates++
		}
	}
}

// linkReplies links each reply to its parent. A parent unknown to the batch, recent records and storage
// is replaced by a daemon, so the relation is kept until the real parent shows up.
func (p *Pipeline) linkReplies(ctx context.Context, tbl *record.Table, recs []*record.Record, budget *int, stats *Stats) error {
	for _, r := range recs {
		if !r.HasParent() {
			continue
		}
		if r.ParentID() == r.ID() {
			r.SetParent(nil)
			continue
		}
		parent, err := p.resolve(ctx, tbl, r.ParentID(), budget)
		if err != nil {
			return err
		}
		if parent == nil {
			parent = record.New(r.ParentID(), "", "", r.CreatedAt()).SetDaemon(true)
			stats.Daemons++
			log.Printf("[DEBUG] daemon %d created for reply %d", parent.ID(), r.ID())
		}
		tbl.Put(parent)
		if err = tbl.Link(parent.ID(), r.ID()); err != nil {
			return fmt.Errorf("failed to link reply %d: %w", r.ID(), err)
		}
		stats.Replies++
	}
	return nil
}

// linkRetweets links retweets without a parent to the retweeted original, if it can be found.
// Upstream doesn't report the id of the original, so a missing original gets no daemon.
func (p *Pipeline) linkRetweets(ctx context.Context, tbl *record.Table, recs []*record.Record, budget *int, stats *Stats) error {
	for _, r := range recs {
		if !r.IsRetweet() || r.HasParent() {
			continue
		}
		orig, err := p.findOriginal(ctx, tbl, r, budget)
		if err != nil {
			return err
		}
		if orig == nil {
			continue
		}
		tbl.Put(orig)
		if err = tbl.Link(orig.ID(), r.ID()); err != nil {
			return fmt.Errorf("failed to link retweet %d: %w", r.ID(), err)
		}
		stats.Retweets++
	}
	return nil
}

// reconcile merges records of the batch with copies stored before. A stored daemon is taken over by the
// real record, otherwise the stored copy is updated from the fresh one and replaces it in the table.
func (p *Pipeline) reconcile(ctx context.Context, tbl *record.Table, recs []*record.Record, stats *Stats) error {
	for _, fresh := range recs {
		prev, err := p.stored(ctx, fresh.ID())
		if err != nil {
			return err
		}
		if prev == nil {
			continue
		}

		if prev.IsDaemon() {
			if err = fresh.Reactivate(prev); err != nil {
				return fmt.Errorf("failed to reactivate %d: %w", fresh.ID(), err)
			}
			if err = fresh.SetVersion(prev.Version()); err != nil {
				return fmt.Errorf("failed to set version of %d: %w", fresh.ID(), err)
			}
			fresh.SetUpdateCount(prev.UpdateCount())
			stats.Reactivated++
			continue
		}

		before := record.FromSnapshot(prev.Snapshot())
		if _, err = prev.UpdateFrom(fresh); err != nil {
			return fmt.Errorf("failed to update %d: %w", fresh.ID(), err)
		}
		// the update replaces relations, keep the stored ones and the ones linked in this batch
		if err = prev.Absorb(before); err != nil {
			return fmt.Errorf("failed to merge %d: %w", fresh.ID(), err)
		}
		if err = prev.Absorb(fresh); err != nil {
			return fmt.Errorf("failed to merge %d: %w", fresh.ID(), err)
		}
		if parent, ok := tbl.Parent(fresh); ok && !prev.HasParent() {
			prev.SetParent(parent)
		}
		tbl.Put(prev)
		stats.Merged++
	}
	return nil
}

// resolve returns the record from the batch, recent records or storage, nil if not found.
// Storage lookups are done while the budget allows.
func (p *Pipeline) resolve(ctx context.Context, tbl *record.Table, id int64, budget *int) (*record.Record, error) {
	if r, ok := p.live(tbl, id); ok {
		return r, nil
	}
	if *budget <= 0 {
		return nil, nil
	}
	*budget--
	r, err := p.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %d: %w", id, err)
	}
	return r, nil
}

// findOriginal looks for the record retweeted by r among recently seen texts, then in storage
func (p *Pipeline) findOriginal(ctx context.Context, tbl *record.Table, r *record.Record, budget *int) (*record.Record, error) {
	quoted := strings.ToLower(r.ExtractQuotedText())
	if quoted == "" {
		return nil, nil
	}
	for _, id := range p.dups.ids(quoted) {
		if id == r.ID() {
			continue
		}
		if cand, ok := p.live(tbl, id); ok && r.IsRetweetOf(cand) {
			return cand, nil
		}
	}

	if *budget <= 0 {
		return nil, nil
	}
	*budget--
	cand, err := p.store.FindByText(ctx, quoted)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find original of %d: %w", r.ID(), err)
	}
	if cand.ID() == r.ID() || !r.IsRetweetOf(cand) {
		return nil, nil
	}
	if live, ok := p.live(tbl, cand.ID()); ok {
		return live, nil
	}
	return cand, nil
}

// stored returns the previously saved copy of the record, nil if never saved
func (p *Pipeline) stored(ctx context.Context, id int64) (*record.Record, error) {
	if r, ok := p.recent.Get(id); ok {
		return r.Clone(), nil
	}
	r, err := p.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stored record %d: %w", id, err)
	}
	return r, nil
}

// live returns the record from the batch table or a copy of the recent one.
// Recent records are replaced only after the batch is saved.
func (p *Pipeline) live(tbl *record.Table, id int64) (*record.Record, bool) {
	if r, ok := tbl.Get(id); ok {
		return r, true
	}
	if r, ok := p.recent.Get(id); ok {
		return r.Clone(), true
	}
	return nil, false
}

func (p *Pipeline) reportSpam(r *record.Record) {
	log.Printf("[INFO] spam detected, id: %d, author: %q, quality: %d, %s", r.ID(), r.Author(), r.Quality(), r.QualDebug())
	if p.SpamLog == nil {
		return
	}
	entry := spamEntry{Time: time.Now(), ID: r.ID(), Author: r.Author(), Text: r.Text(), Quality: r.Quality(), Reasons: r.QualDebug()}
	if err := json.NewEncoder(p.SpamLog).Encode(entry); err != nil {
		log.Printf("[WARN] failed to write spam log, %v", err)
	}
}
