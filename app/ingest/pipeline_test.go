package ingest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tweet-ingest/app/ingest/mocks"
	"github.com/umputun/tweet-ingest/app/storage"
	"github.com/umputun/tweet-ingest/app/storage/engine"
	"github.com/umputun/tweet-ingest/lib/lexicon"
	"github.com/umputun/tweet-ingest/lib/record"
)

func TestNew(t *testing.T) {
	_, err := New(nil, testLexicon(), Params{})
	require.EqualError(t, err, "store is nil")

	_, err = New(&mocks.StoreMock{}, nil, Params{})
	require.EqualError(t, err, "lexicon is nil")

	p, err := New(&mocks.StoreMock{}, testLexicon(), Params{MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)
	assert.Equal(t, defaultWindow, p.Window)
	assert.Equal(t, defaultMaxRecent, p.MaxRecent)
	assert.Len(t, p.rules, 1, "only duplicates rule enabled")
}

func TestPipeline_ProcessBatch(t *testing.T) {
	store := newTestStore(t)
	p, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)

	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	stats, err := p.Process(context.Background(), []record.Upstream{
		{ID: 3, Text: "RT @bob: hello world from the go team", Author: "carol", CreatedAt: ts.Add(2 * time.Minute)},
		{ID: 1, Text: "hello world from the go team", Author: "bob", CreatedAt: ts},
		{ID: 2, Text: "@bob hallo welt", Author: "alice", CreatedAt: ts.Add(time.Minute), InReplyTo: 1},
		{ID: 1, Text: "same id again", Author: "bob", CreatedAt: ts},
	})
	require.NoError(t, err)
	assert.Equal(t, Stats{Batches: 1, Received: 4, Dropped: 1, Replies: 1, Retweets: 1, Saved: 3}, stats)
	assert.Equal(t, stats, p.Stats())

	orig, err := store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "hello world from the go team", orig.Text())
	assert.Equal(t, []record.Reply{{ID: 2}, {ID: 3, Retweet: true}}, orig.Replies())
	assert.Equal(t, "en", orig.Language())
	assert.Equal(t, map[string]int{"en": 4}, orig.Languages(), "noise words vote too")
	assert.Equal(t, map[string]int{"hello": 1, "world": 1, "go": 1, "team": 1}, orig.TextTerms())
	assert.Equal(t, int64(1), orig.Version())
	assert.Equal(t, 1, orig.UpdateCount())
	assert.True(t, orig.IsPersistent())

	reply, err := store.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reply.ParentID())
	assert.Equal(t, "de", reply.Language())

	rt, err := store.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rt.ParentID())
	assert.Equal(t, "en", rt.Language(), "language of the quoted text")
}

func TestPipeline_DaemonReactivation(t *testing.T) {
	store := newTestStore(t)
	p, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)
	ctx := context.Background()

	stats, err := p.Process(ctx, []record.Upstream{{ID: 11, Text: "@dave nice", Author: "eve", CreatedAt: time.Now(), InReplyTo: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Daemons)
	assert.Equal(t, 1, stats.Replies)
	assert.Equal(t, 2, stats.Saved)

	daemon, err := store.Get(ctx, 10)
	require.NoError(t, err)
	assert.True(t, daemon.IsDaemon())
	assert.Equal(t, []record.Reply{{ID: 11}}, daemon.Replies())

	stats, err = p.Process(ctx, []record.Upstream{{ID: 10, Text: "the real parent", Author: "dave", CreatedAt: time.Now()}})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Reactivated)
	assert.Equal(t, 0, stats.Daemons)

	parent, err := store.Get(ctx, 10)
	require.NoError(t, err)
	assert.False(t, parent.IsDaemon())
	assert.Equal(t, "the real parent", parent.Text())
	assert.Equal(t, []record.Reply{{ID: 11}}, parent.Replies())
	assert.Equal(t, int64(2), parent.Version())
	assert.Equal(t, 2, parent.UpdateCount())
}

func TestPipeline_MergeWithStored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	p, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)

	_, err = p.Process(ctx, []record.Upstream{
		{ID: 20, Text: "original post", Author: "bob", CreatedAt: time.Now(), RetweetCount: 1},
		{ID: 21, Text: "first reply", Author: "alice", CreatedAt: time.Now(), InReplyTo: 20},
	})
	require.NoError(t, err)

	t.Run("fresh copy with more retweets", func(t *testing.T) {
		stats, err := p.Process(ctx, []record.Upstream{
			{ID: 20, Text: "original post", Author: "bob", CreatedAt: time.Now(), RetweetCount: 5, ReplyCount: 2},
			{ID: 22, Text: "second reply", Author: "carol", CreatedAt: time.Now(), InReplyTo: 20},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Merged)

		rec, err := store.Get(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, 5, rec.ExplicitRetweetCount())
		assert.Equal(t, 2, rec.ExplicitReplyCount())
		assert.ElementsMatch(t, []record.Reply{{ID: 21}, {ID: 22}}, rec.Replies())
		assert.Equal(t, int64(2), rec.Version())
	})

	t.Run("stale copy keeps counters", func(t *testing.T) {
		_, err := p.Process(ctx, []record.Upstream{
			{ID: 20, Text: "original post", Author: "bob", CreatedAt: time.Now(), RetweetCount: 2},
			{ID: 23, Text: "third reply", Author: "dan", CreatedAt: time.Now(), InReplyTo: 20},
		})
		require.NoError(t, err)

		rec, err := store.Get(ctx, 20)
		require.NoError(t, err)
		assert.Equal(t, 5, rec.ExplicitRetweetCount())
		assert.ElementsMatch(t, []record.Reply{{ID: 21}, {ID: 22}, {ID: 23}}, rec.Replies())
		assert.Equal(t, int64(3), rec.Version())
	})
}

func TestPipeline_RetweetFromStorage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p1, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)
	_, err = p1.Process(ctx, []record.Upstream{{ID: 40, Text: "Golang rocks", Author: "Alice", CreatedAt: time.Now()}})
	require.NoError(t, err)

	// new pipeline has nothing in memory, the original is found in storage
	p2, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)
	stats, err := p2.Process(ctx, []record.Upstream{
		{ID: 41, Text: "RT @alice: golang rocks", Author: "bob", CreatedAt: time.Now()},
		{ID: 42, Text: "RT @someone: golang rocks", Author: "bob", CreatedAt: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Retweets)

	rt, err := store.Get(ctx, 41)
	require.NoError(t, err)
	assert.Equal(t, int64(40), rt.ParentID())
	other, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, other.HasParent(), "different author")

	orig, err := store.Get(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, []record.Reply{{ID: 41, Retweet: true}}, orig.Replies())
	assert.Equal(t, int64(2), orig.Version())
}

func TestPipeline_RetweetWithoutOriginal(t *testing.T) {
	store := newTestStore(t)
	p, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
	require.NoError(t, err)

	stats, err := p.Process(context.Background(), []record.Upstream{
		{ID: 7, Text: "RT @nobody: never seen before", Author: "carol", CreatedAt: time.Now()},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Daemons)
	assert.Equal(t, 0, stats.Retweets)
	assert.Equal(t, 1, stats.Saved)

	rt, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, rt.HasParent())
}

func TestPipeline_QualityAndSpam(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	spamLog := bytes.NewBuffer(nil)
	p, err := New(store, testLexicon(), Params{MaxLinks: 1, MaxEmoji: 2, SpamLog: spamLog})
	require.NoError(t, err)

	for i, id := range []int64{30, 31, 32} {
		stats, err := p.Process(ctx, []record.Upstream{{ID: id, Text: "Buy cheap stuff now", Author: "spammer", CreatedAt: time.Now()}})
		require.NoError(t, err)
		assert.Equal(t, min(i, 1), stats.Duplicates)
	}

	rec, err := store.Get(ctx, 31)
	require.NoError(t, err)
	assert.Equal(t, record.QualBad, rec.Quality())
	assert.Equal(t, []int64{30}, rec.Duplicates())
	assert.False(t, rec.IsSpam())

	rec, err = store.Get(ctx, 32)
	require.NoError(t, err)
	assert.Equal(t, 25, rec.Quality())
	assert.Equal(t, []int64{30, 31}, rec.Duplicates())
	assert.True(t, rec.IsSpam())
	assert.Equal(t, "duplicate: same text seen 2 times;", rec.QualDebug())

	assert.Equal(t, 1, p.Stats().Spam)
	assert.Contains(t, spamLog.String(), `"id":32`)
	assert.Contains(t, spamLog.String(), `"author":"spammer"`)
	assert.NotContains(t, spamLog.String(), `"id":31`)

	_, err = p.Process(ctx, []record.Upstream{
		{ID: 50, Text: "see http://a.com and https://b.com", Author: "x", CreatedAt: time.Now()},
		{ID: 51, Text: "wow 😀😀😀", Author: "y", CreatedAt: time.Now()},
	})
	require.NoError(t, err)
	rec, err = store.Get(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, record.QualLow, rec.Quality())
	assert.Equal(t, "links: too many links 2/1;", rec.QualDebug())
	rec, err = store.Get(ctx, 51)
	require.NoError(t, err)
	assert.Equal(t, record.QualLow, rec.Quality())
	assert.Equal(t, "emoji: too many emojis 3/2;", rec.QualDebug())
}

func TestPipeline_SearchBudget(t *testing.T) {
	tests := []struct {
		name      string
		budget    int
		wantGets  int
		wantFinds int
	}{
		{name: "no storage lookups", budget: 0, wantGets: 2, wantFinds: 0},
		{name: "one lookup", budget: 1, wantGets: 3, wantFinds: 0},
		{name: "enough budget", budget: 5, wantGets: 3, wantFinds: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mocks.StoreMock{
				GetFunc: func(context.Context, int64) (*record.Record, error) { return nil, storage.ErrNotFound },
				FindByTextFunc: func(context.Context, string) (*record.Record, error) {
					return nil, storage.ErrNotFound
				},
				SaveFunc: func(context.Context, ...*record.Record) error { return nil },
			}
			p, err := New(store, testLexicon(), Params{DaemonSearch: tt.budget, MaxLinks: -1, MaxEmoji: -1})
			require.NoError(t, err)

			stats, err := p.Process(context.Background(), []record.Upstream{
				{ID: 2, Text: "reply", CreatedAt: time.Now(), InReplyTo: 1},
				{ID: 3, Text: "RT @zed: unknown text", CreatedAt: time.Now()},
			})
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Daemons)
			assert.Equal(t, 0, stats.Retweets)
			assert.Len(t, store.GetCalls(), tt.wantGets)
			assert.Len(t, store.FindByTextCalls(), tt.wantFinds)
			require.Len(t, store.SaveCalls(), 1)
			assert.Len(t, store.SaveCalls()[0].Recs, 3)
		})
	}
}

func TestPipeline_Errors(t *testing.T) {
	batch := []record.Upstream{{ID: 2, Text: "reply", CreatedAt: time.Now(), InReplyTo: 1}}

	t.Run("get error", func(t *testing.T) {
		store := &mocks.StoreMock{
			GetFunc: func(context.Context, int64) (*record.Record, error) { return nil, errors.New("db is down") },
		}
		p, err := New(store, testLexicon(), Params{DaemonSearch: 1})
		require.NoError(t, err)
		_, err = p.Process(context.Background(), batch)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db is down")
		assert.Empty(t, store.SaveCalls())
	})

	t.Run("save error", func(t *testing.T) {
		store := &mocks.StoreMock{
			GetFunc:  func(context.Context, int64) (*record.Record, error) { return nil, storage.ErrNotFound },
			SaveFunc: func(context.Context, ...*record.Record) error { return errors.New("disk full") },
		}
		p, err := New(store, testLexicon(), Params{})
		require.NoError(t, err)
		_, err = p.Process(context.Background(), batch)
		require.EqualError(t, err, "failed to save batch: disk full")
		assert.Equal(t, Stats{}, p.Stats())
	})

	t.Run("failed batch leaves no trace", func(t *testing.T) {
		records := newTestStore(t)
		failSave := false
		store := &mocks.StoreMock{
			GetFunc:        records.Get,
			FindByTextFunc: records.FindByText,
			SaveFunc: func(ctx context.Context, recs ...*record.Record) error {
				if failSave {
					return errors.New("disk full")
				}
				return records.Save(ctx, recs...)
			},
		}
		p, err := New(store, testLexicon(), Params{DaemonSearch: 10, MaxLinks: -1, MaxEmoji: -1})
		require.NoError(t, err)
		ctx := context.Background()
		ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		_, err = p.Process(ctx, []record.Upstream{{ID: 1, Text: "parent text", CreatedAt: ts}})
		require.NoError(t, err)

		failSave = true
		_, err = p.Process(ctx, []record.Upstream{{ID: 2, Text: "lost reply", CreatedAt: ts, InReplyTo: 1}})
		require.Error(t, err)

		failSave = false
		_, err = p.Process(ctx, []record.Upstream{{ID: 3, Text: "kept reply", CreatedAt: ts, InReplyTo: 1}})
		require.NoError(t, err)

		parent, err := records.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []record.Reply{{ID: 3}}, parent.Replies())
		assert.Equal(t, int64(2), parent.Version())
		assert.Equal(t, 2, parent.UpdateCount())
		_, err = records.Get(ctx, 2)
		require.ErrorIs(t, err, storage.ErrNotFound)

		stats, err := p.Process(ctx, []record.Upstream{{ID: 5, Text: "lost reply", CreatedAt: ts}})
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Duplicates, "text of the failed batch not tracked")
		rec, err := records.Get(ctx, 5)
		require.NoError(t, err)
		assert.Empty(t, rec.Duplicates())
		assert.Equal(t, record.QualMax, rec.Quality())
	})

	t.Run("canceled context", func(t *testing.T) {
		p, err := New(&mocks.StoreMock{}, testLexicon(), Params{})
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = p.Process(ctx, batch)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestStats_String(t *testing.T) {
	s := Stats{Received: 5, Dropped: 1, Replies: 2, Spam: 1, Saved: 4}
	assert.Equal(t, "received: 5, dropped: 1, replies: 2, retweets: 0, daemons: 0, reactivated: 0, merged: 0, "+
		"duplicates: 0, spam: 1, saved: 4", s.String())
}

func newTestStore(t *testing.T) *storage.Records {
	t.Helper()
	db, err := engine.NewSqlite(":memory:", "gr1")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	res, err := storage.NewRecords(context.Background(), db)
	require.NoError(t, err)
	return res
}

func testLexicon() *lexicon.Lexicon {
	return lexicon.New(
		lexicon.Source{Tag: "en", Kind: lexicon.KindDetection, Words: []string{"hello", "world"}},
		lexicon.Source{Tag: "en", Kind: lexicon.KindNoise, Words: []string{"the", "from", "and"}},
		lexicon.Source{Tag: "de", Kind: lexicon.KindDetection, Words: []string{"hallo", "welt"}},
		lexicon.Source{Tag: lexicon.MiscTerms, Kind: lexicon.KindAux, Words: []string{"rt", "wow"}},
		lexicon.Source{Kind: lexicon.KindPhrase, Words: []string{"open source"}},
	)
}
