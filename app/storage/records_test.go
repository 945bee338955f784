package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/umputun/tweet-ingest/app/storage/engine"
	"github.com/umputun/tweet-ingest/lib/record"
)

func (s *StorageTestSuite) TestRecords_SaveAndGet() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			recs, err := NewRecords(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "records")

			ts := time.Date(2010, 5, 20, 12, 0, 0, 0, time.UTC)
			parent := record.New(1, "Hello World", "bob", ts)
			reply := record.New(2, "RT @bob: Hello World", "alice", ts.Add(time.Minute))
			parent.AddReply(reply)
			parent.AddDuplicate(5)
			parent.MultiplyQuality(0.5).AddQualAction("dup;")
			s.Require().NoError(parent.SetVersion(2))
			s.False(parent.IsPersistent())

			s.Require().NoError(recs.Save(ctx, parent, reply, nil))
			s.True(parent.IsPersistent())
			s.True(reply.IsPersistent())

			got, err := recs.Get(ctx, 1)
			s.Require().NoError(err)
			s.Equal("Hello World", got.Text())
			s.Equal([]record.Reply{{ID: 2, Retweet: true}}, got.Replies())
			s.Equal([]int64{5}, got.Duplicates())
			s.Equal(50, got.Quality())
			s.Equal("dup;", got.QualDebug())
			s.Equal(int64(2), got.Version())
			s.True(got.IsPersistent())
			s.True(ts.Equal(got.CreatedAt()))

			gotReply, err := recs.Get(ctx, 2)
			s.Require().NoError(err)
			s.Equal(int64(1), gotReply.ParentID())
			s.True(gotReply.IsRetweet())

			_, err = recs.Get(ctx, 42)
			s.Require().ErrorIs(err, ErrNotFound)
		})
	}
}

func (s *StorageTestSuite) TestRecords_Upsert() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			recs, err := NewRecords(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "records")

			r := record.New(1, "text", "bob", time.Now())
			s.Require().NoError(recs.Save(ctx, r))
			r.SetExplicitRetweetCount(7)
			s.Require().NoError(r.SetVersion(1))
			s.Require().NoError(recs.Save(ctx, r))

			got, err := recs.Get(ctx, 1)
			s.Require().NoError(err)
			s.Equal(7, got.ExplicitRetweetCount())
			s.Equal(int64(1), got.Version())

			st, err := recs.Stats(ctx)
			s.Require().NoError(err)
			s.Equal(1, st.Total)
		})
	}
}

func (s *StorageTestSuite) TestRecords_Lookups() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			recs, err := NewRecords(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "records")

			now := time.Now()
			parent := record.New(10, "Some Text", "bob", now)
			daemon := record.New(5, "", "", now).SetDaemon(true)
			r1 := record.New(11, "@bob reply one", "a", now)
			r2 := record.New(12, "@bob reply two", "b", now)
			parent.AddReply(r2).AddReply(r1)
			spam := record.New(20, "buy now", "spammer", now).SetQuality(10)
			dupText := record.New(30, "some text", "carol", now)
			s.Require().NoError(recs.Save(ctx, parent, daemon, r1, r2, spam, dupText))

			s.Run("find by text", func() {
				got, err := recs.FindByText(ctx, "some text")
				s.Require().NoError(err)
				s.Equal(int64(10), got.ID(), "oldest id wins")

				_, err = recs.FindByText(ctx, "missing")
				s.Require().ErrorIs(err, ErrNotFound)

				_, err = recs.FindByText(ctx, "")
				s.Require().ErrorIs(err, ErrNotFound, "daemons with empty text are skipped")
			})

			s.Run("replies", func() {
				got, err := recs.Replies(ctx, 10)
				s.Require().NoError(err)
				s.Require().Len(got, 2)
				s.Equal(int64(11), got[0].ID())
				s.Equal(int64(12), got[1].ID())
			})

			s.Run("spam", func() {
				got, err := recs.Spam(ctx, 10)
				s.Require().NoError(err)
				s.Require().Len(got, 1)
				s.Equal(int64(20), got[0].ID())
				s.True(got[0].IsSpam())
			})

			s.Run("stats", func() {
				st, err := recs.Stats(ctx)
				s.Require().NoError(err)
				s.Equal(RecordsStats{Total: 6, Spam: 1, Daemons: 1, Replies: 2}, st)
				s.Equal("total: 6, spam: 1, daemons: 1, replies: 2", st.String())
			})
		})
	}
}

func (s *StorageTestSuite) TestRecords_Cleanup() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			recs, err := NewRecords(ctx, db)
			s.Require().NoError(err)
			defer s.dropTables(db, "records")

			now := time.Now()
			old := record.New(1, "old", "", now.Add(-48*time.Hour))
			fresh := record.New(2, "fresh", "", now.Add(-time.Hour))
			s.Require().NoError(recs.Save(ctx, old, fresh))

			removed, err := recs.Cleanup(ctx, 24*time.Hour)
			s.Require().NoError(err)
			s.Equal(int64(1), removed)

			_, err = recs.Get(ctx, 1)
			s.ErrorIs(err, ErrNotFound)
			_, err = recs.Get(ctx, 2)
			s.NoError(err)

			_, err = recs.Cleanup(ctx, 0)
			s.Error(err)
		})
	}
}

func (s *StorageTestSuite) TestRecords_NilDB() {
	_, err := NewRecords(context.Background(), nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "db connection is nil")
}

func (s *StorageTestSuite) TestTextHash() {
	s.Equal(TextHash("hello"), TextHash("  hello "))
	s.NotEqual(TextHash("hello"), TextHash("Hello"))
	s.Len(TextHash(""), 64)
}

func (s *StorageTestSuite) TestRecords_CancelledContext() {
	db := s.dbs["sqlite"]
	recs, err := NewRecords(context.Background(), db)
	s.Require().NoError(err)
	defer s.dropTables(db, "records")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Error(recs.Save(ctx, record.New(1, "text", "", time.Now())))
	s.Equal(engine.Sqlite, db.Type())
}
