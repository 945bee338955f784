package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type testCheckpoint struct {
	Files map[string]time.Time `json:"files"`
	Count int                  `json:"count"`
}

func (s *StorageTestSuite) TestState_SaveAndLoad() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			st, err := NewState[testCheckpoint](ctx, db, "checkpoint")
			s.Require().NoError(err)
			defer s.dropTables(db, "state")

			var cp testCheckpoint
			err = st.Load(ctx, &cp)
			s.Require().ErrorIs(err, ErrNotFound)
			_, err = st.LastUpdated(ctx)
			s.Require().ErrorIs(err, ErrNotFound)

			ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
			s.Require().NoError(st.Save(ctx, &testCheckpoint{Files: map[string]time.Time{"a.jsonl": ts}, Count: 5}))
			s.Require().NoError(st.Save(ctx, &testCheckpoint{Files: map[string]time.Time{"b.jsonl": ts}, Count: 7}))

			s.Require().NoError(st.Load(ctx, &cp))
			s.Equal(7, cp.Count)
			s.Len(cp.Files, 1)
			s.True(ts.Equal(cp.Files["b.jsonl"]))

			updated, err := st.LastUpdated(ctx)
			s.Require().NoError(err)
			s.WithinDuration(time.Now(), updated, time.Minute)

			// other names are independent
			other, err := NewState[testCheckpoint](ctx, db, "other")
			s.Require().NoError(err)
			s.Require().ErrorIs(other.Load(ctx, &cp), ErrNotFound)

			s.Require().NoError(st.Delete(ctx))
			s.Require().ErrorIs(st.Load(ctx, &cp), ErrNotFound)
			s.Error(st.Save(ctx, nil))
		})
	}
}

func (s *StorageTestSuite) TestState_Errors() {
	ctx := context.Background()
	_, err := NewState[testCheckpoint](ctx, nil, "x")
	s.Require().Error(err)
	_, err = NewState[testCheckpoint](ctx, s.dbs["sqlite"], "")
	s.Require().Error(err)
}

func (s *StorageTestSuite) TestState_ConcurrentAccess() {
	ctx := context.Background()
	for _, db := range s.getTestDB() {
		s.Run(fmt.Sprintf("with %s", db.Type()), func() {
			st, err := NewState[testCheckpoint](ctx, db, "checkpoint")
			s.Require().NoError(err)
			defer s.dropTables(db, "state")

			var wg sync.WaitGroup
			for i := range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s.NoError(st.Save(ctx, &testCheckpoint{Count: i}))
				}()
			}
			wg.Wait()

			var cp testCheckpoint
			s.Require().NoError(st.Load(ctx, &cp))
			s.GreaterOrEqual(cp.Count, 0)
			s.Less(cp.Count, 10)
		})
	}
}
