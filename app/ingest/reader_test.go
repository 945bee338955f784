package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tweet-ingest/lib/record"
)

func TestReadUpstream(t *testing.T) {
	input := `{"id": 1, "text": "first", "author": "bob", "created_at": "2024-05-01T10:00:00Z"}

{"id": 2, "text": "second", "in_reply_to": 1, "urls": ["http://example.com"]}
not a json
{"text": "no id"}
{"id": 3, "text": "third", "retweet_count": 7}
`

	tests := []struct {
		name      string
		batchSize int
		batches   [][]int64
	}{
		{name: "single batch", batchSize: 10, batches: [][]int64{{1, 2, 3}}},
		{name: "batches of two", batchSize: 2, batches: [][]int64{{1, 2}, {3}}},
		{name: "zero batch size", batchSize: 0, batches: [][]int64{{1}, {2}, {3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got [][]int64
			var all []record.Upstream
			stats, err := ReadUpstream(context.Background(), strings.NewReader(input), tt.batchSize, func(b []record.Upstream) error {
				var ids []int64
				for _, u := range b {
					ids = append(ids, u.ID)
				}
				got = append(got, ids)
				all = append(all, b...)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, tt.batches, got)
			assert.Equal(t, ReadStats{Lines: 6, Records: 3, Invalid: 2}, stats)

			require.Len(t, all, 3)
			assert.Equal(t, "bob", all[0].Author)
			assert.Equal(t, 2024, all[0].CreatedAt.Year())
			assert.Equal(t, int64(1), all[1].InReplyTo)
			assert.Equal(t, []string{"http://example.com"}, all[1].URLs)
			assert.Equal(t, 7, all[2].RetweetCount)
		})
	}
}

func TestReadUpstream_Errors(t *testing.T) {
	input := "{\"id\": 1}\n{\"id\": 2}\n{\"id\": 3}\n"

	t.Run("callback error stops reading", func(t *testing.T) {
		calls := 0
		stats, err := ReadUpstream(context.Background(), strings.NewReader(input), 1, func([]record.Upstream) error {
			calls++
			return errors.New("failed")
		})
		require.EqualError(t, err, "failed")
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, stats.Records)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ReadUpstream(ctx, strings.NewReader(input), 1, func([]record.Upstream) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("empty input", func(t *testing.T) {
		calls := 0
		stats, err := ReadUpstream(context.Background(), strings.NewReader(""), 1, func([]record.Upstream) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, calls)
		assert.Equal(t, ReadStats{}, stats)
	})
}
