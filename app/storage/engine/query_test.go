package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMap_Pick(t *testing.T) {
	qmap := NewQueryMap().
		Add(1, Query{
			Sqlite:   "INSERT OR REPLACE INTO records (id, data) VALUES (?, ?)",
			Postgres: "INSERT INTO records (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data",
		}).
		AddSame(2, "SELECT COUNT(*) FROM records")

	tests := []struct {
		name    string
		dbType  Type
		cmd     DBCmd
		want    string
		wantErr string
	}{
		{name: "sqlite", dbType: Sqlite, cmd: 1, want: "INSERT OR REPLACE INTO records (id, data) VALUES (?, ?)"},
		{name: "postgres", dbType: Postgres, cmd: 1,
			want: "INSERT INTO records (id, data) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data"},
		{name: "same for sqlite", dbType: Sqlite, cmd: 2, want: "SELECT COUNT(*) FROM records"},
		{name: "same for postgres", dbType: Postgres, cmd: 2, want: "SELECT COUNT(*) FROM records"},
		{name: "unknown db type", dbType: Unknown, cmd: 1, wantErr: "unsupported database type"},
		{name: "unknown command", dbType: Sqlite, cmd: 99, wantErr: "unsupported command type 99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := qmap.Pick(tt.dbType, tt.cmd)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQueryMap_Overwrite(t *testing.T) {
	qmap := NewQueryMap().
		AddSame(1, "old").
		Add(1, Query{Sqlite: "new sqlite", Postgres: ""})

	q, err := qmap.Pick(Sqlite, 1)
	require.NoError(t, err)
	assert.Equal(t, "new sqlite", q)

	q, err = qmap.Pick(Postgres, 1)
	require.NoError(t, err)
	assert.Empty(t, q, "empty query is valid")
}

func TestQueryMap_PickFor(t *testing.T) {
	qmap := NewQueryMap().Add(1, Query{Sqlite: "s", Postgres: "p"})

	q, err := qmap.PickFor(&SQL{dbType: Postgres}, 1)
	require.NoError(t, err)
	assert.Equal(t, "p", q)

	_, err = qmap.PickFor(nil, 1)
	require.Error(t, err)
}
