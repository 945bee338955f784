package engine

import "fmt"

// DBCmd identifies a query in a QueryMap. Each storage type allocates its own range of commands.
type DBCmd int

// Query keeps dialect-specific variants of the same statement
type Query struct {
	Sqlite   string
	Postgres string
}

// QueryMap maps commands to dialect-specific queries
type QueryMap struct {
	queries map[DBCmd]Query
}

// NewQueryMap makes an empty QueryMap
func NewQueryMap() *QueryMap {
	return &QueryMap{queries: make(map[DBCmd]Query)}
}

// Add sets the query for the command, replacing the previous one
func (q *QueryMap) Add(cmd DBCmd, query Query) *QueryMap {
	q.queries[cmd] = query
	return q
}

// AddSame sets the query used by all dialects
func (q *QueryMap) AddSame(cmd DBCmd, query string) *QueryMap {
	return q.Add(cmd, Query{Sqlite: query, Postgres: query})
}

// Pick returns the query for the database type
func (q *QueryMap) Pick(dbType Type, cmd DBCmd) (string, error) {
	query, ok := q.queries[cmd]
	if !ok {
		return "", fmt.Errorf("unsupported command type %d", cmd)
	}

	switch dbType {
	case Sqlite:
		return query.Sqlite, nil
	case Postgres:
		return query.Postgres, nil
	default:
		return "", fmt.Errorf("unsupported database type %q", dbType)
	}
}

// PickFor returns the query for the engine's database type
func (q *QueryMap) PickFor(db *SQL, cmd DBCmd) (string, error) {
	if db == nil {
		return "", fmt.Errorf("db connection is nil")
	}
	return q.Pick(db.Type(), cmd)
}
