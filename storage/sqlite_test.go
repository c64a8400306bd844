package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/usersearch/querier"
)

var userTypes = map[string]querier.DeclaredType{
	"name":       querier.TypeString,
	"age":        querier.TypeNumber,
	"active":     querier.TypeBoolean,
	"created_at": querier.TypeDate,
}

func newTestSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := NewSQLiteStorage(logger, SQLiteStorageConfig{Path: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	require.NoError(t, s.Connect(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	_, err = s.db.Exec(`CREATE TABLE users (
		name TEXT,
		age INTEGER,
		active INTEGER,
		created_at TEXT
	)`)
	require.NoError(t, err)

	_, err = s.db.Exec(`INSERT INTO users (name, age, active, created_at) VALUES
		('john', 30, 1, '2024-03-01 10:00:00'),
		('joan', 25, 0, '2024-02-10 08:30:00'),
		('mary', NULL, 1, '2023-12-24 18:00:00'),
		('bob', 41, 0, NULL)`)
	require.NoError(t, err)

	return s
}

func searchNames(t *testing.T, s *SQLiteStorage, req querier.SearchRequest) []string {
	t.Helper()

	compiler := querier.NewCompiler(querier.Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 3, 13, 10, 30, 0, 0, time.UTC) },
	})
	res, err := compiler.Compile(req, userTypes)
	require.NoError(t, err)

	resp, err := s.Query(context.Background(), querier.QueryRequest{
		Table:   "users",
		Columns: []string{"name"},
		Tree:    res.Tree,
	})
	require.NoError(t, err)

	names := make([]string, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		names = append(names, r["name"].(string))
	}
	sort.Strings(names)
	return names
}

func TestSQLiteQuery(t *testing.T) {
	s := newTestSQLite(t)

	tests := map[string]struct {
		req  querier.SearchRequest
		want []string
	}{
		"no search":          {querier.SearchRequest{}, []string{"bob", "joan", "john", "mary"}},
		"like":               {querier.SearchRequest{"name": "jo%"}, []string{"joan", "john"}},
		"not like":           {querier.SearchRequest{"name": "!=jo%"}, []string{"bob", "mary"}},
		"or":                 {querier.SearchRequest{"name": "john;mary"}, []string{"john", "mary"}},
		"arithmetic between": {querier.SearchRequest{"age": "5*5..6*5"}, []string{"joan", "john"}},
		"null":               {querier.SearchRequest{"age": "!"}, []string{"mary"}},
		"not null and range": {querier.SearchRequest{"age": "%|>=30"}, []string{"bob", "john"}},
		"boolean":            {querier.SearchRequest{"active": "true"}, []string{"john", "mary"}},
		"date":               {querier.SearchRequest{"created_at": ">=01/03/2024"}, []string{"john"}},
		"two columns":        {querier.SearchRequest{"name": "jo%", "active": "false"}, []string{"joan"}},
		"invalid term dropped": {
			querier.SearchRequest{"name": "bob", "age": "abc"},
			[]string{"bob"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, searchNames(t, s, tt.req))
		})
	}
}

func TestSQLiteQueryLimitAndColumns(t *testing.T) {
	s := newTestSQLite(t)

	resp, err := s.Query(context.Background(), querier.QueryRequest{Table: "users", Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Rows, 2)
	assert.Contains(t, resp.Rows[0], "created_at")

	_, err = s.Query(context.Background(), querier.QueryRequest{Table: "users; DROP TABLE users"})
	assert.Error(t, err)
}

func TestSQLiteQueryNotConnected(t *testing.T) {
	s, err := NewSQLiteStorage(slog.New(slog.NewTextHandler(io.Discard, nil)), SQLiteStorageConfig{Path: "unused.db"})
	require.NoError(t, err)

	_, err = s.Query(context.Background(), querier.QueryRequest{Table: "users"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestSQLiteArg(t *testing.T) {
	assert.Equal(t, "2024-03-01 00:00:00", sqliteArg(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, sqliteArg(true))
	assert.Equal(t, 0, sqliteArg(false))
	assert.Equal(t, 2.5, sqliteArg(2.5))
}

func TestSQLiteArgExplicitZone(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	c := querier.NewCoercer(querier.Options{Location: paris})
	v, err := c.Coerce("2024-01-01T10:00:00Z", querier.TypeDate)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01 11:00:00", sqliteArg(v))
}
