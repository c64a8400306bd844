package querier

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLQueryBuilderBuild(t *testing.T) {
	res, err := newTestCompiler().Compile(
		SearchRequest{"price": "!=1..5;%|>100", "title": "!", "active": "true"},
		map[string]DeclaredType{"price": TypeNumber, "title": TypeString, "active": TypeBoolean},
	)
	require.NoError(t, err)

	tests := map[PlaceholderStyle]string{
		PlaceholderQuestion: "SELECT id, title FROM products WHERE active = ? AND (price NOT BETWEEN ? AND ? OR (price IS NOT NULL AND price > ?)) AND title IS NULL LIMIT 10",
		PlaceholderDollar:   "SELECT id, title FROM products WHERE active = $1 AND (price NOT BETWEEN $2 AND $3 OR (price IS NOT NULL AND price > $4)) AND title IS NULL LIMIT 10",
	}

	for style, want := range tests {
		b := NewSQLQueryBuilder(SQLOptions{Placeholder: style})

		got, err := b.Build(QueryRequest{
			Table:   "products",
			Columns: []string{"id", "title"},
			Tree:    res.Tree,
			Limit:   10,
		})
		require.NoError(t, err)

		assert.Equal(t, want, got.Query)
		assert.Equal(t, []any{true, 1.0, 5.0, 100.0}, got.Args)
	}
}

func TestSQLQueryBuilderEmptyTree(t *testing.T) {
	got, err := NewSQLQueryBuilder(SQLOptions{}).Build(QueryRequest{Table: "users"})
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM users", got.Query)
	assert.Empty(t, got.Args)
}

func TestSQLQueryBuilderRejectsIdentifiers(t *testing.T) {
	b := NewSQLQueryBuilder(SQLOptions{})

	_, err := b.Build(QueryRequest{Table: "users; DROP TABLE users"})
	assert.Error(t, err)

	_, err = b.Build(QueryRequest{Table: "users", Columns: []string{"id", "1=1"}})
	assert.Error(t, err)

	tree := AndNode{Children: []QueryNode{
		ConditionNode{Column: "name) OR (1=1", Type: TypeString, Operator: OperatorEquals, Raw: []string{"x"}, Values: []any{"x"}, Valid: true},
	}}
	_, err = b.BuildWhere(tree)
	assert.Error(t, err)
}

func TestSQLQueryBuilderCustomFieldRegex(t *testing.T) {
	b := NewSQLQueryBuilder(SQLOptions{AllowedFilterFieldsRegex: regexp.MustCompile(`^(users|name)$`)})

	tree := AndNode{Children: []QueryNode{
		ConditionNode{Column: "email", Type: TypeString, Operator: OperatorEquals, Raw: []string{"x"}, Values: []any{"x"}, Valid: true},
	}}
	_, err := b.Build(QueryRequest{Table: "users", Tree: tree})
	assert.Error(t, err)
}
