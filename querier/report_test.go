package querier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReport(t *testing.T) {
	res, err := newTestCompiler().Compile(
		SearchRequest{"age": "1;5..6|!", "name": "jo%|x..y..z"},
		map[string]DeclaredType{"age": TypeNumber, "name": TypeString},
	)
	require.NoError(t, err)

	r, err := NewReport(res)
	require.NoError(t, err)

	assert.False(t, r.Valid)
	require.Len(t, r.Columns, 2)
	assert.Equal(t, "age", r.Columns[0].Column)
	assert.True(t, r.Columns[0].Valid)
	assert.Equal(t, "1;5..6|!", r.Columns[0].ExecutedSearch)

	name := r.Columns[1]
	assert.False(t, name.Valid)
	require.Len(t, name.Groups, 1)
	require.Len(t, name.Groups[0], 2)
	assert.Equal(t, "like", name.Groups[0][0].Operator)
	assert.Equal(t, []string{"jo%"}, name.Groups[0][0].Values)
	assert.False(t, name.Groups[0][1].Valid)
	assert.NotEmpty(t, name.Groups[0][1].Error)
	assert.Equal(t, InvalidMarker, name.Groups[0][1].RoundTrip)

	// root: the age OR-node, then the one valid name term added flat
	require.Len(t, r.Tree.Children, 2)

	or := r.Tree.Children[0]
	assert.Equal(t, "AND", or.Join)
	assert.Equal(t, "OR", or.Group)
	require.Len(t, or.Children, 2)
	assert.Equal(t, &ReportNode{Join: "OR", Column: "age", Operator: "equals", Values: []string{"1"}}, or.Children[0])

	and := or.Children[1]
	assert.Equal(t, "AND", and.Group)
	require.Len(t, and.Children, 2)
	assert.Equal(t, "between", and.Children[0].Operator)
	assert.Equal(t, []string{"5", "6"}, and.Children[0].Values)
	assert.Equal(t, "is_null", and.Children[1].Operator)
	assert.Empty(t, and.Children[1].Values)
}

func TestNewReportEmpty(t *testing.T) {
	res, err := newTestCompiler().Compile(SearchRequest{"age": ";|"}, map[string]DeclaredType{"age": TypeNumber})
	require.NoError(t, err)

	r, err := NewReport(res)
	require.NoError(t, err)
	assert.True(t, r.Valid)
	assert.Empty(t, r.Tree.Children)
}
