package querier

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thisisjab/usersearch/fault"
)

func newTestCompiler() *Compiler {
	return NewCompiler(Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
}

func compileAndRecord(t *testing.T, req SearchRequest, types map[string]DeclaredType) (Result, *recorder) {
	t.Helper()

	res, err := newTestCompiler().Compile(req, types)
	require.NoError(t, err)

	r := newRecorder()
	require.NoError(t, Apply(res.Tree, r))

	return res, r
}

func TestCompileAmountAndName(t *testing.T) {
	res, r := compileAndRecord(t,
		SearchRequest{"amount": "10..20;!=5", "name": "jo%"},
		map[string]DeclaredType{"amount": TypeNumber, "name": TypeString},
	)

	assert.Equal(t, []string{
		"0:AND (",
		"1:OR amount range 10..20 negated=false",
		"1:OR amount not_equals 5",
		"1:)",
		"0:AND name like jo%",
	}, *r.calls)

	assert.Equal(t, "10..20;!=5", res.Columns["amount"].ExecutedSearch)
	assert.Equal(t, "jo%", res.Columns["name"].ExecutedSearch)

	sql, err := NewSQLQueryBuilder(SQLOptions{}).BuildWhere(res.Tree)
	require.NoError(t, err)
	assert.Equal(t, "(amount BETWEEN ? AND ? OR amount != ?) AND name LIKE ?", sql.Query)
	assert.Equal(t, []any{10.0, 20.0, 5.0, "jo%"}, sql.Args)
}

func TestCompileNullOnBoolean(t *testing.T) {
	res, r := compileAndRecord(t,
		SearchRequest{"status": "!"},
		map[string]DeclaredType{"status": TypeBoolean},
	)

	assert.Equal(t, []string{"0:AND status null negated=false"}, *r.calls)
	assert.Equal(t, "!", res.Columns["status"].ExecutedSearch)
}

func TestCompileSingleGroupIsFlat(t *testing.T) {
	res, r := compileAndRecord(t,
		SearchRequest{"age": "|>1||<10|!=5|", "name": "!=bob"},
		map[string]DeclaredType{"age": TypeNumber, "name": TypeString},
	)

	assert.Zero(t, r.scopes())
	assert.Equal(t, []string{
		"0:AND age greater_than 1",
		"0:AND age less_than 10",
		"0:AND age not_equals 5",
		"0:AND name not_equals bob",
	}, *r.calls)

	cs := res.Columns["age"]
	assert.Equal(t, "|>1||<10|!=5|", cs.OriginalSearch)
	assert.Equal(t, ">1|<10|!=5", cs.CleanSearch)
	assert.Equal(t, ">1|<10|!=5", cs.ExecutedSearch)
	assert.True(t, cs.Valid())
}

func TestCompileMultiGroupOpensOneScope(t *testing.T) {
	_, r := compileAndRecord(t,
		SearchRequest{"qty": "1;2|3;!"},
		map[string]DeclaredType{"qty": TypeNumber},
	)

	assert.Equal(t, []string{
		"0:AND (",
		"1:OR qty equals 1",
		"1:OR (",
		"2:AND qty equals 2",
		"2:AND qty equals 3",
		"2:)",
		"1:OR qty null negated=false",
		"1:)",
	}, *r.calls)
}

func TestCompileDropsInvalidTerms(t *testing.T) {
	types := map[string]DeclaredType{"n": TypeNumber}

	t.Run("single group keeps valid siblings", func(t *testing.T) {
		res, r := compileAndRecord(t, SearchRequest{"n": "abc|5"}, types)

		assert.Equal(t, []string{"0:AND n equals 5"}, *r.calls)
		assert.Equal(t, "/**err**/|5", res.Columns["n"].ExecutedSearch)
		assert.False(t, res.Columns["n"].Valid())
		assert.False(t, res.Columns["n"].Groups[0][0].Valid)
		assert.True(t, fault.Is(res.Columns["n"].Groups[0][0].Err, fault.CoercionCode))
	})

	t.Run("invalid single term group is dropped", func(t *testing.T) {
		res, r := compileAndRecord(t, SearchRequest{"n": ">1..2;5"}, types)

		assert.Equal(t, []string{"0:AND (", "1:OR n equals 5", "1:)"}, *r.calls)
		assert.Equal(t, "/**err**/;5", res.Columns["n"].ExecutedSearch)
	})

	t.Run("partially invalid group stays wrapped", func(t *testing.T) {
		_, r := compileAndRecord(t, SearchRequest{"n": "1|x;3"}, types)

		assert.Equal(t, []string{
			"0:AND (",
			"1:OR (",
			"2:AND n equals 1",
			"2:)",
			"1:OR n equals 3",
			"1:)",
		}, *r.calls)
	})

	t.Run("nothing valid", func(t *testing.T) {
		res, r := compileAndRecord(t, SearchRequest{"n": "x|y;z"}, types)

		assert.Empty(t, *r.calls)
		assert.Empty(t, res.Tree.Children)
		assert.Equal(t, "/**err**/|/**err**/;/**err**/", res.Columns["n"].ExecutedSearch)
	})
}

func TestCompileEmptySearch(t *testing.T) {
	res, r := compileAndRecord(t,
		SearchRequest{"a": ";;|", "b": ""},
		map[string]DeclaredType{"a": TypeString, "b": TypeNumber},
	)

	assert.Empty(t, *r.calls)
	assert.Equal(t, "", res.Columns["a"].CleanSearch)
	assert.Nil(t, res.Columns["a"].Groups)
	assert.Contains(t, res.Columns, "b")
}

func TestCompileUndeclaredColumn(t *testing.T) {
	_, err := newTestCompiler().Compile(
		SearchRequest{"amount": "5", "secret": "x", "other": ""},
		map[string]DeclaredType{"amount": TypeNumber},
	)

	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.ConfigurationCode))

	var f fault.Fault
	require.ErrorAs(t, err, &f)
	md, ok := f.Metadata().(fault.FieldErrorsMetadata)
	require.True(t, ok)
	assert.Contains(t, md, "secret")
	assert.Contains(t, md, "other")
	assert.NotContains(t, md, "amount")
}

func TestCompileIsReentrant(t *testing.T) {
	c := newTestCompiler()
	types := map[string]DeclaredType{"amount": TypeNumber, "name": TypeString, "at": TypeDate}
	requests := []SearchRequest{
		{"amount": "10..20;!=5", "name": "jo%"},
		{"amount": "1|2|3", "at": "today..tomorrow"},
		{"name": "!;%;a_b|!=c", "at": ">01/03/2017"},
		{"amount": "(1+2)*3;abc"},
	}

	want := make([]Result, len(requests))
	for i, req := range requests {
		res, err := c.Compile(req, types)
		require.NoError(t, err)
		want[i] = res
	}

	var wg sync.WaitGroup
	got := make([][]Result, 32)
	for g := range got {
		wg.Go(func() {
			for _, req := range requests {
				res, err := c.Compile(req, types)
				if err != nil {
					return
				}
				got[g] = append(got[g], res)
			}
		})
	}
	wg.Wait()

	for g := range got {
		require.Len(t, got[g], len(requests))
		for i := range requests {
			for col, cs := range want[i].Columns {
				assert.Equal(t, cs.ExecutedSearch, got[g][i].Columns[col].ExecutedSearch)
			}
			assert.Equal(t, len(want[i].Tree.Children), len(got[g][i].Tree.Children))
		}
	}
}
