package querier

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a QueryEmitter that logs every call it receives.
type recorder struct {
	calls *[]string
	depth int
}

func newRecorder() *recorder {
	return &recorder{calls: &[]string{}}
}

func (r *recorder) log(format string, args ...any) {
	*r.calls = append(*r.calls, fmt.Sprintf("%d:", r.depth)+fmt.Sprintf(format, args...))
}

func (r *recorder) Compare(join Join, column string, op Operator, value any) {
	r.log("%s %s %s %v", join, column, op, value)
}

func (r *recorder) Null(join Join, column string, negated bool) {
	r.log("%s %s null negated=%v", join, column, negated)
}

func (r *recorder) Range(join Join, column string, bounds [2]any, negated bool) {
	r.log("%s %s range %v..%v negated=%v", join, column, bounds[0], bounds[1], negated)
}

func (r *recorder) Nested(join Join) QueryEmitter {
	r.log("%s (", join)
	return &recorder{calls: r.calls, depth: r.depth + 1}
}

func (r *recorder) Close() {
	r.log(")")
}

func (r *recorder) scopes() int {
	n := 0
	for _, c := range *r.calls {
		if len(c) > 0 && c[len(c)-1] == '(' {
			n++
		}
	}
	return n
}

func TestApplyNestsBooleanNodes(t *testing.T) {
	leaf := func(col string, v float64) ConditionNode {
		return ConditionNode{Column: col, Type: TypeNumber, Operator: OperatorEquals, Raw: []string{FormatValue(v)}, Values: []any{v}, Valid: true}
	}

	tree := AndNode{Children: []QueryNode{
		leaf("a", 1),
		OrNode{Children: []QueryNode{
			leaf("b", 2),
			AndNode{Children: []QueryNode{leaf("b", 3), leaf("b", 4)}},
		}},
	}}

	r := newRecorder()
	require.NoError(t, Apply(tree, r))

	assert.Equal(t, []string{
		"0:AND a equals 1",
		"0:AND (",
		"1:OR b equals 2",
		"1:OR (",
		"2:AND b equals 3",
		"2:AND b equals 4",
		"2:)",
		"1:)",
	}, *r.calls)
}

func TestApplyRejectsInvalidCondition(t *testing.T) {
	tree := AndNode{Children: []QueryNode{ConditionNode{Column: "a", Operator: OperatorEquals}}}

	err := Apply(tree, newRecorder())
	assert.Error(t, err)
}
