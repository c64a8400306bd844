package querier

import "fmt"

// Join is the logical connective placing a predicate after its previous sibling.
type Join uint8

const (
	JoinAnd Join = iota
	JoinOr
)

func (j Join) String() string {
	if j == JoinOr {
		return "OR"
	}
	return "AND"
}

// QueryEmitter is the query layer a compiled tree is applied to. Values are
// always handed over as bound parameters.
type QueryEmitter interface {
	// Compare adds "column op value" for the comparison and pattern operators.
	Compare(join Join, column string, op Operator, value any)

	// Null adds "column IS NULL", or IS NOT NULL when negated.
	Null(join Join, column string, negated bool)

	// Range adds an inclusive "column BETWEEN lo AND hi", or NOT BETWEEN when negated.
	Range(join Join, column string, bounds [2]any, negated bool)

	// Nested opens a parenthesised scope joined to the previous sibling by join.
	Nested(join Join) QueryEmitter

	// Close ends a scope opened by Nested.
	Close()
}

// Apply walks tree and replays it on e. Children of an AndNode are joined
// with AND and children of an OrNode with OR; each nested boolean node opens
// its own scope.
func Apply(tree AndNode, e QueryEmitter) error {
	return applyChildren(tree.Children, JoinAnd, e)
}

func applyChildren(children []QueryNode, join Join, e QueryEmitter) error {
	for _, child := range children {
		if err := applyNode(child, join, e); err != nil {
			return err
		}
	}
	return nil
}

func applyNode(node QueryNode, join Join, e QueryEmitter) error {
	switch n := node.(type) {
	case AndNode:
		scope := e.Nested(join)
		err := applyChildren(n.Children, JoinAnd, scope)
		scope.Close()
		return err

	case OrNode:
		scope := e.Nested(join)
		err := applyChildren(n.Children, JoinOr, scope)
		scope.Close()
		return err

	case ConditionNode:
		return applyCondition(n, join, e)

	default:
		return fmt.Errorf("unknown query node type: %T", node)
	}
}

func applyCondition(n ConditionNode, join Join, e QueryEmitter) error {
	if !n.Valid {
		return fmt.Errorf("invalid condition on column %q reached emission", n.Column)
	}

	switch n.Operator {
	case OperatorIsNull:
		e.Null(join, n.Column, false)
	case OperatorIsNotNull:
		e.Null(join, n.Column, true)
	case OperatorBetween:
		e.Range(join, n.Column, n.Bounds(), false)
	case OperatorNotBetween:
		e.Range(join, n.Column, n.Bounds(), true)
	case OperatorEquals, OperatorNotEquals,
		OperatorGreaterThan, OperatorGreaterOrEqual,
		OperatorLessThan, OperatorLessOrEqual,
		OperatorLike, OperatorNotLike:
		e.Compare(join, n.Column, n.Operator, n.Value())
	default:
		return fmt.Errorf("unsupported operator: %v", n.Operator)
	}

	return nil
}
