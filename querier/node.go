package querier

// QueryNode is the interface that all nodes in the predicate tree implement.
// It uses a private marker method so that only types defined in this package
// can be used as nodes, which keeps the tree a closed sum type.
type QueryNode interface {
	queryNode()
}

// AndNode represents a logical conjunction.
// It is satisfied only if all of its Children evaluate to true.
// The root of a compiled search is always an AndNode.
type AndNode struct {
	Children []QueryNode
}

func (n AndNode) queryNode() {}

// OrNode represents a logical disjunction.
// It is satisfied if at least one of its Children evaluates to true.
// A column searched with more than one ';' group compiles to one OrNode.
type OrNode struct {
	Children []QueryNode
}

func (n OrNode) queryNode() {}

// ConditionNode is a leaf of the predicate tree: one parsed and typed search
// term against one column. Only nodes with Valid set are placed in a tree;
// invalid ones are kept in ColumnSearch for diagnostics.
type ConditionNode struct {
	// Column is the searched column name.
	Column string

	// Type is the declared type of Column.
	Type DeclaredType

	// Operator is the comparison to apply.
	Operator Operator

	// Raw holds the term value(s) with the operator prefix stripped.
	// Ranges carry two values, null tests none.
	Raw []string

	// Values holds Raw coerced to Type. Its length follows the same rules as Raw.
	Values []any

	// Valid is false when the term could not be parsed or coerced.
	Valid bool

	// Err explains why the node is invalid.
	Err error
}

func (n ConditionNode) queryNode() {}
