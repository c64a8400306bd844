package querier

import (
	"slices"
	"strings"

	"github.com/thisisjab/usersearch/fault"
)

const (
	orSeparator  = ";"
	andSeparator = "|"
)

// SearchRequest maps column names to the raw search typed for them.
type SearchRequest map[string]string

// ColumnSearch is the per-column diagnostic of a compiled search.
type ColumnSearch struct {
	Column         string
	OriginalSearch string
	CleanSearch    string

	// Groups are the ';' separated OR-groups, each a list of '|' separated
	// AND-terms, including the invalid ones.
	Groups [][]ConditionNode

	// ExecutedSearch is the round-trip form of Groups. Invalid terms show as
	// InvalidMarker.
	ExecutedSearch string
}

// Valid reports whether every term of the column search is valid.
func (cs ColumnSearch) Valid() bool {
	for _, g := range cs.Groups {
		for _, n := range g {
			if !n.Valid {
				return false
			}
		}
	}
	return true
}

// Result is the output of a compile call.
type Result struct {
	// Tree is the predicate over all searched columns. It has no children
	// when nothing valid was searched.
	Tree AndNode

	Columns map[string]ColumnSearch
}

// Compiler turns search requests into predicate trees. A Compiler is
// immutable and safe for concurrent use; every Compile call works on its own
// state.
type Compiler struct {
	coercer *Coercer
}

func NewCompiler(opts Options) *Compiler {
	return &Compiler{coercer: NewCoercer(opts)}
}

// Compile parses every column of req according to types. A column of req
// without an entry in types is a configuration error and nothing is compiled.
// Bad terms only invalidate themselves.
func (c *Compiler) Compile(req SearchRequest, types map[string]DeclaredType) (Result, error) {
	columns := make([]string, 0, len(req))
	missing := fault.FieldErrorsMetadata{}

	for col := range req {
		t, ok := types[col]
		switch {
		case !ok:
			missing[col] = []string{"Column has no declared type."}
		case !t.valid():
			missing[col] = []string{"Column has an unsupported declared type."}
		}
		columns = append(columns, col)
	}

	if len(missing) > 0 {
		return Result{}, fault.New(fault.ConfigurationCode, "search references columns without a usable declared type").WithMetadata(missing)
	}

	slices.Sort(columns)

	res := Result{Columns: make(map[string]ColumnSearch, len(columns))}

	for _, col := range columns {
		cs := c.compileColumn(col, req[col], types[col])
		res.Columns[col] = cs
		res.Tree.Children = appendColumn(res.Tree.Children, cs.Groups)
	}

	return res, nil
}

func (c *Compiler) compileColumn(column, raw string, t DeclaredType) ColumnSearch {
	cs := ColumnSearch{
		Column:         column,
		OriginalSearch: raw,
		CleanSearch:    Normalize(raw),
	}

	if cs.CleanSearch == "" {
		return cs
	}

	executed := make([]string, 0)

	for _, group := range strings.Split(cs.CleanSearch, orSeparator) {
		terms := strings.Split(group, andSeparator)
		nodes := make([]ConditionNode, 0, len(terms))
		rendered := make([]string, 0, len(terms))

		for _, term := range terms {
			n := NewCondition(column, t, term, c.coercer)
			nodes = append(nodes, n)
			rendered = append(rendered, n.RoundTrip())
		}

		cs.Groups = append(cs.Groups, nodes)
		executed = append(executed, strings.Join(rendered, andSeparator))
	}

	cs.ExecutedSearch = strings.Join(executed, orSeparator)

	return cs
}

// appendColumn adds the valid conditions of one column to the root
// conjunction. A single group is a plain conjunction and goes in flat.
// Several groups become one OrNode in which groups of more than one term
// are wrapped in an AndNode.
func appendColumn(root []QueryNode, groups [][]ConditionNode) []QueryNode {
	if len(groups) == 0 {
		return root
	}

	if len(groups) == 1 {
		for _, n := range groups[0] {
			if n.Valid {
				root = append(root, n)
			}
		}
		return root
	}

	var or OrNode

	for _, g := range groups {
		valid := make([]QueryNode, 0, len(g))
		for _, n := range g {
			if n.Valid {
				valid = append(valid, n)
			}
		}

		switch {
		case len(valid) == 0:
			continue
		case len(g) == 1:
			or.Children = append(or.Children, valid[0])
		default:
			or.Children = append(or.Children, AndNode{Children: valid})
		}
	}

	if len(or.Children) == 0 {
		return root
	}

	return append(root, or)
}
