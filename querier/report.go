package querier

import (
	"sort"
)

// Report is the JSON friendly form of a compile Result.
type Report struct {
	Tree    *ReportNode          `json:"tree"`
	Columns []ColumnSearchReport `json:"columns"`
	Valid   bool                 `json:"valid"`
}

// ReportNode is one node of the compiled predicate tree. Boolean nodes have
// Children; leaves have Column and Operator.
type ReportNode struct {
	Join     string        `json:"join,omitempty"`
	Group    string        `json:"group,omitempty"`
	Column   string        `json:"column,omitempty"`
	Operator string        `json:"operator,omitempty"`
	Values   []string      `json:"values,omitempty"`
	Children []*ReportNode `json:"children,omitempty"`
}

type ColumnSearchReport struct {
	Column         string              `json:"column"`
	OriginalSearch string              `json:"original_search"`
	CleanSearch    string              `json:"clean_search"`
	ExecutedSearch string              `json:"executed_search"`
	Valid          bool                `json:"valid"`
	Groups         [][]ConditionReport `json:"groups"`
}

type ConditionReport struct {
	Operator  string   `json:"operator"`
	Values    []string `json:"values,omitempty"`
	RoundTrip string   `json:"round_trip"`
	Valid     bool     `json:"valid"`
	Error     string   `json:"error,omitempty"`
}

// NewReport describes res. Columns are sorted by name.
func NewReport(res Result) (Report, error) {
	root := &ReportNode{Group: JoinAnd.String()}
	if err := Apply(res.Tree, &reportEmitter{node: root}); err != nil {
		return Report{}, err
	}

	r := Report{Tree: root, Valid: true}

	names := make([]string, 0, len(res.Columns))
	for name := range res.Columns {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cs := res.Columns[name]
		cr := ColumnSearchReport{
			Column:         cs.Column,
			OriginalSearch: cs.OriginalSearch,
			CleanSearch:    cs.CleanSearch,
			ExecutedSearch: cs.ExecutedSearch,
			Valid:          cs.Valid(),
			Groups:         make([][]ConditionReport, 0, len(cs.Groups)),
		}
		r.Valid = r.Valid && cr.Valid

		for _, g := range cs.Groups {
			group := make([]ConditionReport, 0, len(g))
			for _, n := range g {
				c := ConditionReport{
					Operator:  n.Operator.String(),
					Values:    formatValues(n.Values...),
					RoundTrip: n.RoundTrip(),
					Valid:     n.Valid,
				}
				if n.Err != nil {
					c.Error = n.Err.Error()
				}
				group = append(group, c)
			}
			cr.Groups = append(cr.Groups, group)
		}

		r.Columns = append(r.Columns, cr)
	}

	return r, nil
}

func formatValues(values ...any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatValue(v)
	}
	return out
}

// reportEmitter builds a ReportNode tree.
type reportEmitter struct {
	node *ReportNode
}

func (e *reportEmitter) leaf(join Join, column string, op Operator, values ...any) {
	e.node.Children = append(e.node.Children, &ReportNode{
		Join:     join.String(),
		Column:   column,
		Operator: op.String(),
		Values:   formatValues(values...),
	})
}

func (e *reportEmitter) Compare(join Join, column string, op Operator, value any) {
	e.leaf(join, column, op, value)
}

func (e *reportEmitter) Null(join Join, column string, negated bool) {
	op := OperatorIsNull
	if negated {
		op = OperatorIsNotNull
	}
	e.leaf(join, column, op)
}

func (e *reportEmitter) Range(join Join, column string, bounds [2]any, negated bool) {
	op := OperatorBetween
	if negated {
		op = OperatorNotBetween
	}
	e.leaf(join, column, op, bounds[0], bounds[1])
}

// The group of a nested scope is not known until its first child is added, so
// it is derived from the children's joins when the scope closes.
func (e *reportEmitter) Nested(join Join) QueryEmitter {
	child := &ReportNode{Join: join.String()}
	e.node.Children = append(e.node.Children, child)
	return &reportEmitter{node: child}
}

func (e *reportEmitter) Close() {
	e.node.Group = JoinAnd.String()
	for _, c := range e.node.Children {
		if c.Join == JoinOr.String() {
			e.node.Group = JoinOr.String()
			break
		}
	}
}
