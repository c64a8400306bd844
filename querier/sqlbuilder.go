package querier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ColumnNameRe is the default pattern for table and column identifiers. It
// allows dotted names such as "u.created_at".
var ColumnNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// PlaceholderStyle selects how bound parameters are written.
type PlaceholderStyle int

const (
	// PlaceholderQuestion writes "?" (sqlite, clickhouse, mysql).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar writes "$1", "$2", ... (postgres).
	PlaceholderDollar
)

// SQLOptions holds configuration for the SQL query builder.
type SQLOptions struct {
	// AllowedFilterFieldsRegex validates table and column names before they
	// are written into the query. Defaults to ColumnNameRe.
	AllowedFilterFieldsRegex *regexp.Regexp

	// Placeholder is the bound parameter style of the target database.
	Placeholder PlaceholderStyle
}

// SQLQueryBuilder renders compiled searches as parameterized SQL.
type SQLQueryBuilder struct {
	opts SQLOptions
}

// NewSQLQueryBuilder creates a new SQL query builder with the given options.
func NewSQLQueryBuilder(opts SQLOptions) *SQLQueryBuilder {
	if opts.AllowedFilterFieldsRegex == nil {
		opts.AllowedFilterFieldsRegex = ColumnNameRe
	}
	return &SQLQueryBuilder{opts: opts}
}

// BuildResult holds the generated SQL and its arguments.
type BuildResult struct {
	Query string
	Args  []any
}

// Build builds a complete SELECT statement for q.
func (b *SQLQueryBuilder) Build(q QueryRequest) (BuildResult, error) {
	if !b.opts.AllowedFilterFieldsRegex.MatchString(q.Table) {
		return BuildResult{}, fmt.Errorf("invalid table name: %s", q.Table)
	}

	selectCols := "*"
	if len(q.Columns) > 0 {
		for _, col := range q.Columns {
			if !b.opts.AllowedFilterFieldsRegex.MatchString(col) {
				return BuildResult{}, fmt.Errorf("invalid column name: %s", col)
			}
		}
		selectCols = strings.Join(q.Columns, ", ")
	}

	where, err := b.BuildWhere(q.Tree)
	if err != nil {
		return BuildResult{}, fmt.Errorf("failed to build where clause: %w", err)
	}

	sqlQuery := fmt.Sprintf("SELECT %s FROM %s", selectCols, q.Table)
	if where.Query != "" {
		sqlQuery += " WHERE " + where.Query
	}
	if q.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	return BuildResult{Query: sqlQuery, Args: where.Args}, nil
}

// BuildWhere renders only the boolean expression of tree. An empty tree
// yields an empty query.
func (b *SQLQueryBuilder) BuildWhere(tree AndNode) (BuildResult, error) {
	w := &sqlWriter{opts: b.opts}
	root := &sqlScope{w: w}

	if err := Apply(tree, root); err != nil {
		return BuildResult{}, err
	}
	if w.err != nil {
		return BuildResult{}, w.err
	}

	return BuildResult{Query: root.render(), Args: w.args}, nil
}

// sqlWriter is the state shared by all scopes of one build.
type sqlWriter struct {
	opts SQLOptions
	args []any
	err  error
}

func (w *sqlWriter) arg(v any) string {
	w.args = append(w.args, v)
	if w.opts.Placeholder == PlaceholderDollar {
		return "$" + strconv.Itoa(len(w.args))
	}
	return "?"
}

func (w *sqlWriter) column(name string) bool {
	if w.err != nil {
		return false
	}
	// Prevent SQL injection by validating field name against allowed pattern
	if !w.opts.AllowedFilterFieldsRegex.MatchString(name) {
		w.err = fmt.Errorf("invalid field name: %s", name)
		return false
	}
	return true
}

type sqlFragment struct {
	join Join
	text string
}

// sqlScope implements QueryEmitter for one parenthesised level.
type sqlScope struct {
	w      *sqlWriter
	parts  []sqlFragment
	parent *sqlScope
	slot   int
}

func (s *sqlScope) add(join Join, text string) {
	s.parts = append(s.parts, sqlFragment{join: join, text: text})
}

func (s *sqlScope) Compare(join Join, column string, op Operator, value any) {
	if !s.w.column(column) {
		return
	}

	sqlOp := ""
	switch op {
	case OperatorEquals:
		sqlOp = "="
	case OperatorNotEquals:
		sqlOp = "!="
	case OperatorGreaterThan:
		sqlOp = ">"
	case OperatorGreaterOrEqual:
		sqlOp = ">="
	case OperatorLessThan:
		sqlOp = "<"
	case OperatorLessOrEqual:
		sqlOp = "<="
	case OperatorLike:
		sqlOp = "LIKE"
	case OperatorNotLike:
		sqlOp = "NOT LIKE"
	default:
		s.w.err = fmt.Errorf("unsupported comparison operator: %v", op)
		return
	}

	s.add(join, fmt.Sprintf("%s %s %s", column, sqlOp, s.w.arg(value)))
}

func (s *sqlScope) Null(join Join, column string, negated bool) {
	if !s.w.column(column) {
		return
	}

	if negated {
		s.add(join, column+" IS NOT NULL")
	} else {
		s.add(join, column+" IS NULL")
	}
}

func (s *sqlScope) Range(join Join, column string, bounds [2]any, negated bool) {
	if !s.w.column(column) {
		return
	}

	op := "BETWEEN"
	if negated {
		op = "NOT BETWEEN"
	}

	lo := s.w.arg(bounds[0])
	hi := s.w.arg(bounds[1])
	s.add(join, fmt.Sprintf("%s %s %s AND %s", column, op, lo, hi))
}

// Nested reserves the position of the child scope so that it renders where
// it was opened.
func (s *sqlScope) Nested(join Join) QueryEmitter {
	s.add(join, "")
	return &sqlScope{w: s.w, parent: s, slot: len(s.parts) - 1}
}

func (s *sqlScope) Close() {
	if s.parent == nil {
		return
	}

	if inner := s.render(); inner != "" {
		// Wrap in parentheses to ensure correct precedence
		// when the database evaluates the full string.
		s.parent.parts[s.slot].text = "(" + inner + ")"
	}
}

func (s *sqlScope) render() string {
	var sb strings.Builder

	for _, p := range s.parts {
		if p.text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(" " + p.join.String() + " ")
		}
		sb.WriteString(p.text)
	}

	return sb.String()
}
