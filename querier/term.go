package querier

import (
	"fmt"
	"strings"

	"github.com/thisisjab/usersearch/fault"
)

const (
	rangeSeparator = ".."
	nullMarker     = "!"
	notNullMarker  = "%"

	// prefixChars are stripped from the front of every term value.
	prefixChars = "!=<>"
)

// Term is a search term split into its operator and raw value(s).
type Term struct {
	Operator Operator
	Raw      []string
}

// prefixes are matched longest first.
var prefixes = []struct {
	symbol   string
	operator Operator
}{
	{"!=", OperatorNotEquals},
	{"<>", OperatorNotEquals},
	{">=", OperatorGreaterOrEqual},
	{"<=", OperatorLessOrEqual},
	{"=", OperatorEquals},
	{"!", OperatorNotEquals},
	{">", OperatorGreaterThan},
	{"<", OperatorLessThan},
}

func detectOperator(s string) Operator {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p.symbol) {
			return p.operator
		}
	}
	return OperatorEquals
}

// ParseTerm parses one AND-term of a column search. The returned term is
// meaningful even when err is non-nil: it carries whatever operator and raw
// values could be recovered, for diagnostics.
func ParseTerm(term string, t DeclaredType) (Term, error) {
	parts := strings.Split(term, rangeSeparator)

	res := Term{Operator: OperatorEquals}

	if len(parts) > 2 {
		res.Raw = parts
		return res, fault.New(fault.StructuralCode, fmt.Sprintf("term %q has more than one %q range separator", term, rangeSeparator))
	}

	first := parts[0]
	op := detectOperator(first)
	value := strings.TrimLeft(first, prefixChars)

	if len(parts) == 2 {
		second := strings.TrimLeft(parts[1], prefixChars)
		res.Raw = []string{value, second}
		res.Operator = op

		if second != parts[1] {
			return res, fault.New(fault.StructuralCode, fmt.Sprintf("term %q: the upper bound of a range cannot carry an operator", term))
		}
		if op.IsOrdering() {
			return res, fault.New(fault.StructuralCode, fmt.Sprintf("term %q: ranges cannot use %q", term, op.Symbol()))
		}

		if op == OperatorNotEquals {
			res.Operator = OperatorNotBetween
		} else {
			res.Operator = OperatorBetween
		}
		return res, nil
	}

	switch first {
	case nullMarker:
		return Term{Operator: OperatorIsNull}, nil
	case notNullMarker:
		return Term{Operator: OperatorIsNotNull}, nil
	}

	if t == TypeString && strings.ContainsAny(value, "%_") {
		switch op {
		case OperatorEquals:
			op = OperatorLike
		case OperatorNotEquals:
			op = OperatorNotLike
		}
	}

	res.Operator = op
	res.Raw = []string{value}
	return res, nil
}
