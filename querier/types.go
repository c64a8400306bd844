package querier

import (
	"fmt"
	"strings"

	"github.com/thisisjab/usersearch/fault"
)

// DeclaredType classifies a column for parsing and coercion of search values.
type DeclaredType uint8

const (
	TypeString DeclaredType = iota
	TypeNumber
	TypeDate
	TypeBoolean
)

func (t DeclaredType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeDate:
		return "date"
	case TypeBoolean:
		return "boolean"
	default:
		return fmt.Sprintf("DeclaredType(%d)", uint8(t))
	}
}

func (t DeclaredType) valid() bool {
	return t <= TypeBoolean
}

// ParseDeclaredType accepts the four declared type names and the column cast
// names they stand for (integer, real, datetime, ...).
func ParseDeclaredType(name string) (DeclaredType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "string":
		return TypeString, nil
	case "number", "integer", "int", "real", "float", "double", "decimal":
		return TypeNumber, nil
	case "date", "datetime", "timestamp":
		return TypeDate, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	case "object", "array", "collection", "json":
		return 0, fault.New(fault.ConfigurationCode, fmt.Sprintf("type %q is not searchable", name))
	default:
		return 0, fault.New(fault.ConfigurationCode, fmt.Sprintf("unknown type %q, valid types are integer, real, float, double, boolean, date, datetime, timestamp, string", name))
	}
}

func (t DeclaredType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("invalid declared type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *DeclaredType) UnmarshalText(text []byte) error {
	v, err := ParseDeclaredType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Operator is the comparison applied by a single search condition.
type Operator uint8

const (
	// OperatorEquals checks if the column is equal to the value.
	OperatorEquals Operator = iota
	// OperatorNotEquals checks if the column is not equal to the value.
	OperatorNotEquals
	// OperatorGreaterThan checks if the column is strictly greater than the value.
	OperatorGreaterThan
	// OperatorGreaterOrEqual checks if the column is greater than or equal to the value.
	OperatorGreaterOrEqual
	// OperatorLessThan checks if the column is strictly less than the value.
	OperatorLessThan
	// OperatorLessOrEqual checks if the column is less than or equal to the value.
	OperatorLessOrEqual
	// OperatorLike matches the column against a pattern with % and _ wildcards.
	OperatorLike
	// OperatorNotLike is the negation of OperatorLike.
	OperatorNotLike
	// OperatorIsNull checks that the column has no value.
	OperatorIsNull
	// OperatorIsNotNull checks that the column has a value.
	OperatorIsNotNull
	// OperatorBetween checks that the column lies within two inclusive bounds.
	OperatorBetween
	// OperatorNotBetween is the negation of OperatorBetween.
	OperatorNotBetween
)

var operatorNames = [...]string{
	OperatorEquals:         "equals",
	OperatorNotEquals:      "not_equals",
	OperatorGreaterThan:    "greater_than",
	OperatorGreaterOrEqual: "greater_or_equal",
	OperatorLessThan:       "less_than",
	OperatorLessOrEqual:    "less_or_equal",
	OperatorLike:           "like",
	OperatorNotLike:        "not_like",
	OperatorIsNull:         "is_null",
	OperatorIsNotNull:      "is_not_null",
	OperatorBetween:        "between",
	OperatorNotBetween:     "not_between",
}

func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("Operator(%d)", uint8(o))
}

func (o Operator) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Symbol is the prefix that selects the operator in a search term.
// Equals, Like, Between and the null tests have no prefix of their own.
func (o Operator) Symbol() string {
	switch o {
	case OperatorNotEquals, OperatorNotLike, OperatorNotBetween:
		return "!="
	case OperatorGreaterThan:
		return ">"
	case OperatorGreaterOrEqual:
		return ">="
	case OperatorLessThan:
		return "<"
	case OperatorLessOrEqual:
		return "<="
	default:
		return ""
	}
}

// IsOrdering reports whether o is one of > >= < <=.
func (o Operator) IsOrdering() bool {
	switch o {
	case OperatorGreaterThan, OperatorGreaterOrEqual, OperatorLessThan, OperatorLessOrEqual:
		return true
	}
	return false
}
