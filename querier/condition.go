package querier

// InvalidMarker stands in for an invalid term in an executed search.
const InvalidMarker = "/**err**/"

// NewCondition parses and coerces a single AND-term. Failures never escape:
// they leave the node invalid with Err set.
func NewCondition(column string, t DeclaredType, term string, c *Coercer) ConditionNode {
	n := ConditionNode{Column: column, Type: t}

	parsed, err := ParseTerm(term, t)
	n.Operator = parsed.Operator
	n.Raw = parsed.Raw
	if err != nil {
		n.Err = err
		return n
	}

	if len(parsed.Raw) > 0 {
		n.Values = make([]any, len(parsed.Raw))
	}
	for i, raw := range parsed.Raw {
		v, err := c.Coerce(raw, t)
		if err != nil {
			n.Values = nil
			n.Err = err
			return n
		}
		n.Values[i] = v
	}

	n.Valid = true
	return n
}

// Value returns the single coerced value of a comparison node.
func (n ConditionNode) Value() any {
	if len(n.Values) == 0 {
		return nil
	}
	return n.Values[0]
}

// Bounds returns the two coerced values of a range node.
func (n ConditionNode) Bounds() [2]any {
	var b [2]any
	copy(b[:], n.Values)
	return b
}

// RoundTrip renders the node in the search syntax, using the coerced values,
// so that parsing the result again yields an equivalent condition.
func (n ConditionNode) RoundTrip() string {
	if !n.Valid {
		return InvalidMarker
	}

	switch n.Operator {
	case OperatorIsNull:
		return nullMarker
	case OperatorIsNotNull:
		return notNullMarker
	case OperatorBetween:
		return FormatValue(n.Values[0]) + rangeSeparator + FormatValue(n.Values[1])
	case OperatorNotBetween:
		return n.Operator.Symbol() + FormatValue(n.Values[0]) + rangeSeparator + FormatValue(n.Values[1])
	case OperatorEquals, OperatorLike:
		v := FormatValue(n.Value())
		// a bare "!", "%" or "" would read back as a null test or nothing
		if v == nullMarker || v == notNullMarker || v == "" {
			return "=" + v
		}
		return v
	default:
		return n.Operator.Symbol() + FormatValue(n.Value())
	}
}
