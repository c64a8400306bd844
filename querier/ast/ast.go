package ast

import (
	"errors"
	"fmt"
	"math"
)

// Expression is a node of a parsed arithmetic expression.
// The private marker keeps the set of node types closed to this package.
type Expression interface {
	expressionNode()
	String() string
}

// NumberLiteral is a decimal literal such as 12 or 3.5.
type NumberLiteral struct {
	Literal string
	Value   float64
}

func (n *NumberLiteral) expressionNode() {}
func (n *NumberLiteral) String() string  { return n.Literal }

// PrefixExpression is a signed operand, e.g. -x or +x.
type PrefixExpression struct {
	Operator string
	Right    Expression
}

func (p *PrefixExpression) expressionNode() {}
func (p *PrefixExpression) String() string {
	return "(" + p.Operator + p.Right.String() + ")"
}

// InfixExpression is a binary operation.
type InfixExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (i *InfixExpression) expressionNode() {}
func (i *InfixExpression) String() string {
	return "(" + i.Left.String() + " " + i.Operator + " " + i.Right.String() + ")"
}

var ErrNotFinite = errors.New("result is not a finite number")

// Eval computes the value of e. '^' is exponentiation and '%' is the
// floating point remainder. Any intermediate or final value that is
// infinite or NaN is an error.
func Eval(e Expression) (float64, error) {
	v, err := eval(e)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrNotFinite
	}
	return v, nil
}

func eval(e Expression) (float64, error) {
	switch n := e.(type) {
	case *NumberLiteral:
		return n.Value, nil

	case *PrefixExpression:
		right, err := eval(n.Right)
		if err != nil {
			return 0, err
		}
		switch n.Operator {
		case "-":
			return -right, nil
		case "+":
			return right, nil
		default:
			return 0, fmt.Errorf("unknown prefix operator %q", n.Operator)
		}

	case *InfixExpression:
		left, err := eval(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := eval(n.Right)
		if err != nil {
			return 0, err
		}
		return evalInfix(n.Operator, left, right)

	default:
		return 0, fmt.Errorf("unknown expression node: %T", e)
	}
}

func evalInfix(op string, left, right float64) (float64, error) {
	var v float64

	switch op {
	case "+":
		v = left + right
	case "-":
		v = left - right
	case "*":
		v = left * right
	case "/":
		if right == 0 {
			return 0, errors.New("division by zero")
		}
		v = left / right
	case "%":
		if right == 0 {
			return 0, errors.New("modulo by zero")
		}
		v = math.Mod(left, right)
	case "^":
		v = math.Pow(left, right)
	default:
		return 0, fmt.Errorf("unknown infix operator %q", op)
	}

	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrNotFinite
	}
	return v, nil
}
