package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/thisisjab/usersearch/querier/ast"
	"github.com/thisisjab/usersearch/querier/lexer"
	"github.com/thisisjab/usersearch/querier/token"
)

const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * / %
	PREFIX  // -x +x
	POWER   // ^
)

var precedences = map[token.TokenType]int{
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.CARET:    POWER,
}

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	errors    []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l: l,
	}

	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) Errors() []string {
	return p.errors
}

// ParseExpression parses the whole input as a single arithmetic expression.
func (p *Parser) ParseExpression() ast.Expression {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	if p.peekToken.Type != token.EOF {
		p.errorf(p.peekToken, "unexpected %q", p.peekToken.Literal)
		return nil
	}

	return expr
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	left := p.parsePrefix()
	if left == nil {
		return nil
	}

	for p.peekToken.Type != token.EOF && precedence < p.peekPrecedence() {
		p.nextToken()
		left = p.parseInfix(left)
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parsePrefix() ast.Expression {
	switch p.curToken.Type {
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.MINUS, token.PLUS:
		op := p.curToken.Literal
		p.nextToken()
		right := p.parseExpression(PREFIX)
		if right == nil {
			return nil
		}
		return &ast.PrefixExpression{Operator: op, Right: right}
	case token.LPAREN:
		p.nextToken()
		expr := p.parseExpression(LOWEST)
		if expr == nil {
			return nil
		}
		if p.peekToken.Type != token.RPAREN {
			p.errorf(p.peekToken, "expected \")\"")
			return nil
		}
		p.nextToken()
		return expr
	case token.EOF:
		p.errorf(p.curToken, "unexpected end of expression")
		return nil
	default:
		p.errorf(p.curToken, "unexpected %q", p.curToken.Literal)
		return nil
	}
}

func (p *Parser) parseInfix(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpression{Left: left, Operator: p.curToken.Literal}

	precedence := p.curPrecedence()
	// '^' is right-associative: 2^3^2 is 2^(3^2).
	if p.curToken.Type == token.CARET {
		precedence--
	}

	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}

	return expr
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	v, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.errorf(p.curToken, "invalid number %q", p.curToken.Literal)
		return nil
	}
	return &ast.NumberLiteral{Literal: p.curToken.Literal, Value: v}
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) errorf(tok token.Token, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("%s at position %d", msg, tok.Pos))
}

// Evaluate checks that input contains only arithmetic characters, parses it
// and computes its value. The input is never executed in any other way.
func Evaluate(input string) (float64, error) {
	for i, r := range input {
		if !lexer.IsAllowed(r) {
			return 0, fmt.Errorf("character %q at position %d is not allowed in a number", r, i)
		}
	}

	p := New(lexer.New(input))
	expr := p.ParseExpression()
	if len(p.Errors()) > 0 {
		return 0, errors.New(strings.Join(p.Errors(), "; "))
	}

	return ast.Eval(expr)
}
