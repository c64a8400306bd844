package token

const (
	ILLEGAL TokenType = iota
	EOF

	// Literals
	NUMBER

	// Operators
	PLUS
	MINUS
	ASTERISK
	SLASH
	PERCENT
	CARET

	// Delimiters
	LPAREN
	RPAREN
)

type TokenType int

func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case NUMBER:
		return "NUMBER"
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case ASTERISK:
		return "*"
	case SLASH:
		return "/"
	case PERCENT:
		return "%"
	case CARET:
		return "^"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	default:
		return "ILLEGAL"
	}
}

type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}
