package lexer

import "github.com/thisisjab/usersearch/querier/token"

// Lexer tokenizes arithmetic expressions typed into numeric search columns.
// Only digits, '.', the operators + - * / % ^, parentheses and blanks are
// recognised; anything else becomes an ILLEGAL token.
type Lexer struct {
	input   []rune
	pos     int  // position of the current character in the input string
	readPos int  // position of the next character to be read
	char    rune // current character being processed
}

func New(input string) *Lexer {
	l := &Lexer{[]rune(input), 0, 0, 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	pos := l.pos

	switch l.char {
	case '+':
		tok = token.Token{Type: token.PLUS, Literal: "+"}
	case '-':
		tok = token.Token{Type: token.MINUS, Literal: "-"}
	case '*':
		tok = token.Token{Type: token.ASTERISK, Literal: "*"}
	case '/':
		tok = token.Token{Type: token.SLASH, Literal: "/"}
	case '%':
		tok = token.Token{Type: token.PERCENT, Literal: "%"}
	case '^':
		tok = token.Token{Type: token.CARET, Literal: "^"}
	case '(':
		tok = token.Token{Type: token.LPAREN, Literal: "("}
	case ')':
		tok = token.Token{Type: token.RPAREN, Literal: ")"}
	case 0:
		return token.Token{Type: token.EOF, Literal: "", Pos: pos}
	default:
		if isDigit(l.char) || l.char == '.' {
			return l.readNumber()
		}
		tok = token.Token{Type: token.ILLEGAL, Literal: string(l.char)}
	}

	tok.Pos = pos
	l.readChar()
	return tok
}

// readNumber consumes digits with at most one decimal point. A literal made
// of a lone dot or carrying a second dot is returned as ILLEGAL.
func (l *Lexer) readNumber() token.Token {
	pos := l.pos
	dots := 0
	digits := 0

	for isDigit(l.char) || l.char == '.' {
		if l.char == '.' {
			dots++
		} else {
			digits++
		}
		l.readChar()
	}

	literal := string(l.input[pos:l.pos])

	if dots > 1 || digits == 0 {
		return token.Token{Type: token.ILLEGAL, Literal: literal, Pos: pos}
	}
	return token.Token{Type: token.NUMBER, Literal: literal, Pos: pos}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// IsWhitespace reports whether r is a blank the lexer skips. Newlines are not
// blanks here: a search term never spans lines.
func IsWhitespace(r rune) bool {
	return r == ' ' || r == '\t'
}

func (l *Lexer) skipWhitespace() {
	for IsWhitespace(l.char) {
		l.readChar()
	}
}

// IsAllowed reports whether r may appear in an arithmetic expression at all.
func IsAllowed(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '%', '^', '(', ')', '.':
		return true
	}
	return isDigit(r) || IsWhitespace(r)
}
