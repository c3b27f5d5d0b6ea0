package lexer

import (
	"unicode"

	"github.com/xplshn/cminus/pkg/token"
)

type Lexer struct {
	source []rune
	pos    int
	line   int
	column int
}

func NewLexer(source []rune) *Lexer {
	return &Lexer{source: source, line: 1, column: 1}
}

// Tokenize scans the whole input; the result always ends with an EOF token
func Tokenize(source []rune) []token.Token {
	l := NewLexer(source)
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

// Next returns the next token. Unknown characters and unterminated comments come back as Illegal
func (l *Lexer) Next() token.Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}
	startPos, startCol, startLine := l.pos, l.column, l.line

	if l.isAtEnd() {
		return l.makeToken(token.EOF, "", startPos, startCol, startLine)
	}

	ch := l.advance()
	if unicode.IsLetter(ch) || ch == '_' {
		for unicode.IsLetter(l.peek()) || unicode.IsDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		word := string(l.source[startPos:l.pos])
		if kw, ok := token.KeywordMap[word]; ok {
			return l.makeToken(kw, word, startPos, startCol, startLine)
		}
		return l.makeToken(token.Ident, word, startPos, startCol, startLine)
	}
	if unicode.IsDigit(ch) {
		for unicode.IsDigit(l.peek()) {
			l.advance()
		}
		return l.makeToken(token.Number, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
	}

	switch ch {
	case '(': return l.makeToken(token.LParen, "", startPos, startCol, startLine)
	case ')': return l.makeToken(token.RParen, "", startPos, startCol, startLine)
	case '{': return l.makeToken(token.LBrace, "", startPos, startCol, startLine)
	case '}': return l.makeToken(token.RBrace, "", startPos, startCol, startLine)
	case '[': return l.makeToken(token.LBracket, "", startPos, startCol, startLine)
	case ']': return l.makeToken(token.RBracket, "", startPos, startCol, startLine)
	case ';': return l.makeToken(token.Semi, "", startPos, startCol, startLine)
	case ',': return l.makeToken(token.Comma, "", startPos, startCol, startLine)
	case '+': return l.makeToken(token.Plus, "", startPos, startCol, startLine)
	case '-': return l.makeToken(token.Minus, "", startPos, startCol, startLine)
	case '*': return l.makeToken(token.Star, "", startPos, startCol, startLine)
	case '/': return l.makeToken(token.Slash, "", startPos, startCol, startLine)
	case '|': return l.matchThen('|', token.Or, token.Or, startPos, startCol, startLine)
	case '&': return l.matchThen('&', token.And, token.And, startPos, startCol, startLine)
	case '=': return l.matchThen('=', token.EqEq, token.Assign, startPos, startCol, startLine)
	case '!':
		if l.match('=') {
			return l.makeToken(token.Neq, "", startPos, startCol, startLine)
		}
	case '<':
		if l.match('<') {
			return l.makeToken(token.Shl, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.Lte, token.Lt, startPos, startCol, startLine)
	case '>':
		if l.match('>') {
			return l.makeToken(token.Shr, "", startPos, startCol, startLine)
		}
		return l.matchThen('=', token.Gte, token.Gt, startPos, startCol, startLine)
	}

	return l.makeToken(token.Illegal, string(l.source[startPos:l.pos]), startPos, startCol, startLine)
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	ch := l.source[l.pos]
	if ch == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.pos++
	return ch
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() || l.source[l.pos] != expected {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) matchThen(expected rune, thenType, elseType token.Type, startPos, startCol, startLine int) token.Token {
	if l.match(expected) {
		return l.makeToken(thenType, "", startPos, startCol, startLine)
	}
	return l.makeToken(elseType, "", startPos, startCol, startLine)
}

func (l *Lexer) isAtEnd() bool { return l.pos >= len(l.source) }

func (l *Lexer) makeToken(tokType token.Type, value string, startPos, startCol, startLine int) token.Token {
	return token.Token{
		Type: tokType, Value: value,
		Line: startLine, Column: startCol, Len: l.pos - startPos,
	}
}

func (l *Lexer) skipWhitespaceAndComments() (token.Token, bool) {
	for {
		switch {
		case l.peek() == ' ' || l.peek() == '\t' || l.peek() == '\n' || l.peek() == '\r':
			l.advance()
		case l.peek() == '/' && l.peekNext() == '/':
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		case l.peek() == '/' && l.peekNext() == '*':
			startPos, startCol, startLine := l.pos, l.column, l.line
			l.advance()
			l.advance()
			for !(l.peek() == '*' && l.peekNext() == '/') {
				if l.isAtEnd() {
					return l.makeToken(token.Illegal, "/*", startPos, startCol, startLine), false
				}
				l.advance()
			}
			l.advance()
			l.advance()
		default:
			return token.Token{}, true
		}
	}
}
