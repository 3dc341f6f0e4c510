// Package scanner tokenizes Vellum source text on demand, the way the
// compiler needs it: one Scan call per token, no lookahead buffer beyond a
// single rune, no AST construction.
package scanner

import (
	"github.com/mna/vellum/lang/token"
)

// A Scanner produces Tokens on demand from a source buffer. The zero value is
// not usable; call Init first.
type Scanner struct {
	src     []byte
	start   int // start of the lexeme currently being scanned
	current int // next rune to consume
	line    int
}

// Init prepares s to scan src from the beginning.
func (s *Scanner) Init(src []byte) {
	s.src = src
	s.start = 0
	s.current = 0
	s.line = 1
}

// Scan returns the next token in the source. Once it returns a token.EOF
// token, every subsequent call returns token.EOF again.
func (s *Scanner) Scan() token.Token {
	s.skipWhitespace()
	s.start = s.current

	if s.atEnd() {
		return s.make(token.EOF)
	}

	c := s.advance()
	if isAlpha(c) {
		return s.identifier()
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.make(token.LPAREN)
	case ')':
		return s.make(token.RPAREN)
	case '{':
		return s.make(token.LBRACE)
	case '}':
		return s.make(token.RBRACE)
	case ';':
		return s.make(token.SEMICOLON)
	case ',':
		return s.make(token.COMMA)
	case '.':
		return s.make(token.DOT)
	case '-':
		return s.make(token.MINUS)
	case '+':
		return s.make(token.PLUS)
	case '/':
		return s.make(token.SLASH)
	case '*':
		return s.make(token.STAR)
	case '!':
		if s.consume('=') {
			return s.make(token.BANG_EQUAL)
		}
		return s.make(token.BANG)
	case '=':
		if s.consume('=') {
			return s.make(token.EQUAL_EQUAL)
		}
		return s.make(token.EQUAL)
	case '<':
		if s.consume('=') {
			return s.make(token.LESS_EQUAL)
		}
		return s.make(token.LESS)
	case '>':
		if s.consume('=') {
			return s.make(token.GREATER_EQUAL)
		}
		return s.make(token.GREATER)
	case '"':
		return s.string()
	}

	return s.errorf("unexpected character")
}

func (s *Scanner) atEnd() bool { return s.current >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.src) {
		return 0
	}
	return s.src[s.current+1]
}

func (s *Scanner) consume(want byte) bool {
	if s.atEnd() || s.src[s.current] != want {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) skipWhitespace() {
	for {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.current++
		case '\n':
			s.line++
			s.current++
		case '/':
			if s.peekNext() == '/' {
				for s.peek() != '\n' && !s.atEnd() {
					s.current++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

// string scans a string literal. Escape sequences are not processed: the
// spec preserves this limitation from the reference implementation (see
// SPEC_FULL.md §7 Open Questions).
func (s *Scanner) string() token.Token {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.current++
	}
	if s.atEnd() {
		return s.errorf("unterminated string")
	}
	s.current++ // closing quote
	return s.make(token.STRING)
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.current++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.current++ // consume '.'
		for isDigit(s.peek()) {
			s.current++
		}
	}
	return s.make(token.NUMBER)
}

func (s *Scanner) identifier() token.Token {
	for isAlpha(s.peek()) || isDigit(s.peek()) {
		s.current++
	}
	lexeme := string(s.src[s.start:s.current])
	if kind, ok := token.Keywords[lexeme]; ok {
		return s.make(kind)
	}
	return s.make(token.IDENT)
}

func (s *Scanner) make(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: string(s.src[s.start:s.current]),
		Line:   s.line,
	}
}

func (s *Scanner) errorf(msg string) token.Token {
	return token.Token{Kind: token.ILLEGAL, Lexeme: msg, Line: s.line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
