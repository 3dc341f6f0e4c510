package scanner

import (
	"testing"

	"github.com/mna/vellum/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	var s Scanner
	s.Init([]byte(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	ks := make([]token.Kind, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}
	return ks
}

func TestScanPunctuation(t *testing.T) {
	toks := scanAll(t, "(){};,.-+*/")
	require.Equal(t, []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE, token.SEMICOLON,
		token.COMMA, token.DOT, token.MINUS, token.PLUS, token.STAR, token.SLASH,
		token.EOF,
	}, kinds(toks))
}

func TestScanOperators(t *testing.T) {
	toks := scanAll(t, "! != = == < <= > >=")
	require.Equal(t, []token.Kind{
		token.BANG, token.BANG_EQUAL, token.EQUAL, token.EQUAL_EQUAL,
		token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
		token.EOF,
	}, kinds(toks))
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "var x = nil; class Foo {}")
	require.Equal(t, []token.Kind{
		token.VAR, token.IDENT, token.EQUAL, token.NIL, token.SEMICOLON,
		token.CLASS, token.IDENT, token.LBRACE, token.RBRACE, token.EOF,
	}, kinds(toks))
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(t, "123 1.5")
	require.Len(t, toks, 3)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, "1.5", toks[1].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(t, `"hello world"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"hello`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Contains(t, toks[0].Lexeme, "unterminated")
}

func TestScanLineComment(t *testing.T) {
	toks := scanAll(t, "1 // comment\n2")
	require.Equal(t, []token.Kind{token.NUMBER, token.NUMBER, token.EOF}, kinds(toks))
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
}

func TestScanUnexpectedCharacter(t *testing.T) {
	toks := scanAll(t, "@")
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Contains(t, toks[0].Lexeme, "unexpected character")
}
