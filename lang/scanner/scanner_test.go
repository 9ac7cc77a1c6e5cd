package scanner_test

import (
	"testing"

	"github.com/mna/tilleul/lang/scanner"
	"github.com/mna/tilleul/lang/token"
	"github.com/stretchr/testify/require"
)

func scanAll(src string) []scanner.Token {
	s := scanner.New(src)
	var toks []scanner.Token
	for {
		tok := s.ScanToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func TestScanTokenKinds(t *testing.T) {
	toks := scanAll(`var x = 1 + 2.5 * "hi"; // trailing comment
if (x >= 1 and !false) { return nil; }`)

	var kinds []token.Token
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
	}

	require.Equal(t, []token.Token{
		token.VAR, token.IDENT, token.EQ, token.NUMBER, token.PLUS, token.NUMBER,
		token.STAR, token.STRING, token.SEMI,
		token.IF, token.LPAREN, token.IDENT, token.GT_EQ, token.NUMBER, token.AND,
		token.BANG, token.FALSE, token.RPAREN, token.LBRACE, token.RETURN,
		token.NIL, token.SEMI, token.RBRACE, token.EOF,
	}, kinds)
}

func TestScanLineTracking(t *testing.T) {
	toks := scanAll("var a = 1;\n\nvar b = 2;")
	require.Equal(t, 1, toks[0].Line)
	// identifier "b" is on line 3
	for _, tok := range toks {
		if tok.Lexeme == "b" {
			require.Equal(t, 3, tok.Line)
			return
		}
	}
	t.Fatal("identifier b not found")
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"hello`)
	require.Len(t, toks, 2)
	require.Equal(t, token.ILLEGAL, toks[0].Type)
	require.Equal(t, "unterminated string", toks[0].Lexeme)
	require.Equal(t, token.EOF, toks[1].Type)
}

func TestScanUnknownByte(t *testing.T) {
	toks := scanAll(`@`)
	require.Equal(t, token.ILLEGAL, toks[0].Type)
}

func TestScanStringLexemeIncludesQuotes(t *testing.T) {
	toks := scanAll(`"hello sir"`)
	require.Equal(t, `"hello sir"`, toks[0].Lexeme)
}

func TestScanNumberLexeme(t *testing.T) {
	toks := scanAll(`123.456`)
	require.Equal(t, token.NUMBER, toks[0].Type)
	require.Equal(t, "123.456", toks[0].Lexeme)
}

func TestScanRepeatedEOF(t *testing.T) {
	s := scanner.New("")
	require.Equal(t, token.EOF, s.ScanToken().Type)
	require.Equal(t, token.EOF, s.ScanToken().Type)
}
