package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scanAll(source string) []Token {
	s := New(source)
	var toks []Token
	for {
		tok := s.ScanToken()
		toks = append(toks, tok)
		if tok.Kind == TokenEOF || tok.Kind == TokenError {
			break
		}
	}
	return toks
}

func TestScanPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){};,.+-*/! != = == > >= < <=")
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []TokenKind{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenSemicolon, TokenComma, TokenDot, TokenPlus, TokenMinus, TokenStar, TokenSlash,
		TokenBang, TokenBangEqual, TokenEqual, TokenEqualEqual,
		TokenGreater, TokenGreaterEqual, TokenLess, TokenLessEqual, TokenEOF,
	}, kinds)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll("3.14")
	require.Equal(t, TokenNumber, toks[0].Kind)
	require.Equal(t, "3.14", toks[0].Lexeme)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello world"`)
	require.Equal(t, TokenString, toks[0].Kind)
	require.Equal(t, `"hello world"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"no closing quote`)
	require.Equal(t, TokenError, toks[0].Kind)
}

func TestScanEthiopicKeywords(t *testing.T) {
	toks := scanAll("መለያ ከሆነ ካልሆነ እስከ ተግባር መልስ")
	kinds := make([]TokenKind, 0, len(toks))
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []TokenKind{
		TokenVar, TokenIf, TokenElse, TokenWhile, TokenFun, TokenReturn, TokenEOF,
	}, kinds)
}

func TestScanIdentifierWithEthiopicAndASCIIMix(t *testing.T) {
	toks := scanAll("ተለዋዋጭ1")
	require.Equal(t, TokenIdentifier, toks[0].Kind)
	require.Equal(t, "ተለዋዋጭ1", toks[0].Lexeme)
}

func TestScanSkipsLineComments(t *testing.T) {
	toks := scanAll("// a comment\nመለያ")
	require.Equal(t, TokenVar, toks[0].Kind)
	require.Equal(t, 2, toks[0].Line)
}

func TestScanTracksLineNumbersAcrossNewlines(t *testing.T) {
	toks := scanAll("1\n2\n3")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 3, toks[2].Line)
}
