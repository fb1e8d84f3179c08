package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxlang/nxc/lexer"
	"github.com/nxlang/nxc/token"
)

func TestLexer_BasicTokens(t *testing.T) {
	input := "func main() -> i32 { return 42; }"
	l := lexer.New(input, "test.nx")

	expected := []token.Kind{
		token.FUNC, token.IDENTIFIER, token.LPAREN, token.RPAREN,
		token.ARROW, token.I32, token.LBRACE, token.RETURN,
		token.NUMBER, token.SEMICOLON, token.RBRACE, token.EOF,
	}

	for i, want := range expected {
		tok := l.NextToken()
		assert.Equalf(t, want, tok.Kind, "token %d (%q)", i, tok.Literal)
	}
}

func TestLexer_KeywordsAreExactMatch(t *testing.T) {
	l := lexer.New("ifx if", "test.nx")
	tok := l.NextToken()
	assert.Equal(t, token.IDENTIFIER, tok.Kind)
	assert.Equal(t, "ifx", tok.Literal)

	tok = l.NextToken()
	assert.Equal(t, token.IF, tok.Kind)
}

func TestLexer_Numbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"42", "42"},
		{"3.14", "3.14"},
		{"0", "0"},
		{"10.", "10"}, // trailing dot without digit is not consumed
	}
	for _, tt := range tests {
		l := lexer.New(tt.input, "test.nx")
		tok := l.NextToken()
		require.Equal(t, token.NUMBER, tok.Kind)
		assert.Equal(t, tt.want, tok.Literal)
	}
}

func TestLexer_StringsDoNotInterpretEscapes(t *testing.T) {
	l := lexer.New(`"a\nb"`, "test.nx")
	tok := l.NextToken()
	require.Equal(t, token.STRING, tok.Kind)
	assert.Equal(t, `a\nb`, tok.Literal)
}

func TestLexer_UnterminatedString(t *testing.T) {
	l := lexer.New(`"abc`, "test.nx")
	tok := l.NextToken()
	assert.Equal(t, token.ERROR, tok.Kind)
}

func TestLexer_TemplateInterpolationOpener(t *testing.T) {
	l := lexer.New("`hi ${x}`", "test.nx")
	tok := l.NextToken()
	require.Equal(t, token.STRING, tok.Kind)
	assert.Equal(t, "hi ", tok.Literal)

	tok = l.NextToken()
	assert.Equal(t, token.DOLLAR_LEFT_BRACE, tok.Kind)
}

func TestLexer_CompoundOperators(t *testing.T) {
	input := "+= -= *= /= == != <= >= && || -> .."
	l := lexer.New(input, "test.nx")
	expected := []token.Kind{
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.EQ, token.NEQ, token.LE, token.GE, token.AND_AND, token.OR_OR,
		token.ARROW, token.DOTDOT, token.EOF,
	}
	for i, want := range expected {
		tok := l.NextToken()
		assert.Equalf(t, want, tok.Kind, "token %d", i)
	}
}

func TestLexer_LoneAmpersandAndPipeAreErrors(t *testing.T) {
	l := lexer.New("&", "test.nx")
	assert.Equal(t, token.ERROR, l.NextToken().Kind)

	l = lexer.New("|", "test.nx")
	assert.Equal(t, token.ERROR, l.NextToken().Kind)
}

func TestLexer_LineColumnTracking(t *testing.T) {
	l := lexer.New("a\nbb", "test.nx")
	tok := l.NextToken()
	assert.Equal(t, 1, tok.Pos.Line)
	assert.Equal(t, 1, tok.Pos.Column)

	nl := l.NextToken()
	assert.Equal(t, token.NEWLINE, nl.Kind)

	tok = l.NextToken()
	assert.Equal(t, 2, tok.Pos.Line)
	assert.Equal(t, 1, tok.Pos.Column)
}

func TestLexer_UnterminatedBlockCommentClosesAtEOF(t *testing.T) {
	l := lexer.New("/* never closes", "test.nx")
	tok := l.NextToken()
	assert.Equal(t, token.EOF, tok.Kind)
}

func TestLexer_TerminatesOnAllInputs(t *testing.T) {
	inputs := []string{"", "   ", "$$$", "\"", "`", "/*", "&|", "123abc_"}
	for _, in := range inputs {
		l := lexer.New(in, "test.nx")
		count := 0
		for {
			tok := l.NextToken()
			count++
			if tok.Kind == token.EOF {
				break
			}
			if count > 10000 {
				t.Fatalf("lexer did not terminate on input %q", in)
			}
		}
	}
}

func TestLexer_EOFIsIdempotent(t *testing.T) {
	l := lexer.New("", "test.nx")
	for i := 0; i < 5; i++ {
		assert.Equal(t, token.EOF, l.NextToken().Kind)
	}
}

// concatenating all lexeme ranges in order exactly reconstructs the source.
func TestLexer_ConcatenationReconstructsSource(t *testing.T) {
	src := `func main() -> i32 {
  let x: i32 = 10; // comment
  return x;
}`
	l := lexer.New(src, "test.nx")
	rebuilt := ""
	prevEnd := 0
	pos := 0
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
		// locate this lexeme in the remaining source (tokens are emitted in
		// order, so searching forward from the previous match is exact).
		idx := indexFrom(src, tok.Literal, pos)
		require.GreaterOrEqualf(t, idx, 0, "could not locate lexeme %q", tok.Literal)
		rebuilt += src[prevEnd:idx] + tok.Literal
		prevEnd = idx + len(tok.Literal)
		pos = prevEnd
	}
	rebuilt += src[prevEnd:]
	assert.Equal(t, src, rebuilt)
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	rel := indexOf(s[from:], substr)
	if rel < 0 {
		return -1
	}
	return from + rel
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	if substr == "" {
		return 0
	}
	return -1
}
