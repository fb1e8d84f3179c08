package repl

import (
	"bytes"
	"strings"
	"testing"
)

func TestTokenizePrintsEachToken(t *testing.T) {
	var buf bytes.Buffer
	r := New("> ")
	r.tokenize(&buf, "let x = 1 + 2;")

	out := buf.String()
	for _, want := range []string{"let", "IDENTIFIER", "\"x\"", "NUMBER", "\"1\""} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestTokenizeFlagsLexerErrors(t *testing.T) {
	var buf bytes.Buffer
	r := New("> ")
	r.tokenize(&buf, "\"unterminated")

	if !strings.Contains(buf.String(), "lexer error") {
		t.Errorf("expected a lexer error notice, got:\n%s", buf.String())
	}
}
