// Package repl implements a line-at-a-time lexer REPL: type a line, see its
// token stream. It does not compile (that needs a whole program with a
// `main`); it exists purely as an interactive way to watch the lexer work.
// Grounded on akashmaji946-go-mix's repl.go: a readline.New loop with
// colored feedback (fatih/color) and a `.exit` sentinel, retargeted from
// evaluating expressions to tokenizing a line.
package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/nxlang/nxc/lexer"
	"github.com/nxlang/nxc/token"
)

var (
	promptColor = color.New(color.FgCyan)
	kindColor   = color.New(color.FgGreen)
	errColor    = color.New(color.FgRed)
)

// Repl is an interactive lexer session.
type Repl struct {
	Prompt string
}

// New creates a Repl with the given prompt string.
func New(prompt string) *Repl {
	return &Repl{Prompt: prompt}
}

// Start runs the read-tokenize-print loop until EOF or `.exit`.
func (r *Repl) Start(writer io.Writer) error {
	promptColor.Fprintln(writer, "nxc lexer repl — type a line, see its tokens; .exit to quit")

	rl, err := readline.New(r.Prompt)
	if err != nil {
		return fmt.Errorf("repl: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // EOF (Ctrl+D) or interrupt
			fmt.Fprintln(writer, "bye")
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ".exit" {
			fmt.Fprintln(writer, "bye")
			return nil
		}

		r.tokenize(writer, line)
	}
}

func (r *Repl) tokenize(writer io.Writer, line string) {
	lx := lexer.New(line, "<repl>")
	for {
		tok := lx.NextToken()
		kindColor.Fprintf(writer, "%-12s", tok.Kind)
		fmt.Fprintf(writer, " %q\n", tok.Literal)
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.ERROR {
			errColor.Fprintf(writer, "  lexer error at %s\n", tok.Pos)
		}
	}
}
