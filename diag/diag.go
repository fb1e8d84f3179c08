// Package diag renders a compileerr.List to a terminal: red for errors,
// yellow for the "N more errors suppressed" notice, plain for the source
// context line. Grounded on akashmaji946-go-mix's repl.go, which drives
// fatih/color the same way (color.New(color.FgX).Fprintf(writer, ...)) for
// REPL feedback; colorable wraps the writer so the ANSI codes render
// correctly on Windows consoles as well as real terminals.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"

	"github.com/nxlang/nxc/compileerr"
)

var (
	errorColor  = color.New(color.FgRed, color.Bold)
	noticeColor = color.New(color.FgYellow)
	sourceColor = color.New(color.FgWhite)
)

// Sink renders diagnostics to an underlying writer, optionally colored.
type Sink struct {
	w     io.Writer
	color bool
}

// NewSink wraps w for colored diagnostic output when color is true. Pass
// colorable.NewColorableStderr() (or any writer) as w.
func NewSink(w io.Writer, useColor bool) *Sink {
	return &Sink{w: w, color: useColor}
}

// NewStderrSink is the common case: color-capable stderr.
func NewStderrSink(useColor bool) *Sink {
	return &Sink{w: colorable.NewColorableStderr(), color: useColor}
}

// Report prints every error in list, then a truncation notice if the cap
// suppressed any. totalSeen is the true count of errors encountered before
// capping (spec §7: "typical: stop after 20").
func (s *Sink) Report(list *compileerr.List, totalSeen int) {
	for _, e := range list.Errors {
		s.printError(e)
	}
	if list.Truncated(totalSeen) {
		s.printNotice(fmt.Sprintf("%d more error(s) suppressed", totalSeen-len(list.Errors)))
	}
}

func (s *Sink) printError(e *compileerr.Error) {
	if !s.color {
		fmt.Fprintln(s.w, e.Error())
		return
	}
	if e.Pos.Line > 0 {
		errorColor.Fprintf(s.w, "%s: %s: %s\n", e.Pos, e.Kind, e.Message)
	} else {
		errorColor.Fprintf(s.w, "%s: %s\n", e.Kind, e.Message)
	}
	if e.Wrapped != nil {
		errorColor.Fprintf(s.w, "  caused by: %v\n", e.Wrapped)
	}
	if e.Context != "" {
		sourceColor.Fprintf(s.w, "    %s\n", e.Context)
	}
}

func (s *Sink) printNotice(msg string) {
	if s.color {
		noticeColor.Fprintf(s.w, "note: %s\n", msg)
	} else {
		fmt.Fprintf(s.w, "note: %s\n", msg)
	}
}
