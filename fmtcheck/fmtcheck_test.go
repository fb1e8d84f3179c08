package fmtcheck_test

import (
	"testing"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/fmtcheck"
	"github.com/nxlang/nxc/parser"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	arena := ast.New()
	prog, hadErr, errs := parser.ParseSource(src, "test.nx", arena, 20)
	if hadErr {
		t.Fatalf("parse failed: %v", errs.Errors)
	}
	return prog
}

func TestFormatRoundTripsThroughReparse(t *testing.T) {
	src := `func add(a: i32, b: i32) -> i32 {
    return a + b;
}

func main() -> i32 {
    let x = add(1, 2);
    if (x > 0) {
        return x;
    } else {
        return 0;
    }
}
`
	prog := mustParse(t, src)
	formatted := fmtcheck.Format(prog)

	reparsed := mustParse(t, formatted)

	if len(reparsed.Decls) != len(prog.Decls) {
		t.Fatalf("decl count changed across round trip: %d vs %d", len(reparsed.Decls), len(prog.Decls))
	}

	twiceFormatted := fmtcheck.Format(reparsed)
	if formatted != twiceFormatted {
		t.Fatalf("formatting is not idempotent:\nfirst:\n%s\nsecond:\n%s", formatted, twiceFormatted)
	}
}

func TestFormatRendersFunctionSignature(t *testing.T) {
	prog := mustParse(t, "func main() -> i32 { return 0; }\n")
	out := fmtcheck.Format(prog)
	want := "func main() -> i32 {\n    return 0;\n}\n"
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}
