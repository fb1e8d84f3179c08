// Command nxc is the whole-program native compiler driver: lexer -> parser
// -> codegen -> encoder -> elfwriter, wired together behind a flag.FlagSet
// CLI exactly the way the teacher's main.go wires its emulator pipeline (no
// cobra/viper anywhere in the corpus for a CLI entrypoint).
package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/codegen"
	"github.com/nxlang/nxc/config"
	"github.com/nxlang/nxc/diag"
	"github.com/nxlang/nxc/elfwriter"
	"github.com/nxlang/nxc/encoder"
	"github.com/nxlang/nxc/fmtcheck"
	"github.com/nxlang/nxc/lexer"
	"github.com/nxlang/nxc/parser"
	"github.com/nxlang/nxc/repl"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("nxc", flag.ContinueOnError)
	var (
		output      = fs.String("o", "", "output executable path (default: config or a.out)")
		target      = fs.String("target", "x86_64-linux", "target triple (only x86_64-linux is supported)")
		backend     = fs.String("backend", "native", "code generation backend (only native is supported)")
		dumpTokens  = fs.Bool("tokens", false, "dump the token stream and exit")
		dumpAST     = fs.Bool("ast", false, "dump the parsed AST and exit")
		dumpCode    = fs.Bool("code", false, "dump pseudo-instructions and encoded bytes")
		printTrace  = fs.Bool("print-trace", false, "echo print() string literals at compile time")
		showVersion = fs.Bool("version", false, "show version information")
	)
	fs.Usage = func() { printHelp(fs) }

	if err := fs.Parse(args); err != nil {
		return 1
	}
	rest := fs.Args()
	if len(rest) > 0 && (rest[0] == "compile" || rest[0] == "run") {
		// Flags may also follow the subcommand: `nxc compile -o out file`.
		cmd := rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return 1
		}
		rest = append([]string{cmd}, fs.Args()...)
	}

	if *showVersion {
		fmt.Printf("nxc %s (%s)\n", Version, Commit)
		return 0
	}

	if *target != "x86_64-linux" {
		fmt.Fprintf(os.Stderr, "nxc: unsupported target %q (only x86_64-linux)\n", *target)
		return 1
	}
	if *backend != "native" {
		fmt.Fprintf(os.Stderr, "nxc: unsupported backend %q (only native)\n", *backend)
		return 1
	}

	if len(rest) == 0 {
		printHelp(fs)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}
	sink := diag.NewStderrSink(cfg.Diagnostics.ColorOutput)

	cmd := rest[0]
	switch cmd {
	case "repl":
		if err := repl.New("nxc> ").Start(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
			return 1
		}
		return 0

	case "compile":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "nxc: compile requires a source file")
			return 1
		}
		return compileCommand(rest[1], *output, cfg, sink, *dumpTokens, *dumpAST, *dumpCode, *printTrace)

	case "run":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "nxc: run requires a source file")
			return 1
		}
		return runCommand(rest[1], cfg, sink, *printTrace)

	default:
		// No subcommand named: treat the bare argument as a source file to
		// compile, matching spec.md §6's plain `nxc file.nx` invocation.
		return compileCommand(cmd, *output, cfg, sink, *dumpTokens, *dumpAST, *dumpCode, *printTrace)
	}
}

func compileCommand(path, output string, cfg *config.Config, sink *diag.Sink, dumpTokens, dumpAST, dumpCode, printTrace bool) int {
	src, err := os.ReadFile(path) // #nosec G304 -- user-provided source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}

	if dumpTokens {
		dumpTokenStream(os.Stdout, string(src), path)
		return 0
	}

	arena := ast.New()
	defer arena.Destroy()

	prog, hadErr, errs := parser.ParseSource(string(src), path, arena, cfg.Limits.MaxParseErrors)
	if hadErr {
		sink.Report(errs, len(errs.Errors))
		return 1
	}

	if dumpAST {
		fmt.Println(fmtcheck.Format(prog))
		return 0
	}

	unit, cerrs := codegen.Lower(prog)
	if cerrs.HasErrors() {
		sink.Report(cerrs, len(cerrs.Errors))
		return 1
	}

	if printTrace {
		for _, s := range unit.Strings.Entries() {
			fmt.Fprintf(os.Stderr, "trace: print %q\n", s)
		}
	}

	res, err := encoder.Encode(unit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}

	if dumpCode {
		dumpInstructions(os.Stdout, unit, res)
	}

	if output == "" {
		output = cfg.Output.Path
	}
	if err := elfwriter.Write(output, res, unit.Strings.Entries()); err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}
	if err := os.Chmod(output, os.FileMode(cfg.Output.FileMode)); err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}

	return 0
}

// runCommand compiles path to a temporary executable and immediately runs
// it, forwarding its exit code — viable only because the compiler's own
// output is a real native ELF executable, with no VM in the loop.
func runCommand(path string, cfg *config.Config, sink *diag.Sink, printTrace bool) int {
	tmp, err := os.CreateTemp("", "nxc-run-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if rc := compileCommand(path, tmpPath, cfg, sink, false, false, false, printTrace); rc != 0 {
		return rc
	}
	if err := os.Chmod(tmpPath, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}

	cmd := exec.Command(tmpPath) // #nosec G204 -- running our own freshly compiled binary
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "nxc: %v\n", err)
		return 1
	}
	return 0
}

func dumpTokenStream(w *os.File, src, filename string) {
	lx := lexer.New(src, filename)
	for {
		tok := lx.NextToken()
		fmt.Fprintf(w, "%-12s %-20q %s\n", tok.Kind, tok.Literal, tok.Pos)
		if tok.Kind.String() == "EOF" {
			break
		}
	}
}

func dumpInstructions(w *os.File, unit *codegen.Unit, res *encoder.Result) {
	for _, fn := range unit.Functions {
		fmt.Fprintf(w, "%s:\n", fn.Label)
		for _, inst := range fn.Instrs {
			fmt.Fprintf(w, "    %v\n", inst.Op)
		}
	}
	fmt.Fprintf(w, "\n; encoded %d bytes, entry offset %d\n", len(res.Code), res.Entry)
	for i := 0; i < len(res.Code); i += 16 {
		end := i + 16
		if end > len(res.Code) {
			end = len(res.Code)
		}
		fmt.Fprintf(w, "%04x: % x\n", i, res.Code[i:end])
	}
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("nxc — native x86-64 whole-program compiler")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  nxc [flags] <file.nx>       compile file.nx")
	fmt.Println("  nxc compile [flags] <file>  compile file")
	fmt.Println("  nxc run [flags] <file>      compile and execute file, forwarding its exit code")
	fmt.Println("  nxc repl                    interactive lexer session")
	fmt.Println()
	fmt.Println("Flags:")
	fs.PrintDefaults()
}
