package main

import (
	"os"
	"path/filepath"
	"testing"
)

// writeSource drops src into a temp .nx file and returns its path.
func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.nx")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writeSource: %v", err)
	}
	return path
}

func TestRunExitCodeZero(t *testing.T) {
	path := writeSource(t, "func main() -> i32 { return 0; }\n")
	if rc := run([]string{"run", path}); rc != 0 {
		t.Fatalf("want exit 0, got %d", rc)
	}
}

func TestRunExitCode42(t *testing.T) {
	path := writeSource(t, "func main() -> i32 { return 42; }\n")
	if rc := run([]string{"run", path}); rc != 42 {
		t.Fatalf("want exit 42, got %d", rc)
	}
}

func TestRunAdditionExitCode30(t *testing.T) {
	src := "func main() -> i32 { let x: i32 = 10; let y: i32 = 20; return x + y; }\n"
	path := writeSource(t, src)
	if rc := run([]string{"run", path}); rc != 30 {
		t.Fatalf("want exit 30, got %d", rc)
	}
}

func TestRunSubtractionExitCode60(t *testing.T) {
	src := "func main() -> i32 { let x: i32 = 100; let y: i32 = 40; return x - y; }\n"
	path := writeSource(t, src)
	if rc := run([]string{"run", path}); rc != 60 {
		t.Fatalf("want exit 60, got %d", rc)
	}
}

func TestRunPrintProducesExitZero(t *testing.T) {
	path := writeSource(t, `func main() -> i32 { print("hi"); return 0; }`+"\n")
	if rc := run([]string{"run", path}); rc != 0 {
		t.Fatalf("want exit 0, got %d", rc)
	}
}

func TestRunDormantFunctionExitCode7(t *testing.T) {
	src := "func add(a: i32, b: i32) -> i32 { return a + b; }\n" +
		"func main() -> i32 { return 7; }\n"
	path := writeSource(t, src)
	if rc := run([]string{"run", path}); rc != 7 {
		t.Fatalf("want exit 7, got %d", rc)
	}
}

func TestCompileParseErrorExitsOne(t *testing.T) {
	path := writeSource(t, "func main() -> i32 { return")
	out := filepath.Join(t.TempDir(), "a.out")
	if rc := run([]string{"compile", "-o", out, path}); rc != 1 {
		t.Fatalf("want exit 1, got %d", rc)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no executable to be written on parse error")
	}
}

func TestCompileMissingMainExitsOne(t *testing.T) {
	path := writeSource(t, "func add(a: i32, b: i32) -> i32 { return a + b; }\n")
	out := filepath.Join(t.TempDir(), "a.out")
	if rc := run([]string{"compile", "-o", out, path}); rc != 1 {
		t.Fatalf("want exit 1, got %d", rc)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("expected no executable to be written without main")
	}
}

func TestCompileWritesExecutableMode(t *testing.T) {
	path := writeSource(t, "func main() -> i32 { return 0; }\n")
	out := filepath.Join(t.TempDir(), "a.out")
	if rc := run([]string{"compile", "-o", out, path}); rc != 0 {
		t.Fatalf("want exit 0, got %d", rc)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("expected executable to exist: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Fatalf("expected executable bit set, got mode %v", info.Mode())
	}
}

func TestVersionFlag(t *testing.T) {
	if rc := run([]string{"-version"}); rc != 0 {
		t.Fatalf("want exit 0, got %d", rc)
	}
}

func TestNoArgsPrintsHelp(t *testing.T) {
	if rc := run(nil); rc != 0 {
		t.Fatalf("want exit 0, got %d", rc)
	}
}
