package symtab

import (
	"testing"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/compileerr"
)

func TestFuncTableAssignsSequentialLabels(t *testing.T) {
	ft := NewFuncTable()
	a, err := ft.Define("main", nil, ast.I32, compileerr.Position{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := ft.Define("helper", []ast.Type{ast.I32}, ast.VOID, compileerr.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Label != "func_0" || b.Label != "func_1" {
		t.Errorf("unexpected labels: %s, %s", a.Label, b.Label)
	}
}

func TestFuncTableRejectsDuplicate(t *testing.T) {
	ft := NewFuncTable()
	if _, err := ft.Define("main", nil, ast.I32, compileerr.Position{}); err != nil {
		t.Fatal(err)
	}
	if _, err := ft.Define("main", nil, ast.I32, compileerr.Position{}); err == nil {
		t.Fatal("expected error on duplicate function name")
	}
}

func TestFuncTableLookup(t *testing.T) {
	ft := NewFuncTable()
	ft.Define("f", nil, ast.VOID, compileerr.Position{})
	if _, ok := ft.Lookup("f"); !ok {
		t.Fatal("expected to find f")
	}
	if _, ok := ft.Lookup("g"); ok {
		t.Fatal("did not expect to find g")
	}
}

func TestFuncTableInOrderPreservesDeclarationOrder(t *testing.T) {
	ft := NewFuncTable()
	ft.Define("b", nil, ast.VOID, compileerr.Position{})
	ft.Define("a", nil, ast.VOID, compileerr.Position{})
	syms := ft.InOrder()
	if len(syms) != 2 || syms[0].Name != "b" || syms[1].Name != "a" {
		t.Fatalf("unexpected order: %+v", syms)
	}
}

func TestVarScopeAllocatesDescendingOffsets(t *testing.T) {
	s := NewVarScope()
	a, err := s.Define("x", ast.I32, false, compileerr.Position{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Define("y", ast.I32, true, compileerr.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Offset != -8 || b.Offset != -16 {
		t.Errorf("unexpected offsets: %d, %d", a.Offset, b.Offset)
	}
	if !b.Const {
		t.Error("expected y to be const")
	}
}

func TestVarScopeRejectsRedeclaration(t *testing.T) {
	s := NewVarScope()
	s.Define("x", ast.I32, false, compileerr.Position{})
	if _, err := s.Define("x", ast.I32, false, compileerr.Position{}); err == nil {
		t.Fatal("expected error on redeclaration")
	}
}

func TestVarScopeResetClearsOffsets(t *testing.T) {
	s := NewVarScope()
	s.Define("x", ast.I32, false, compileerr.Position{})
	s.Reset()
	a, err := s.Define("x", ast.I32, false, compileerr.Position{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Offset != -8 {
		t.Errorf("expected fresh offset -8 after reset, got %d", a.Offset)
	}
}

func TestVarScopeFrameSizeRoundsTo16(t *testing.T) {
	s := NewVarScope()
	s.Define("a", ast.I32, false, compileerr.Position{})
	if got := s.FrameSize(); got != 16 {
		t.Errorf("expected 16 after 1 slot, got %d", got)
	}
	s.Define("b", ast.I32, false, compileerr.Position{})
	if got := s.FrameSize(); got != 16 {
		t.Errorf("expected 16 after 2 slots, got %d", got)
	}
	s.Define("c", ast.I32, false, compileerr.Position{})
	if got := s.FrameSize(); got != 32 {
		t.Errorf("expected 32 after 3 slots, got %d", got)
	}
}

func TestStringTableDeduplicates(t *testing.T) {
	st := NewStringTable()
	l1 := st.Intern("hi")
	l2 := st.Intern("bye")
	l3 := st.Intern("hi")
	if l1 != l3 {
		t.Errorf("expected identical literals to share a label: %s vs %s", l1, l3)
	}
	if l1 == l2 {
		t.Error("expected distinct literals to get distinct labels")
	}
	if got := st.Entries(); len(got) != 2 {
		t.Fatalf("expected 2 unique entries, got %d", len(got))
	}
}

func TestVarScopeDefineParam(t *testing.T) {
	s := NewVarScope()
	p := s.DefineParam("a", ast.I32)
	if p.Offset != -8 {
		t.Errorf("expected first param at -8, got %d", p.Offset)
	}
	if p.Const {
		t.Error("parameters should not be const")
	}
}
