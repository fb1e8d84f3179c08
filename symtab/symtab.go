// Package symtab holds the three symbol tables codegen consults while
// lowering a Program: functions (global, one label per declaration),
// locals (per-function, reset between functions), and string literals
// (global, deduplicated). Grounded on the teacher's parser.SymbolTable
// (map + Define/Lookup, forward-reference friendly), adapted from a single
// assembly-label table into the three kinds a function-scoped, typed
// language needs.
package symtab

import (
	"fmt"

	"github.com/nxlang/nxc/ast"
	"github.com/nxlang/nxc/compileerr"
)

// FuncSymbol describes a declared function: its emitted label, arity, and
// the frame size codegen computes once its body is lowered.
type FuncSymbol struct {
	Name       string
	Label      string
	ParamTypes []ast.Type
	ReturnType ast.Type
	StackSize  int // set by codegen after the body is lowered
}

// FuncTable is the global function symbol table. Every declaration is
// registered before any body is lowered, so calls may forward-reference a
// function declared later in the file (spec §4.4).
type FuncTable struct {
	funcs map[string]*FuncSymbol
	order []string
	next  int
}

// NewFuncTable creates an empty function table.
func NewFuncTable() *FuncTable {
	return &FuncTable{funcs: make(map[string]*FuncSymbol)}
}

// Define registers a function. Returns a semantic error if the name is
// already declared (spec §4.4 edge case: duplicate function names).
func (t *FuncTable) Define(name string, params []ast.Type, ret ast.Type, pos compileerr.Position) (*FuncSymbol, error) {
	if _, exists := t.funcs[name]; exists {
		return nil, compileerr.New(pos, compileerr.KindSemantic, fmt.Sprintf("function %q already declared", name))
	}
	sym := &FuncSymbol{
		Name:       name,
		Label:      fmt.Sprintf("func_%d", t.next),
		ParamTypes: params,
		ReturnType: ret,
	}
	t.next++
	t.funcs[name] = sym
	t.order = append(t.order, name)
	return sym, nil
}

// Lookup finds a function by name.
func (t *FuncTable) Lookup(name string) (*FuncSymbol, bool) {
	sym, ok := t.funcs[name]
	return sym, ok
}

// InOrder returns every symbol in declaration order, for deterministic
// codegen and ELF output.
func (t *FuncTable) InOrder() []*FuncSymbol {
	out := make([]*FuncSymbol, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.funcs[name])
	}
	return out
}

// VarSymbol describes a local variable's stack slot.
type VarSymbol struct {
	Name   string
	Type   ast.Type
	Const  bool
	Offset int // bytes below rbp; always negative
}

// VarScope is the per-function local symbol table. Every variable gets an
// 8-byte-aligned slot regardless of declared type, since the backend keeps
// every value in a 64-bit register or stack slot (spec §4.4/§4.5).
type VarScope struct {
	vars       map[string]*VarSymbol
	nextOffset int
}

// NewVarScope creates an empty scope. Call Reset between functions instead
// of allocating a new VarScope so slot numbering restarts at -8 each time.
func NewVarScope() *VarScope {
	return &VarScope{vars: make(map[string]*VarSymbol)}
}

// Reset clears every variable, preparing the scope for the next function.
func (s *VarScope) Reset() {
	s.vars = make(map[string]*VarSymbol)
	s.nextOffset = 0
}

// Define allocates a new stack slot for name. Returns a semantic error on
// redeclaration within the same function (spec §4.4 edge case).
func (s *VarScope) Define(name string, typ ast.Type, isConst bool, pos compileerr.Position) (*VarSymbol, error) {
	if _, exists := s.vars[name]; exists {
		return nil, compileerr.New(pos, compileerr.KindSemantic, fmt.Sprintf("variable %q already declared in this scope", name))
	}
	s.nextOffset -= 8
	sym := &VarSymbol{Name: name, Type: typ, Const: isConst, Offset: s.nextOffset}
	s.vars[name] = sym
	return sym, nil
}

// DefineParam allocates a stack slot for an incoming parameter. Identical
// to Define but never const and with no redeclaration check: a repeated
// parameter name gets a new slot and replaces the earlier entry.
func (s *VarScope) DefineParam(name string, typ ast.Type) *VarSymbol {
	s.nextOffset -= 8
	sym := &VarSymbol{Name: name, Type: typ, Offset: s.nextOffset}
	s.vars[name] = sym
	return sym
}

// Lookup finds a variable by name in the current function scope.
func (s *VarScope) Lookup(name string) (*VarSymbol, bool) {
	sym, ok := s.vars[name]
	return sym, ok
}

// FrameSize returns the total stack space reserved for locals and
// parameters, rounded up to a 16-byte boundary (SysV stack alignment at
// call sites, spec §4.4).
func (s *VarScope) FrameSize() int {
	size := -s.nextOffset
	if size%16 != 0 {
		size += 16 - size%16
	}
	return size
}

// StringTable interns string literal contents and hands out deduplicated
// rodata labels (`str_0`, `str_1`, ...), so two identical literals in the
// source share one ELF rodata entry.
type StringTable struct {
	index   map[string]int
	entries []string
}

// NewStringTable creates an empty string table.
func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Intern returns the label for s, registering it on first use.
func (t *StringTable) Intern(s string) string {
	if i, ok := t.index[s]; ok {
		return fmt.Sprintf("str_%d", i)
	}
	i := len(t.entries)
	t.index[s] = i
	t.entries = append(t.entries, s)
	return fmt.Sprintf("str_%d", i)
}

// Entries returns every interned string in assignment order; index i
// corresponds to label `str_i`.
func (t *StringTable) Entries() []string {
	return t.entries
}
