package parser

import (
	"fmt"

	"github.com/lookbusy1344/pl0-compiler/diag"
)

// SymbolKind represents the category of a symbol
type SymbolKind int

const (
	SymbolConstant SymbolKind = iota
	SymbolVariable
	SymbolProcedure
)

var symbolKindNames = map[SymbolKind]string{
	SymbolConstant:  "constant",
	SymbolVariable:  "variable",
	SymbolProcedure: "procedure",
}

func (k SymbolKind) String() string {
	if name, ok := symbolKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// Symbol is one symbol-table entry. Value is the constant's signed value,
// the variable's offset within its activation record (first three slots are
// reserved for the frame header), or the procedure's code entry address.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Level int
	Value int
	Pos   diag.Position
}

// firstFreeOffset is where locals start in an activation record, after the
// return address, dynamic link and static link
const firstFreeOffset = 3

// SymbolTable is a stack of scopes mirroring the parser's recursion through
// procedure declarations, with a parallel stack of next-free-offset
// counters. Identifier names are case-sensitive.
type SymbolTable struct {
	scopes  [][]Symbol
	offsets []int
}

// NewSymbolTable creates an empty symbol table; no scope is open yet
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// EnterScope pushes an empty scope with a fresh address counter
func (st *SymbolTable) EnterScope() {
	st.scopes = append(st.scopes, nil)
	st.offsets = append(st.offsets, firstFreeOffset)
}

// ExitScope pops the innermost scope; its symbols are dropped
func (st *SymbolTable) ExitScope() {
	st.scopes = st.scopes[:len(st.scopes)-1]
	st.offsets = st.offsets[:len(st.offsets)-1]
}

// Level returns the current lexical level (program scope is 0)
func (st *SymbolTable) Level() int {
	return len(st.scopes) - 1
}

// FrameSize returns the activation-record size of the current scope: the
// three header slots plus every variable declared so far
func (st *SymbolTable) FrameSize() int {
	return st.offsets[len(st.offsets)-1]
}

// Declare adds a symbol to the innermost scope. For variables the value is
// replaced with the scope's next free offset, which then increments. An
// error is returned on redeclaration within the same scope.
func (st *SymbolTable) Declare(name string, kind SymbolKind, value int, pos diag.Position) (*Symbol, error) {
	if prev, ok := st.LookupCurrent(name); ok {
		return nil, fmt.Errorf("%q already declared as a %s at %s", name, prev.Kind, prev.Pos)
	}

	top := len(st.scopes) - 1
	if kind == SymbolVariable {
		value = st.offsets[top]
		st.offsets[top]++
	}

	st.scopes[top] = append(st.scopes[top], Symbol{
		Name:  name,
		Kind:  kind,
		Level: top,
		Value: value,
		Pos:   pos,
	})
	return &st.scopes[top][len(st.scopes[top])-1], nil
}

// LookupCurrent scans the innermost scope only; used to detect redeclaration
func (st *SymbolTable) LookupCurrent(name string) (*Symbol, bool) {
	top := st.scopes[len(st.scopes)-1]
	for i := range top {
		if top[i].Name == name {
			return &top[i], true
		}
	}
	return nil, false
}

// Lookup walks scopes from innermost to outermost and returns the first
// match; the symbol carries its defining level
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for s := len(st.scopes) - 1; s >= 0; s-- {
		scope := st.scopes[s]
		for i := range scope {
			if scope[i].Name == name {
				return &scope[i], true
			}
		}
	}
	return nil, false
}
