package vm

import (
	"fmt"
	"io"
)

// Opcode identifies a stack-machine instruction
type Opcode int

const (
	OpLIT Opcode = iota // push a literal
	OpOPR               // arithmetic / comparison / return
	OpLOD               // push a variable
	OpSTO               // pop into a variable
	OpCAL               // call a procedure
	OpINT               // allocate stack frame
	OpJMP               // unconditional jump
	OpJPC               // jump if top of stack is zero, then pop
	OpRED               // read an integer into a variable
	OpWRT               // write and pop the top of stack
)

var opcodeNames = map[Opcode]string{
	OpLIT: "LIT",
	OpOPR: "OPR",
	OpLOD: "LOD",
	OpSTO: "STO",
	OpCAL: "CAL",
	OpINT: "INT",
	OpJMP: "JMP",
	OpJPC: "JPC",
	OpRED: "RED",
	OpWRT: "WRT",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// OPR sub-operations, carried in the instruction's address field. Code 7 is
// reserved; note LE=13 and GE=11 are not adjacent to LT/GT, mirroring the
// classical PL/0 opcode table.
const (
	OprRET = 0
	OprNEG = 1
	OprADD = 2
	OprSUB = 3
	OprMUL = 4
	OprDIV = 5
	OprODD = 6
	OprEQ  = 8
	OprNEQ = 9
	OprLT  = 10
	OprGE  = 11
	OprGT  = 12
	OprLE  = 13
)

// Instruction is one stack-machine instruction: opcode, lexical level
// difference, and an address whose meaning depends on the opcode.
type Instruction struct {
	Op    Opcode
	Level int
	Addr  int
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s %d %d", i.Op, i.Level, i.Addr)
}

// WriteListing writes the instruction vector as an indexed, aligned table
func WriteListing(w io.Writer, code []Instruction) {
	fmt.Fprintln(w, "Instruction Listing")
	fmt.Fprintln(w, "===================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%5s  %-4s %5s %8s\n", "Addr", "Op", "Level", "Arg")
	fmt.Fprintln(w, "------------------------------")
	for i, inst := range code {
		fmt.Fprintf(w, "%5d  %-4s %5d %8d\n", i, inst.Op, inst.Level, inst.Addr)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total instructions: %d\n", len(code))
}
