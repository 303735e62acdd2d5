// Package loader validates a compiled instruction stream and prepares a
// machine to run it. Validation runs between parsing and execution: every
// jump and call must land inside the program, which also catches any
// forward jump the parser failed to backpatch.
package loader

import (
	"fmt"

	"github.com/lookbusy1344/pl0-compiler/vm"
)

// Validate checks structural properties of the program
func Validate(code []vm.Instruction) error {
	if len(code) == 0 {
		return fmt.Errorf("empty program")
	}

	for i, inst := range code {
		if inst.Level < 0 {
			return fmt.Errorf("instruction %d: negative level %d", i, inst.Level)
		}
		switch inst.Op {
		case vm.OpJMP, vm.OpJPC, vm.OpCAL:
			if inst.Addr < 0 || inst.Addr >= len(code) {
				return fmt.Errorf("instruction %d: %s target %d outside program of %d instructions",
					i, inst.Op, inst.Addr, len(code))
			}
			// Slot 0 is the program prologue and never a real jump or call
			// target, so target 0 is a placeholder that was never backpatched
			if inst.Addr == 0 {
				return fmt.Errorf("instruction %d: %s target 0 is an unresolved placeholder", i, inst.Op)
			}
		case vm.OpINT:
			if inst.Addr < 3 {
				return fmt.Errorf("instruction %d: INT frame size %d below header size", i, inst.Addr)
			}
		}
	}
	return nil
}

// LoadProgram validates code and returns a machine sized per stackSize
// (0 selects the default capacity)
func LoadProgram(code []vm.Instruction, stackSize int) (*vm.Machine, error) {
	if err := Validate(code); err != nil {
		return nil, err
	}
	m := vm.NewMachine(code)
	if stackSize > 0 && stackSize != vm.DefaultStackSize {
		m.Stack = make([]int32, stackSize)
	}
	return m, nil
}
