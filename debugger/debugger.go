// Package debugger provides interactive execution control over a PL/0
// machine: single stepping, breakpoints, and a TUI frontend.
package debugger

import (
	"fmt"

	"github.com/lookbusy1344/pl0-compiler/vm"
)

// Debugger wraps a machine with breakpoint-aware execution control
type Debugger struct {
	Machine     *vm.Machine
	Breakpoints *BreakpointManager
}

// NewDebugger creates a debugger for machine
func NewDebugger(machine *vm.Machine) *Debugger {
	return &Debugger{
		Machine:     machine,
		Breakpoints: NewBreakpointManager(),
	}
}

// StepOnce executes a single instruction
func (d *Debugger) StepOnce() error {
	return d.Machine.Step()
}

// Continue runs until the machine halts, fails, or reaches an enabled
// breakpoint. The first instruction executes even if a breakpoint sits on
// it, so continue can leave the current stop.
func (d *Debugger) Continue() error {
	if err := d.Machine.Step(); err != nil {
		return err
	}
	for d.Machine.State == vm.StateRunning {
		if d.Breakpoints.ShouldBreak(d.Machine.P) {
			return nil
		}
		if err := d.Machine.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset returns the machine to its initial state; breakpoints survive
func (d *Debugger) Reset() {
	d.Machine.Reset()
}

// StateDescription summarizes the machine state for display
func (d *Debugger) StateDescription() string {
	m := d.Machine
	switch m.State {
	case vm.StateReady:
		return "ready"
	case vm.StateRunning:
		return fmt.Sprintf("stopped at %d", m.P)
	case vm.StateHalted:
		return "halted"
	case vm.StateFailed:
		return fmt.Sprintf("failed: %v", m.LastError)
	}
	return "unknown"
}
