package debugger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/pl0-compiler/debugger"
	"github.com/lookbusy1344/pl0-compiler/diag"
	"github.com/lookbusy1344/pl0-compiler/parser"
	"github.com/lookbusy1344/pl0-compiler/vm"
)

func machineFor(t *testing.T, src string) *vm.Machine {
	t.Helper()
	engine := diag.NewEngine(nil)
	buf := parser.NewBufferFromString(src, "t.pl0")
	tokens := parser.NewLexer(buf, engine).TokenizeAll()
	code := parser.NewParser(tokens, engine).Parse()
	require.False(t, engine.HasErrors())

	m := vm.NewMachine(code)
	m.Out = &bytes.Buffer{}
	return m
}

func TestDebugger_StepOnce(t *testing.T) {
	d := debugger.NewDebugger(machineFor(t, "program p; var x; begin x := 1; write(x) end"))

	require.NoError(t, d.StepOnce())
	assert.Equal(t, uint64(1), d.Machine.Steps)
	require.NoError(t, d.StepOnce())
	assert.Equal(t, uint64(2), d.Machine.Steps)
}

func TestDebugger_ContinueToHalt(t *testing.T) {
	m := machineFor(t, "program p; var x; begin x := 2; write(x) end")
	var out bytes.Buffer
	m.Out = &out
	d := debugger.NewDebugger(m)

	require.NoError(t, d.Continue())
	assert.Equal(t, vm.StateHalted, m.State)
	assert.Equal(t, "2\n", out.String())
}

func TestDebugger_ContinueStopsAtBreakpoint(t *testing.T) {
	m := machineFor(t, "program p; var x; begin x := 1; x := 2; x := 3 end")
	d := debugger.NewDebugger(m)

	// Break before the final store; code: JMP INT (LIT STO)x3 RET
	d.Breakpoints.Add(6)

	require.NoError(t, d.Continue())
	assert.Equal(t, vm.StateRunning, m.State)
	assert.Equal(t, 6, m.P)

	// A second continue leaves the breakpoint and finishes the run
	require.NoError(t, d.Continue())
	assert.Equal(t, vm.StateHalted, m.State)
}

func TestDebugger_ResetKeepsBreakpoints(t *testing.T) {
	m := machineFor(t, "program p; var x; begin x := 1 end")
	d := debugger.NewDebugger(m)
	d.Breakpoints.Add(2)

	require.NoError(t, d.Continue())
	d.Reset()

	assert.Equal(t, vm.StateReady, m.State)
	assert.Equal(t, uint64(0), m.Steps)
	assert.Len(t, d.Breakpoints.List(), 1)
}

func TestDebugger_ContinuePropagatesRuntimeError(t *testing.T) {
	m := machineFor(t, "program p; var x; begin x := 0; write(1 / x) end")
	d := debugger.NewDebugger(m)

	err := d.Continue()
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.ErrDivideByZero)
}
