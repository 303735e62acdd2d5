package vm_test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/pl0-compiler/diag"
	"github.com/lookbusy1344/pl0-compiler/parser"
	"github.com/lookbusy1344/pl0-compiler/vm"
)

// compileSource runs the front end and fails the test on any diagnostic
func compileSource(t *testing.T, src string) []vm.Instruction {
	t.Helper()
	engine := diag.NewEngine(nil)
	buf := parser.NewBufferFromString(src, "t.pl0")
	engine.SetLineSource(buf)
	tokens := parser.NewLexer(buf, engine).TokenizeAll()
	code := parser.NewParser(tokens, engine).Parse()
	require.False(t, engine.HasErrors(), "unexpected compile errors: %v", engine.Diagnostics())
	return code
}

// runSource compiles and executes src with the given stdin, returning
// stdout and the run error
func runSource(t *testing.T, src, stdin string) (string, error) {
	t.Helper()
	m := vm.NewMachine(compileSource(t, src))
	var out bytes.Buffer
	m.Out = &out
	m.In = bufio.NewReader(strings.NewReader(stdin))
	err := m.Run()
	return out.String(), err
}

func TestRun_ArithmeticAndWrite(t *testing.T) {
	out, err := runSource(t, "program p; var x; begin x := 2 + 3 * 4; write(x) end", "")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)
}

func TestRun_FactorialRecursion(t *testing.T) {
	src := `
program fact;
var n, f;

procedure factorial();
begin
    if n > 1 then
    begin
        f := f * n;
        n := n - 1;
        call factorial()
    end
end;

begin
    read(n);
    f := 1;
    call factorial();
    write(f)
end`
	out, err := runSource(t, src, "5\n")
	require.NoError(t, err)
	assert.Equal(t, "? 120\n", out, "the read prompt precedes the result")
}

func TestRun_WhileLoop(t *testing.T) {
	src := "program p; var i, s; begin i := 1; s := 0; while i <= 10 do begin s := s + i; i := i + 1 end; write(s) end"
	out, err := runSource(t, src, "")
	require.NoError(t, err)
	assert.Equal(t, "55\n", out)
}

func TestRun_ConstantsAndUnaryMinus(t *testing.T) {
	out, err := runSource(t, "program p; const a := -7; var x; begin x := a + 10; write(x) end", "")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestRun_EmptyProgram(t *testing.T) {
	out, err := runSource(t, "program p; begin end", "")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_NestedStaticLinks(t *testing.T) {
	// inner() runs two levels below the program scope and reaches x and y
	// through two static links, and outer's a through one
	src := `
program scopes;
var x, y;

procedure outer();
var a;

    procedure inner();
    begin
        x := x + a;
        y := y * 2
    end;

begin
    a := 5;
    call inner();
    call inner()
end;

begin
    x := 1;
    y := 1;
    call outer();
    write(x);
    write(y)
end`
	out, err := runSource(t, src, "")
	require.NoError(t, err)
	assert.Equal(t, "11\n4\n", out)
}

func TestRun_IfElse(t *testing.T) {
	src := "program p; var x; begin read(x); if odd x then write(1) else write(0) end"

	out, err := runSource(t, src, "7\n")
	require.NoError(t, err)
	assert.Equal(t, "? 1\n", out)

	out, err = runSource(t, src, "8\n")
	require.NoError(t, err)
	assert.Equal(t, "? 0\n", out)
}

func TestRun_NegativeDivision(t *testing.T) {
	out, err := runSource(t, "program p; var x; begin x := -7; write(x / 2) end", "")
	require.NoError(t, err)
	assert.Equal(t, "-3\n", out, "division truncates toward zero")
}

func TestRun_Deterministic(t *testing.T) {
	src := "program p; var a, b; begin read(a); read(b); write(a * b + 1) end"

	first, err := runSource(t, src, "6\n7\n")
	require.NoError(t, err)
	second, err := runSource(t, src, "6\n7\n")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "? ? 43\n", first)
}

func TestRun_DivisionByZero(t *testing.T) {
	_, err := runSource(t, "program p; var x; begin x := 0; write(1 / x) end", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.ErrDivideByZero)
}

func TestRun_StackOverflowOnRunawayRecursion(t *testing.T) {
	src := `
program p;
procedure loop();
begin call loop() end;
begin call loop() end`

	m := vm.NewMachine(compileSource(t, src))
	m.Out = &bytes.Buffer{}
	m.MaxSteps = 0 // the stack must give out, not the step guard
	err := m.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.ErrStackOverflow)
	assert.Equal(t, vm.StateFailed, m.State)
}

func TestRun_StepLimit(t *testing.T) {
	src := "program p; var x; begin x := 0; while 0 = 0 do x := x + 1 end"

	m := vm.NewMachine(compileSource(t, src))
	m.Out = &bytes.Buffer{}
	m.MaxSteps = 1000
	err := m.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.ErrStepLimit)
}

func TestMachine_UnknownOpcode(t *testing.T) {
	m := vm.NewMachine([]vm.Instruction{{Op: vm.Opcode(99)}})
	err := m.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, vm.ErrUnknownOpcode)
}

func TestMachine_HaltLeavesRegistersConsistent(t *testing.T) {
	m := vm.NewMachine(compileSource(t, "program p; begin end"))
	require.NoError(t, m.Run())
	assert.Equal(t, vm.StateHalted, m.State)
	assert.Equal(t, -1, m.T, "termination fires when RET drops T below zero")
}

func TestMachine_Reset(t *testing.T) {
	code := compileSource(t, "program p; var x; begin x := 9; write(x) end")
	m := vm.NewMachine(code)
	var out bytes.Buffer
	m.Out = &out
	require.NoError(t, m.Run())
	require.Equal(t, "9\n", out.String())

	m.Reset()
	assert.Equal(t, vm.StateReady, m.State)
	assert.Equal(t, 0, m.P)
	assert.Equal(t, -1, m.T)
	require.NoError(t, m.Run())
	assert.Equal(t, "9\n9\n", out.String())
}

func TestMachine_ReadFailure(t *testing.T) {
	m := vm.NewMachine(compileSource(t, "program p; var x; begin read(x) end"))
	m.Out = &bytes.Buffer{}
	m.In = bufio.NewReader(strings.NewReader("not a number"))
	err := m.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read failed")
}

func TestStepTrace_RecordsEveryStep(t *testing.T) {
	m := vm.NewMachine(compileSource(t, "program p; var x; begin x := 1; write(x) end"))
	m.Out = &bytes.Buffer{}
	var traceOut bytes.Buffer
	m.Trace = vm.NewStepTrace(&traceOut)

	require.NoError(t, m.Run())

	lines := strings.Split(strings.TrimSuffix(traceOut.String(), "\n"), "\n")
	assert.Len(t, lines, int(m.Steps))
	assert.Contains(t, lines[0], "JMP")
	assert.Contains(t, lines[len(lines)-1], "OPR")
}
