package loader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lookbusy1344/pl0-compiler/loader"
	"github.com/lookbusy1344/pl0-compiler/vm"
)

func validProgram() []vm.Instruction {
	return []vm.Instruction{
		{Op: vm.OpJMP, Addr: 1},
		{Op: vm.OpINT, Addr: 3},
		{Op: vm.OpOPR, Addr: vm.OprRET},
	}
}

func TestValidate_AcceptsWellFormedProgram(t *testing.T) {
	assert.NoError(t, loader.Validate(validProgram()))
}

func TestValidate_RejectsEmptyProgram(t *testing.T) {
	err := loader.Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty program")
}

func TestValidate_RejectsOutOfRangeTargets(t *testing.T) {
	tests := []struct {
		name string
		inst vm.Instruction
	}{
		{"jump past end", vm.Instruction{Op: vm.OpJMP, Addr: 99}},
		{"conditional past end", vm.Instruction{Op: vm.OpJPC, Addr: 3}},
		{"call before start", vm.Instruction{Op: vm.OpCAL, Addr: -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := validProgram()
			code[0] = tt.inst
			err := loader.Validate(code)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "outside program")
		})
	}
}

func TestValidate_RejectsUndersizedFrame(t *testing.T) {
	code := validProgram()
	code[1] = vm.Instruction{Op: vm.OpINT, Addr: 2}
	err := loader.Validate(code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame size")
}

func TestValidate_RejectsNegativeLevel(t *testing.T) {
	code := validProgram()
	code[1] = vm.Instruction{Op: vm.OpLOD, Level: -1, Addr: 3}
	err := loader.Validate(code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative level")
}

func TestLoadProgram_StackSizing(t *testing.T) {
	m, err := loader.LoadProgram(validProgram(), 0)
	require.NoError(t, err)
	assert.Len(t, m.Stack, vm.DefaultStackSize)

	m, err = loader.LoadProgram(validProgram(), 256)
	require.NoError(t, err)
	assert.Len(t, m.Stack, 256)
}

func TestLoadProgram_PropagatesValidationError(t *testing.T) {
	_, err := loader.LoadProgram(nil, 0)
	assert.Error(t, err)
}
