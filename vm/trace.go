package vm

import (
	"fmt"
	"io"
	"strings"
)

// StepTrace streams one line per executed instruction to a writer: step
// count, instruction address and text, the P/T/B registers, and a snapshot
// of the top of the data stack.
type StepTrace struct {
	Enabled    bool
	Writer     io.Writer
	MaxEntries int // 0 = unlimited

	count int
}

// traceStackDepth is how many top-of-stack slots a trace line shows
const traceStackDepth = 8

// NewStepTrace creates an enabled trace writing to w
func NewStepTrace(w io.Writer) *StepTrace {
	return &StepTrace{
		Enabled:    true,
		Writer:     w,
		MaxEntries: 100000,
	}
}

// Record writes the trace line for the instruction just executed at addr
func (t *StepTrace) Record(m *Machine, addr int) {
	if !t.Enabled || t.Writer == nil {
		return
	}
	if t.MaxEntries > 0 && t.count >= t.MaxEntries {
		return
	}
	t.count++

	fmt.Fprintf(t.Writer, "%6d  %4d: %-12s P=%-5d T=%-5d B=%-5d %s\n",
		m.Steps, addr, m.I, m.P, m.T, m.B, stackSnapshot(m))
}

func stackSnapshot(m *Machine) string {
	if m.T < 0 {
		return "[]"
	}
	lo := m.T - traceStackDepth + 1
	if lo < 0 {
		lo = 0
	}
	var sb strings.Builder
	sb.WriteByte('[')
	if lo > 0 {
		sb.WriteString("... ")
	}
	for i := lo; i <= m.T; i++ {
		if i > lo {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%d", m.Stack[i])
	}
	sb.WriteByte(']')
	return sb.String()
}
