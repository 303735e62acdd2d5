package debugger

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// TUI is the text user interface for the debugger
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	CodeView     *tview.TextView
	StackView    *tview.TextView
	RegisterView *tview.TextView
	OutputView   *tview.TextView
	StatusBar    *tview.TextView
	CommandInput *tview.InputField

	input *inputQueue
}

// inputQueue feeds the machine's read instruction from values queued with
// the `input` command, since the terminal is owned by the TUI
type inputQueue struct {
	buf bytes.Buffer
}

func (q *inputQueue) Read(p []byte) (int, error) {
	if q.buf.Len() == 0 {
		return 0, fmt.Errorf("input queue empty (use: input N)")
	}
	return q.buf.Read(p)
}

func (q *inputQueue) push(value string) {
	q.buf.WriteString(value)
	q.buf.WriteByte('\n')
}

// NewTUI creates the interface for a debugger
func NewTUI(d *Debugger) *TUI {
	t := &TUI{
		Debugger: d,
		App:      tview.NewApplication(),
		input:    &inputQueue{},
	}
	t.initializeViews()
	t.redirectIO()
	return t
}

func (t *TUI) initializeViews() {
	t.CodeView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.CodeView.SetBorder(true).SetTitle(" Code ")

	t.StackView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(false).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.StatusBar = tview.NewTextView().SetDynamicColors(true)

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// redirectIO points the machine's streams at the TUI panes
func (t *TUI) redirectIO() {
	m := t.Debugger.Machine
	m.Out = tview.ANSIWriter(t.OutputView)
	m.In = bufio.NewReader(t.input)
}

func (t *TUI) buildLayout() tview.Primitive {
	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.CodeView, 0, 3, false).
		AddItem(t.OutputView, 0, 1, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 7, 0, false).
		AddItem(t.StackView, 0, 1, false)

	main := tview.NewFlex().
		AddItem(left, 0, 2, false).
		AddItem(right, 0, 1, false)

	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(main, 0, 1, false).
		AddItem(t.StatusBar, 1, 0, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			t.doStep()
			return nil
		case tcell.KeyF5:
			t.doContinue()
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	line := strings.TrimSpace(t.CommandInput.GetText())
	t.CommandInput.SetText("")
	if line == "" {
		return
	}
	fields := strings.Fields(line)

	switch fields[0] {
	case "step", "s":
		t.doStep()
	case "continue", "c":
		t.doContinue()
	case "reset", "r":
		t.Debugger.Reset()
		t.OutputView.Clear()
		t.refresh("machine reset")
	case "break", "b":
		t.breakpointCommand(fields[1:], true)
	case "clear":
		t.breakpointCommand(fields[1:], false)
	case "input", "i":
		for _, v := range fields[1:] {
			t.input.push(v)
		}
		t.refresh(fmt.Sprintf("queued %d input value(s)", len(fields[1:])))
	case "quit", "q":
		t.App.Stop()
	case "help", "h":
		t.refresh("commands: step continue reset break N clear N input N quit  (F10 step, F5 continue)")
	default:
		t.refresh(fmt.Sprintf("unknown command %q, try 'help'", fields[0]))
	}
}

func (t *TUI) breakpointCommand(args []string, set bool) {
	if len(args) != 1 {
		t.refresh("usage: break|clear <address>")
		return
	}
	addr, err := strconv.Atoi(args[0])
	if err != nil || addr < 0 || addr >= len(t.Debugger.Machine.Code) {
		t.refresh(fmt.Sprintf("invalid instruction address %q", args[0]))
		return
	}
	if set {
		t.Debugger.Breakpoints.Add(addr)
		t.refresh(fmt.Sprintf("breakpoint set at %d", addr))
	} else {
		t.Debugger.Breakpoints.Remove(addr)
		t.refresh(fmt.Sprintf("breakpoint cleared at %d", addr))
	}
}

func (t *TUI) doStep() {
	if err := t.Debugger.StepOnce(); err != nil {
		t.refresh(fmt.Sprintf("[red]runtime error: %v", err))
		return
	}
	t.refresh("")
}

func (t *TUI) doContinue() {
	if err := t.Debugger.Continue(); err != nil {
		t.refresh(fmt.Sprintf("[red]runtime error: %v", err))
		return
	}
	t.refresh("")
}

// refresh redraws every pane; status overrides the default state line
func (t *TUI) refresh(status string) {
	m := t.Debugger.Machine

	t.CodeView.Clear()
	for i, inst := range m.Code {
		marker := "  "
		if _, ok := findBreakpoint(t.Debugger.Breakpoints, i); ok {
			marker = "[red]●[-] "
		}
		if i == m.P {
			fmt.Fprintf(t.CodeView, "[yellow]%s%4d: %s[-]\n", marker, i, inst)
		} else {
			fmt.Fprintf(t.CodeView, "%s%4d: %s\n", marker, i, inst)
		}
	}
	t.CodeView.ScrollTo(scrollTarget(m.P, len(m.Code)), 0)

	t.RegisterView.Clear()
	fmt.Fprintf(t.RegisterView, " P = %d\n T = %d\n B = %d\n I = %s\n steps = %d\n", m.P, m.T, m.B, m.I, m.Steps)

	t.StackView.Clear()
	for i := m.T; i >= 0; i-- {
		tag := ""
		if i == m.B {
			tag = "  <- B"
		}
		fmt.Fprintf(t.StackView, "%5d: %d%s\n", i, m.Stack[i], tag)
	}

	if status == "" {
		status = t.Debugger.StateDescription()
	}
	t.StatusBar.SetText(" " + status)
}

func findBreakpoint(bm *BreakpointManager, addr int) (*Breakpoint, bool) {
	for _, bp := range bm.List() {
		if bp.Addr == addr {
			return bp, true
		}
	}
	return nil, false
}

// scrollTarget keeps the current instruction a few lines into the view
func scrollTarget(p, total int) int {
	target := p - 5
	if target < 0 {
		target = 0
	}
	if target >= total {
		target = total - 1
	}
	return target
}

// Run starts the TUI event loop and blocks until the user quits
func (t *TUI) Run() error {
	t.setupKeyBindings()
	t.refresh("")
	return t.App.SetRoot(t.buildLayout(), true).Run()
}

// RunTUI runs the interactive debugger over machine streams; the machine's
// stdin/stdout are redirected into the interface for the session
func RunTUI(d *Debugger) error {
	return NewTUI(d).Run()
}

// ensure interface satisfaction is visible at compile time
var _ io.Reader = (*inputQueue)(nil)
