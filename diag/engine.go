package diag

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// ANSI escape sequences used by the renderer
const (
	ansiReset      = "\x1b[0m"
	ansiBoldRed    = "\x1b[1;31m"
	ansiBoldYellow = "\x1b[1;33m"
	ansiBoldCyan   = "\x1b[1;36m"
	ansiBoldWhite  = "\x1b[1;37m"
	ansiBoldGreen  = "\x1b[1;32m"
	ansiBlue       = "\x1b[34m"
)

// Engine collects and renders diagnostics. It keeps error/warning tallies
// that the driver consults between phases.
type Engine struct {
	Out      io.Writer
	Color    bool
	TabWidth int

	lines       LineSource
	diagnostics []Diagnostic
	errors      int
	warnings    int
}

// NewEngine creates a diagnostic engine writing to out
func NewEngine(out io.Writer) *Engine {
	return &Engine{
		Out:      out,
		TabWidth: 4,
	}
}

// SetLineSource attaches a source-line provider for context rendering
func (e *Engine) SetLineSource(lines LineSource) {
	e.lines = lines
}

// Report records a diagnostic, updates the tallies and renders it
func (e *Engine) Report(d Diagnostic) {
	e.diagnostics = append(e.diagnostics, d)
	switch d.Severity {
	case SeverityError:
		e.errors++
	case SeverityWarning:
		e.warnings++
	}
	if e.Out != nil {
		e.render(d)
	}
}

// ErrorCount returns the number of errors reported so far
func (e *Engine) ErrorCount() int { return e.errors }

// WarningCount returns the number of warnings reported so far
func (e *Engine) WarningCount() int { return e.warnings }

// HasErrors returns true if any error has been reported
func (e *Engine) HasErrors() bool { return e.errors > 0 }

// Diagnostics returns everything reported so far
func (e *Engine) Diagnostics() []Diagnostic { return e.diagnostics }

// Reset clears the tallies and the recorded diagnostics
func (e *Engine) Reset() {
	e.diagnostics = nil
	e.errors = 0
	e.warnings = 0
}

func (e *Engine) severityColor(s Severity) string {
	switch s {
	case SeverityError:
		return ansiBoldRed
	case SeverityWarning:
		return ansiBoldYellow
	default:
		return ansiBoldCyan
	}
}

// render writes one diagnostic in the format:
//
//	<file>:<line>:<col>: <level>: <msg>
//	 <line> | <source line>
//	 <pad> | <spaces>^~~~
//	 <pad> | help: <suggestion>
//	 <pad> | try:  <fix-it replacement>
//
// where <pad> is as many spaces as <line> has digits.
func (e *Engine) render(d Diagnostic) {
	if e.Color {
		fmt.Fprintf(e.Out, "%s%s:%d:%d:%s %s%s:%s %s\n",
			ansiBoldWhite, d.Pos.Filename, d.Pos.Line, d.Pos.Column, ansiReset,
			e.severityColor(d.Severity), d.Severity, ansiReset, d.Message)
	} else {
		fmt.Fprintf(e.Out, "%s:%d:%d: %s: %s\n",
			d.Pos.Filename, d.Pos.Line, d.Pos.Column, d.Severity, d.Message)
	}

	if e.lines == nil {
		return
	}
	src, ok := e.lines.SourceLine(d.Pos.Line)
	if !ok {
		return
	}

	expanded, caretCol, caretWidth := e.expand(src, d.Pos.Column, d.Pos.Length)
	lineNum := fmt.Sprintf("%d", d.Pos.Line)
	pad := strings.Repeat(" ", len(lineNum))

	gutter := func(label string) string {
		if e.Color {
			return ansiBlue + label + " |" + ansiReset
		}
		return label + " |"
	}

	fmt.Fprintf(e.Out, " %s %s\n", gutter(lineNum), expanded)

	carets := "^" + strings.Repeat("~", caretWidth-1)
	if e.Color {
		carets = ansiBoldGreen + carets + ansiReset
	}
	fmt.Fprintf(e.Out, " %s %s%s\n", gutter(pad), strings.Repeat(" ", caretCol-1), carets)

	if d.Help != "" {
		fmt.Fprintf(e.Out, " %s help: %s\n", gutter(pad), d.Help)
	}
	if d.FixIt != "" {
		fmt.Fprintf(e.Out, " %s try:  %s\n", gutter(pad), d.FixIt)
	}
}

// expand converts the raw source line into its display form (tabs become
// TabWidth spaces) and translates the byte column and span length into
// display cells. Column math follows UTF-8 decoding: 1 cell per ASCII or
// 2-byte sequence, 2 cells for wide (CJK) glyphs, per go-runewidth.
func (e *Engine) expand(src string, byteCol, byteLen int) (expanded string, displayCol, displayWidth int) {
	tab := e.TabWidth
	if tab <= 0 {
		tab = 4
	}
	if byteCol < 1 {
		byteCol = 1
	}
	if byteLen < 1 {
		byteLen = 1
	}

	var sb strings.Builder
	displayCol = 1
	col := 1 // display cell under construction
	spanEnd := byteCol + byteLen

	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		var w int
		if r == '\t' {
			sb.WriteString(strings.Repeat(" ", tab))
			w = tab
		} else {
			sb.WriteRune(r)
			w = runewidth.RuneWidth(r)
			if w == 0 {
				w = 1
			}
		}
		bytePos := i + 1 // 1-indexed byte column of this rune
		if bytePos < byteCol {
			displayCol = col + w
		} else if bytePos < spanEnd {
			displayWidth += w
		}
		col += w
		i += size
	}

	if displayWidth < 1 {
		displayWidth = 1
	}
	return sb.String(), displayCol, displayWidth
}
