package parser

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lookbusy1344/pl0-compiler/diag"
)

// BlockSize is the capacity of each buffer half
const BlockSize = 4096

// sentinelByte terminates each half; it cannot appear in legal source
const sentinelByte = 0

// Buffer delivers source bytes to the lexer through a two-half buffer with
// sentinel bytes, so the inner scanning loop needs a single comparison to
// detect both half boundaries and end of input. The scanning buffer has a
// fixed size regardless of file size. Completed source lines are cached for
// the diagnostic engine, so that cache grows with the file.
//
// Layout: [half0: BlockSize][sentinel][half1: BlockSize][sentinel]. A short
// read marks its half with an EOF flag and places the sentinel immediately
// after the last byte read.
type Buffer struct {
	data [2*BlockSize + 2]byte

	src      io.Reader
	closer   io.Closer
	filename string

	forward     int
	lexemeBegin int

	loaded [2]int  // content bytes in each half
	eof    [2]bool // half ended with a short read
	ahead  [2]bool // half holds data not yet reached by forward

	line int
	col  int

	lineBuf []byte   // bytes of the line currently being read
	lines   []string // completed lines, for diagnostics
}

// NewBufferFromFile opens path and returns a buffer that owns the handle
func NewBufferFromFile(path string) (*Buffer, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided source file path
	if err != nil {
		return nil, err
	}
	return newBuffer(f, f, filepath.Base(path)), nil
}

// NewBufferFromString returns a buffer over in-memory source text
func NewBufferFromString(src, filename string) *Buffer {
	return newBuffer(strings.NewReader(src), nil, filename)
}

// NewBufferFromReader returns a buffer over a caller-supplied stream. The
// caller retains ownership of the stream.
func NewBufferFromReader(r io.Reader, filename string) *Buffer {
	return newBuffer(r, nil, filename)
}

func newBuffer(src io.Reader, closer io.Closer, filename string) *Buffer {
	b := &Buffer{
		src:      src,
		closer:   closer,
		filename: filename,
		line:     1,
		col:      1,
	}
	b.fill(0)
	b.ahead[0] = false
	return b
}

// Close releases the underlying stream if the buffer owns one
func (b *Buffer) Close() error {
	if b.closer == nil {
		return nil
	}
	c := b.closer
	b.closer = nil
	return c.Close()
}

// Filename returns the name used in diagnostics
func (b *Buffer) Filename() string { return b.filename }

// Line returns the current 1-indexed line number
func (b *Buffer) Line() int { return b.line }

// Col returns the current 1-indexed byte column
func (b *Buffer) Col() int { return b.col }

// Pos returns the position of the byte at the scanning cursor
func (b *Buffer) Pos() diag.Position {
	return diag.Position{Filename: b.filename, Line: b.line, Column: b.col, Length: 1}
}

func halfOf(i int) int {
	if i <= BlockSize {
		return 0
	}
	return 1
}

func halfStart(h int) int {
	if h == 0 {
		return 0
	}
	return BlockSize + 1
}

// fill loads one half from the source. Mid-stream read failures are treated
// as end of input.
func (b *Buffer) fill(h int) {
	start := halfStart(h)
	n, _ := io.ReadFull(b.src, b.data[start:start+BlockSize])
	b.loaded[h] = n
	b.data[start+n] = sentinelByte
	if n < BlockSize {
		b.eof[h] = true
	}
	b.ahead[h] = true
}

// normalizeAt resolves boundary sentinels starting from index i, refilling
// the opposite half when the current one is exhausted. Returns the index of
// the next content byte, or of the genuine EOF sentinel. consume controls
// whether the switched-to half counts as reached by forward.
func (b *Buffer) normalizeAt(i int, consume bool) int {
	for {
		h := halfOf(i)
		off := i - halfStart(h)
		if b.data[i] != sentinelByte || off < b.loaded[h] {
			return i // content byte (a literal NUL is content, not a boundary)
		}
		if b.eof[h] {
			return i // genuine end of input
		}
		o := 1 - h
		if !b.ahead[o] {
			b.fill(o)
		}
		if consume {
			b.ahead[o] = false
		}
		i = halfStart(o)
	}
}

func (b *Buffer) normalize() {
	b.forward = b.normalizeAt(b.forward, true)
}

// AtEOF reports whether the cursor is at the genuine end of input
func (b *Buffer) AtEOF() bool {
	b.normalize()
	h := halfOf(b.forward)
	off := b.forward - halfStart(h)
	return b.data[b.forward] == sentinelByte && off == b.loaded[h] && b.eof[h]
}

// Current returns the byte at the cursor, or the sentinel at true EOF
func (b *Buffer) Current() byte {
	b.normalize()
	return b.data[b.forward]
}

// Peek returns the byte k positions ahead of the cursor without advancing.
// Lookahead may cross a buffer boundary; the opposite half is refilled as
// needed, which never invalidates the current lexeme.
func (b *Buffer) Peek(k int) byte {
	i := b.normalizeAt(b.forward, false)
	for k > 0 {
		h := halfOf(i)
		if b.data[i] == sentinelByte && i-halfStart(h) == b.loaded[h] && b.eof[h] {
			return sentinelByte
		}
		i = b.normalizeAt(i+1, false)
		k--
	}
	return b.data[i]
}

// Advance moves the cursor one byte, updating line/column. A newline bumps
// the line counter and archives the completed line; a carriage return is
// silently consumed; every other byte advances the column by one.
func (b *Buffer) Advance() {
	b.normalize()
	ch := b.data[b.forward]
	if ch == sentinelByte && b.AtEOF() {
		return
	}
	b.forward++
	switch ch {
	case '\n':
		b.lines = append(b.lines, string(b.lineBuf))
		b.lineBuf = b.lineBuf[:0]
		b.line++
		b.col = 1
	case '\r':
		// consumed without moving the column
	default:
		b.lineBuf = append(b.lineBuf, ch)
		b.col++
	}
}

// MarkLexeme records the cursor as the start of the current lexeme
func (b *Buffer) MarkLexeme() {
	b.normalize()
	b.lexemeBegin = b.forward
}

// Lexeme returns the text between the lexeme mark and the cursor. The span
// may cross at most one buffer wrap.
func (b *Buffer) Lexeme() string {
	lb, fw := b.lexemeBegin, b.forward
	hb, hf := halfOf(lb), halfOf(fw)
	if hb == hf && lb <= fw {
		return string(b.data[lb:fw])
	}
	end := halfStart(hb) + b.loaded[hb]
	if hb != hf {
		return string(b.data[lb:end]) + string(b.data[halfStart(hf):fw])
	}
	// wrapped through the other half and back
	o := 1 - hb
	oEnd := halfStart(o) + b.loaded[o]
	return string(b.data[lb:end]) + string(b.data[halfStart(o):oEnd]) + string(b.data[halfStart(hb):fw])
}

// SourceLine implements diag.LineSource. The line currently being scanned
// is served from the in-progress buffer.
func (b *Buffer) SourceLine(line int) (string, bool) {
	if line >= 1 && line <= len(b.lines) {
		return b.lines[line-1], true
	}
	if line == len(b.lines)+1 {
		return string(b.lineBuf), true
	}
	return "", false
}
