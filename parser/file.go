package parser

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lookbusy1344/pl0-compiler/diag"
)

// SourceExt is the conventional PL/0 file extension
const SourceExt = ".pl0"

// FindSourceFile resolves a user-supplied input name to an existing file.
// Tried in order: the literal path, <input>.pl0, test/<input>,
// test/<input>.pl0, ../test/<input>, ../test/<input>.pl0, then each extra
// search directory with and without the extension.
func FindSourceFile(input string, extraDirs []string) (string, error) {
	candidates := []string{
		input,
		input + SourceExt,
		filepath.Join("test", input),
		filepath.Join("test", input+SourceExt),
		filepath.Join("..", "test", input),
		filepath.Join("..", "test", input+SourceExt),
	}
	for _, dir := range extraDirs {
		candidates = append(candidates,
			filepath.Join(dir, input),
			filepath.Join(dir, input+SourceExt))
	}

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("file not found: %s", input)
}

// TokenizeFile opens path, lexes it completely and returns the tokens. The
// buffer is registered as the engine's line source so later diagnostics can
// show context, and stays open only for the duration of the scan.
func TokenizeFile(path string, engine *diag.Engine) ([]Token, error) {
	buf, err := NewBufferFromFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = buf.Close() }()

	engine.SetLineSource(buf)
	lex := NewLexer(buf, engine)
	return lex.TokenizeAll(), nil
}
