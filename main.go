package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pborman/getopt/v2"

	"github.com/lookbusy1344/pl0-compiler/config"
	"github.com/lookbusy1344/pl0-compiler/debugger"
	"github.com/lookbusy1344/pl0-compiler/diag"
	"github.com/lookbusy1344/pl0-compiler/loader"
	"github.com/lookbusy1344/pl0-compiler/parser"
	"github.com/lookbusy1344/pl0-compiler/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showTokens  = getopt.BoolLong("tokens", 't', "Print token table")
		showAST     = getopt.BoolLong("ast", 'a', "Print parse-tree trace")
		showSymbols = getopt.BoolLong("symbols", 's', "Print symbol table")
		showCode    = getopt.BoolLong("code", 'c', "Print instruction listing")
		showSource  = getopt.BoolLong("source", 0, "Echo source with line numbers before phases")
		showAll     = getopt.BoolLong("all", 0, "Enable --tokens --ast --symbols --code --source")
		runCode     = getopt.BoolLong("run", 0, "Execute generated code (default)")
		noRun       = getopt.BoolLong("no-run", 0, "Do not execute generated code")
		debugTrace  = getopt.BoolLong("debug", 'd', "Per-step execution trace on stderr")
		tuiMode     = getopt.BoolLong("tui", 0, "Interactive TUI debugger")
		lexerOnly   = getopt.BoolLong("lexer-only", 0, "Stop after lexing; implies --tokens --no-run")
		parseOnly   = getopt.BoolLong("parse-only", 0, "Stop after parsing; implies --ast --no-run")
		compileOnly = getopt.BoolLong("compile-only", 0, "Implies --no-run")
		noColor     = getopt.BoolLong("no-color", 0, "Disable ANSI color escapes")
		verboseMode = getopt.BoolLong("verbose", 'V', "Phase banners")
		showHelp    = getopt.BoolLong("help", 'h', "Show help information")
		showVersion = getopt.BoolLong("version", 'v', "Show version information")
		stackSize   = getopt.IntLong("stack-size", 0, 0, "Data stack capacity in slots")
		maxSteps    = getopt.IntLong("max-steps", 0, -1, "Halt after N VM steps (0 = unlimited)")
	)
	getopt.SetParameters("<input>")
	getopt.Parse()

	if *showVersion {
		fmt.Printf("pl0 %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}
	if *showHelp || getopt.NArgs() == 0 {
		printHelp()
		os.Exit(0)
	}

	// Load configuration; a broken config file is reported but not fatal
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	if *showAll {
		*showTokens = true
		*showAST = true
		*showSymbols = true
		*showCode = true
		*showSource = true
	}
	if *lexerOnly {
		*showTokens = true
	}
	if *parseOnly {
		*showAST = true
	}
	run := !*noRun && !*lexerOnly && !*parseOnly && !*compileOnly
	_ = *runCode // --run is the default; --no-run and the phase-limit flags win

	// Resolve the input to an actual source file
	path, err := parser.FindSourceFile(getopt.Arg(0), cfg.Paths.SearchDirs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engine := diag.NewEngine(os.Stderr)
	engine.Color = cfg.Display.ColorOutput && !*noColor
	engine.TabWidth = cfg.Display.TabWidth

	if *showSource {
		if err := echoSource(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Phase 1: lexing
	if *verboseMode {
		fmt.Printf("=== Lexical analysis: %s ===\n", path)
	}
	tokens, err := parser.TokenizeFile(path, engine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *verboseMode {
		fmt.Printf("Scanned %d tokens\n", len(tokens))
	}
	if *showTokens {
		printTokenTable(tokens)
	}
	if *lexerOnly {
		exitByTally(engine)
	}
	if engine.HasErrors() {
		os.Exit(1)
	}

	// Phase 2: parsing and code generation
	if *verboseMode {
		fmt.Println("=== Parsing and code generation ===")
	}
	p := parser.NewParser(tokens, engine)
	if *showAST {
		p.SetTrace(os.Stdout)
	}
	code := p.Parse()
	if *verboseMode {
		fmt.Printf("Emitted %d instructions, %d symbols\n", len(code), len(p.Symbols()))
	}
	if *showSymbols {
		printSymbolTable(p.Symbols())
	}
	if *showCode {
		vm.WriteListing(os.Stdout, code)
	}
	if engine.HasErrors() {
		os.Exit(1)
	}
	if !run {
		exitByTally(engine)
	}

	// Phase 3: execution
	machine, err := loader.LoadProgram(code, pick(*stackSize, cfg.Machine.StackSize))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}
	if *maxSteps >= 0 {
		machine.MaxSteps = uint64(*maxSteps) // #nosec G115 -- flag validated non-negative
	} else {
		machine.MaxSteps = cfg.Machine.MaxSteps
	}
	if *debugTrace {
		trace := vm.NewStepTrace(os.Stderr)
		trace.MaxEntries = cfg.Trace.MaxEntries
		machine.Trace = trace
	}

	if *tuiMode {
		dbg := debugger.NewDebugger(machine)
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *verboseMode {
		fmt.Println("=== Execution ===")
	}
	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Runtime error at %d: %v\n", errorAddress(machine), err)
		os.Exit(1)
	}
	if *verboseMode {
		fmt.Println("=== Execution complete ===")
		fmt.Printf("Steps executed: %d\n", machine.Steps)
	}
	os.Exit(0)
}

// errorAddress is the index of the instruction that failed; P has already
// advanced past it. The step-limit error fires before a fetch, so there P has
// not advanced and this is the last instruction executed.
func errorAddress(m *vm.Machine) int {
	if m.P > 0 {
		return m.P - 1
	}
	return 0
}

// pick returns the flag value when given, otherwise the config value
func pick(flag, fromConfig int) int {
	if flag > 0 {
		return flag
	}
	return fromConfig
}

// exitByTally ends the process with 1 if any error was reported, else 0
func exitByTally(engine *diag.Engine) {
	if engine.HasErrors() {
		os.Exit(1)
	}
	os.Exit(0)
}

// echoSource prints the file with 1-indexed line numbers
func echoSource(path string) error {
	content, err := os.ReadFile(path) // #nosec G304 -- user-provided source file path
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	for i, line := range lines {
		fmt.Printf("%4d | %s\n", i+1, strings.TrimSuffix(line, "\r"))
	}
	fmt.Println()
	return nil
}

// printTokenTable outputs the token stream in a readable format
func printTokenTable(tokens []parser.Token) {
	fmt.Println("Token Table")
	fmt.Println("===========")
	fmt.Println()
	fmt.Printf("%5s  %-12s %-20s %s\n", "#", "Type", "Literal", "Position")
	fmt.Println("--------------------------------------------------------")
	for i, tok := range tokens {
		fmt.Printf("%5d  %-12s %-20q %d:%d\n", i, tok.Type, tok.Literal, tok.Pos.Line, tok.Pos.Column)
	}
	fmt.Println()
	fmt.Printf("Total tokens: %d\n", len(tokens))
}

// printSymbolTable outputs every declaration made during the parse
func printSymbolTable(symbols []parser.Symbol) {
	fmt.Println("Symbol Table")
	fmt.Println("============")
	fmt.Println()
	if len(symbols) == 0 {
		fmt.Println("No symbols declared")
		return
	}
	fmt.Printf("%-20s %-10s %5s %8s  %s\n", "Name", "Kind", "Level", "Value", "Declared")
	fmt.Println("--------------------------------------------------------------")
	for _, sym := range symbols {
		fmt.Printf("%-20s %-10s %5d %8d  %d:%d\n",
			sym.Name, sym.Kind, sym.Level, sym.Value, sym.Pos.Line, sym.Pos.Column)
	}
	fmt.Println()
	fmt.Printf("Total symbols: %d\n", len(symbols))
}

func printHelp() {
	fmt.Printf(`PL/0 Compiler and Interpreter %s

Usage: pl0 <input> [options]

If <input> does not name an existing file, these are tried in order:
<input>.pl0, test/<input>, test/<input>.pl0, ../test/<input>,
../test/<input>.pl0, then the search directories from the config file.

Output Options:
  -t, --tokens       Print token table
  -a, --ast          Print parse-tree trace
  -s, --symbols      Print symbol table
  -c, --code         Print instruction listing
  --source           Echo source with line numbers before phases
  --all              Enable the five options above

Phase Options:
  --run              Execute generated code (default)
  --no-run           Stop after compiling
  --lexer-only       Stop after lexing (implies --tokens --no-run)
  --parse-only       Stop after parsing (implies --ast --no-run)
  --compile-only     Compile but do not run (implies --no-run)

Execution Options:
  -d, --debug        Per-step execution trace on stderr
  --tui              Interactive TUI debugger
  --stack-size N     Data stack capacity in slots (default: 10000)
  --max-steps N      Halt after N VM steps (default: 1000000, 0 = unlimited)

General Options:
  --no-color         Disable ANSI color escapes
  -V, --verbose      Phase banners
  -h, --help         Show this help message
  -v, --version      Show version information

Exit code is 0 on success through the chosen final phase, 1 on any
diagnostic error, file-not-found, or runtime error.

Examples:
  # Compile and run a program
  pl0 test/factorial.pl0

  # Inspect every phase without running
  pl0 --all --no-run program.pl0

  # Watch the machine execute step by step
  pl0 -d program.pl0

  # Debug interactively
  pl0 --tui program.pl0

TUI Commands (when in --tui mode):
  step, s            Execute single instruction (also F10)
  continue, c        Run to breakpoint or halt (also F5)
  break N            Set breakpoint at instruction N
  clear N            Remove breakpoint at instruction N
  input N            Queue a value for the read instruction
  reset, r           Reset the machine
  quit, q            Leave the debugger

Configuration is read from %s.
`, Version, config.GetConfigPath())
}
