// Completion: 100% - CLI driver: flag parsing, source acquisition, stage reporting
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	minic "github.com/xyproto/minic"
	"github.com/xyproto/minic/internal/config"
	"github.com/xyproto/minic/internal/watch"
)

const versionString = "minic 1.0.0"

func main() {
	cfg := config.Load()

	var codeFlag = flag.String("c", "", "execute source from the command line instead of a file")
	var codeFlagLong = flag.String("code", "", "execute source from the command line instead of a file")
	var verbose = flag.Bool("v", false, "verbose mode (report each pipeline stage as it completes)")
	var verboseLong = flag.Bool("verbose", false, "verbose mode (report each pipeline stage as it completes)")
	var noOptimize = flag.Bool("no-optimize", !cfg.OptimizerEnabled, "skip TAC optimization")
	var dumpTAC = flag.String("dump-tac", "", "write raw TAC to this file")
	var dumpOptimizedTAC = flag.String("dump-optimized-tac", "", "write optimized TAC to this file")
	var colorFlag = flag.Bool("color", cfg.ColorEnabled, "colorize diagnostic output")
	var watchMode = flag.Bool("watch", false, "recompile and rerun on every file change")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *versionShort || *version {
		fmt.Println(versionString)
		return
	}

	*verbose = *verbose || *verboseLong
	code := *codeFlag
	if code == "" {
		code = *codeFlagLong
	}

	var sourcePath string
	var source string

	switch {
	case code != "":
		source = code
	case len(flag.Args()) > 0:
		sourcePath = flag.Args()[0]
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "minic: %v\n", err)
			os.Exit(1)
		}
		source = string(data)
	default:
		fmt.Fprintln(os.Stderr, "usage: minic [flags] <source-file>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	run := func(src string) {
		runOnce(src, *verbose, *noOptimize, *dumpTAC, *dumpOptimizedTAC, *colorFlag)
	}

	run(source)

	if *watchMode {
		if sourcePath == "" {
			fmt.Fprintln(os.Stderr, "minic: -watch requires a source file, not -c")
			os.Exit(1)
		}
		w, err := watch.New(func(path string) {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "minic: %v\n", err)
				return
			}
			fmt.Fprintln(os.Stderr, strings.Repeat("-", 40))
			run(string(data))
		}, cfg.WatchDebounceMillis)
		if err != nil {
			fmt.Fprintf(os.Stderr, "minic: %v\n", err)
			os.Exit(1)
		}
		defer w.Close()
		if err := w.AddFile(sourcePath); err != nil {
			fmt.Fprintf(os.Stderr, "minic: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "watching %s for changes...\n", sourcePath)
		w.Watch()
	}
}

func runOnce(source string, verbose, noOptimize bool, dumpTAC, dumpOptimizedTAC string, useColor bool) {
	if dumpTAC == "" && dumpOptimizedTAC == "" && !noOptimize && !verbose {
		out := minic.Run(source)
		if useColor {
			out = colorize(out)
		}
		fmt.Println(out)
		return
	}

	// A dump, -no-optimize or verbose mode was requested, so the stages are
	// driven here instead of via the single-call Run entry point.
	lexer := minic.NewLexer(source)
	tokens := lexer.Tokenize()
	for _, t := range tokens {
		if t.Kind == minic.TokError {
			// Re-run through Run() rather than rendering here: it collects
			// every lexical diagnostic in the source, not just this one.
			fmt.Println(minic.Run(source))
			return
		}
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "lexing complete")
	}

	parser := minic.NewParser(tokens)
	prog, perr := parser.ParseProgram()
	if perr != nil {
		fmt.Println(minic.Run(source))
		return
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "parsing complete")
	}

	scopeAnalyzer := minic.NewScopeAnalyzer(source)
	global, scopeErrs := scopeAnalyzer.Analyze(prog)
	if scopeErrs.HasErrors() {
		fmt.Println(scopeErrs.Render())
		return
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "scope analysis complete")
	}

	checker := minic.NewTypeChecker(source, global)
	typeErrs := checker.Check(prog)
	if typeErrs.HasErrors() {
		fmt.Println(typeErrs.Render())
		return
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "type checking complete")
	}

	gen := minic.NewTACGenerator()
	raw := gen.Generate(prog)
	if dumpTAC != "" {
		if err := os.WriteFile(dumpTAC, []byte(joinInstructions(raw)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "minic: %v\n", err)
		}
	}

	instrs := raw
	if !noOptimize {
		instrs = minic.Optimize(raw)
	}
	if dumpOptimizedTAC != "" {
		if err := os.WriteFile(dumpOptimizedTAC, []byte(joinInstructions(instrs)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "minic: %v\n", err)
		}
	}
	if verbose {
		fmt.Fprintln(os.Stderr, "TAC generation and optimization complete")
	}

	engine := minic.NewExecutionEngine(instrs)
	output, rerr := engine.Execute()
	if rerr != nil {
		fmt.Println(rerr.Error())
		return
	}
	if useColor {
		output = colorize(output)
	}
	fmt.Println(output)
}

func joinInstructions(instrs []minic.Instruction) string {
	parts := make([]string, len(instrs))
	for i, ins := range instrs {
		parts[i] = ins.String()
	}
	return strings.Join(parts, "\n") + "\n"
}

var errorColor = color.New(color.Bold, color.FgHiRed).SprintFunc()

// colorize wraps the whole text in bold red when it contains "error:" (a
// rendered diagnostic) and returns any other text unchanged. The core never
// emits escapes itself.
func colorize(s string) string {
	if !strings.Contains(s, "error:") {
		return s
	}
	return errorColor(s)
}
