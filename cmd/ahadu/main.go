// Command ahadu runs the ahadu bytecode interpreter, either as a REPL
// or against a source file.
//
// Grounded on jcorbin-gothird/main.go's shape (stdlib flag parsing, a
// diagnostics object that accumulates an exit code, deferred
// os.Exit(log.ExitCode()) at the very top of main) rather than
// kristofer-smog/cmd/smog's subcommand dispatch (version/help/repl/run/
// compile): ahadu only needs the original's two modes, "repl" and "load
// a file", with no subcommand vocabulary to reproduce.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/kristofer/ahadu/internal/diag"
	"github.com/kristofer/ahadu/internal/heap"
	"github.com/kristofer/ahadu/internal/interp"
)

func main() {
	var (
		traceExecution bool
		printCode      bool
		gcStress       bool
		gcLog          bool
	)
	flag.BoolVar(&traceExecution, "trace", false, "trace each instruction as it executes")
	flag.BoolVar(&printCode, "print-code", false, "disassemble compiled chunks before running")
	flag.BoolVar(&gcStress, "gc-stress", false, "collect before every allocation")
	flag.BoolVar(&gcLog, "gc-log", false, "log a summary of every collection")
	flag.Parse()

	reporter := diag.New(os.Stdout, os.Stderr)
	defer func() { os.Exit(reporter.ExitCode()) }()

	opts := interp.Options{
		Heap: heap.Options{
			Stress:         gcStress,
			LogCollections: gcLog,
		},
	}
	opts.Compiler.PrintCode = printCode
	opts.VM.TraceExecution = traceExecution

	switch flag.NArg() {
	case 0:
		runREPL(reporter, opts)
	case 1:
		runFile(reporter, opts, flag.Arg(0))
	default:
		fmt.Fprintln(os.Stderr, "Usage: ahadu [path]")
		reporter.SetExitCode(diag.ExitUsage)
	}
}

// runFile loads and runs one script: a compile error exits 65, a
// runtime error exits 60, an unreadable file exits 74.
func runFile(reporter *diag.Reporter, opts interp.Options, path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open file %q.\n", path)
		reporter.SetExitCode(diag.ExitIOError)
		return
	}

	it := interp.New(reporter, opts)
	it.Run(string(source))
}

// runREPL reads one line at a time and interprets each independently,
// matching the original's fixed-buffer, one-line-per-interpret
// behavior, lifted onto an unbounded bufio.Reader.
func runREPL(reporter *diag.Reporter, opts interp.Options) {
	it := interp.New(reporter, opts)
	in := bufio.NewReader(os.Stdin)

	for {
		fmt.Fprint(os.Stdout, "> ")
		line, err := in.ReadString('\n')
		if line != "" {
			it.Run(line)
		}
		if err != nil {
			if err != io.EOF {
				fmt.Fprintln(os.Stderr, err)
				reporter.SetExitCode(diag.ExitIOError)
			}
			fmt.Fprintln(os.Stdout)
			return
		}
	}
}
