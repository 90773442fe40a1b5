// Command arnmc is the ARNm compiler driver (spec §6, external
// collaborator): argument parsing and file I/O around the compiler
// pipeline in internal/. Grounded in the teacher's main
// (std/compiler/main.go), which hand-rolls os.Args parsing;
// generalized to cobra+pflag (the CLI stack other corpus repos reach
// for, e.g. gorse-io/goat's root command) for flag parsing, help text,
// and exit-code handling, and to zerolog for its own diagnostics.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arnm-lang/arnm/internal/ast"
	"github.com/arnm-lang/arnm/internal/codegen/x64"
	"github.com/arnm-lang/arnm/internal/diag"
	"github.com/arnm-lang/arnm/internal/irgen"
	"github.com/arnm-lang/arnm/internal/lexer"
	"github.com/arnm-lang/arnm/internal/parser"
	"github.com/arnm-lang/arnm/internal/sema"
	"github.com/arnm-lang/arnm/internal/token"
)

var (
	flagDumpTokens bool
	flagDumpAST    bool
	flagCheck      bool
	flagEmitIR     bool
	flagEmitAsm    bool
	flagWorkers    int
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	root := &cobra.Command{
		Use:   "arnmc <source.arnm>",
		Short: "ARNm compiler: lowers ARNm source to x86_64 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(args[0], log)
		},
		SilenceUsage: true,
	}
	root.Flags().BoolVar(&flagDumpTokens, "dump-tokens", false, "print the token stream and exit")
	root.Flags().BoolVar(&flagDumpAST, "dump-ast", false, "print the parsed AST and exit")
	root.Flags().BoolVar(&flagCheck, "check", false, "run semantic analysis only; do not emit")
	root.Flags().BoolVar(&flagEmitIR, "emit-ir", false, "print the generated IR instead of assembly")
	root.Flags().BoolVar(&flagEmitAsm, "emit-asm", false, "print assembly (the default; spelled out for scripts that branch on the flag)")
	root.Flags().IntVar(&flagWorkers, "workers", 0, "override ARNM_WORKERS (spec §6) in this process's environment, for harnesses that run the compiled program in the same shell")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("compile failed")
		os.Exit(1)
	}
}

func compile(path string, log zerolog.Logger) error {
	if flagWorkers > 0 {
		os.Setenv("ARNM_WORKERS", strconv.Itoa(flagWorkers))
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		os.Exit(1)
	}

	if flagDumpTokens {
		dumpTokens(src)
		return nil
	}

	arena := ast.NewArena()
	p := parser.New(src, arena)
	prog := p.Parse()
	if p.HadError() {
		printDiags(p.Diagnostics())
		os.Exit(1)
	}

	if flagDumpAST {
		dumpAST(prog, 0)
		return nil
	}

	an := sema.New()
	an.Check(prog)
	if an.HadError() {
		printDiags(an.Diagnostics())
		os.Exit(1)
	}
	if flagCheck {
		return nil
	}

	gen := irgen.New()
	gen.Lower(prog)
	mod := gen.Module()

	if flagEmitIR {
		fmt.Print(mod.String())
		return nil
	}

	fmt.Print(x64.New().Emit(mod))
	return nil
}

// printDiags prints diagnostics sorted by source position, one per
// line (spec §7: "<line>:<column>: <message>" to stderr).
func printDiags(diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}
}

// dumpTokens re-lexes src independently of the parser (spec §6's
// --dump-tokens stays usable against source that fails to parse) and
// prints one line per token.
func dumpTokens(src []byte) {
	l := lexer.New(src)
	for {
		t := l.Next()
		fmt.Printf("%d:%d %-12s %q\n", t.Span.Line, t.Span.Column, t.Kind, string(t.Lexeme))
		if t.Kind == token.EOF {
			break
		}
	}
}

func dumpAST(n *ast.Node, depth int) {
	if n == nil {
		return
	}
	for i := 0; i < depth; i++ {
		fmt.Print("  ")
	}
	fmt.Printf("%s %q\n", n.Kind, n.Name)
	for _, c := range []*ast.Node{n.Cond, n.Init, n.Post, n.Body, n.Else, n.X, n.Y, n.RetType, n.Pattern} {
		dumpAST(c, depth+1)
	}
	for _, c := range n.Items {
		dumpAST(c, depth+1)
	}
}
