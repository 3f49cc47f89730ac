// Package compiler threads source text through the full pipeline —
// lexer, parser, semantic analyzer, ICG, optimizer, codegen — stopping
// early whenever the shared diagnostics bag reports an error at a phase
// boundary, per spec.md §2 and §7.
package compiler

import (
	"github.com/nilsandersson/tacc/internal/compiler/ast"
	"github.com/nilsandersson/tacc/internal/compiler/codegen"
	"github.com/nilsandersson/tacc/internal/compiler/diag"
	"github.com/nilsandersson/tacc/internal/compiler/ic"
	"github.com/nilsandersson/tacc/internal/compiler/lexer"
	"github.com/nilsandersson/tacc/internal/compiler/optimizer"
	"github.com/nilsandersson/tacc/internal/compiler/parser"
	"github.com/nilsandersson/tacc/internal/compiler/scope"
	"github.com/nilsandersson/tacc/internal/compiler/semantic"
	"github.com/nilsandersson/tacc/internal/compiler/token"
)

// Artifacts holds every intermediate and final product of a compilation,
// per spec.md §6's entry-point contract. Fields past the phase that
// failed are left at their zero value.
type Artifacts struct {
	Tokens       []token.Token
	Program      *ast.Program
	SymbolTable  *scope.Table
	TAC          []ic.Instr
	OptimizedTAC []ic.Instr
	Assembly     string
	Diagnostics  []diag.Diagnostic
}

// Compile runs the pipeline over source and reports whether it completed
// without a LEXICAL, SYNTAX, or SEMANTIC error. verbose is reserved for
// callers that want to inspect intermediate artifacts regardless of
// success; Compile always populates every artifact it reaches.
func Compile(source string, verbose bool) (success bool, artifacts Artifacts) {
	bag := diag.NewBag()

	toks := lexer.Lex(source, bag)
	artifacts.Tokens = toks
	if bag.HasErrors() {
		artifacts.Diagnostics = bag.All()
		return false, artifacts
	}

	p := parser.New(toks, bag)
	prog := p.ParseProgram()
	artifacts.Program = prog
	if bag.HasErrors() {
		artifacts.Diagnostics = bag.All()
		return false, artifacts
	}

	an := semantic.New(bag)
	an.Analyze(prog)
	artifacts.SymbolTable = an.Table()
	if bag.HasErrors() {
		artifacts.Diagnostics = bag.All()
		return false, artifacts
	}

	gen := ic.New(bag)
	tac := gen.Generate(prog)
	artifacts.TAC = tac
	if bag.HasErrors() {
		artifacts.Diagnostics = bag.All()
		return false, artifacts
	}

	optimized := optimizer.Optimize(tac)
	artifacts.OptimizedTAC = optimized

	artifacts.Assembly = codegen.Generate(optimized)
	artifacts.Diagnostics = bag.All()

	return !bag.HasErrors(), artifacts
}
