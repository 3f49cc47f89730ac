// Package ic is the intermediate code generator (ICG): it lowers a fully
// annotated AST into a flat three-address code (TAC) instruction list,
// allocating temporaries and labels as it goes.
package ic

import (
	"fmt"

	"github.com/nilsandersson/tacc/internal/compiler/ast"
	"github.com/nilsandersson/tacc/internal/compiler/diag"
)

// Op identifies a TAC instruction shape.
type Op int

const (
	OpAlloc Op = iota
	OpCopy          // name = operand
	OpUnary         // name = op operand
	OpBinary        // name = lhs op rhs
	OpLabel
	OpGoto
	OpIfFalse
	OpIfTrue
	OpParam
	OpCall
	OpRet
	OpPrint
	OpInput
)

// Instr is one TAC instruction. Not every field is meaningful for every
// Op; see the Op-specific comments below.
type Instr struct {
	Op       Op
	Dest     string // ALLOC/copy/unary/binary/CALL(result) destination
	Src1     string // copy source / unary operand / binary lhs
	Src2     string // binary rhs
	Operator string // unary/binary operator symbol
	Type     string // ALLOC's declared type; also the value type of an
	// assignment instruction, carried through from the AST's resolved type
	Label   string // LABEL name / GOTO-IF_FALSE-IF_TRUE target
	Cond    string // IF_FALSE/IF_TRUE condition operand
	Func    string // CALL callee name
	NArgs   int    // CALL argument count
	HasDest bool   // CALL only: whether a result temporary was allocated
	Line    int
}

// String renders an instruction in the textual shapes from the spec.
func (in Instr) String() string {
	switch in.Op {
	case OpAlloc:
		return fmt.Sprintf("ALLOC %s %s", in.Dest, in.Type)
	case OpCopy:
		return fmt.Sprintf("%s = %s", in.Dest, in.Src1)
	case OpUnary:
		return fmt.Sprintf("%s = %s %s", in.Dest, in.Operator, in.Src1)
	case OpBinary:
		return fmt.Sprintf("%s = %s %s %s", in.Dest, in.Src1, in.Operator, in.Src2)
	case OpLabel:
		return fmt.Sprintf("LABEL %s", in.Label)
	case OpGoto:
		return fmt.Sprintf("GOTO %s", in.Label)
	case OpIfFalse:
		return fmt.Sprintf("IF_FALSE %s GOTO %s", in.Cond, in.Label)
	case OpIfTrue:
		return fmt.Sprintf("IF_TRUE %s GOTO %s", in.Cond, in.Label)
	case OpParam:
		return fmt.Sprintf("PARAM %s", in.Src1)
	case OpCall:
		if in.HasDest {
			return fmt.Sprintf("%s = CALL %s %d", in.Dest, in.Func, in.NArgs)
		}
		return fmt.Sprintf("CALL %s %d", in.Func, in.NArgs)
	case OpRet:
		if in.Src1 != "" {
			return fmt.Sprintf("RET %s", in.Src1)
		}
		return "RET"
	case OpPrint:
		return fmt.Sprintf("PRINT %s", in.Src1)
	case OpInput:
		return fmt.Sprintf("INPUT %s", in.Dest)
	default:
		return "???"
	}
}

// Listing renders a full instruction slice, one instruction per line.
func Listing(instrs []Instr) string {
	var out string
	for _, in := range instrs {
		out += in.String() + "\n"
	}
	return out
}

// Generator owns the monotonic temporary and label counters for a single
// compilation. Resetting them between compilations is the caller's
// responsibility (see the compiler package's pipeline controller, which
// constructs a fresh Generator per call to Compile).
type Generator struct {
	instrs []Instr
	tempN  int
	labelN int
	diags  *diag.Bag
}

// New creates a Generator with counters reset to zero.
func New(bag *diag.Bag) *Generator {
	return &Generator{diags: bag}
}

func (g *Generator) newTemp() string {
	t := fmt.Sprintf("t%d", g.tempN)
	g.tempN++
	return t
}

func (g *Generator) newLabel() string {
	l := fmt.Sprintf("L%d", g.labelN)
	g.labelN++
	return l
}

func (g *Generator) emit(in Instr) {
	g.instrs = append(g.instrs, in)
}

// Generate lowers prog into a flat TAC instruction list.
func (g *Generator) Generate(prog *ast.Program) []Instr {
	for _, s := range prog.Statements {
		g.stmt(s)
	}
	return g.instrs
}

func (g *Generator) stmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.VarDecl:
		g.varDecl(n)
	case *ast.Assign:
		x := g.expr(n.Expr)
		g.emit(Instr{Op: OpCopy, Dest: n.Name, Src1: x, Line: n.Line()})
	case *ast.If:
		g.ifStmt(n)
	case *ast.While:
		g.whileStmt(n)
	case *ast.For:
		g.forStmt(n)
	case *ast.FuncDecl:
		g.funcDecl(n)
	case *ast.Return:
		if n.Expr != nil {
			x := g.expr(n.Expr)
			g.emit(Instr{Op: OpRet, Src1: x, Line: n.Line()})
		} else {
			g.emit(Instr{Op: OpRet, Line: n.Line()})
		}
	case *ast.Print:
		x := g.expr(n.Expr)
		g.emit(Instr{Op: OpPrint, Src1: x, Line: n.Line()})
	case *ast.Input:
		g.emit(Instr{Op: OpInput, Dest: n.Name, Line: n.Line()})
	case *ast.Block:
		for _, st := range n.Statements {
			g.stmt(st)
		}
	case *ast.ExprStmt:
		g.expr(n.Expr)
	case nil:
	default:
		if g.diags != nil {
			g.diags.AddInternal(0, "ic: unhandled statement %T", s)
		}
	}
}

func (g *Generator) varDecl(n *ast.VarDecl) {
	g.emit(Instr{Op: OpAlloc, Dest: n.Name, Type: n.Type, Line: n.Line()})
	if n.Initializer != nil {
		x := g.expr(n.Initializer)
		g.emit(Instr{Op: OpCopy, Dest: n.Name, Src1: x, Type: n.Type, Line: n.Line()})
	}
}

// ifStmt lowers an if/elif*/else chain so that exactly one arm's body
// executes: each condition test jumps to the next arm on failure, every
// conditional arm that runs jumps to a common end label, and an else
// arm, being last, falls through into that label.
func (g *Generator) ifStmt(n *ast.If) {
	endLabel := g.newLabel()

	emitArm := func(cond ast.Expression, body *ast.Block, hasNext bool) {
		if cond != nil {
			c := g.expr(cond)
			nextLabel := g.newLabel()
			g.emit(Instr{Op: OpIfFalse, Cond: c, Label: nextLabel, Line: n.Line()})
			g.stmt(body)
			g.emit(Instr{Op: OpGoto, Label: endLabel, Line: n.Line()})
			g.emit(Instr{Op: OpLabel, Label: nextLabel, Line: n.Line()})
		} else {
			g.stmt(body)
			if hasNext {
				g.emit(Instr{Op: OpGoto, Label: endLabel, Line: n.Line()})
			}
		}
	}

	emitArm(n.Cond, n.Then, true)
	for _, e := range n.Elif {
		emitArm(e.Cond, e.Body, true)
	}
	if n.Else != nil {
		emitArm(nil, n.Else, false)
	}
	g.emit(Instr{Op: OpLabel, Label: endLabel, Line: n.Line()})
}

func (g *Generator) whileStmt(n *ast.While) {
	startLabel := g.newLabel()
	endLabel := g.newLabel()
	g.emit(Instr{Op: OpLabel, Label: startLabel, Line: n.Line()})
	c := g.expr(n.Cond)
	g.emit(Instr{Op: OpIfFalse, Cond: c, Label: endLabel, Line: n.Line()})
	g.stmt(n.Body)
	g.emit(Instr{Op: OpGoto, Label: startLabel, Line: n.Line()})
	g.emit(Instr{Op: OpLabel, Label: endLabel, Line: n.Line()})
}

// forStmt lowers `loop from v = a to b [step s] { body }`.
func (g *Generator) forStmt(n *ast.For) {
	g.emit(Instr{Op: OpAlloc, Dest: n.Var, Type: "int", Line: n.Line()})
	start := g.expr(n.Start)
	g.emit(Instr{Op: OpCopy, Dest: n.Var, Src1: start, Type: "int", Line: n.Line()})

	startLabel := g.newLabel()
	endLabel := g.newLabel()
	g.emit(Instr{Op: OpLabel, Label: startLabel, Line: n.Line()})

	end := g.expr(n.End)
	cond := g.newTemp()
	g.emit(Instr{Op: OpBinary, Dest: cond, Src1: n.Var, Operator: "<=", Src2: end, Type: "int", Line: n.Line()})
	g.emit(Instr{Op: OpIfFalse, Cond: cond, Label: endLabel, Line: n.Line()})

	g.stmt(n.Body)

	var stepOperand string
	if n.Step != nil {
		stepOperand = g.expr(n.Step)
	} else {
		stepOperand = "1"
	}
	next := g.newTemp()
	g.emit(Instr{Op: OpBinary, Dest: next, Src1: n.Var, Operator: "+", Src2: stepOperand, Type: "int", Line: n.Line()})
	g.emit(Instr{Op: OpCopy, Dest: n.Var, Src1: next, Type: "int", Line: n.Line()})
	g.emit(Instr{Op: OpGoto, Label: startLabel, Line: n.Line()})
	g.emit(Instr{Op: OpLabel, Label: endLabel, Line: n.Line()})
}

// funcDecl lowers a function body out-of-line: control never falls
// through into a function from the statement preceding its declaration,
// so a GOTO skips the body and execution resumes after it. The function
// remains reachable from anywhere via CALL, which targets the LABEL by
// name rather than by position.
func (g *Generator) funcDecl(n *ast.FuncDecl) {
	skip := g.newLabel()
	g.emit(Instr{Op: OpGoto, Label: skip, Line: n.Line()})
	g.emit(Instr{Op: OpLabel, Label: n.Name, Line: n.Line()})
	for _, p := range n.Params {
		g.emit(Instr{Op: OpAlloc, Dest: p.Name, Type: p.Type, Line: n.Line()})
	}
	g.stmt(n.Body)
	g.emit(Instr{Op: OpLabel, Label: skip, Line: n.Line()})
}

// expr lowers e and returns the operand (literal text, variable name, or
// fresh temporary) naming its value.
func (g *Generator) expr(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.IntLit:
		return fmt.Sprintf("%d", n.Value)
	case *ast.FloatLit:
		return fmt.Sprintf("%g", n.Value)
	case *ast.CharLit:
		return fmt.Sprintf("'%c'", n.Value)
	case *ast.VarRef:
		return n.Name
	case *ast.Binary:
		return g.binary(n)
	case *ast.Unary:
		return g.unary(n)
	case *ast.Call:
		return g.call(n)
	default:
		if g.diags != nil {
			g.diags.AddInternal(0, "ic: unhandled expression %T", e)
		}
		return "0"
	}
}

// binary lowers short-circuit logical operators via control flow (per
// the spec's short-circuit-lowering design note) and everything else as
// a plain arithmetic/relational instruction.
func (g *Generator) binary(n *ast.Binary) string {
	if n.Op == "&&" || n.Op == "||" {
		return g.shortCircuit(n)
	}
	x := g.expr(n.LHS)
	y := g.expr(n.RHS)
	t := g.newTemp()
	g.emit(Instr{Op: OpBinary, Dest: t, Src1: x, Operator: n.Op, Src2: y, Type: n.ResolvedType(), Line: n.Line()})
	return t
}

// shortCircuit lowers `a && b` / `a || b` without evaluating b unless a
// alone cannot determine the result, by branching into the result
// temporary instead of always computing both sides.
func (g *Generator) shortCircuit(n *ast.Binary) string {
	result := g.newTemp()
	shortLabel := g.newLabel()
	endLabel := g.newLabel()

	x := g.expr(n.LHS)
	if n.Op == "&&" {
		g.emit(Instr{Op: OpIfFalse, Cond: x, Label: shortLabel, Line: n.Line()})
	} else {
		g.emit(Instr{Op: OpIfTrue, Cond: x, Label: shortLabel, Line: n.Line()})
	}

	y := g.expr(n.RHS)
	g.emit(Instr{Op: OpCopy, Dest: result, Src1: y, Type: "int", Line: n.Line()})
	g.emit(Instr{Op: OpGoto, Label: endLabel, Line: n.Line()})

	g.emit(Instr{Op: OpLabel, Label: shortLabel, Line: n.Line()})
	shortValue := "0"
	if n.Op == "||" {
		shortValue = "1"
	}
	g.emit(Instr{Op: OpCopy, Dest: result, Src1: shortValue, Type: "int", Line: n.Line()})

	g.emit(Instr{Op: OpLabel, Label: endLabel, Line: n.Line()})
	return result
}

func (g *Generator) unary(n *ast.Unary) string {
	x := g.expr(n.Operand)
	t := g.newTemp()
	g.emit(Instr{Op: OpUnary, Dest: t, Operator: n.Op, Src1: x, Type: n.ResolvedType(), Line: n.Line()})
	return t
}

func (g *Generator) call(n *ast.Call) string {
	for _, arg := range n.Args {
		operand := g.expr(arg)
		g.emit(Instr{Op: OpParam, Src1: operand, Line: n.Line()})
	}

	hasResult := n.ResolvedType() != "" && n.ResolvedType() != "void"
	in := Instr{Op: OpCall, Func: n.Callee, NArgs: len(n.Args), Line: n.Line()}
	if hasResult {
		t := g.newTemp()
		in.Dest = t
		in.HasDest = true
		g.emit(in)
		return t
	}
	g.emit(in)
	return ""
}
