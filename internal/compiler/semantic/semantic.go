// Package semantic walks a parsed AST, populating the symbol table,
// type-checking expressions, and annotating every expression node with
// its resolved type.
package semantic

import (
	"github.com/nilsandersson/tacc/internal/compiler/ast"
	"github.com/nilsandersson/tacc/internal/compiler/diag"
	"github.com/nilsandersson/tacc/internal/compiler/scope"
	"github.com/nilsandersson/tacc/internal/compiler/symbols"
)

// Analyzer walks the AST in source order.
type Analyzer struct {
	table   *scope.Table
	diags   *diag.Bag
	funcs   map[string]*symbols.Entry
	curFunc *symbols.Entry // nil at global scope
}

// New creates an Analyzer that will populate its own fresh symbol table.
func New(bag *diag.Bag) *Analyzer {
	return &Analyzer{
		table: scope.New(),
		diags: bag,
		funcs: make(map[string]*symbols.Entry),
	}
}

// Table exposes the populated symbol table for read-only inspection after
// Analyze returns.
func (a *Analyzer) Table() *scope.Table { return a.table }

// Analyze type-checks prog in place, annotating every expression node's
// resolved type. It returns nothing; errors are recorded in the shared
// diag.Bag, which callers consult afterwards.
func (a *Analyzer) Analyze(prog *ast.Program) {
	for _, stmt := range prog.Statements {
		a.stmt(stmt)
	}
}

func numericRank(t string) int {
	switch t {
	case "char":
		return 0
	case "int":
		return 1
	case "float":
		return 2
	}
	return -1
}

func isNumeric(t string) bool { return numericRank(t) >= 0 }
func isIntegral(t string) bool { return t == "int" || t == "char" }

// assignable reports whether a value of type rhs may be assigned/passed
// to a slot declared lhs, per the coercion table in the spec: int<-float
// is narrowing and an error; char<-float is narrowing and an error;
// everything else among {int,float,char} is allowed.
func assignable(lhs, rhs string) bool {
	if lhs == rhs {
		return true
	}
	if !isNumeric(lhs) || !isNumeric(rhs) {
		return false
	}
	if rhs == "float" && lhs != "float" {
		return false // narrowing
	}
	return true
}

func (a *Analyzer) stmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.VarDecl:
		a.varDecl(n)
	case *ast.Assign:
		a.assign(n)
	case *ast.If:
		a.ifStmt(n)
	case *ast.While:
		a.whileStmt(n)
	case *ast.For:
		a.forStmt(n)
	case *ast.FuncDecl:
		a.funcDecl(n)
	case *ast.Return:
		a.returnStmt(n)
	case *ast.Print:
		a.expr(n.Expr)
	case *ast.Input:
		a.inputStmt(n)
	case *ast.Block:
		a.table.EnterScope()
		for _, st := range n.Statements {
			a.stmt(st)
		}
		a.table.ExitScope()
	case *ast.ExprStmt:
		a.expr(n.Expr)
	case nil:
		// tolerate statements dropped by parser error recovery
	}
}

func (a *Analyzer) varDecl(n *ast.VarDecl) {
	initialized := false
	if n.Initializer != nil {
		rt := a.expr(n.Initializer)
		if rt != "" {
			if !assignable(n.Type, rt) {
				a.reportAssign(n.Type, rt, n.Line(), n.Name)
			}
		}
		initialized = true
	}
	entry := symbols.Entry{Name: n.Name, Kind: symbols.Variable, Type: n.Type, Initialized: initialized, Line: n.Line()}
	if !a.table.Declare(entry) {
		a.diags.AddSemantic(diag.Redeclaration, n.Line(), n.Name, "%q is already declared in this scope", n.Name)
	}
}

func (a *Analyzer) reportAssign(lhsType, rhsType string, line int, name string) {
	if rhsType == "float" && lhsType != "float" {
		a.diags.AddSemantic(diag.Narrowing, line, name, "cannot assign float to %s %q without narrowing", lhsType, name)
		return
	}
	a.diags.AddSemantic(diag.TypeMismatch, line, name, "cannot assign %s to %s %q", rhsType, lhsType, name)
}

func (a *Analyzer) assign(n *ast.Assign) {
	rt := a.expr(n.Expr)
	entry, ok := a.table.Lookup(n.Name)
	if !ok {
		a.diags.AddSemantic(diag.Undeclared, n.Line(), n.Name, "assignment to undeclared variable %q", n.Name)
		return
	}
	if entry.Kind != symbols.Variable {
		a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Name, "%q is not a variable", n.Name)
		return
	}
	if rt != "" && !assignable(entry.Type, rt) {
		a.reportAssign(entry.Type, rt, n.Line(), n.Name)
	}
	a.table.MarkInitialized(n.Name)
}

func (a *Analyzer) requireIntegralCond(e ast.Expression, line int) {
	rt := a.expr(e)
	if rt != "" && !isIntegral(rt) {
		a.diags.AddSemantic(diag.NonIntegralCondition, line, "", "condition must be int or char, got %s", rt)
	}
}

func (a *Analyzer) ifStmt(n *ast.If) {
	a.requireIntegralCond(n.Cond, n.Line())
	a.stmt(n.Then)
	for _, e := range n.Elif {
		a.requireIntegralCond(e.Cond, n.Line())
		a.stmt(e.Body)
	}
	if n.Else != nil {
		a.stmt(n.Else)
	}
}

func (a *Analyzer) whileStmt(n *ast.While) {
	a.requireIntegralCond(n.Cond, n.Line())
	a.stmt(n.Body)
}

func (a *Analyzer) forStmt(n *ast.For) {
	startT := a.expr(n.Start)
	endT := a.expr(n.End)
	if startT != "" && !isIntegral(startT) {
		a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Var, "loop start bound must be integral, got %s", startT)
	}
	if endT != "" && !isIntegral(endT) {
		a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Var, "loop end bound must be integral, got %s", endT)
	}
	if n.Step != nil {
		stepT := a.expr(n.Step)
		if stepT != "" && !isIntegral(stepT) {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Var, "loop step must be integral, got %s", stepT)
		}
	}

	a.table.EnterScope()
	a.table.Declare(symbols.Entry{Name: n.Var, Kind: symbols.Variable, Type: "int", Initialized: true, Line: n.Line()})
	for _, st := range n.Body.Statements {
		a.stmt(st)
	}
	a.table.ExitScope()
}

func (a *Analyzer) funcDecl(n *ast.FuncDecl) {
	if !a.table.AtGlobalScope() || a.curFunc != nil {
		a.diags.AddSemantic(diag.NestedFuncDecl, n.Line(), n.Name, "nested function declarations are not allowed")
		return
	}

	paramTypes := make([]string, len(n.Params))
	paramNames := make([]string, len(n.Params))
	for i, p := range n.Params {
		paramTypes[i] = p.Type
		paramNames[i] = p.Name
	}
	entry := symbols.Entry{
		Name: n.Name, Kind: symbols.Function, ReturnType: n.ReturnType,
		ParamTypes: paramTypes, ParamNames: paramNames, Line: n.Line(),
	}
	if !a.table.DeclareGlobal(entry) {
		a.diags.AddSemantic(diag.Redeclaration, n.Line(), n.Name, "%q is already declared", n.Name)
		return
	}
	fn := entry
	a.funcs[n.Name] = &fn

	a.table.EnterScope()
	prevFunc := a.curFunc
	a.curFunc = &fn
	for _, p := range n.Params {
		if !a.table.Declare(symbols.Entry{Name: p.Name, Kind: symbols.Variable, Type: p.Type, Initialized: true, Line: n.Line()}) {
			// Two parameters share a name. (A body-level declaration
			// re-using a parameter name is reported as REDECLARATION by
			// varDecl, since the body is analyzed in this same scope.)
			a.diags.AddSemantic(diag.Redeclaration, n.Line(), p.Name, "parameter %q already declared", p.Name)
		}
	}
	for _, st := range n.Body.Statements {
		a.stmt(st)
	}
	if n.ReturnType != "" && !bodyAlwaysReturns(n.Body) {
		a.diags.AddSemantic(diag.MissingReturn, n.Line(), n.Name, "function %q may fall off the end without returning a value", n.Name)
	}
	a.curFunc = prevFunc
	a.table.ExitScope()
}

// bodyAlwaysReturns conservatively determines whether every control path
// through a block ends in a Return statement, so falling off the end of
// a non-void function is caught as a semantic error (Open Question #2).
func bodyAlwaysReturns(b *ast.Block) bool {
	if len(b.Statements) == 0 {
		return false
	}
	last := b.Statements[len(b.Statements)-1]
	switch n := last.(type) {
	case *ast.Return:
		return true
	case *ast.Block:
		return bodyAlwaysReturns(n)
	case *ast.If:
		if n.Else == nil {
			return false
		}
		if !bodyAlwaysReturns(n.Then) || !bodyAlwaysReturns(n.Else) {
			return false
		}
		for _, e := range n.Elif {
			if !bodyAlwaysReturns(e.Body) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (a *Analyzer) returnStmt(n *ast.Return) {
	if a.curFunc == nil {
		a.diags.AddSemantic(diag.ReturnOutsideFunc, n.Line(), "", "return statement outside of a function")
		return
	}
	if n.Expr == nil {
		if a.curFunc.ReturnType != "" {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), a.curFunc.Name, "function %q must return a %s value", a.curFunc.Name, a.curFunc.ReturnType)
		}
		return
	}
	rt := a.expr(n.Expr)
	if rt != "" && !assignable(a.curFunc.ReturnType, rt) {
		a.reportAssign(a.curFunc.ReturnType, rt, n.Line(), a.curFunc.Name)
	}
}

func (a *Analyzer) inputStmt(n *ast.Input) {
	entry, ok := a.table.Lookup(n.Name)
	if !ok {
		a.diags.AddSemantic(diag.Undeclared, n.Line(), n.Name, "input to undeclared variable %q", n.Name)
		return
	}
	if entry.Kind != symbols.Variable {
		a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Name, "%q is not a variable", n.Name)
		return
	}
	a.table.MarkInitialized(n.Name)
}

// expr type-checks e, annotates its resolved type, and returns that type
// ("" if it could not be determined due to an earlier error).
func (a *Analyzer) expr(e ast.Expression) string {
	switch n := e.(type) {
	case *ast.IntLit:
		n.SetResolvedType("int")
		return "int"
	case *ast.FloatLit:
		n.SetResolvedType("float")
		return "float"
	case *ast.CharLit:
		n.SetResolvedType("char")
		return "char"
	case *ast.VarRef:
		return a.varRef(n)
	case *ast.Binary:
		return a.binary(n)
	case *ast.Unary:
		return a.unary(n)
	case *ast.Call:
		return a.call(n)
	default:
		return ""
	}
}

func (a *Analyzer) varRef(n *ast.VarRef) string {
	entry, ok := a.table.Lookup(n.Name)
	if !ok {
		a.diags.AddSemantic(diag.Undeclared, n.Line(), n.Name, "undeclared identifier %q", n.Name)
		n.SetResolvedType("int") // best-effort so later expr type checks can proceed
		return ""
	}
	if entry.Kind != symbols.Variable {
		a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Name, "%q is a function, not a value", n.Name)
		return ""
	}
	if !entry.Initialized {
		a.diags.AddSemantic(diag.UseBeforeInit, n.Line(), n.Name, "use of %q before it is initialized", n.Name)
	}
	n.SetResolvedType(entry.Type)
	return entry.Type
}

var logicalOps = map[string]bool{"&&": true, "||": true}
var relationalOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

func (a *Analyzer) binary(n *ast.Binary) string {
	lt := a.expr(n.LHS)
	rt := a.expr(n.RHS)
	if lt == "" || rt == "" {
		n.SetResolvedType("int")
		return ""
	}

	switch {
	case logicalOps[n.Op]:
		if !isIntegral(lt) || !isIntegral(rt) {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Op, "operands of %q must be integral", n.Op)
		}
		n.SetResolvedType("int")
		return "int"
	case relationalOps[n.Op]:
		if !isNumeric(lt) || !isNumeric(rt) {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Op, "operands of %q must be numeric", n.Op)
		}
		n.SetResolvedType("int")
		return "int"
	case n.Op == "%":
		if !isIntegral(lt) || !isIntegral(rt) {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Op, "%% requires integral operands, got %s and %s", lt, rt)
		}
		n.SetResolvedType("int")
		return "int"
	default: // + - * /
		if !isNumeric(lt) || !isNumeric(rt) {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Op, "operands of %q must be numeric, got %s and %s", n.Op, lt, rt)
			n.SetResolvedType("int")
			return "int"
		}
		result := "int"
		if lt == "float" || rt == "float" {
			result = "float"
		}
		n.SetResolvedType(result)
		return result
	}
}

func (a *Analyzer) unary(n *ast.Unary) string {
	ot := a.expr(n.Operand)
	if ot == "" {
		n.SetResolvedType("int")
		return ""
	}
	if n.Op == "!" {
		if !isIntegral(ot) {
			a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Op, "operand of ! must be integral")
		}
		n.SetResolvedType("int")
		return "int"
	}
	// unary '-' preserves numeric type
	if !isNumeric(ot) {
		a.diags.AddSemantic(diag.TypeMismatch, n.Line(), n.Op, "operand of unary - must be numeric")
		n.SetResolvedType("int")
		return "int"
	}
	result := ot
	if result == "char" {
		result = "int"
	}
	n.SetResolvedType(result)
	return result
}

func (a *Analyzer) call(n *ast.Call) string {
	for _, arg := range n.Args {
		a.expr(arg)
	}
	fn, ok := a.funcs[n.Callee]
	if !ok {
		a.diags.AddSemantic(diag.Undeclared, n.Line(), n.Callee, "call to undeclared function %q (functions must be declared before use)", n.Callee)
		n.SetResolvedType("int")
		return ""
	}
	if len(n.Args) != len(fn.ParamTypes) {
		a.diags.AddSemantic(diag.Arity, n.Line(), n.Callee, "%q expects %d argument(s), got %d", n.Callee, len(fn.ParamTypes), len(n.Args))
	} else {
		for i, arg := range n.Args {
			at := arg.ResolvedType()
			if at != "" && !assignable(fn.ParamTypes[i], at) {
				a.reportAssign(fn.ParamTypes[i], at, n.Line(), n.Callee)
			}
		}
	}
	n.SetResolvedType(fn.ReturnType)
	return fn.ReturnType
}
