// Package ast is the passive tree data model shared by the parser,
// semantic analyzer, and intermediate code generator.
package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nilsandersson/tacc/internal/compiler/token"
)

// Node is the common interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Line() int
}

// Statement is implemented by statement-level nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by expression-level nodes. ResolvedType is
// filled in by the semantic analyzer and is empty until then.
type Expression interface {
	Node
	expressionNode()
	ResolvedType() string
	SetResolvedType(string)
}

// exprBase gives every expression node its token, line, and resolved
// type bookkeeping without repeating it per node.
type exprBase struct {
	Tok  token.Token
	Type string // filled in by the semantic analyzer
}

func (e *exprBase) expressionNode()          {}
func (e *exprBase) TokenLiteral() string     { return e.Tok.Lexeme }
func (e *exprBase) Line() int                { return e.Tok.Line }
func (e *exprBase) ResolvedType() string     { return e.Type }
func (e *exprBase) SetResolvedType(t string) { e.Type = t }

// Program is the root node: an ordered list of top-level declarations
// and statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) Line() int { return 0 }
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// --- Statements ---

type VarDecl struct {
	Tok         token.Token // the type keyword token
	Type        string      // "int" | "float" | "char"
	Name        string
	Initializer Expression // nil if absent
}

func (n *VarDecl) statementNode()      {}
func (n *VarDecl) TokenLiteral() string { return n.Tok.Lexeme }
func (n *VarDecl) Line() int            { return n.Tok.Line }
func (n *VarDecl) String() string {
	if n.Initializer != nil {
		return fmt.Sprintf("%s %s = %s;", n.Type, n.Name, n.Initializer.String())
	}
	return fmt.Sprintf("%s %s;", n.Type, n.Name)
}

type Assign struct {
	Tok  token.Token // the identifier token
	Name string
	Expr Expression
}

func (n *Assign) statementNode()      {}
func (n *Assign) TokenLiteral() string { return n.Tok.Lexeme }
func (n *Assign) Line() int            { return n.Tok.Line }
func (n *Assign) String() string {
	return fmt.Sprintf("%s = %s;", n.Name, n.Expr.String())
}

type ElifClause struct {
	Cond Expression
	Body *Block
}

type If struct {
	Tok  token.Token
	Cond Expression
	Then *Block
	Elif []ElifClause
	Else *Block // nil if absent
}

func (n *If) statementNode()      {}
func (n *If) TokenLiteral() string { return n.Tok.Lexeme }
func (n *If) Line() int            { return n.Tok.Line }
func (n *If) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(n.Cond.String())
	out.WriteString(") ")
	out.WriteString(n.Then.String())
	for _, e := range n.Elif {
		out.WriteString(" elif (")
		out.WriteString(e.Cond.String())
		out.WriteString(") ")
		out.WriteString(e.Body.String())
	}
	if n.Else != nil {
		out.WriteString(" else ")
		out.WriteString(n.Else.String())
	}
	return out.String()
}

type While struct {
	Tok  token.Token
	Cond Expression
	Body *Block
}

func (n *While) statementNode()      {}
func (n *While) TokenLiteral() string { return n.Tok.Lexeme }
func (n *While) Line() int            { return n.Tok.Line }
func (n *While) String() string {
	return fmt.Sprintf("while (%s) %s", n.Cond.String(), n.Body.String())
}

type For struct {
	Tok   token.Token
	Var   string
	Start Expression
	End   Expression
	Step  Expression // nil if absent
	Body  *Block
}

func (n *For) statementNode()      {}
func (n *For) TokenLiteral() string { return n.Tok.Lexeme }
func (n *For) Line() int            { return n.Tok.Line }
func (n *For) String() string {
	var out bytes.Buffer
	out.WriteString(fmt.Sprintf("loop from %s = %s to %s", n.Var, n.Start.String(), n.End.String()))
	if n.Step != nil {
		out.WriteString(" step " + n.Step.String())
	}
	out.WriteString(" " + n.Body.String())
	return out.String()
}

type Param struct {
	Type string
	Name string
}

type FuncDecl struct {
	Tok        token.Token
	ReturnType string
	Name       string
	Params     []Param
	Body       *Block
}

func (n *FuncDecl) statementNode()      {}
func (n *FuncDecl) TokenLiteral() string { return n.Tok.Lexeme }
func (n *FuncDecl) Line() int            { return n.Tok.Line }
func (n *FuncDecl) String() string {
	parts := make([]string, len(n.Params))
	for i, p := range n.Params {
		parts[i] = p.Type + " " + p.Name
	}
	return fmt.Sprintf("func %s %s(%s) %s", n.ReturnType, n.Name, strings.Join(parts, ", "), n.Body.String())
}

type Return struct {
	Tok  token.Token
	Expr Expression // nil for bare `return;`
}

func (n *Return) statementNode()      {}
func (n *Return) TokenLiteral() string { return n.Tok.Lexeme }
func (n *Return) Line() int            { return n.Tok.Line }
func (n *Return) String() string {
	if n.Expr != nil {
		return fmt.Sprintf("return %s;", n.Expr.String())
	}
	return "return;"
}

type Print struct {
	Tok  token.Token
	Expr Expression
}

func (n *Print) statementNode()      {}
func (n *Print) TokenLiteral() string { return n.Tok.Lexeme }
func (n *Print) Line() int            { return n.Tok.Line }
func (n *Print) String() string       { return fmt.Sprintf("print %s;", n.Expr.String()) }

type Input struct {
	Tok  token.Token
	Name string
}

func (n *Input) statementNode()      {}
func (n *Input) TokenLiteral() string { return n.Tok.Lexeme }
func (n *Input) Line() int            { return n.Tok.Line }
func (n *Input) String() string       { return fmt.Sprintf("input %s;", n.Name) }

type Block struct {
	Tok        token.Token // the opening {
	Statements []Statement
}

func (n *Block) statementNode()      {}
func (n *Block) TokenLiteral() string { return n.Tok.Lexeme }
func (n *Block) Line() int            { return n.Tok.Line }
func (n *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{\n")
	for _, s := range n.Statements {
		out.WriteString("  " + s.String() + "\n")
	}
	out.WriteString("}")
	return out.String()
}

type ExprStmt struct {
	Tok  token.Token
	Expr Expression
}

func (n *ExprStmt) statementNode()      {}
func (n *ExprStmt) TokenLiteral() string { return n.Tok.Lexeme }
func (n *ExprStmt) Line() int            { return n.Tok.Line }
func (n *ExprStmt) String() string       { return n.Expr.String() + ";" }

// --- Expressions ---

type IntLit struct {
	exprBase
	Value int64
}

func (n *IntLit) String() string { return fmt.Sprintf("%d", n.Value) }

type FloatLit struct {
	exprBase
	Value float64
}

func (n *FloatLit) String() string { return fmt.Sprintf("%g", n.Value) }

type CharLit struct {
	exprBase
	Value byte
}

func (n *CharLit) String() string { return fmt.Sprintf("'%c'", n.Value) }

type VarRef struct {
	exprBase
	Name string
}

func (n *VarRef) String() string { return n.Name }

type Binary struct {
	exprBase
	Op  string
	LHS Expression
	RHS Expression
}

func (n *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.LHS.String(), n.Op, n.RHS.String())
}

type Unary struct {
	exprBase
	Op      string
	Operand Expression
}

func (n *Unary) String() string {
	return fmt.Sprintf("(%s%s)", n.Op, n.Operand.String())
}

type Call struct {
	exprBase
	Callee string
	Args   []Expression
}

func (n *Call) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(parts, ", "))
}

// NewIntLit, NewFloatLit, and NewCharLit are convenience constructors used
// by the parser so every literal node carries its originating token.
func NewIntLit(tok token.Token, v int64) *IntLit     { return &IntLit{exprBase: exprBase{Tok: tok}, Value: v} }
func NewFloatLit(tok token.Token, v float64) *FloatLit {
	return &FloatLit{exprBase: exprBase{Tok: tok}, Value: v}
}
func NewCharLit(tok token.Token, v byte) *CharLit { return &CharLit{exprBase: exprBase{Tok: tok}, Value: v} }
func NewVarRef(tok token.Token, name string) *VarRef {
	return &VarRef{exprBase: exprBase{Tok: tok}, Name: name}
}
func NewBinary(tok token.Token, op string, lhs, rhs Expression) *Binary {
	return &Binary{exprBase: exprBase{Tok: tok}, Op: op, LHS: lhs, RHS: rhs}
}
func NewUnary(tok token.Token, op string, operand Expression) *Unary {
	return &Unary{exprBase: exprBase{Tok: tok}, Op: op, Operand: operand}
}
func NewCall(tok token.Token, callee string, args []Expression) *Call {
	return &Call{exprBase: exprBase{Tok: tok}, Callee: callee, Args: args}
}
