// Package parser implements a recursive-descent parser with one-token
// lookahead, producing an ast.Program from a token stream. Syntax errors
// are recorded in a diag.Bag and the parser synchronizes and resumes
// rather than aborting.
package parser

import (
	"github.com/nilsandersson/tacc/internal/compiler/ast"
	"github.com/nilsandersson/tacc/internal/compiler/diag"
	"github.com/nilsandersson/tacc/internal/compiler/token"
)

// Precedence levels, lowest to highest, per the language's operator
// table: logical-or, logical-and, equality, relational, additive,
// multiplicative, unary, primary.
const (
	precLowest int = iota
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precPrimary
)

var precedences = map[token.Type]int{
	token.OrOr:    precOr,
	token.AndAnd:  precAnd,
	token.Eq:      precEquality,
	token.NotEq:   precEquality,
	token.Lt:      precRelational,
	token.Gt:      precRelational,
	token.LtEq:    precRelational,
	token.GtEq:    precRelational,
	token.Plus:    precAdditive,
	token.Minus:   precAdditive,
	token.Star:    precMultiplicative,
	token.Slash:   precMultiplicative,
	token.Percent: precMultiplicative,
}

// Parser consumes a fixed token slice and builds an ast.Program.
type Parser struct {
	toks  []token.Token
	pos   int
	diags *diag.Bag
}

// New creates a Parser over toks, a complete EOF-terminated token stream
// as produced by the lexer.
func New(toks []token.Token, bag *diag.Bag) *Parser {
	return &Parser{toks: toks, diags: bag}
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(t token.Type) bool { return p.cur().Type == t }

func (p *Parser) expect(t token.Type) (token.Token, bool) {
	if p.at(t) {
		return p.advance(), true
	}
	tok := p.cur()
	p.diags.Add(diag.Syntax, tok.Line, tok.Lexeme, "expected %s, got %s", t, tok.Type)
	return tok, false
}

// synchronize discards tokens until a likely statement boundary: a
// semicolon (consumed), a closing brace (left for the caller to consume),
// or a statement-starting keyword.
func (p *Parser) synchronize() {
	for !p.at(token.EOF) {
		if p.at(token.Semi) {
			p.advance()
			return
		}
		if p.at(token.RBrace) {
			return
		}
		switch p.cur().Type {
		case token.Int, token.Float, token.Char, token.If, token.While,
			token.Loop, token.For, token.Func, token.Return, token.Print,
			token.Input, token.LBrace:
			return
		}
		p.advance()
	}
}

// ParseProgram parses the full token stream into a Program, recovering
// from syntax errors at top_decl boundaries.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.at(token.EOF) {
		before := p.pos
		stmt := p.parseTopDecl()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		// synchronize() deliberately leaves a closing brace for an
		// enclosing parseBlock to consume; at top level there is no such
		// caller, so a stray '}' would otherwise leave pos unmoved and
		// loop forever. Force progress here instead.
		if p.pos == before {
			p.advance()
		}
	}
	return prog
}

func (p *Parser) parseTopDecl() ast.Statement {
	switch {
	case p.cur().Type.IsTypeKeyword():
		return p.parseVarDecl()
	case p.at(token.Func):
		return p.parseFuncDecl()
	default:
		return p.parseStatement()
	}
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Type {
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.Loop, token.For:
		return p.parseFor()
	case token.Return:
		return p.parseReturn()
	case token.Print:
		return p.parsePrint()
	case token.Input:
		return p.parseInput()
	case token.LBrace:
		return p.parseBlock()
	case token.Identifier:
		return p.parseIdentStatement()
	default:
		tok := p.cur()
		p.diags.Add(diag.Syntax, tok.Line, tok.Lexeme, "unexpected token %s, expected a statement", tok.Type)
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseVarDecl() ast.Statement {
	typeTok := p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		p.synchronize()
		return nil
	}
	decl := &ast.VarDecl{Tok: typeTok, Type: typeTok.TypeName(), Name: nameTok.Lexeme}
	if p.at(token.Assign) {
		p.advance()
		decl.Initializer = p.parseExpr(precLowest)
	}
	if _, ok := p.expect(token.Semi); !ok {
		p.synchronize()
	}
	return decl
}

func (p *Parser) parseIdentStatement() ast.Statement {
	nameTok := p.advance()
	if p.at(token.Assign) {
		p.advance()
		expr := p.parseExpr(precLowest)
		if _, ok := p.expect(token.Semi); !ok {
			p.synchronize()
		}
		return &ast.Assign{Tok: nameTok, Name: nameTok.Lexeme, Expr: expr}
	}

	// Expression statement: back up and parse as a full expression
	// starting from the identifier (handles bare calls like `f(x);`).
	p.pos--
	expr := p.parseExpr(precLowest)
	if _, ok := p.expect(token.Semi); !ok {
		p.synchronize()
	}
	return &ast.ExprStmt{Tok: nameTok, Expr: expr}
}

func (p *Parser) parseBlock() *ast.Block {
	brace := p.advance() // {
	blk := &ast.Block{Tok: brace}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		stmt := p.parseTopDecl()
		if stmt != nil {
			blk.Statements = append(blk.Statements, stmt)
		}
	}
	p.expect(token.RBrace)
	return blk
}

func (p *Parser) parseIf() ast.Statement {
	tok := p.advance() // if
	p.expect(token.LParen)
	cond := p.parseExpr(precLowest)
	p.expect(token.RParen)
	then := p.parseBlock()

	node := &ast.If{Tok: tok, Cond: cond, Then: then}
	for p.at(token.Elif) {
		p.advance()
		p.expect(token.LParen)
		ec := p.parseExpr(precLowest)
		p.expect(token.RParen)
		eb := p.parseBlock()
		node.Elif = append(node.Elif, ast.ElifClause{Cond: ec, Body: eb})
	}
	if p.at(token.Else) {
		p.advance()
		node.Else = p.parseBlock()
	}
	return node
}

func (p *Parser) parseWhile() ast.Statement {
	tok := p.advance()
	p.expect(token.LParen)
	cond := p.parseExpr(precLowest)
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.While{Tok: tok, Cond: cond, Body: body}
}

// parseFor accepts `loop from IDENT = expr to expr [step expr] { block }`.
// `for` is lexed as a synonym keyword for the same form; a classical
// C-style for(init; cond; step) is not part of this grammar.
func (p *Parser) parseFor() ast.Statement {
	tok := p.advance() // loop | for
	p.expect(token.From)
	nameTok, _ := p.expect(token.Identifier)
	p.expect(token.Assign)
	start := p.parseExpr(precLowest)
	p.expect(token.To)
	end := p.parseExpr(precLowest)

	var step ast.Expression
	if p.at(token.Step) {
		p.advance()
		step = p.parseExpr(precLowest)
	}
	body := p.parseBlock()
	return &ast.For{Tok: tok, Var: nameTok.Lexeme, Start: start, End: end, Step: step, Body: body}
}

func (p *Parser) parseFuncDecl() ast.Statement {
	tok := p.advance() // func
	retTok := p.cur()
	var retType string
	if retTok.Type.IsTypeKeyword() {
		p.advance()
		retType = retTok.TypeName()
	} else {
		p.diags.Add(diag.Syntax, retTok.Line, retTok.Lexeme, "expected a return type, got %s", retTok.Type)
	}
	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		p.synchronize()
		return nil
	}
	p.expect(token.LParen)
	var params []ast.Param
	for !p.at(token.RParen) && !p.at(token.EOF) {
		pt := p.cur()
		if !pt.Type.IsTypeKeyword() {
			p.diags.Add(diag.Syntax, pt.Line, pt.Lexeme, "expected a parameter type, got %s", pt.Type)
			break
		}
		p.advance()
		pn, _ := p.expect(token.Identifier)
		params = append(params, ast.Param{Type: pt.TypeName(), Name: pn.Lexeme})
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RParen)
	body := p.parseBlock()
	return &ast.FuncDecl{Tok: tok, ReturnType: retType, Name: nameTok.Lexeme, Params: params, Body: body}
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.advance()
	node := &ast.Return{Tok: tok}
	if !p.at(token.Semi) {
		node.Expr = p.parseExpr(precLowest)
	}
	if _, ok := p.expect(token.Semi); !ok {
		p.synchronize()
	}
	return node
}

func (p *Parser) parsePrint() ast.Statement {
	tok := p.advance()
	expr := p.parseExpr(precLowest)
	if _, ok := p.expect(token.Semi); !ok {
		p.synchronize()
	}
	return &ast.Print{Tok: tok, Expr: expr}
}

func (p *Parser) parseInput() ast.Statement {
	tok := p.advance()
	nameTok, ok := p.expect(token.Identifier)
	if _, ok2 := p.expect(token.Semi); !ok2 {
		p.synchronize()
	}
	if !ok {
		return nil
	}
	return &ast.Input{Tok: tok, Name: nameTok.Lexeme}
}

// --- Expressions (precedence climbing) ---

func (p *Parser) parseExpr(minPrec int) ast.Expression {
	left := p.parseUnary()
	for {
		prec, ok := precedences[p.cur().Type]
		if !ok || prec <= minPrec {
			return left
		}
		opTok := p.advance()
		// All binary operators at the same precedence level are
		// left-associative: recurse requiring strictly higher precedence.
		right := p.parseExpr(prec)
		left = ast.NewBinary(opTok, opTok.Lexeme, left, right)
	}
}

func (p *Parser) parseUnary() ast.Expression {
	if p.at(token.Bang) || p.at(token.Minus) {
		opTok := p.advance()
		operand := p.parseUnary()
		return ast.NewUnary(opTok, opTok.Lexeme, operand)
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Type {
	case token.Integer:
		p.advance()
		return ast.NewIntLit(tok, tok.Literal.(int64))
	case token.FloatLit:
		p.advance()
		return ast.NewFloatLit(tok, tok.Literal.(float64))
	case token.CharLit:
		p.advance()
		return ast.NewCharLit(tok, tok.Literal.(byte))
	case token.True:
		p.advance()
		return ast.NewIntLit(tok, 1)
	case token.False:
		p.advance()
		return ast.NewIntLit(tok, 0)
	case token.Identifier:
		return p.parseIdentOrCall()
	case token.LParen:
		p.advance()
		expr := p.parseExpr(precLowest)
		p.expect(token.RParen)
		return expr
	default:
		p.diags.Add(diag.Syntax, tok.Line, tok.Lexeme, "unexpected token %s, expected an expression", tok.Type)
		p.advance()
		return ast.NewIntLit(tok, 0) // placeholder so the walk can continue
	}
}

func (p *Parser) parseIdentOrCall() ast.Expression {
	nameTok := p.advance()
	if !p.at(token.LParen) {
		return ast.NewVarRef(nameTok, nameTok.Lexeme)
	}
	p.advance() // (
	var args []ast.Expression
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpr(precLowest))
		if p.at(token.Comma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(token.RParen)
	return ast.NewCall(nameTok, nameTok.Lexeme, args)
}
