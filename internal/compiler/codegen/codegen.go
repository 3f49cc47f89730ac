// Package codegen lowers optimized TAC into pseudo-assembly for a
// notional stack machine, with a .data section built from ALLOC
// instructions and a .text section with one instruction group per TAC
// instruction, per spec.md §4.7.
package codegen

import (
	"fmt"
	"strings"

	"github.com/nilsandersson/tacc/internal/compiler/ic"
)

// byteWidth returns the storage width in bytes for a declared type:
// int/float are word-sized, char is a single byte.
func byteWidth(typ string) int {
	if typ == "char" {
		return 1
	}
	return 4
}

// Generator accumulates .data and .text sections as TAC is walked.
type Generator struct {
	dataOrder []string
	dataType  map[string]string
	text      strings.Builder
}

// New creates an empty code Generator.
func New() *Generator {
	return &Generator{dataType: make(map[string]string)}
}

// Generate renders a complete listing for instrs: a .data section built
// from every distinct ALLOC, followed by a .text section with one
// pseudo-instruction group per TAC instruction, in order.
func Generate(instrs []ic.Instr) string {
	g := New()
	for _, in := range instrs {
		g.emit(in)
	}
	return g.listing()
}

func (g *Generator) declare(name, typ string) {
	if _, seen := g.dataType[name]; seen {
		return
	}
	g.dataType[name] = typ
	g.dataOrder = append(g.dataOrder, name)
}

func (g *Generator) line(format string, args ...any) {
	g.text.WriteString(fmt.Sprintf(format, args...))
	g.text.WriteByte('\n')
}

// loadOperand loads o onto the stack-machine's accumulator: a literal uses
// LOAD_IMM, anything else (a variable or temporary name) uses LOAD.
func (g *Generator) loadOperand(o string) {
	if isLiteral(o) {
		g.line("LOAD_IMM %s", o)
	} else {
		g.line("LOAD %s", o)
	}
}

var binaryOps = map[string]string{
	"+":  "ADD",
	"-":  "SUB",
	"*":  "MUL",
	"/":  "DIV",
	"%":  "MOD",
	"==": "CMP_EQ",
	"!=": "CMP_NE",
	"<":  "CMP_LT",
	">":  "CMP_GT",
	"<=": "CMP_LE",
	">=": "CMP_GE",
	"&&": "AND",
	"||": "OR",
}

var unaryOps = map[string]string{
	"-": "NEG",
	"!": "NOT",
}

func (g *Generator) emit(in ic.Instr) {
	switch in.Op {
	case ic.OpAlloc:
		g.declare(in.Dest, in.Type)

	case ic.OpCopy:
		g.loadOperand(in.Src1)
		g.line("STORE %s", in.Dest)

	case ic.OpUnary:
		g.loadOperand(in.Src1)
		opcode, ok := unaryOps[in.Operator]
		if !ok {
			opcode = "NOP"
		}
		g.line(opcode)
		g.line("STORE %s", in.Dest)

	case ic.OpBinary:
		g.loadOperand(in.Src1)
		g.loadOperand(in.Src2)
		opcode, ok := binaryOps[in.Operator]
		if !ok {
			opcode = "NOP"
		}
		g.line(opcode)
		g.line("STORE %s", in.Dest)

	case ic.OpLabel:
		g.line("%s:", in.Label)

	case ic.OpGoto:
		g.line("JMP %s", in.Label)

	case ic.OpIfFalse:
		g.loadOperand(in.Cond)
		g.line("JZ %s", in.Label)

	case ic.OpIfTrue:
		g.loadOperand(in.Cond)
		g.line("JNZ %s", in.Label)

	case ic.OpParam:
		g.line("PUSH %s", in.Src1)

	case ic.OpCall:
		g.line("CALL %s", in.Func)
		if in.HasDest {
			g.line("STORE %s", in.Dest)
		}

	case ic.OpRet:
		if in.Src1 != "" {
			g.loadOperand(in.Src1)
		}
		g.line("RET")

	case ic.OpPrint:
		g.loadOperand(in.Src1)
		g.line("PRINT")

	case ic.OpInput:
		g.line("INPUT")
		g.line("STORE %s", in.Dest)
	}
}

// listing renders the accumulated .data and .text sections. .data
// entries appear in first-ALLOC order; .text preserves TAC instruction
// order — both are part of the observable contract.
func (g *Generator) listing() string {
	var out strings.Builder
	out.WriteString(".data\n")
	for _, name := range g.dataOrder {
		typ := g.dataType[name]
		out.WriteString(fmt.Sprintf("%s: .space %d ; %s\n", name, byteWidth(typ), typ))
	}
	out.WriteString(".text\n")
	out.WriteString(g.text.String())
	return out.String()
}

func isLiteral(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '\'' {
		return len(s) == 3 && s[2] == '\''
	}
	c := s[0]
	if c == '-' {
		if len(s) == 1 {
			return false
		}
		c = s[1]
	}
	return c >= '0' && c <= '9'
}
