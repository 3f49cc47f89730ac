// Package optimizer runs a fixed set of local peephole passes over TAC:
// constant folding, algebraic simplification, copy propagation, and dead
// code elimination. Passes repeat until a full pass makes no rewrite, or
// a 16-iteration cap is hit, guaranteeing termination.
package optimizer

import (
	"strconv"
	"strings"

	"github.com/nilsandersson/tacc/internal/compiler/ic"
)

const maxIterations = 16

// Optimize returns an optimized copy of instrs; the input slice is left
// untouched.
func Optimize(instrs []ic.Instr) []ic.Instr {
	cur := append([]ic.Instr(nil), instrs...)
	for i := 0; i < maxIterations; i++ {
		next, changed := runOnce(cur)
		cur = next
		if !changed {
			break
		}
	}
	return cur
}

func runOnce(instrs []ic.Instr) ([]ic.Instr, bool) {
	out, c1 := constantFold(instrs)
	out, c2 := algebraicSimplify(out)
	out, c3 := copyPropagate(out)
	out, c4 := deadCodeEliminate(out)
	return out, c1 || c2 || c3 || c4
}

// --- literal helpers ---

func isIntLiteral(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloatLiteral(s string) bool {
	return strings.Contains(s, ".") && isFloatParseable(s)
}

func isFloatParseable(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isCharLiteral(s string) bool {
	return len(s) == 3 && s[0] == '\'' && s[2] == '\''
}

func isLiteral(s string) bool {
	return isIntLiteral(s) || isFloatLiteral(s) || isCharLiteral(s)
}

func literalAsFloat(s string) (float64, bool) {
	if isCharLiteral(s) {
		return float64(s[1]), true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func literalAsInt(s string) (int64, bool) {
	if isCharLiteral(s) {
		return int64(s[1]), true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// --- constant folding ---

// constantFold replaces binary/unary instructions whose operands are all
// literals with a copy of the computed literal. Division and modulo by a
// literal zero are left untouched so the runtime can trap, per spec.
func constantFold(instrs []ic.Instr) ([]ic.Instr, bool) {
	changed := false
	out := make([]ic.Instr, len(instrs))
	for i, in := range instrs {
		switch in.Op {
		case ic.OpBinary:
			if folded, ok := foldBinary(in); ok {
				out[i] = folded
				changed = true
				continue
			}
		case ic.OpUnary:
			if folded, ok := foldUnary(in); ok {
				out[i] = folded
				changed = true
				continue
			}
		}
		out[i] = in
	}
	return out, changed
}

func isFloatType(t string) bool { return t == "float" }

func foldBinary(in ic.Instr) (ic.Instr, bool) {
	if !isLiteral(in.Src1) || !isLiteral(in.Src2) {
		return in, false
	}
	switch in.Operator {
	case "/", "%":
		if zero, ok := literalAsFloat(in.Src2); ok && zero == 0 {
			return in, false // leave division/modulo by literal zero as-is
		}
	}

	useFloat := isFloatType(in.Type) || isFloatLiteral(in.Src1) || isFloatLiteral(in.Src2)
	if useFloat && in.Operator != "%" {
		a, ok1 := literalAsFloat(in.Src1)
		b, ok2 := literalAsFloat(in.Src2)
		if !ok1 || !ok2 {
			return in, false
		}
		var r float64
		switch in.Operator {
		case "+":
			r = a + b
		case "-":
			r = a - b
		case "*":
			r = a * b
		case "/":
			r = a / b
		case "==":
			r = boolOf(a == b)
		case "!=":
			r = boolOf(a != b)
		case "<":
			r = boolOf(a < b)
		case ">":
			r = boolOf(a > b)
		case "<=":
			r = boolOf(a <= b)
		case ">=":
			r = boolOf(a >= b)
		default:
			return in, false
		}
		return ic.Instr{Op: ic.OpCopy, Dest: in.Dest, Src1: formatFloat(r), Type: in.Type, Line: in.Line}, true
	}

	a, ok1 := literalAsInt(in.Src1)
	b, ok2 := literalAsInt(in.Src2)
	if !ok1 || !ok2 {
		return in, false
	}
	var r int64
	switch in.Operator {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		r = a / b
	case "%":
		r = a % b
	case "==":
		r = boolInt(a == b)
	case "!=":
		r = boolInt(a != b)
	case "<":
		r = boolInt(a < b)
	case ">":
		r = boolInt(a > b)
	case "<=":
		r = boolInt(a <= b)
	case ">=":
		r = boolInt(a >= b)
	case "&&":
		r = boolInt(a != 0 && b != 0)
	case "||":
		r = boolInt(a != 0 || b != 0)
	default:
		return in, false
	}
	return ic.Instr{Op: ic.OpCopy, Dest: in.Dest, Src1: strconv.FormatInt(r, 10), Type: in.Type, Line: in.Line}, true
}

func boolOf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func foldUnary(in ic.Instr) (ic.Instr, bool) {
	if !isLiteral(in.Src1) {
		return in, false
	}
	switch in.Operator {
	case "-":
		if isFloatType(in.Type) || isFloatLiteral(in.Src1) {
			f, ok := literalAsFloat(in.Src1)
			if !ok {
				return in, false
			}
			return ic.Instr{Op: ic.OpCopy, Dest: in.Dest, Src1: formatFloat(-f), Type: in.Type, Line: in.Line}, true
		}
		n, ok := literalAsInt(in.Src1)
		if !ok {
			return in, false
		}
		return ic.Instr{Op: ic.OpCopy, Dest: in.Dest, Src1: strconv.FormatInt(-n, 10), Type: in.Type, Line: in.Line}, true
	case "!":
		n, ok := literalAsInt(in.Src1)
		if !ok {
			return in, false
		}
		return ic.Instr{Op: ic.OpCopy, Dest: in.Dest, Src1: strconv.FormatInt(boolInt(n == 0), 10), Type: in.Type, Line: in.Line}, true
	}
	return in, false
}

// --- algebraic simplification ---

// algebraicSimplify applies type-preserving identity rewrites: x*1->x,
// 1*x->x, x+0->x, 0+x->x, x-0->x, x/1->x, x*0->0, 0*x->0. A rewrite only
// fires when the *other* operand is an int literal, so e.g. `int * 1.0`
// (a float literal) is never rewritten into a plain copy that would
// silently drop the widening to float.
func algebraicSimplify(instrs []ic.Instr) ([]ic.Instr, bool) {
	changed := false
	out := make([]ic.Instr, len(instrs))
	for i, in := range instrs {
		if in.Op != ic.OpBinary {
			out[i] = in
			continue
		}
		if simplified, ok := simplifyBinary(in); ok {
			out[i] = simplified
			changed = true
			continue
		}
		out[i] = in
	}
	return out, changed
}

func isIntLiteralValue(s string, v int64) bool {
	n, ok := literalAsInt(s)
	return ok && isIntLiteral(s) && n == v
}

func simplifyBinary(in ic.Instr) (ic.Instr, bool) {
	switch in.Operator {
	case "*":
		if isIntLiteralValue(in.Src2, 1) {
			return copyOf(in, in.Src1), true
		}
		if isIntLiteralValue(in.Src1, 1) {
			return copyOf(in, in.Src2), true
		}
		if isIntLiteralValue(in.Src2, 0) || isIntLiteralValue(in.Src1, 0) {
			return copyOf(in, "0"), true
		}
	case "+":
		if isIntLiteralValue(in.Src2, 0) {
			return copyOf(in, in.Src1), true
		}
		if isIntLiteralValue(in.Src1, 0) {
			return copyOf(in, in.Src2), true
		}
	case "-":
		if isIntLiteralValue(in.Src2, 0) {
			return copyOf(in, in.Src1), true
		}
	case "/":
		if isIntLiteralValue(in.Src2, 1) {
			return copyOf(in, in.Src1), true
		}
	}
	return in, false
}

func copyOf(in ic.Instr, src string) ic.Instr {
	return ic.Instr{Op: ic.OpCopy, Dest: in.Dest, Src1: src, Type: in.Type, Line: in.Line}
}

// --- copy propagation ---

// copyPropagate rewrites `t = x; y = t` into `y = x` when t is a
// compiler-generated temporary not read anywhere else in the listing.
func copyPropagate(instrs []ic.Instr) ([]ic.Instr, bool) {
	changed := false
	out := append([]ic.Instr(nil), instrs...)

	for i := 0; i < len(out)-1; i++ {
		in := out[i]
		if in.Op != ic.OpCopy || !isTemp(in.Dest) {
			continue
		}
		uses := countReads(out, in.Dest)
		if uses != 1 {
			continue
		}
		// find the single read and, if it is itself a plain copy, fold
		// the source through.
		for j := i + 1; j < len(out); j++ {
			if readsOperand(out[j], in.Dest) {
				if out[j].Op == ic.OpCopy && out[j].Src1 == in.Dest {
					out[j] = ic.Instr{Op: ic.OpCopy, Dest: out[j].Dest, Src1: in.Src1, Type: out[j].Type, Line: out[j].Line}
					out[i] = ic.Instr{Op: ic.OpCopy, Dest: "__dead__" + in.Dest, Src1: in.Src1, Type: in.Type, Line: in.Line}
					changed = true
				}
				break
			}
		}
	}
	if changed {
		out, _ = deadCodeEliminate(out)
	}
	return out, changed
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, "t") && len(name) > 1 && isIntLiteral(name[1:])
}

// --- dead code elimination ---

func hasSideEffect(in ic.Instr) bool {
	switch in.Op {
	case ic.OpCall, ic.OpPrint, ic.OpInput, ic.OpAlloc, ic.OpParam, ic.OpRet:
		return true
	case ic.OpBinary:
		// Division/modulo by a literal zero is kept so the runtime can trap.
		if in.Operator == "/" || in.Operator == "%" {
			if v, ok := literalAsFloat(in.Src2); ok && v == 0 {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func readsOperand(in ic.Instr, name string) bool {
	switch in.Op {
	case ic.OpCopy:
		return in.Src1 == name
	case ic.OpUnary:
		return in.Src1 == name
	case ic.OpBinary:
		return in.Src1 == name || in.Src2 == name
	case ic.OpIfFalse, ic.OpIfTrue:
		return in.Cond == name
	case ic.OpParam, ic.OpPrint, ic.OpRet:
		return in.Src1 == name
	}
	return false
}

func countReads(instrs []ic.Instr, name string) int {
	n := 0
	for _, in := range instrs {
		if readsOperand(in, name) {
			n++
		}
	}
	return n
}

// writesOperand reports whether in fully overwrites name's value,
// independent of whether it also reads name as one of its own operands.
func writesOperand(in ic.Instr, name string) bool {
	switch in.Op {
	case ic.OpAlloc, ic.OpCopy, ic.OpUnary, ic.OpBinary, ic.OpInput:
		return in.Dest == name
	case ic.OpCall:
		return in.HasDest && in.Dest == name
	}
	return false
}

// isDeadStore reports whether the assignment to name at instrs[i] is
// never observed: scanning straight-line from i+1, it either finds a
// read of name first (live) or a redefinition of name first with no
// intervening read (dead, since the earlier value is overwritten before
// anyone sees it). Scanning stops at any instruction that can change
// control flow (LABEL, GOTO, IF_FALSE/IF_TRUE, RET) and treats the def
// as live from there on, since this is a local pass with no
// control-flow graph to follow branches or joins safely; a CALL does
// not stop the scan, since it always returns to the next instruction.
// Reaching the end of the listing with neither, the store is the final
// value of name: live if name is ALLOCed, dead otherwise (a temporary).
func isDeadStore(instrs []ic.Instr, i int, name string) bool {
	for j := i + 1; j < len(instrs); j++ {
		in := instrs[j]
		switch in.Op {
		case ic.OpLabel, ic.OpGoto, ic.OpIfFalse, ic.OpIfTrue, ic.OpRet:
			return false
		}
		if readsOperand(in, name) {
			return false
		}
		if writesOperand(in, name) {
			return true
		}
	}
	for _, in := range instrs {
		if in.Op == ic.OpAlloc && in.Dest == name {
			return false
		}
	}
	return true
}

func usedAsLabel(instrs []ic.Instr, label string) bool {
	for _, in := range instrs {
		switch in.Op {
		case ic.OpGoto, ic.OpIfFalse, ic.OpIfTrue:
			if in.Label == label {
				return true
			}
		}
	}
	return false
}

// deadCodeEliminate removes:
//   - assignments to a temporary or variable never read afterwards, when
//     the assignment has no side effect; the last store to an ALLOCed
//     variable is kept, since it is that variable's final value;
//   - labels with no incoming jump;
//   - instructions after an unconditional GOTO/RET up to the next live
//     label (unreachable code).
func deadCodeEliminate(instrs []ic.Instr) ([]ic.Instr, bool) {
	changed := false

	// Pass 1: drop dead assignments (no side effect, and either never
	// read again or overwritten before any read — see isDeadStore).
	kept := make([]ic.Instr, 0, len(instrs))
	for i, in := range instrs {
		if (in.Op == ic.OpCopy || in.Op == ic.OpUnary || in.Op == ic.OpBinary) && in.Dest != "" {
			if !hasSideEffect(in) && isDeadStore(instrs, i, in.Dest) {
				changed = true
				continue
			}
		}
		kept = append(kept, in)
	}

	// Pass 2: drop labels with no incoming jump.
	kept2 := make([]ic.Instr, 0, len(kept))
	for _, in := range kept {
		if in.Op == ic.OpLabel && !usedAsLabel(kept, in.Label) {
			changed = true
			continue
		}
		kept2 = append(kept2, in)
	}

	// Pass 3: drop unreachable instructions following an unconditional
	// GOTO/RET, up to the next LABEL.
	kept3 := make([]ic.Instr, 0, len(kept2))
	unreachable := false
	for _, in := range kept2 {
		if in.Op == ic.OpLabel {
			unreachable = false
		}
		if unreachable {
			changed = true
			continue
		}
		kept3 = append(kept3, in)
		if in.Op == ic.OpGoto || in.Op == ic.OpRet {
			unreachable = true
		}
	}

	return kept3, changed
}
