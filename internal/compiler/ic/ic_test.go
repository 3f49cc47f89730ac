package ic

import (
	"strings"
	"testing"

	"github.com/nilsandersson/tacc/internal/compiler/diag"
	"github.com/nilsandersson/tacc/internal/compiler/lexer"
	"github.com/nilsandersson/tacc/internal/compiler/parser"
	"github.com/nilsandersson/tacc/internal/compiler/semantic"
)

func lower(t *testing.T, src string) ([]Instr, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag()
	toks := lexer.Lex(src, bag)
	p := parser.New(toks, bag)
	prog := p.ParseProgram()
	if bag.HasErrors() {
		t.Fatalf("unexpected lex/parse errors: %v", bag.Errors())
	}
	sem := semantic.New(bag)
	sem.Analyze(prog)
	if bag.HasErrors() {
		t.Fatalf("unexpected semantic errors: %v", bag.Errors())
	}
	gen := New(bag)
	return gen.Generate(prog), bag
}

func TestInstrStringShapes(t *testing.T) {
	cases := []struct {
		in   Instr
		want string
	}{
		{Instr{Op: OpAlloc, Dest: "x", Type: "int"}, "ALLOC x int"},
		{Instr{Op: OpCopy, Dest: "x", Src1: "5"}, "x = 5"},
		{Instr{Op: OpUnary, Dest: "t0", Operator: "-", Src1: "x"}, "t0 = - x"},
		{Instr{Op: OpBinary, Dest: "t0", Src1: "x", Operator: "+", Src2: "y"}, "t0 = x + y"},
		{Instr{Op: OpLabel, Label: "L0"}, "LABEL L0"},
		{Instr{Op: OpGoto, Label: "L0"}, "GOTO L0"},
		{Instr{Op: OpIfFalse, Cond: "t0", Label: "L0"}, "IF_FALSE t0 GOTO L0"},
		{Instr{Op: OpParam, Src1: "x"}, "PARAM x"},
		{Instr{Op: OpCall, Func: "f", NArgs: 2}, "CALL f 2"},
		{Instr{Op: OpCall, Func: "f", NArgs: 2, Dest: "t0", HasDest: true}, "t0 = CALL f 2"},
		{Instr{Op: OpRet, Src1: "x"}, "RET x"},
		{Instr{Op: OpRet}, "RET"},
		{Instr{Op: OpPrint, Src1: "x"}, "PRINT x"},
		{Instr{Op: OpInput, Dest: "x"}, "INPUT x"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}

func TestLowerVarDeclWithInitializer(t *testing.T) {
	instrs, _ := lower(t, "int x = 5 + 3;")
	want := []string{"ALLOC x int", "t0 = 5 + 3", "x = t0"}
	assertInstrs(t, instrs, want)
}

func TestLowerAssignment(t *testing.T) {
	instrs, _ := lower(t, "int x;\nx = 5;")
	want := []string{"ALLOC x int", "x = 5"}
	assertInstrs(t, instrs, want)
}

func TestLowerIfElifElseFallsThroughExactlyOnce(t *testing.T) {
	src := `int s = 85;
if (s >= 90) { print 1; } elif (s >= 80) { print 2; } else { print 0; }`
	instrs, _ := lower(t, src)
	labels := countOp(instrs, OpLabel)
	gotos := countOp(instrs, OpGoto)
	iffalse := countOp(instrs, OpIfFalse)
	// 2 condition tests (if, elif) each with a next-arm label, plus the
	// shared end label => 3 labels; the if and elif arms each end in a
	// GOTO to the end label (2 GOTOs), while the else arm, being last,
	// falls through into it. Label closure is checked separately.
	if iffalse != 2 {
		t.Errorf("got %d IF_FALSE, want 2 (if, elif)", iffalse)
	}
	if labels < 1 {
		t.Errorf("expected at least the shared end label, got %d", labels)
	}
	if gotos < 1 {
		t.Errorf("expected at least one GOTO to the end label, got %d", gotos)
	}
	assertLabelClosure(t, instrs)
}

func TestLowerWhileLoop(t *testing.T) {
	instrs, _ := lower(t, "int x = 0;\nwhile (x < 10) { x = x + 1; }")
	assertLabelClosure(t, instrs)
	if countOp(instrs, OpLabel) != 2 {
		t.Errorf("expected start+end labels, got %d", countOp(instrs, OpLabel))
	}
}

func TestLowerCountedLoop(t *testing.T) {
	instrs, _ := lower(t, "int sum = 0;\nloop from i = 1 to 10 { sum = sum + i; }")
	assertLabelClosure(t, instrs)
	var sawAlloc bool
	for _, in := range instrs {
		if in.Op == OpAlloc && in.Dest == "i" {
			sawAlloc = true
		}
	}
	if !sawAlloc {
		t.Errorf("expected an ALLOC for the loop variable i")
	}
}

func TestLowerShortCircuitAndDoesNotEagerlyComputeRHS(t *testing.T) {
	// `a() && b()` must branch around the RHS evaluation rather than
	// computing both sides and ANDing a boolean temp.
	src := `func int a() { return 1; }
func int b() { return 1; }
int x = a() && b();`
	instrs, _ := lower(t, src)
	assertLabelClosure(t, instrs)

	var sawIfFalseBeforeSecondCall bool
	callsSeen := 0
	for _, in := range instrs {
		if in.Op == OpCall {
			callsSeen++
			if callsSeen == 2 {
				break
			}
		}
		if in.Op == OpIfFalse {
			sawIfFalseBeforeSecondCall = true
		}
	}
	if !sawIfFalseBeforeSecondCall {
		t.Errorf("expected an IF_FALSE branch before the second call (short-circuit), instrs=%v", instrs)
	}
}

// TestLowerFunctionDeclSkipsOverItsOwnBody ensures a FuncDecl mixed in
// among top-level statements never falls through from the statement
// before it into the function's body: the body is only reachable via a
// CALL to its label, matching a linear TAC listing being directly
// executable without a stack-machine enforcing call/return semantics.
func TestLowerFunctionDeclSkipsOverItsOwnBody(t *testing.T) {
	src := `int x = 1;
func int f() {
  return 2;
}
int y = f();`
	instrs, _ := lower(t, src)
	assertLabelClosure(t, instrs)

	var labelIdx, idxBeforeLabel = -1, -1
	for i, in := range instrs {
		if in.Op == OpLabel && in.Label == "f" {
			labelIdx = i
			idxBeforeLabel = i - 1
			break
		}
	}
	if labelIdx == -1 {
		t.Fatalf("expected a LABEL f in %s", Listing(instrs))
	}
	if instrs[idxBeforeLabel].Op != OpGoto {
		t.Errorf("expected the instruction before LABEL f to be a GOTO skipping the body, got %v", instrs[idxBeforeLabel])
	}
}

func TestLowerFunctionCallEmitsParamsThenCall(t *testing.T) {
	src := `func int add(int a, int b) { return a + b; }
int x = add(1, 2);`
	instrs, _ := lower(t, src)
	var seq []string
	for _, in := range instrs {
		if in.Op == OpParam || in.Op == OpCall {
			seq = append(seq, in.String())
		}
	}
	if len(seq) != 3 {
		t.Fatalf("got %v, want 2 PARAMs then 1 CALL", seq)
	}
	if !strings.HasPrefix(seq[0], "PARAM") || !strings.HasPrefix(seq[1], "PARAM") {
		t.Errorf("expected PARAM instructions before CALL, got %v", seq)
	}
}

func countOp(instrs []Instr, op Op) int {
	n := 0
	for _, in := range instrs {
		if in.Op == op {
			n++
		}
	}
	return n
}

// assertLabelClosure exercises spec.md §8's TAC label closure invariant.
func assertLabelClosure(t *testing.T, instrs []Instr) {
	t.Helper()
	labels := map[string]bool{}
	for _, in := range instrs {
		if in.Op == OpLabel {
			labels[in.Label] = true
		}
	}
	for _, in := range instrs {
		switch in.Op {
		case OpGoto, OpIfFalse, OpIfTrue:
			if !labels[in.Label] {
				t.Errorf("jump target %q has no matching LABEL", in.Label)
			}
		}
	}
}

func assertInstrs(t *testing.T, instrs []Instr, want []string) {
	t.Helper()
	if len(instrs) != len(want) {
		t.Fatalf("got %d instructions, want %d:\n%s", len(instrs), len(want), Listing(instrs))
	}
	for i, w := range want {
		if instrs[i].String() != w {
			t.Errorf("instruction %d: got %q, want %q", i, instrs[i].String(), w)
		}
	}
}
