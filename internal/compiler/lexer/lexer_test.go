package lexer

import (
	"testing"

	"github.com/nilsandersson/tacc/internal/compiler/diag"
	"github.com/nilsandersson/tacc/internal/compiler/token"
)

func TestLexSimpleProgram(t *testing.T) {
	input := `int x = 5 + 3; // a comment
print x;`

	bag := diag.NewBag()
	toks := Lex(input, bag)

	if bag.HasErrors() {
		t.Fatalf("unexpected lexical errors: %v", bag.Errors())
	}

	wantTypes := []token.Type{
		token.Int, token.Identifier, token.Assign, token.Integer, token.Plus,
		token.Integer, token.Semi, token.Print, token.Identifier, token.Semi,
		token.EOF,
	}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(wantTypes), toks)
	}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, want)
		}
	}
	if toks[len(toks)-2].Line != 2 {
		t.Errorf("expected the final print statement on line 2, got line %d", toks[len(toks)-2].Line)
	}
}

func TestLexMultiCharOperatorsPreferLongestMatch(t *testing.T) {
	input := `== != <= >= && || = < > ! + - * / %`
	bag := diag.NewBag()
	toks := Lex(input, bag)

	want := []token.Type{
		token.Eq, token.NotEq, token.LtEq, token.GtEq, token.AndAnd, token.OrOr,
		token.Assign, token.Lt, token.Gt, token.Bang,
		token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
		token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Type, w)
		}
	}
}

func TestLexKeywordsVsIdentifiers(t *testing.T) {
	bag := diag.NewBag()
	toks := Lex("if elif else while loop for from to step func return print input true false ifable", bag)
	want := []token.Type{
		token.If, token.Elif, token.Else, token.While, token.Loop, token.For,
		token.From, token.To, token.Step, token.Func, token.Return, token.Print,
		token.Input, token.True, token.False, token.Identifier, token.EOF,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d (%q): got %s, want %s", i, toks[i].Lexeme, toks[i].Type, w)
		}
	}
}

func TestLexIntegerAndFloatLiterals(t *testing.T) {
	bag := diag.NewBag()
	toks := Lex("42 3.14 0", bag)
	if toks[0].Type != token.Integer || toks[0].Literal.(int64) != 42 {
		t.Errorf("got %v, want integer 42", toks[0])
	}
	if toks[1].Type != token.FloatLit || toks[1].Literal.(float64) != 3.14 {
		t.Errorf("got %v, want float 3.14", toks[1])
	}
	if toks[2].Type != token.Integer || toks[2].Literal.(int64) != 0 {
		t.Errorf("got %v, want integer 0", toks[2])
	}
}

func TestLexMalformedNumberIsLexicalError(t *testing.T) {
	bag := diag.NewBag()
	toks := Lex("1.2.3", bag)
	if !bag.HasErrors() {
		t.Fatalf("expected a lexical error for 1.2.3")
	}
	if toks[len(toks)-1].Type != token.EOF {
		t.Fatalf("lexer must still terminate with EOF, got %v", toks)
	}
}

func TestLexCharLiteral(t *testing.T) {
	bag := diag.NewBag()
	toks := Lex("'a' 'b'", bag)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	if toks[0].Type != token.CharLit || toks[0].Literal.(byte) != 'a' {
		t.Errorf("got %v, want char 'a'", toks[0])
	}
}

func TestLexMalformedCharLiteral(t *testing.T) {
	cases := []string{"''", "'ab'", "'"}
	for _, c := range cases {
		bag := diag.NewBag()
		Lex(c, bag)
		if !bag.HasErrors() {
			t.Errorf("input %q: expected a lexical error", c)
		}
	}
}

// TestLexTotality exercises the lexer-totality invariant from spec.md
// §8: for any input, the lexer either terminates with EOF or records a
// LEXICAL diagnostic. Every input here must end in EOF, including those
// with invalid bytes such as `@`, which also record a diagnostic.
func TestLexTotality(t *testing.T) {
	inputs := []string{"", "   ", "@#$", "int x; @ print x;", "\n\n\n"}
	for _, in := range inputs {
		bag := diag.NewBag()
		toks := Lex(in, bag)
		if len(toks) == 0 || toks[len(toks)-1].Type != token.EOF {
			t.Errorf("input %q: lexer did not terminate with EOF", in)
		}
	}
}

func TestLexUnknownByteSkipsAndContinues(t *testing.T) {
	bag := diag.NewBag()
	toks := Lex("1 @ 2", bag)
	if !bag.HasErrors() {
		t.Fatalf("expected a lexical error for '@'")
	}
	var kinds []token.Type
	for _, tk := range toks {
		kinds = append(kinds, tk.Type)
	}
	want := []token.Type{token.Integer, token.Illegal, token.Integer, token.EOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}
