// Package diag implements the compiler's single shared diagnostics
// facility. Every phase appends to a Bag instead of returning an error;
// the pipeline controller decides, after each phase, whether compilation
// can continue.
package diag

import "fmt"

// Kind classifies a diagnostic at the phase level.
type Kind string

const (
	Lexical  Kind = "LEXICAL"
	Syntax   Kind = "SYNTAX"
	Semantic Kind = "SEMANTIC"
	Internal Kind = "INTERNAL"
)

// SemanticSub further classifies SEMANTIC diagnostics.
type SemanticSub string

const (
	Undeclared            SemanticSub = "UNDECLARED"
	Redeclaration         SemanticSub = "REDECLARATION"
	TypeMismatch          SemanticSub = "TYPE_MISMATCH"
	Narrowing             SemanticSub = "NARROWING"
	UseBeforeInit         SemanticSub = "USE_BEFORE_INIT"
	Arity                 SemanticSub = "ARITY"
	NonIntegralCondition  SemanticSub = "NON_INTEGRAL_CONDITION"
	ReturnOutsideFunc     SemanticSub = "RETURN_OUTSIDE_FUNC"
	MissingReturn         SemanticSub = "MISSING_RETURN"
	NestedFuncDecl        SemanticSub = "NESTED_FUNC_DECL"
)

// Severity distinguishes errors (which flip success to false) from
// warnings (which are informational only).
type Severity string

const (
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
)

// Diagnostic is one recorded compiler message.
type Diagnostic struct {
	Kind     Kind
	Sub      SemanticSub // only meaningful when Kind == Semantic
	Severity Severity
	Line     int
	Message  string
	Lexeme   string // optional offending token text
}

func (d Diagnostic) String() string {
	prefix := string(d.Kind)
	if d.Sub != "" {
		prefix += "/" + string(d.Sub)
	}
	if d.Lexeme != "" {
		return fmt.Sprintf("line %d: %s: %s (near %q)", d.Line, prefix, d.Message, d.Lexeme)
	}
	return fmt.Sprintf("line %d: %s: %s", d.Line, prefix, d.Message)
}

// Bag accumulates diagnostics across phases. Phases only ever append; the
// pipeline controller is the sole reader that gates on it.
type Bag struct {
	diags []Diagnostic
}

func NewBag() *Bag {
	return &Bag{}
}

func (b *Bag) add(d Diagnostic) {
	b.diags = append(b.diags, d)
}

// Add records an error-severity diagnostic of the given kind.
func (b *Bag) Add(kind Kind, line int, lexeme, format string, args ...any) {
	b.add(Diagnostic{
		Kind:     kind,
		Severity: Error,
		Line:     line,
		Lexeme:   lexeme,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddSemantic records an error-severity SEMANTIC diagnostic with a sub-kind.
func (b *Bag) AddSemantic(sub SemanticSub, line int, lexeme, format string, args ...any) {
	b.add(Diagnostic{
		Kind:     Semantic,
		Sub:      sub,
		Severity: Error,
		Line:     line,
		Lexeme:   lexeme,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddWarning records a warning. Warnings never suppress later phases and
// never flip Compile's success result.
func (b *Bag) AddWarning(kind Kind, line int, format string, args ...any) {
	b.add(Diagnostic{
		Kind:     kind,
		Severity: Warning,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddInternal records an INTERNAL diagnostic, reserved for invariant
// violations such as a later phase observing an un-annotated AST node.
func (b *Bag) AddInternal(line int, format string, args ...any) {
	b.add(Diagnostic{
		Kind:     Internal,
		Severity: Error,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// All returns every recorded diagnostic in recording order.
func (b *Bag) All() []Diagnostic {
	return b.diags
}

// HasErrors reports whether any LEXICAL, SYNTAX, SEMANTIC, or INTERNAL
// error-severity diagnostic has been recorded. This is the gate the
// pipeline controller consults after every phase.
func (b *Bag) HasErrors() bool {
	for _, d := range b.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only error-severity diagnostics.
func (b *Bag) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.diags {
		if d.Severity == Error {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only warning-severity diagnostics.
func (b *Bag) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.diags {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}
