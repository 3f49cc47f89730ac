// Package symbols defines the symbol table entry shape shared by the
// scope stack, semantic analyzer, and later inspection.
package symbols

// Kind distinguishes a variable entry from a function entry.
type Kind int

const (
	Variable Kind = iota
	Function
)

func (k Kind) String() string {
	if k == Function {
		return "function"
	}
	return "variable"
}

// Entry is one symbol table record. For Kind == Variable, Type holds the
// declared scalar type ("int"/"float"/"char") and Initialized tracks
// whether the variable has been assigned or read an input. For
// Kind == Function, ReturnType and ParamTypes describe its signature.
type Entry struct {
	Name        string
	Kind        Kind
	Type        string
	ParamNames  []string
	ParamTypes  []string
	ReturnType  string
	Initialized bool
	Line        int
}
