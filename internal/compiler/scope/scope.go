// Package scope implements the symbol table as a stack of scope frames.
// Frame 0 is always the global frame; frames preserve declaration order
// so dumps are reproducible.
package scope

import "github.com/nilsandersson/tacc/internal/compiler/symbols"

// Frame is one lexical block's symbol set, preserving insertion order.
type Frame struct {
	order   []string
	entries map[string]*symbols.Entry
}

func newFrame() *Frame {
	return &Frame{entries: make(map[string]*symbols.Entry)}
}

// Names returns the frame's symbols in declaration order.
func (f *Frame) Names() []string {
	return f.order
}

// Table is the symbol table: a stack of Frames.
type Table struct {
	frames []*Frame
}

// New creates a Table with the global frame already pushed.
func New() *Table {
	t := &Table{}
	t.frames = append(t.frames, newFrame())
	return t
}

// EnterScope pushes a new, empty frame.
func (t *Table) EnterScope() {
	t.frames = append(t.frames, newFrame())
}

// ExitScope pops the top frame. Symbols in it are no longer reachable by
// Lookup; referring to them afterwards is a caller bug.
func (t *Table) ExitScope() {
	if len(t.frames) > 1 {
		t.frames = t.frames[:len(t.frames)-1]
	}
}

// Depth reports how many frames are currently on the stack (>= 1).
func (t *Table) Depth() int {
	return len(t.frames)
}

// AtGlobalScope reports whether only the global frame is on the stack.
func (t *Table) AtGlobalScope() bool {
	return len(t.frames) == 1
}

func (t *Table) top() *Frame {
	return t.frames[len(t.frames)-1]
}

// Global returns the global (frame 0) symbol set.
func (t *Table) Global() *Frame {
	return t.frames[0]
}

// Declare adds entry to the top frame. It reports ok=false when the name
// already exists in the top frame (REDECLARATION); shadowing a name held
// by an outer frame is allowed and silent.
func (t *Table) Declare(entry symbols.Entry) (ok bool) {
	f := t.top()
	if _, exists := f.entries[entry.Name]; exists {
		return false
	}
	e := entry
	f.entries[entry.Name] = &e
	f.order = append(f.order, entry.Name)
	return true
}

// DeclareGlobal adds entry to the global frame regardless of current
// scope depth; function symbols are always declared globally.
func (t *Table) DeclareGlobal(entry symbols.Entry) (ok bool) {
	f := t.Global()
	if _, exists := f.entries[entry.Name]; exists {
		return false
	}
	e := entry
	f.entries[entry.Name] = &e
	f.order = append(f.order, entry.Name)
	return true
}

// Lookup searches frames top-down and returns the visible entry for name,
// or ok=false (UNDECLARED) if none is visible.
func (t *Table) Lookup(name string) (entry *symbols.Entry, ok bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if e, found := t.frames[i].entries[name]; found {
			return e, true
		}
	}
	return nil, false
}

// LookupCurrentScope checks only the top frame, used for REDECLARATION
// checks against the immediate scope rather than the whole stack.
func (t *Table) LookupCurrentScope(name string) (entry *symbols.Entry, ok bool) {
	e, found := t.top().entries[name]
	return e, found
}

// MarkInitialized locates name via Lookup and sets its Initialized flag.
// It reports ok=false (UNDECLARED) if the name is not visible.
func (t *Table) MarkInitialized(name string) (ok bool) {
	e, found := t.Lookup(name)
	if !found {
		return false
	}
	e.Initialized = true
	return true
}
