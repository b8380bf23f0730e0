// Package symtab implements the two-scope symbol table used by the
// compilation engine: class scope (static, field) and subroutine scope
// (argument, local), each with independent per-kind running indices.
package symtab

import "fmt"

// Kind classifies a symbol entry by where it lives and how it is addressed
// at the VM level.
type Kind string

const (
	Invalid  Kind = ""
	Static   Kind = "static"
	Field    Kind = "field"
	Argument Kind = "argument"
	Local    Kind = "local"
)

// Entry is one row of the symbol table: name, declared type, kind, and its
// running index within its (kind, scope) bucket.
type Entry struct {
	Name  string
	Type  string
	Kind  Kind
	Index int
}

// Table is the compiler's two-scope symbol table. Class scope survives for
// one class compilation; subroutine scope is cleared at every
// StartSubroutine.
type Table struct {
	class      map[string]Entry
	subroutine map[string]Entry

	classCounts      map[Kind]int
	subroutineCounts map[Kind]int
}

// New returns an empty symbol table, ready for StartClass.
func New() *Table {
	t := &Table{}
	t.StartClass()
	return t
}

// StartClass clears class scope (static and field entries) and its
// counters. Called once per class compilation, before any classVarDec.
func (t *Table) StartClass() {
	t.class = make(map[string]Entry)
	t.classCounts = make(map[Kind]int)
}

// StartSubroutine clears subroutine scope (argument and local entries) and
// its counters. It must NOT touch class scope: a class's fields and statics
// must survive every one of its subroutines, since the field counter feeds
// every constructor's Memory.alloc size.
func (t *Table) StartSubroutine() {
	t.subroutine = make(map[string]Entry)
	t.subroutineCounts = make(map[Kind]int)
}

func (t *Table) bucketFor(kind Kind) (map[string]Entry, map[Kind]int) {
	switch kind {
	case Static, Field:
		return t.class, t.classCounts
	case Argument, Local:
		return t.subroutine, t.subroutineCounts
	default:
		panic(fmt.Sprintf("symtab: invalid kind %q", kind))
	}
}

// Define inserts name with the given type and kind, assigning it the next
// running index for that kind within its scope. Redefining a name already
// present in the same scope is accepted silently: last write wins, and the
// redefinition takes the next running index like any other definition
// (spec.md §4.2/§9 — the teacher does this too).
func (t *Table) Define(name, typ string, kind Kind) Entry {
	bucket, counts := t.bucketFor(kind)
	entry := Entry{Name: name, Type: typ, Kind: kind, Index: counts[kind]}
	counts[kind]++
	bucket[name] = entry
	return entry
}

// Count returns the number of entries of kind declared so far in its scope.
func (t *Table) Count(kind Kind) int {
	_, counts := t.bucketFor(kind)
	return counts[kind]
}

// lookup finds name, trying subroutine scope first so that a local shadows
// a field or static of the same name.
func (t *Table) lookup(name string) (Entry, bool) {
	if e, ok := t.subroutine[name]; ok {
		return e, true
	}
	if e, ok := t.class[name]; ok {
		return e, true
	}
	return Entry{}, false
}

// Defined reports whether name is declared in either scope, the test that
// tells "X.foo()" as a method call on variable X from a static call on
// class X. The compiler makes this distinction through Lookup.
func (t *Table) Defined(name string) bool {
	_, ok := t.lookup(name)
	return ok
}

// KindOf returns the kind of name, or Invalid if it is not declared.
func (t *Table) KindOf(name string) Kind {
	e, ok := t.lookup(name)
	if !ok {
		return Invalid
	}
	return e.Kind
}

// TypeOf returns the declared type of name. Panics if name is not declared;
// callers must check Defined first. (The compiler does not call TypeOf; it
// uses Lookup and turns a miss into a SemanticError.)
func (t *Table) TypeOf(name string) string {
	e, ok := t.lookup(name)
	if !ok {
		panic(fmt.Sprintf("symtab: TypeOf of undeclared name %q", name))
	}
	return e.Type
}

// IndexOf returns the running index of name within its (kind, scope)
// bucket. Panics if name is not declared; callers must check Defined first.
func (t *Table) IndexOf(name string) int {
	e, ok := t.lookup(name)
	if !ok {
		panic(fmt.Sprintf("symtab: IndexOf of undeclared name %q", name))
	}
	return e.Index
}

// Lookup returns the full entry for name.
func (t *Table) Lookup(name string) (Entry, bool) {
	return t.lookup(name)
}
