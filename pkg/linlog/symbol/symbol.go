// Package symbol interns atom, functor and variable names into compact IDs.
//
// Symbols and variables live in separate namespaces: interning "x" as a
// symbol and as a variable yields two unrelated IDs. IDs are only meaningful
// within the Table that issued them.
package symbol

import "fmt"

// ID identifies an interned atom or functor name.
type ID uint32

// VarID identifies an interned variable name.
type VarID uint32

// Table is an append-only intern table. It is not safe for concurrent use.
type Table struct {
	syms   []string
	symIdx map[string]ID

	vars   []string
	varIdx map[string]VarID

	fresh int // counter for FreshVar
}

// NewTable creates an empty symbol table
func NewTable() *Table {
	return &Table{
		symIdx: make(map[string]ID),
		varIdx: make(map[string]VarID),
	}
}

// Intern returns the ID for name, allocating one on first use
func (t *Table) Intern(name string) ID {
	if id, ok := t.symIdx[name]; ok {
		return id
	}
	id := ID(len(t.syms))
	t.syms = append(t.syms, name)
	t.symIdx[name] = id
	return id
}

// Lookup returns the ID of an already-interned symbol
func (t *Table) Lookup(name string) (ID, bool) {
	id, ok := t.symIdx[name]
	return id, ok
}

// Resolve returns the string for id. Unknown IDs render as "#<id>".
func (t *Table) Resolve(id ID) string {
	if int(id) < len(t.syms) {
		return t.syms[id]
	}
	return fmt.Sprintf("#%d", id)
}

// InternVar returns the VarID for name, allocating one on first use
func (t *Table) InternVar(name string) VarID {
	if id, ok := t.varIdx[name]; ok {
		return id
	}
	id := VarID(len(t.vars))
	t.vars = append(t.vars, name)
	t.varIdx[name] = id
	return id
}

// ResolveVar returns the name for a variable. Unknown IDs render as "_G<id>".
func (t *Table) ResolveVar(id VarID) string {
	if int(id) < len(t.vars) {
		return t.vars[id]
	}
	return fmt.Sprintf("_G%d", id)
}

// FreshVar allocates a variable that no parsed name can collide with.
// The base name is kept as a prefix so traces stay readable.
func (t *Table) FreshVar(base string) VarID {
	for {
		t.fresh++
		name := fmt.Sprintf("%s#%d", base, t.fresh)
		if _, taken := t.varIdx[name]; !taken {
			return t.InternVar(name)
		}
	}
}

// Len returns the number of interned symbols
func (t *Table) Len() int { return len(t.syms) }

// VarLen returns the number of interned variables
func (t *Table) VarLen() int { return len(t.vars) }
