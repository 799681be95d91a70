// Package term defines the immutable term model: atoms, variables,
// integers, compounds and the persistent wrapper.
//
// Term is a closed sum type. Every switch over it in this module spells out
// all five variants; there is no catch-all branch.
package term

import (
	"github.com/cognicore/linlog/pkg/linlog/symbol"
)

// Term is one of Atom, Var, Int, Compound or Persistent.
type Term interface {
	isTerm()
}

// Atom is a constant symbol
type Atom struct {
	Sym symbol.ID
}

// Var is a logic variable
type Var struct {
	ID symbol.VarID
}

// Int is a 64-bit integer constant
type Int struct {
	Value int64
}

// Compound is a functor applied to a fixed list of arguments.
// Args must not be mutated after construction.
type Compound struct {
	Functor symbol.ID
	Args    []Term
}

// Persistent marks the wrapped term as reusable. Matching looks through it.
type Persistent struct {
	Inner Term
}

func (Atom) isTerm()       {}
func (Var) isTerm()        {}
func (Int) isTerm()        {}
func (Compound) isTerm()   {}
func (Persistent) isTerm() {}

// NewAtom creates an atom term
func NewAtom(sym symbol.ID) Term { return Atom{Sym: sym} }

// NewVar creates a variable term
func NewVar(id symbol.VarID) Term { return Var{ID: id} }

// NewInt creates an integer term
func NewInt(v int64) Term { return Int{Value: v} }

// NewCompound creates a compound term. The argument slice is copied so the
// caller may reuse it.
func NewCompound(functor symbol.ID, args ...Term) Term {
	owned := make([]Term, len(args))
	copy(owned, args)
	return Compound{Functor: functor, Args: owned}
}

// NewPersistent wraps t as a persistent term
func NewPersistent(t Term) Term { return Persistent{Inner: t} }

// Arity returns the number of arguments
func (c Compound) Arity() int { return len(c.Args) }

// DeepCopy returns a structurally identical term sharing no argument slices
// with t.
func DeepCopy(t Term) Term {
	switch v := t.(type) {
	case Atom, Var, Int:
		return v
	case Compound:
		args := make([]Term, len(v.Args))
		for i, a := range v.Args {
			args[i] = DeepCopy(a)
		}
		return Compound{Functor: v.Functor, Args: args}
	case Persistent:
		return Persistent{Inner: DeepCopy(v.Inner)}
	}
	return t
}

// Equal reports structural equality. Persistent wrappers on either side are
// looked through, so !a equals a.
func Equal(a, b Term) bool {
	a, b = Unwrap(a), Unwrap(b)
	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x.Sym == y.Sym
	case Var:
		y, ok := b.(Var)
		return ok && x.ID == y.ID
	case Int:
		y, ok := b.(Int)
		return ok && x.Value == y.Value
	case Compound:
		y, ok := b.(Compound)
		if !ok || x.Functor != y.Functor || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	case Persistent:
		// unreachable after Unwrap
		return Equal(x.Inner, b)
	}
	return false
}

// ContainsVar is the occurs check: it reports whether v appears anywhere in t.
func ContainsVar(v symbol.VarID, t Term) bool {
	switch x := t.(type) {
	case Atom, Int:
		return false
	case Var:
		return x.ID == v
	case Compound:
		for _, a := range x.Args {
			if ContainsVar(v, a) {
				return true
			}
		}
		return false
	case Persistent:
		return ContainsVar(v, x.Inner)
	}
	return false
}

// IsPersistent reports whether t is the persistent wrapper variant. This is a
// property of the term, unrelated to a resource's persistence level.
func IsPersistent(t Term) bool {
	_, ok := t.(Persistent)
	return ok
}

// Unwrap strips any number of persistent wrappers
func Unwrap(t Term) Term {
	for {
		p, ok := t.(Persistent)
		if !ok {
			return t
		}
		t = p.Inner
	}
}

// HasFreeVars reports whether t contains at least one variable
func HasFreeVars(t Term) bool {
	switch x := t.(type) {
	case Atom, Int:
		return false
	case Var:
		return true
	case Compound:
		for _, a := range x.Args {
			if HasFreeVars(a) {
				return true
			}
		}
		return false
	case Persistent:
		return HasFreeVars(x.Inner)
	}
	return false
}

// Vars returns the distinct variables of the given terms in order of first
// occurrence.
func Vars(ts ...Term) []symbol.VarID {
	var out []symbol.VarID
	seen := make(map[symbol.VarID]struct{})
	var walk func(Term)
	walk = func(t Term) {
		switch x := t.(type) {
		case Atom, Int:
		case Var:
			if _, ok := seen[x.ID]; !ok {
				seen[x.ID] = struct{}{}
				out = append(out, x.ID)
			}
		case Compound:
			for _, a := range x.Args {
				walk(a)
			}
		case Persistent:
			walk(x.Inner)
		}
	}
	for _, t := range ts {
		walk(t)
	}
	return out
}

// MapVars rebuilds t with every variable replaced by f(id). Subterms without
// variables are returned as-is.
func MapVars(t Term, f func(symbol.VarID) Term) Term {
	switch x := t.(type) {
	case Atom, Int:
		return x
	case Var:
		return f(x.ID)
	case Compound:
		var args []Term
		for i, a := range x.Args {
			m := MapVars(a, f)
			if args == nil && !sameTerm(m, a) {
				args = make([]Term, len(x.Args))
				copy(args, x.Args[:i])
			}
			if args != nil {
				args[i] = m
			}
		}
		if args == nil {
			return x
		}
		return Compound{Functor: x.Functor, Args: args}
	case Persistent:
		return Persistent{Inner: MapVars(x.Inner, f)}
	}
	return t
}

// sameTerm is a cheap identity check used to avoid reallocating unchanged
// argument lists.
func sameTerm(a, b Term) bool {
	switch x := a.(type) {
	case Atom, Var, Int:
		return a == b
	case Compound:
		y, ok := b.(Compound)
		return ok && x.Functor == y.Functor && len(x.Args) == len(y.Args) &&
			(len(x.Args) == 0 || &x.Args[0] == &y.Args[0])
	case Persistent:
		y, ok := b.(Persistent)
		return ok && sameTerm(x.Inner, y.Inner)
	}
	return false
}

// Size counts the nodes of t. The knowledge base records it as a memory hint.
func Size(t Term) int {
	switch x := t.(type) {
	case Atom, Var, Int:
		return 1
	case Compound:
		n := 1
		for _, a := range x.Args {
			n += Size(a)
		}
		return n
	case Persistent:
		return 1 + Size(x.Inner)
	}
	return 0
}
