package unify

import (
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
)

// Hierarchy is the part of the type hierarchy matching needs
type Hierarchy interface {
	TypeOf(name symbol.ID) (symbol.ID, bool)
	IsVariantOf(variant, parent symbol.ID) bool
}

// Unify solves a = b, extending s. On failure s is left exactly as it was;
// the only error is a capacity overflow of s.
func Unify(a, b term.Term, s *Subst) (bool, error) {
	u := unifier{s: s}
	ok, err := u.unify(a, b)
	if !ok || err != nil {
		u.rollback()
		return false, err
	}
	return true, nil
}

type unifier struct {
	s     *Subst
	trail []symbol.VarID
}

func (u *unifier) bind(v symbol.VarID, t term.Term) error {
	if err := u.s.Bind(v, t); err != nil {
		return err
	}
	u.trail = append(u.trail, v)
	return nil
}

func (u *unifier) rollback() {
	for _, v := range u.trail {
		u.s.unbind(v)
	}
	u.trail = nil
}

func (u *unifier) unify(a, b term.Term) (bool, error) {
	a = term.Unwrap(u.s.Apply(a))
	b = term.Unwrap(u.s.Apply(b))

	if v, ok := a.(term.Var); ok {
		return u.bindVar(v, b)
	}
	if v, ok := b.(term.Var); ok {
		return u.bindVar(v, a)
	}

	switch x := a.(type) {
	case term.Atom:
		y, ok := b.(term.Atom)
		return ok && x.Sym == y.Sym, nil
	case term.Int:
		y, ok := b.(term.Int)
		return ok && x.Value == y.Value, nil
	case term.Compound:
		y, ok := b.(term.Compound)
		if !ok || x.Functor != y.Functor || len(x.Args) != len(y.Args) {
			return false, nil
		}
		for i := range x.Args {
			ok, err := u.unify(x.Args[i], y.Args[i])
			if !ok || err != nil {
				return false, err
			}
		}
		return true, nil
	case term.Var, term.Persistent:
		// handled above / removed by Unwrap
		return false, nil
	}
	return false, nil
}

func (u *unifier) bindVar(v term.Var, other term.Term) (bool, error) {
	if w, ok := other.(term.Var); ok && w.ID == v.ID {
		return true, nil
	}
	if term.ContainsVar(v.ID, other) {
		return false, nil
	}
	if err := u.bind(v.ID, other); err != nil {
		return false, err
	}
	return true, nil
}

// CanMatchWithType tries structural unification first. If that fails and
// both sides are atoms, the fact matches when its declared type is the goal
// atom or a variant of it. h may be nil.
func CanMatchWithType(goal, fact term.Term, h Hierarchy, s *Subst) (bool, error) {
	ok, err := Unify(goal, fact, s)
	if ok || err != nil || h == nil {
		return ok, err
	}

	g, gok := term.Unwrap(s.Apply(goal)).(term.Atom)
	f, fok := term.Unwrap(s.Apply(fact)).(term.Atom)
	if !gok || !fok {
		return false, nil
	}
	typ, ok := h.TypeOf(f.Sym)
	if !ok {
		return false, nil
	}
	return typ == g.Sym || h.IsVariantOf(typ, g.Sym), nil
}
