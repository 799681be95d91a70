// Package unify implements bounded substitutions and structural unification
// with occurs check.
package unify

import (
	"fmt"
	"sort"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
)

// Subst maps variables to terms. The number of bindings is capped by the
// limit given to New; exceeding it is an error, never a silent drop.
type Subst struct {
	bindings map[symbol.VarID]term.Term
	limit    int
}

// New creates an empty substitution holding at most limit bindings.
// A limit <= 0 means unbounded.
func New(limit int) *Subst {
	return &Subst{
		bindings: make(map[symbol.VarID]term.Term),
		limit:    limit,
	}
}

// Clone returns an independent copy. Bound terms are immutable and shared.
func (s *Subst) Clone() *Subst {
	b := make(map[symbol.VarID]term.Term, len(s.bindings))
	for k, v := range s.bindings {
		b[k] = v
	}
	return &Subst{bindings: b, limit: s.limit}
}

// Len returns the number of bindings
func (s *Subst) Len() int { return len(s.bindings) }

// Limit returns the configured capacity (0 when unbounded)
func (s *Subst) Limit() int {
	if s.limit < 0 {
		return 0
	}
	return s.limit
}

// Lookup returns the term directly bound to v
func (s *Subst) Lookup(v symbol.VarID) (term.Term, bool) {
	t, ok := s.bindings[v]
	return t, ok
}

// Bind adds v -> t. Rebinding a bound variable is a caller error.
func (s *Subst) Bind(v symbol.VarID, t term.Term) error {
	if _, ok := s.bindings[v]; ok {
		return fmt.Errorf("variable %d already bound: %w", v, internalerr.ErrInvalidInput)
	}
	if s.limit > 0 && len(s.bindings) >= s.limit {
		return fmt.Errorf("binding %d of %d: %w", len(s.bindings)+1, s.limit, internalerr.ErrSubstitutionCapacity)
	}
	s.bindings[v] = t
	return nil
}

func (s *Subst) unbind(v symbol.VarID) {
	delete(s.bindings, v)
}

// Vars returns the bound variables in ascending ID order
func (s *Subst) Vars() []symbol.VarID {
	out := make([]symbol.VarID, 0, len(s.bindings))
	for v := range s.bindings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply instantiates t: bound variables are replaced by their (recursively
// instantiated) terms, everything else is kept.
func (s *Subst) Apply(t term.Term) term.Term {
	if len(s.bindings) == 0 {
		return t
	}
	return term.MapVars(t, func(v symbol.VarID) term.Term {
		if b, ok := s.bindings[v]; ok {
			return s.Apply(b)
		}
		return term.NewVar(v)
	})
}

// Compose folds other into s: every right-hand side already in s is
// instantiated under other, then bindings of other for variables s does not
// bind are added.
func (s *Subst) Compose(other *Subst) error {
	for v, t := range s.bindings {
		s.bindings[v] = other.Apply(t)
	}
	for _, v := range other.Vars() {
		if _, ok := s.bindings[v]; ok {
			continue
		}
		if err := s.Bind(v, other.bindings[v]); err != nil {
			return err
		}
	}
	return nil
}

// Format renders the substitution as {X = t, ...} in variable ID order
func (s *Subst) Format(names term.Names) string {
	out := "{"
	for i, v := range s.Vars() {
		if i > 0 {
			out += ", "
		}
		out += names.ResolveVar(v) + " = " + term.Format(s.bindings[v], names)
	}
	return out + "}"
}
