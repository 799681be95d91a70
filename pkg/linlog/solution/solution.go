// Package solution turns successful resolution branches into variable
// bindings and collects them up to a configured bound.
package solution

import (
	"strings"

	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
	"github.com/cognicore/linlog/pkg/linlog/unify"
)

// Binding is one query variable and its final value
type Binding struct {
	Name  string
	Var   symbol.VarID
	Value term.Term
}

// Solution holds the bindings of one successful branch, in order of first
// occurrence in the query.
type Solution struct {
	Bindings []Binding
}

// Lookup returns the value bound to the named variable
func (s Solution) Lookup(name string) (term.Term, bool) {
	for _, b := range s.Bindings {
		if b.Name == name {
			return b.Value, true
		}
	}
	return nil, false
}

// Format renders "X = a, Y = f(b)", or "true" when there is nothing to show
func (s Solution) Format(names term.Names) string {
	if len(s.Bindings) == 0 {
		return "true"
	}
	parts := make([]string, len(s.Bindings))
	for i, b := range s.Bindings {
		parts[i] = b.Name + " = " + term.Format(b.Value, names)
	}
	return strings.Join(parts, ", ")
}

// Collector extracts solutions for a fixed query
type Collector struct {
	names *symbol.Table
	vars  []symbol.VarID
}

// NewCollector prepares a collector for the query goals. Anonymous
// variables (names starting with '_') are not reported.
func NewCollector(names *symbol.Table, goals []term.Term) *Collector {
	c := &Collector{names: names}
	for _, v := range term.Vars(goals...) {
		if strings.HasPrefix(names.ResolveVar(v), "_") {
			continue
		}
		c.vars = append(c.vars, v)
	}
	return c
}

// Vars returns the reported query variables
func (c *Collector) Vars() []symbol.VarID { return c.vars }

// Collect resolves every query variable through s
func (c *Collector) Collect(s *unify.Subst) Solution {
	sol := Solution{Bindings: make([]Binding, len(c.vars))}
	for i, v := range c.vars {
		sol.Bindings[i] = Binding{
			Name:  c.names.ResolveVar(v),
			Var:   v,
			Value: s.Apply(term.NewVar(v)),
		}
	}
	return sol
}

// Set is a bounded list of solutions. Once full, further solutions are
// refused and Truncated reports it.
type Set struct {
	max       int
	solutions []Solution
	truncated bool
}

// NewSet creates a set holding at most max solutions; max <= 0 is unbounded
func NewSet(max int) *Set {
	return &Set{max: max}
}

// Add appends sol. It returns false, and marks the set truncated, when the
// bound has already been reached.
func (s *Set) Add(sol Solution) bool {
	if s.Full() {
		s.truncated = true
		return false
	}
	s.solutions = append(s.solutions, sol)
	return true
}

// Full reports whether the bound has been reached
func (s *Set) Full() bool {
	return s.max > 0 && len(s.solutions) >= s.max
}

// MarkTruncated records that the search stopped with solutions left over
func (s *Set) MarkTruncated() { s.truncated = true }

// Solutions returns the collected solutions
func (s *Set) Solutions() []Solution { return s.solutions }

// Len returns the number of collected solutions
func (s *Set) Len() int { return len(s.solutions) }

// Truncated reports whether solutions were refused because of the bound
func (s *Set) Truncated() bool { return s.truncated }
