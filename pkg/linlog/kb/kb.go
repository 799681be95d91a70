// Package kb is the knowledge base: linear and reusable resources, rules and
// the type hierarchy they are matched under.
package kb

import (
	"crypto/rand"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/linlog/pkg/linlog/hierarchy"
	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
)

// Persistence is a resource's reuse policy
type Persistence int

const (
	// Linear resources are consumed by the first goal they satisfy
	Linear Persistence = iota
	// Exponential resources may be used any number of times
	Exponential
	// Persistent resources may be used any number of times
	Persistent
)

func (p Persistence) String() string {
	switch p {
	case Linear:
		return "linear"
	case Exponential:
		return "exponential"
	case Persistent:
		return "persistent"
	default:
		return fmt.Sprintf("persistence(%d)", int(p))
	}
}

// Resource is one fact in the knowledge base
type Resource struct {
	ID         ulid.ULID
	Fact       term.Term
	Level      Persistence
	MemoryHint int // node count of Fact

	consumed bool
}

// Consumed reports whether a linear resource has been used up
func (r *Resource) Consumed() bool { return r.consumed }

// Reusable reports whether matching never consumes r: either its level is
// not Linear, or its fact is wrapped as a persistent term.
func (r *Resource) Reusable() bool {
	return r.Level != Linear || term.IsPersistent(r.Fact)
}

// Clause is a rule. A nil Production makes it a plain derivation rule.
type Clause struct {
	ID         int
	Head       term.Term
	Body       []term.Term
	Production term.Term
}

// HasProduction reports whether firing the rule asserts a new resource
func (c *Clause) HasProduction() bool { return c.Production != nil }

// Options configures a knowledge base
type Options struct {
	// MaxRules caps the clause table; 0 means unbounded.
	MaxRules int
}

// KB owns resources, clauses and the type hierarchy. Every term it holds
// uses IDs from its symbol table. It is not safe for concurrent use.
type KB struct {
	syms      *symbol.Table
	types     *hierarchy.Hierarchy
	resources []*Resource
	clauses   []*Clause
	maxRules  int
	entropy   *ulid.MonotonicEntropy
}

// New creates an empty knowledge base over syms
func New(syms *symbol.Table, opts Options) *KB {
	return &KB{
		syms:     syms,
		types:    hierarchy.New(),
		maxRules: opts.MaxRules,
		entropy:  ulid.Monotonic(rand.Reader, 0),
	}
}

// Symbols returns the symbol table shared by all terms of the KB
func (k *KB) Symbols() *symbol.Table { return k.syms }

// Hierarchy returns the type hierarchy
func (k *KB) Hierarchy() *hierarchy.Hierarchy { return k.types }

// AddLinearFact stores a copy of t that is consumed on use
func (k *KB) AddLinearFact(t term.Term) *Resource { return k.addFact(t, Linear) }

// AddExponentialFact stores a reusable copy of t
func (k *KB) AddExponentialFact(t term.Term) *Resource { return k.addFact(t, Exponential) }

// AddPersistentFact stores a reusable copy of t
func (k *KB) AddPersistentFact(t term.Term) *Resource { return k.addFact(t, Persistent) }

func (k *KB) addFact(t term.Term, level Persistence) *Resource {
	fact := term.DeepCopy(t)
	r := &Resource{
		ID:         ulid.MustNew(ulid.Now(), k.entropy),
		Fact:       fact,
		Level:      level,
		MemoryHint: term.Size(fact),
	}
	k.resources = append(k.resources, r)
	return r
}

// AddRule stores a copy of head :- body, optionally asserting production
// when the body is satisfied. production may be nil.
func (k *KB) AddRule(head term.Term, body []term.Term, production term.Term) (*Clause, error) {
	if head == nil {
		return nil, fmt.Errorf("add rule: nil head: %w", internalerr.ErrInvalidInput)
	}
	if k.maxRules > 0 && len(k.clauses) >= k.maxRules {
		return nil, fmt.Errorf("add rule %d of %d: %w", len(k.clauses)+1, k.maxRules, internalerr.ErrRuleCapacity)
	}

	c := &Clause{
		ID:   len(k.clauses),
		Head: term.DeepCopy(head),
		Body: make([]term.Term, len(body)),
	}
	for i, g := range body {
		c.Body[i] = term.DeepCopy(g)
	}
	if production != nil {
		c.Production = term.DeepCopy(production)
	}
	k.clauses = append(k.clauses, c)
	return c, nil
}

// AddTypeMapping declares the term name to be of the given type
func (k *KB) AddTypeMapping(name, typ string) {
	k.types.AddTypeMapping(k.syms.Intern(name), k.syms.Intern(typ))
}

// AddUnionMapping declares variant to be a subtype of parent
func (k *KB) AddUnionMapping(variant, parent string) {
	k.types.AddUnionMapping(k.syms.Intern(variant), k.syms.Intern(parent))
}

// Resources returns every resource, consumed or not, in insertion order
func (k *KB) Resources() []*Resource {
	out := make([]*Resource, len(k.resources))
	copy(out, k.resources)
	return out
}

// Available returns the resources that can still be matched
func (k *KB) Available() []*Resource {
	out := make([]*Resource, 0, len(k.resources))
	for _, r := range k.resources {
		if !r.consumed {
			out = append(out, r)
		}
	}
	return out
}

// Clauses returns the rule table in insertion order
func (k *KB) Clauses() []*Clause {
	out := make([]*Clause, len(k.clauses))
	copy(out, k.clauses)
	return out
}

// Consume marks r as used. Reusable resources are never marked. It returns
// false if r was already consumed.
func (k *KB) Consume(r *Resource) bool {
	if r.consumed {
		return false
	}
	if !r.Reusable() {
		r.consumed = true
	}
	return true
}

// Stats summarises the KB contents
type Stats struct {
	Resources int
	Available int
	Clauses   int
	Types     int
	Unions    int
}

// Stats returns counts of the KB contents
func (k *KB) Stats() Stats {
	s := Stats{
		Resources: len(k.resources),
		Clauses:   len(k.clauses),
		Types:     k.types.TypeCount(),
		Unions:    k.types.UnionCount(),
	}
	for _, r := range k.resources {
		if !r.consumed {
			s.Available++
		}
	}
	return s
}
