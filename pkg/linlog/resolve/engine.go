// Package resolve proves goal lists against a knowledge base.
//
// Two strategies share the same matching primitives. Prove and Resolve use
// forward (monotonic) resolution: consumption is never rolled back, and a
// goal only fails once every candidate has been tried. Enumerate uses
// backtracking: every candidate is explored inside a kb.Try transaction, so
// abandoned and successful branches alike leave the knowledge base as they
// found it, and each success contributes one independent solution.
//
// Candidates for a goal are the rules in insertion order, then the resources
// available when the goal is first attempted. Rules and non-ground facts are
// renamed apart with fresh variables on every use.
package resolve

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/kb"
	"github.com/cognicore/linlog/pkg/linlog/solution"
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
	"github.com/cognicore/linlog/pkg/linlog/trace"
	"github.com/cognicore/linlog/pkg/linlog/unify"
)

// Defaults applied by New to zero-valued options
const (
	DefaultMaxDepth     = 512
	DefaultMaxBindings  = 4096
	DefaultMaxSolutions = 256
)

// errStop ends a backtracking search once the solution bound is hit
var errStop = errors.New("resolve: solution bound reached")

// Options configures an Engine
type Options struct {
	// MaxDepth bounds the recursion depth of a single query.
	MaxDepth int
	// MaxBindings bounds the substitution of a single query.
	MaxBindings int
	// MaxSolutions bounds Enumerate's result set.
	MaxSolutions int

	Logger  *zap.Logger
	Tracker *trace.Tracker
}

// Engine resolves queries against one knowledge base. It is single-threaded
// and must not be shared between goroutines.
type Engine struct {
	kb   *kb.KB
	syms *symbol.Table
	opts Options
	log  *zap.Logger
	tr   *trace.Tracker
}

// New creates an engine over k
func New(k *kb.KB, opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxBindings <= 0 {
		opts.MaxBindings = DefaultMaxBindings
	}
	if opts.MaxSolutions <= 0 {
		opts.MaxSolutions = DefaultMaxSolutions
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		kb:   k,
		syms: k.Symbols(),
		opts: opts,
		log:  log,
		tr:   opts.Tracker,
	}
}

// Options returns the effective options
func (e *Engine) Options() Options { return e.opts }

// Resolve reports whether goals can be proven with forward resolution.
// Consumption performed while proving is kept.
func (e *Engine) Resolve(goals []term.Term) (bool, error) {
	_, ok, err := e.Prove(goals)
	return ok, err
}

// Prove is Resolve returning the bindings of the first proof found
func (e *Engine) Prove(goals []term.Term) (solution.Solution, bool, error) {
	e.startRun("prove", goals)
	col := solution.NewCollector(e.syms, goals)

	f := &forward{e: e}
	s, ok, err := f.solve(goals, unify.New(e.opts.MaxBindings), 0)
	if err != nil {
		e.log.Warn("query aborted", zap.Error(err))
		return solution.Solution{}, false, fmt.Errorf("prove: %w", err)
	}
	if !ok {
		e.record(trace.KindFail, 0, "no proof")
		return solution.Solution{}, false, nil
	}

	sol := col.Collect(s)
	e.record(trace.KindSolution, 0, sol.Format(e.syms))
	return sol, true, nil
}

// Enumerate collects every solution reachable by backtracking, up to
// MaxSolutions. The knowledge base is left unchanged.
func (e *Engine) Enumerate(goals []term.Term) (*solution.Set, error) {
	e.startRun("enumerate", goals)
	col := solution.NewCollector(e.syms, goals)
	set := solution.NewSet(e.opts.MaxSolutions)

	b := &backtrack{e: e}
	err := b.solve(goals, unify.New(e.opts.MaxBindings), 0, func(s *unify.Subst) error {
		sol := col.Collect(s)
		if !set.Add(sol) {
			return errStop
		}
		e.record(trace.KindSolution, 0, sol.Format(e.syms))
		return nil
	})
	if errors.Is(err, errStop) {
		e.log.Debug("solution bound reached", zap.Int("max", e.opts.MaxSolutions))
		err = nil
	}
	if err != nil {
		e.log.Warn("query aborted", zap.Error(err))
		return set, fmt.Errorf("enumerate: %w", err)
	}
	if set.Len() == 0 {
		e.record(trace.KindFail, 0, "no solutions")
	}
	return set, nil
}

// candidate is a rule or a resource that may satisfy a goal
type candidate struct {
	clause *kb.Clause
	res    *kb.Resource
}

// candidates lists rules first, then currently available resources
func (e *Engine) candidates() []candidate {
	clauses := e.kb.Clauses()
	avail := e.kb.Available()
	out := make([]candidate, 0, len(clauses)+len(avail))
	for _, c := range clauses {
		out = append(out, candidate{clause: c})
	}
	for _, r := range avail {
		out = append(out, candidate{res: r})
	}
	return out
}

func (e *Engine) checkDepth(depth int) error {
	if depth > e.opts.MaxDepth {
		return fmt.Errorf("depth %d > %d: %w", depth, e.opts.MaxDepth, internalerr.ErrDepthExceeded)
	}
	return nil
}

// rename gives the clause's variables fresh IDs
func (e *Engine) rename(c *kb.Clause) *kb.Clause {
	ts := make([]term.Term, 0, len(c.Body)+2)
	ts = append(ts, c.Head)
	ts = append(ts, c.Body...)
	if c.Production != nil {
		ts = append(ts, c.Production)
	}
	vars := term.Vars(ts...)
	if len(vars) == 0 {
		return c
	}

	fresh := e.freshMap(vars)
	out := &kb.Clause{
		ID:   c.ID,
		Head: term.MapVars(c.Head, fresh),
		Body: make([]term.Term, len(c.Body)),
	}
	for i, g := range c.Body {
		out.Body[i] = term.MapVars(g, fresh)
	}
	if c.Production != nil {
		out.Production = term.MapVars(c.Production, fresh)
	}
	return out
}

// renameFact gives a non-ground fact fresh variables
func (e *Engine) renameFact(t term.Term) term.Term {
	vars := term.Vars(t)
	if len(vars) == 0 {
		return t
	}
	return term.MapVars(t, e.freshMap(vars))
}

func (e *Engine) freshMap(vars []symbol.VarID) func(symbol.VarID) term.Term {
	m := make(map[symbol.VarID]term.Term, len(vars))
	for _, v := range vars {
		m[v] = term.NewVar(e.syms.FreshVar(baseName(e.syms.ResolveVar(v))))
	}
	return func(v symbol.VarID) term.Term {
		if t, ok := m[v]; ok {
			return t
		}
		return term.NewVar(v)
	}
}

// baseName strips a previous freshening suffix so names stay short
func baseName(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '#' {
			return name[:i]
		}
	}
	return name
}

// matchResource tries r against goal under a copy of s. On success a linear
// resource is consumed and the extended substitution returned.
func (e *Engine) matchResource(r *kb.Resource, goal term.Term, s *unify.Subst, depth int) (*unify.Subst, bool, error) {
	if r.Consumed() {
		return nil, false, nil
	}
	s1 := s.Clone()
	ok, err := unify.CanMatchWithType(goal, e.renameFact(r.Fact), e.kb.Hierarchy(), s1)
	if err != nil || !ok {
		return nil, false, err
	}
	e.kb.Consume(r)
	if !r.Reusable() {
		e.record(trace.KindConsume, depth, e.format(r.Fact))
		e.log.Debug("resource consumed", zap.Stringer("fact", e.lazy(r.Fact)), zap.Int("depth", depth))
	}
	return s1, true, nil
}

// unifyClause renames c and unifies goal with its head, or failing that its
// production. It returns the renamed clause and the extended substitution.
func (e *Engine) unifyClause(c *kb.Clause, goal term.Term, s *unify.Subst) (*kb.Clause, *unify.Subst, bool, error) {
	cl := e.rename(c)
	s1 := s.Clone()
	ok, err := unify.Unify(goal, cl.Head, s1)
	if err != nil {
		return nil, nil, false, err
	}
	if !ok && cl.HasProduction() {
		if ok, err = unify.Unify(goal, cl.Production, s1); err != nil {
			return nil, nil, false, err
		}
	}
	return cl, s1, ok, nil
}

// assertProduction adds the instantiated production as a linear resource
func (e *Engine) assertProduction(cl *kb.Clause, s *unify.Subst, depth int) {
	fact := s.Apply(cl.Production)
	e.kb.AddLinearFact(fact)
	e.record(trace.KindAssert, depth, e.format(fact))
	e.log.Debug("production asserted", zap.Stringer("fact", e.lazy(fact)), zap.Int("rule", cl.ID))
}

func (e *Engine) fired(cl *kb.Clause, goal term.Term, s *unify.Subst, depth int) {
	if e.tr != nil {
		e.record(trace.KindFire, depth, fmt.Sprintf("rule #%d for %s", cl.ID, e.format(s.Apply(goal))))
	}
	e.log.Debug("rule fired", zap.Int("rule", cl.ID), zap.Int("depth", depth))
}

func (e *Engine) startRun(mode string, goals []term.Term) {
	if e.tr != nil {
		e.tr.StartRun(mode + " " + term.FormatList(goals, e.syms))
	}
}

func (e *Engine) record(kind trace.Kind, depth int, detail string) {
	if e.tr != nil {
		e.tr.Record(kind, depth, detail)
	}
}

func (e *Engine) format(t term.Term) string {
	if e.tr == nil {
		return ""
	}
	return term.Format(t, e.syms)
}

// lazy defers term formatting until a log entry is actually written
func (e *Engine) lazy(t term.Term) fmt.Stringer {
	return lazyTerm{t: t, names: e.syms}
}

type lazyTerm struct {
	t     term.Term
	names term.Names
}

func (l lazyTerm) String() string { return term.Format(l.t, l.names) }
