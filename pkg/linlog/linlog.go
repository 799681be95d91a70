package linlog

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/linlog/pkg/linlog/config"
	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/kb"
	"github.com/cognicore/linlog/pkg/linlog/parse"
	"github.com/cognicore/linlog/pkg/linlog/resolve"
	"github.com/cognicore/linlog/pkg/linlog/solution"
	"github.com/cognicore/linlog/pkg/linlog/store"
	"github.com/cognicore/linlog/pkg/linlog/store/memstore"
	"github.com/cognicore/linlog/pkg/linlog/store/sqlite"
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
	"github.com/cognicore/linlog/pkg/linlog/trace"
)

// Runtime is the main facade: one symbol table, one knowledge base and the
// engine that queries it, all addressed with the textual term syntax.
type Runtime struct {
	syms    *symbol.Table
	kb      *kb.KB
	engine  *resolve.Engine
	tracker *trace.Tracker
	store   store.Store
	log     *zap.Logger
}

// Options configures a Runtime
type Options struct {
	Engine  config.Engine
	Logger  *zap.Logger
	Tracker *trace.Tracker
	// Store receives the tracker's events on FlushTrace. It is closed by
	// Close.
	Store store.Store
}

// New creates an empty runtime
func New(opts Options) *Runtime {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	syms := symbol.NewTable()
	k := kb.New(syms, kb.Options{MaxRules: opts.Engine.MaxRules})

	ropts := opts.Engine.ResolveOptions()
	ropts.Logger = log.Named("resolve")
	ropts.Tracker = opts.Tracker

	return &Runtime{
		syms:    syms,
		kb:      k,
		engine:  resolve.New(k, ropts),
		tracker: opts.Tracker,
		store:   opts.Store,
		log:     log,
	}
}

// Open builds a runtime from loaded components, opening the configured
// trace store when tracing is enabled, and loads the program.
func Open(ctx context.Context, comp *config.Components, log *zap.Logger) (*Runtime, error) {
	opts := Options{Engine: comp.Config.Engine, Logger: log}

	if tc := comp.Config.Trace; tc.Enabled {
		opts.Tracker = trace.New()
		switch tc.Store {
		case config.StoreSQLite:
			st, err := sqlite.OpenSQLite(ctx, tc.DSN)
			if err != nil {
				return nil, fmt.Errorf("open trace store: %w", err)
			}
			opts.Store = st
		default:
			opts.Store = memstore.New()
		}
	}

	rt := New(opts)
	if err := rt.LoadProgram(comp.Program); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases the trace store, if any
func (r *Runtime) Close() error {
	if r.store == nil {
		return nil
	}
	return r.store.Close()
}

// Symbols returns the runtime's symbol table
func (r *Runtime) Symbols() *symbol.Table { return r.syms }

// KB returns the underlying knowledge base
func (r *Runtime) KB() *kb.KB { return r.kb }

// Engine returns the resolution engine
func (r *Runtime) Engine() *resolve.Engine { return r.engine }

// Tracker returns the trace tracker; nil when tracing is off
func (r *Runtime) Tracker() *trace.Tracker { return r.tracker }

// Store returns the trace store; nil when tracing is off
func (r *Runtime) Store() store.Store { return r.store }

// AddLinearFact adds a fact that is consumed on use
func (r *Runtime) AddLinearFact(src string) error {
	return r.addFact(src, r.kb.AddLinearFact)
}

// AddExponentialFact adds a fact that may be used any number of times
func (r *Runtime) AddExponentialFact(src string) error {
	return r.addFact(src, r.kb.AddExponentialFact)
}

// AddPersistentFact adds a fact that is never consumed
func (r *Runtime) AddPersistentFact(src string) error {
	return r.addFact(src, r.kb.AddPersistentFact)
}

func (r *Runtime) addFact(src string, add func(term.Term) *kb.Resource) error {
	t, err := parse.ParseTerm(r.syms, src)
	if err != nil {
		return fmt.Errorf("fact %q: %w", src, err)
	}
	res := add(t)
	r.log.Debug("fact added", zap.String("fact", src), zap.Stringer("level", res.Level), zap.Stringer("id", res.ID))
	return nil
}

// AddRule adds head :- body. A non-empty production is asserted each time
// the rule fires.
func (r *Runtime) AddRule(head string, body []string, production string) error {
	h, err := parse.ParseTerm(r.syms, head)
	if err != nil {
		return fmt.Errorf("rule head %q: %w", head, err)
	}
	bs := make([]term.Term, 0, len(body))
	for _, src := range body {
		g, err := parse.ParseTerm(r.syms, src)
		if err != nil {
			return fmt.Errorf("rule %q body %q: %w", head, src, err)
		}
		bs = append(bs, g)
	}
	var prod term.Term
	if production != "" {
		if prod, err = parse.ParseTerm(r.syms, production); err != nil {
			return fmt.Errorf("rule %q production %q: %w", head, production, err)
		}
	}

	c, err := r.kb.AddRule(h, bs, prod)
	if err != nil {
		return fmt.Errorf("rule %q: %w", head, err)
	}
	r.log.Debug("rule added", zap.Int("id", c.ID), zap.String("head", head), zap.Int("body", len(bs)))
	return nil
}

// AddTypeMapping declares that the atom name has type typ
func (r *Runtime) AddTypeMapping(name, typ string) { r.kb.AddTypeMapping(name, typ) }

// AddUnionMapping declares variant a subtype of parent
func (r *Runtime) AddUnionMapping(variant, parent string) { r.kb.AddUnionMapping(variant, parent) }

// LoadProgram adds everything in p. Type declarations are loaded first, in
// name order, then facts and rules in file order.
func (r *Runtime) LoadProgram(p *config.Program) error {
	if p == nil {
		return nil
	}

	for _, name := range sortedKeys(p.Types) {
		r.AddTypeMapping(name, p.Types[name])
	}
	for _, variant := range sortedKeys(p.Unions) {
		for _, parent := range p.Unions[variant] {
			r.AddUnionMapping(variant, parent)
		}
	}

	groups := []struct {
		facts []string
		add   func(string) error
	}{
		{p.Linear, r.AddLinearFact},
		{p.Exponential, r.AddExponentialFact},
		{p.Persistent, r.AddPersistentFact},
	}
	for _, g := range groups {
		for _, f := range g.facts {
			if err := g.add(f); err != nil {
				return fmt.Errorf("load program: %w", err)
			}
		}
	}

	for _, rule := range p.Rules {
		if err := r.AddRule(rule.Head, rule.Body, rule.Production); err != nil {
			return fmt.Errorf("load program: %w", err)
		}
	}

	st := r.kb.Stats()
	r.log.Info("program loaded",
		zap.Int("resources", st.Resources),
		zap.Int("rules", st.Clauses),
		zap.Int("types", st.Types),
		zap.Int("unions", st.Unions),
	)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Goals parses a comma-separated query
func (r *Runtime) Goals(query string) ([]term.Term, error) {
	goals, err := parse.ParseGoals(r.syms, query)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", query, err)
	}
	return goals, nil
}

// Resolve runs query with forward resolution. Consumption is kept.
func (r *Runtime) Resolve(query string) (bool, error) {
	_, ok, err := r.Prove(query)
	return ok, err
}

// Prove runs query with forward resolution and returns the first solution
func (r *Runtime) Prove(query string) (solution.Solution, bool, error) {
	goals, err := r.Goals(query)
	if err != nil {
		return solution.Solution{}, false, err
	}
	return r.engine.Prove(goals)
}

// Enumerate returns all solutions of query by backtracking. The knowledge
// base is left unchanged.
func (r *Runtime) Enumerate(query string) (*solution.Set, error) {
	goals, err := r.Goals(query)
	if err != nil {
		return nil, err
	}
	return r.engine.Enumerate(goals)
}

// FormatSolution renders sol with the runtime's names
func (r *Runtime) FormatSolution(sol solution.Solution) string {
	return sol.Format(r.syms)
}

// FormatTerm renders t with the runtime's names
func (r *Runtime) FormatTerm(t term.Term) string {
	return term.Format(t, r.syms)
}

// Stats returns the knowledge base counts
func (r *Runtime) Stats() kb.Stats { return r.kb.Stats() }

// FlushTrace moves buffered trace events into the trace store
func (r *Runtime) FlushTrace(ctx context.Context) error {
	if r.tracker == nil || r.store == nil {
		return fmt.Errorf("flush trace: tracing disabled: %w", internalerr.ErrStoreUnavailable)
	}
	return r.tracker.Flush(ctx, r.store)
}
