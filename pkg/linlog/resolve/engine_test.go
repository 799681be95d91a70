package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cognicore/linlog/pkg/linlog/internalerr"
	"github.com/cognicore/linlog/pkg/linlog/kb"
	"github.com/cognicore/linlog/pkg/linlog/parse"
	"github.com/cognicore/linlog/pkg/linlog/solution"
	"github.com/cognicore/linlog/pkg/linlog/symbol"
	"github.com/cognicore/linlog/pkg/linlog/term"
	"github.com/cognicore/linlog/pkg/linlog/trace"
)

type fixture struct {
	t   *testing.T
	tab *symbol.Table
	kb  *kb.KB
}

func newFixture(t *testing.T) *fixture {
	tab := symbol.NewTable()
	return &fixture{t: t, tab: tab, kb: kb.New(tab, kb.Options{})}
}

func (f *fixture) term(src string) term.Term { return parse.MustParseTerm(f.tab, src) }

func (f *fixture) goals(src string) []term.Term {
	f.t.Helper()
	gs, err := parse.ParseGoals(f.tab, src)
	if err != nil {
		f.t.Fatalf("goals %q: %v", src, err)
	}
	return gs
}

func (f *fixture) linear(src string) *kb.Resource      { return f.kb.AddLinearFact(f.term(src)) }
func (f *fixture) exponential(src string) *kb.Resource { return f.kb.AddExponentialFact(f.term(src)) }
func (f *fixture) persistent(src string) *kb.Resource  { return f.kb.AddPersistentFact(f.term(src)) }

func (f *fixture) rule(head string, body []string, production string) {
	f.t.Helper()
	var bs []term.Term
	for _, b := range body {
		bs = append(bs, f.term(b))
	}
	var prod term.Term
	if production != "" {
		prod = f.term(production)
	}
	if _, err := f.kb.AddRule(f.term(head), bs, prod); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) engine(opts Options) *Engine { return New(f.kb, opts) }

func formatAll(set *solution.Set, names term.Names) []string {
	var out []string
	for _, s := range set.Solutions() {
		out = append(out, s.Format(names))
	}
	return out
}

func TestAncestorChain(t *testing.T) {
	f := newFixture(t)
	f.persistent("parent(alice, bob)")
	f.persistent("parent(bob, carol)")
	f.rule("ancestor(X, Y)", []string{"parent(X, Y)"}, "")
	f.rule("ancestor(X, Y)", []string{"parent(X, Z)", "ancestor(Z, Y)"}, "")

	e := f.engine(Options{})
	for _, q := range []string{"ancestor(alice, carol)", "ancestor(alice, bob)", "ancestor(bob, carol)"} {
		ok, err := e.Resolve(f.goals(q))
		if err != nil || !ok {
			t.Errorf("%s = %v, %v; want true", q, ok, err)
		}
	}
	if ok, _ := e.Resolve(f.goals("ancestor(carol, alice)")); ok {
		t.Error("ancestor(carol, alice) should fail")
	}

	set, err := e.Enumerate(f.goals("ancestor(alice, Who)"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Who = bob", "Who = carol"}
	if diff := cmp.Diff(want, formatAll(set, f.tab)); diff != "" {
		t.Errorf("ancestors (-want +got):\n%s", diff)
	}
}

func TestExponentialFactSharedByRules(t *testing.T) {
	f := newFixture(t)
	food := f.exponential("food")
	f.rule("fed_cat", []string{"food"}, "")
	f.rule("fed_dog", []string{"food"}, "")

	ok, err := f.engine(Options{}).Resolve(f.goals("fed_cat, fed_dog"))
	if err != nil || !ok {
		t.Fatalf("Resolve = %v, %v", ok, err)
	}
	if food.Consumed() {
		t.Error("exponential fact must not be exhausted")
	}
}

func TestLinearFactConsumedOnce(t *testing.T) {
	f := newFixture(t)
	f.linear("has(bread)")

	e := f.engine(Options{})
	if ok, _ := e.Resolve(f.goals("has(bread), has(bread)")); ok {
		t.Error("a single linear fact cannot satisfy two goals")
	}

	g := newFixture(t)
	g.linear("bread")
	g.rule("has(X)", []string{"X"}, "")
	if ok, _ := g.engine(Options{}).Resolve(g.goals("has(bread), has(bread)")); ok {
		t.Error("rule-mediated double consumption should fail")
	}
}

func TestForwardKeepsConsumptionOnFailure(t *testing.T) {
	f := newFixture(t)
	bread := f.linear("bread")
	sun := f.persistent("sun")

	before := f.kb.Snapshot()
	ok, err := f.engine(Options{}).Resolve(f.goals("bread, sun, unsat"))
	if err != nil || ok {
		t.Fatalf("Resolve = %v, %v", ok, err)
	}
	if !bread.Consumed() {
		t.Error("forward resolution should not roll back consumption")
	}
	if sun.Consumed() {
		t.Error("persistent fact consumed")
	}
	if f.kb.Snapshot().Equal(before) {
		t.Error("snapshot should reflect the consumption")
	}
}

func TestBacktrackingRestoresOnFailure(t *testing.T) {
	f := newFixture(t)
	bread := f.linear("item(bread)")
	sun := f.persistent("item(sun)")

	before := f.kb.Snapshot()
	set, err := f.engine(Options{}).Enumerate(f.goals("item(X), unsat"))
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 0 {
		t.Errorf("solutions = %v", formatAll(set, f.tab))
	}
	if bread.Consumed() || sun.Consumed() {
		t.Error("abandoned branches must be restored")
	}
	if !f.kb.Snapshot().Equal(before) {
		t.Error("KB state changed after backtracking")
	}
}

func TestEnumerateLeavesKBUnchanged(t *testing.T) {
	f := newFixture(t)
	f.linear("fruit(apple)")
	f.linear("fruit(pear)")
	f.rule("basket(X, Y)", []string{"fruit(X)", "fruit(Y)"}, "full")

	before := f.kb.Snapshot()
	set, err := f.engine(Options{}).Enumerate(f.goals("basket(A, B)"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"A = apple, B = pear", "A = pear, B = apple"}
	if diff := cmp.Diff(want, formatAll(set, f.tab)); diff != "" {
		t.Errorf("solutions (-want +got):\n%s", diff)
	}
	if !f.kb.Snapshot().Equal(before) || len(f.kb.Resources()) != 2 {
		t.Error("enumeration must not leave consumption or productions behind")
	}
}

func TestProductionAsserted(t *testing.T) {
	f := newFixture(t)
	f.linear("flour")
	f.linear("water")
	f.rule("bake", []string{"flour", "water"}, "bread")

	e := f.engine(Options{})
	ok, err := e.Resolve(f.goals("bake"))
	if err != nil || !ok {
		t.Fatalf("bake = %v, %v", ok, err)
	}
	avail := f.kb.Available()
	if len(avail) != 1 || term.Format(avail[0].Fact, f.tab) != "bread" || avail[0].Level != kb.Linear {
		t.Fatalf("available after bake = %d resources", len(avail))
	}

	if ok, _ := e.Resolve(f.goals("bread")); !ok {
		t.Error("produced resource should be consumable")
	}
	if ok, _ := e.Resolve(f.goals("bake")); ok {
		t.Error("ingredients are gone")
	}
}

func TestGoalMatchesProduction(t *testing.T) {
	f := newFixture(t)
	f.linear("coin")
	f.rule("buy", []string{"coin"}, "ticket(X)")

	sol, ok, err := f.engine(Options{}).Prove(f.goals("ticket(gold)"))
	if err != nil || !ok {
		t.Fatalf("Prove = %v, %v", ok, err)
	}
	if sol.Format(f.tab) != "true" {
		t.Errorf("solution = %s", sol.Format(f.tab))
	}
	avail := f.kb.Available()
	if len(avail) != 1 || term.Format(avail[0].Fact, f.tab) != "ticket(gold)" {
		t.Error("production should be asserted with the goal's bindings")
	}
}

func TestRulesRenamedApart(t *testing.T) {
	f := newFixture(t)
	f.linear("item(a)")
	f.linear("item(b)")
	f.rule("take(X)", []string{"item(X)"}, "")

	sol, ok, err := f.engine(Options{}).Prove(f.goals("take(P), take(Q)"))
	if err != nil || !ok {
		t.Fatalf("Prove = %v, %v", ok, err)
	}
	if got := sol.Format(f.tab); got != "P = a, Q = b" {
		t.Errorf("solution = %s", got)
	}
}

func TestNonGroundFactsRenamed(t *testing.T) {
	f := newFixture(t)
	f.persistent("likes(X, pizza)")

	ok, err := f.engine(Options{}).Resolve(f.goals("likes(alice, pizza), likes(bob, pizza)"))
	if err != nil || !ok {
		t.Errorf("Resolve = %v, %v", ok, err)
	}
}

func TestTypeHierarchyMatch(t *testing.T) {
	f := newFixture(t)
	f.kb.AddTypeMapping("rex", "dog")
	f.kb.AddUnionMapping("dog", "animal")
	rex := f.linear("rex")

	e := f.engine(Options{})
	if ok, _ := e.Resolve(f.goals("cat")); ok {
		t.Error("rex is not a cat")
	}
	ok, err := e.Resolve(f.goals("animal"))
	if err != nil || !ok {
		t.Fatalf("animal = %v, %v", ok, err)
	}
	if !rex.Consumed() {
		t.Error("typed match should consume the fact")
	}
}

func TestMaxSolutionsTruncates(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"a", "b", "c", "d"} {
		f.persistent("n(" + n + ")")
	}

	set, err := f.engine(Options{MaxSolutions: 2}).Enumerate(f.goals("n(X)"))
	if err != nil {
		t.Fatal(err)
	}
	if set.Len() != 2 || !set.Truncated() {
		t.Errorf("len=%d truncated=%v", set.Len(), set.Truncated())
	}

	full, _ := f.engine(Options{MaxSolutions: 4}).Enumerate(f.goals("n(X)"))
	if full.Len() != 4 || full.Truncated() {
		t.Errorf("exact bound: len=%d truncated=%v", full.Len(), full.Truncated())
	}
}

func TestDepthExceeded(t *testing.T) {
	f := newFixture(t)
	f.rule("loop", []string{"loop"}, "")

	e := f.engine(Options{MaxDepth: 16})
	if _, err := e.Resolve(f.goals("loop")); !errors.Is(err, internalerr.ErrDepthExceeded) {
		t.Errorf("forward err = %v", err)
	}
	if _, err := e.Enumerate(f.goals("loop")); !errors.Is(err, internalerr.ErrDepthExceeded) {
		t.Errorf("backtracking err = %v", err)
	}
}

func TestSubstitutionCapacity(t *testing.T) {
	f := newFixture(t)
	f.persistent("pair(a, b)")

	_, err := f.engine(Options{MaxBindings: 1}).Resolve(f.goals("pair(X, Y)"))
	if !errors.Is(err, internalerr.ErrSubstitutionCapacity) {
		t.Errorf("err = %v", err)
	}
}

func TestEmptyGoalsSucceed(t *testing.T) {
	f := newFixture(t)
	e := f.engine(Options{})

	ok, err := e.Resolve(nil)
	if err != nil || !ok {
		t.Errorf("Resolve(nil) = %v, %v", ok, err)
	}
	set, err := e.Enumerate(nil)
	if err != nil || set.Len() != 1 {
		t.Errorf("Enumerate(nil) = %d, %v", set.Len(), err)
	}
}

func TestTraceAndLogging(t *testing.T) {
	f := newFixture(t)
	f.linear("flour")
	f.rule("bake", []string{"flour"}, "bread")

	core, logs := observer.New(zapcore.DebugLevel)
	tr := trace.New()
	e := f.engine(Options{Logger: zap.New(core), Tracker: tr})

	if ok, err := e.Resolve(f.goals("bake")); err != nil || !ok {
		t.Fatalf("Resolve = %v, %v", ok, err)
	}

	run := tr.Current()
	for _, k := range []trace.Kind{trace.KindQuery, trace.KindFire, trace.KindConsume, trace.KindAssert, trace.KindSolution} {
		if tr.Count(run, k) != 1 {
			t.Errorf("%s events = %d, want 1", k, tr.Count(run, k))
		}
	}
	if !strings.Contains(tr.Explain(run), "bread") {
		t.Errorf("explain:\n%s", tr.Explain(run))
	}

	if logs.FilterMessage("rule fired").Len() != 1 {
		t.Error("missing rule fired log")
	}
	asserted := logs.FilterMessage("production asserted").All()
	if len(asserted) != 1 || asserted[0].ContextMap()["fact"] != "bread" {
		t.Errorf("assert logs = %v", asserted)
	}
}

func TestDefaultsApplied(t *testing.T) {
	f := newFixture(t)
	got := f.engine(Options{MaxDepth: -1}).Options()
	if got.MaxDepth != DefaultMaxDepth || got.MaxBindings != DefaultMaxBindings || got.MaxSolutions != DefaultMaxSolutions {
		t.Errorf("options = %+v", got)
	}
}
