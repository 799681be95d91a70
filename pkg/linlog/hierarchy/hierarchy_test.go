package hierarchy

import (
	"testing"

	"github.com/cognicore/linlog/pkg/linlog/symbol"
)

func build(t *testing.T) (*Hierarchy, *symbol.Table) {
	t.Helper()
	tab := symbol.NewTable()
	h := New()

	h.AddUnionMapping(tab.Intern("poodle"), tab.Intern("dog"))
	h.AddUnionMapping(tab.Intern("dog"), tab.Intern("mammal"))
	h.AddUnionMapping(tab.Intern("mammal"), tab.Intern("animal"))
	h.AddUnionMapping(tab.Intern("dog"), tab.Intern("pet"))
	h.AddTypeMapping(tab.Intern("fido"), tab.Intern("poodle"))
	return h, tab
}

func TestIsVariantOfReflexive(t *testing.T) {
	h, tab := build(t)
	for _, name := range []string{"poodle", "dog", "animal", "unknown"} {
		id := tab.Intern(name)
		if !h.IsVariantOf(id, id) {
			t.Errorf("%s should be a variant of itself", name)
		}
	}
}

func TestIsVariantOfTransitive(t *testing.T) {
	h, tab := build(t)
	names := []string{"poodle", "dog", "mammal", "animal", "pet"}
	for _, a := range names {
		for _, b := range names {
			for _, c := range names {
				ia, ib, ic := tab.Intern(a), tab.Intern(b), tab.Intern(c)
				if h.IsVariantOf(ia, ib) && h.IsVariantOf(ib, ic) && !h.IsVariantOf(ia, ic) {
					t.Errorf("transitivity broken: %s<%s<%s", a, b, c)
				}
			}
		}
	}

	if !h.IsVariantOf(tab.Intern("poodle"), tab.Intern("animal")) {
		t.Error("poodle should reach animal")
	}
	if !h.IsVariantOf(tab.Intern("poodle"), tab.Intern("pet")) {
		t.Error("poodle should reach pet through the second parent of dog")
	}
	if h.IsVariantOf(tab.Intern("animal"), tab.Intern("dog")) {
		t.Error("the relation is not symmetric")
	}
}

func TestCycleTerminates(t *testing.T) {
	tab := symbol.NewTable()
	h := New()
	a, b, c := tab.Intern("a"), tab.Intern("b"), tab.Intern("c")
	h.AddUnionMapping(a, b)
	h.AddUnionMapping(b, a)

	if !h.IsVariantOf(a, b) || !h.IsVariantOf(b, a) {
		t.Error("both directions of the cycle hold")
	}
	if h.IsVariantOf(a, c) {
		t.Error("c is unreachable")
	}
}

func TestTypeOfMostRecent(t *testing.T) {
	h, tab := build(t)
	fido := tab.Intern("fido")

	typ, ok := h.TypeOf(fido)
	if !ok || typ != tab.Intern("poodle") {
		t.Fatalf("TypeOf(fido) = %v, %v", tab.Resolve(typ), ok)
	}

	h.AddTypeMapping(fido, tab.Intern("dog"))
	if typ, _ := h.TypeOf(fido); typ != tab.Intern("dog") {
		t.Errorf("TypeOf should return the latest mapping, got %s", tab.Resolve(typ))
	}
	if _, ok := h.TypeOf(tab.Intern("rex")); ok {
		t.Error("rex has no type")
	}
}

func TestAncestorsAndCounts(t *testing.T) {
	h, tab := build(t)
	h.AddUnionMapping(tab.Intern("dog"), tab.Intern("pet")) // duplicate ignored

	got := h.Ancestors(tab.Intern("poodle"))
	want := []string{"dog", "mammal", "pet", "animal"}
	if len(got) != len(want) {
		t.Fatalf("Ancestors = %d entries, want %d", len(got), len(want))
	}
	for i, w := range want {
		if tab.Resolve(got[i]) != w {
			t.Errorf("Ancestors[%d] = %s, want %s", i, tab.Resolve(got[i]), w)
		}
	}
	if h.UnionCount() != 4 || h.TypeCount() != 1 {
		t.Errorf("UnionCount=%d TypeCount=%d", h.UnionCount(), h.TypeCount())
	}
}
