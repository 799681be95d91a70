// Package hierarchy holds nominal typing: which type a term name belongs to,
// and which variant types specialise which parents.
package hierarchy

import "github.com/cognicore/linlog/pkg/linlog/symbol"

// Hierarchy is a term→type table plus a variant→parent DAG
type Hierarchy struct {
	types  map[symbol.ID]symbol.ID   // term name → most recent type
	unions map[symbol.ID][]symbol.ID // variant → parents
}

// New creates an empty hierarchy
func New() *Hierarchy {
	return &Hierarchy{
		types:  make(map[symbol.ID]symbol.ID),
		unions: make(map[symbol.ID][]symbol.ID),
	}
}

// AddTypeMapping declares name to be an instance of typ. A later mapping for
// the same name replaces the earlier one.
func (h *Hierarchy) AddTypeMapping(name, typ symbol.ID) {
	h.types[name] = typ
}

// AddUnionMapping declares variant to be a subtype of parent
func (h *Hierarchy) AddUnionMapping(variant, parent symbol.ID) {
	// Avoid duplicates
	for _, p := range h.unions[variant] {
		if p == parent {
			return
		}
	}
	h.unions[variant] = append(h.unions[variant], parent)
}

// TypeOf returns the declared type of name
func (h *Hierarchy) TypeOf(name symbol.ID) (symbol.ID, bool) {
	t, ok := h.types[name]
	return t, ok
}

// IsVariantOf reports whether x is y or reaches y through union mappings.
// Cyclic declarations terminate.
func (h *Hierarchy) IsVariantOf(x, y symbol.ID) bool {
	return h.variantOf(x, y, make(map[symbol.ID]bool))
}

// variantOf performs depth-first search over the union DAG
func (h *Hierarchy) variantOf(x, y symbol.ID, visited map[symbol.ID]bool) bool {
	if x == y {
		return true
	}
	if visited[x] {
		return false // cycle detection
	}
	visited[x] = true

	for _, p := range h.unions[x] {
		if h.variantOf(p, y, visited) {
			return true
		}
	}
	return false
}

// Ancestors returns every type x is a variant of, excluding x, in
// breadth-first order.
func (h *Hierarchy) Ancestors(x symbol.ID) []symbol.ID {
	var out []symbol.ID
	seen := map[symbol.ID]bool{x: true}
	queue := []symbol.ID{x}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range h.unions[cur] {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out
}

// TypeCount returns the number of term→type mappings
func (h *Hierarchy) TypeCount() int { return len(h.types) }

// UnionCount returns the number of variant→parent edges
func (h *Hierarchy) UnionCount() int {
	n := 0
	for _, ps := range h.unions {
		n += len(ps)
	}
	return n
}
