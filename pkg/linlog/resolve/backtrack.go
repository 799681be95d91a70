package resolve

import (
	"go.uber.org/zap"

	"github.com/cognicore/linlog/pkg/linlog/term"
	"github.com/cognicore/linlog/pkg/linlog/trace"
	"github.com/cognicore/linlog/pkg/linlog/unify"
)

// cont receives the substitution of a successful prefix of the search
type cont func(s *unify.Subst) error

// backtrack explores every candidate of every goal. Each candidate runs
// inside kb.Try, so the knowledge base is restored once the branch and all
// of its continuations have been explored.
type backtrack struct {
	e *Engine
}

func (b *backtrack) solve(goals []term.Term, s *unify.Subst, depth int, k cont) error {
	if err := b.e.checkDepth(depth); err != nil {
		return err
	}
	if len(goals) == 0 {
		return k(s)
	}

	goal, rest := goals[0], goals[1:]
	next := func(s1 *unify.Subst) error {
		return b.solve(rest, s1, depth+1, k)
	}
	for _, c := range b.e.candidates() {
		err := b.e.kb.Try(func() error {
			return b.match(c, goal, s, depth, next)
		})
		if err != nil {
			return err
		}
		b.e.record(trace.KindBacktrack, depth, "restored")
		b.e.log.Debug("branch restored", zap.Int("depth", depth))
	}
	return nil
}

func (b *backtrack) match(c candidate, goal term.Term, s *unify.Subst, depth int, k cont) error {
	if c.res != nil {
		s1, ok, err := b.e.matchResource(c.res, goal, s, depth)
		if err != nil || !ok {
			return err
		}
		return k(s1)
	}

	cl, s1, ok, err := b.e.unifyClause(c.clause, goal, s)
	if err != nil || !ok {
		return err
	}
	b.e.fired(cl, goal, s1, depth)

	return b.solve(cl.Body, s1, depth+1, func(sb *unify.Subst) error {
		if cl.HasProduction() {
			b.e.assertProduction(cl, sb, depth)
		}
		return k(sb)
	})
}
