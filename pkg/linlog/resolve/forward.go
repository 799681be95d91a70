package resolve

import (
	"go.uber.org/zap"

	"github.com/cognicore/linlog/pkg/linlog/term"
	"github.com/cognicore/linlog/pkg/linlog/trace"
	"github.com/cognicore/linlog/pkg/linlog/unify"
)

// forward is monotonic resolution. A matched candidate's consumption and
// assertions stay in effect even when the remaining goals then fail and
// the next candidate is tried.
type forward struct {
	e *Engine
}

func (f *forward) solve(goals []term.Term, s *unify.Subst, depth int) (*unify.Subst, bool, error) {
	if err := f.e.checkDepth(depth); err != nil {
		return nil, false, err
	}
	if len(goals) == 0 {
		return s, true, nil
	}

	goal, rest := goals[0], goals[1:]
	for _, c := range f.e.candidates() {
		s1, ok, err := f.match(c, goal, s, depth)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}

		out, ok, err := f.solve(rest, s1, depth+1)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return out, true, nil
		}
		f.e.record(trace.KindBacktrack, depth, "next candidate, consumption kept")
		f.e.log.Debug("remaining goals failed, trying next candidate", zap.Int("depth", depth), zap.Int("rest", len(rest)))
	}

	f.e.record(trace.KindFail, depth, f.e.format(s.Apply(goal)))
	return nil, false, nil
}

func (f *forward) match(c candidate, goal term.Term, s *unify.Subst, depth int) (*unify.Subst, bool, error) {
	if c.res != nil {
		return f.e.matchResource(c.res, goal, s, depth)
	}

	cl, s1, ok, err := f.e.unifyClause(c.clause, goal, s)
	if err != nil || !ok {
		return nil, false, err
	}
	f.e.fired(cl, goal, s1, depth)

	sb, ok, err := f.solve(cl.Body, s1, depth+1)
	if err != nil || !ok {
		return nil, false, err
	}
	if cl.HasProduction() {
		f.e.assertProduction(cl, sb, depth)
	}
	return sb, true, nil
}
