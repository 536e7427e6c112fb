package rws

import (
	"context"

	"github.com/roach88/semirace/internal/ir"
)

// criticalPair is a word reducible by two rules, together with the two
// one-step reducts.
type criticalPair struct {
	word        ir.Word
	left, right ir.Word
}

// overlaps returns the critical pairs of rule i (on the left) against rule
// j, ordered by increasing length of the overlap word.
//
// Two kinds are produced:
//   - inclusion: LHS_j occurs inside LHS_i (i != j); word is LHS_i
//   - proper: a proper suffix of LHS_i equals a proper prefix of LHS_j;
//     word is LHS_i followed by the rest of LHS_j
//
// Inclusions of LHS_i inside LHS_j are produced by the pair (j, i).
func (s *System) overlaps(i, j int) []criticalPair {
	u, ru := s.rules[i].LHS, s.rules[i].RHS
	v, rv := s.rules[j].LHS, s.rules[j].RHS

	var out []criticalPair

	if i != j && len(v) <= len(u) {
		for p := 0; p+len(v) <= len(u); p++ {
			if !u[p : p+len(v)].Equal(v) {
				continue
			}
			out = append(out, criticalPair{
				word:  u,
				left:  ru,
				right: ir.Concat(u[:p], rv, u[p+len(v):]),
			})
		}
	}

	maxK := min(len(u), len(v)) - 1
	for k := maxK; k >= 1; k-- {
		if !u[len(u)-k:].Equal(v[:k]) {
			continue
		}
		out = append(out, criticalPair{
			word:  ir.Concat(u, v[k:]),
			left:  ir.Concat(ru, v[k:]),
			right: ir.Concat(u[:len(u)-k], rv),
		})
	}
	return out
}

// CheckConfluent tests every critical pair without adding rules. When all
// pairs are joinable the confluence flag is set.
//
// Returns ctx.Err() if the context ends before the check completes; the
// flag is then left unchanged.
func (s *System) CheckConfluent(ctx context.Context) (bool, error) {
	if s.confluent.Load() {
		return true, nil
	}
	for i := range s.rules {
		for j := range s.rules {
			if err := ctx.Err(); err != nil {
				return false, err
			}
			for _, cp := range s.overlaps(i, j) {
				if !s.rewrite(cp.left).Equal(s.rewrite(cp.right)) {
					return false, nil
				}
			}
		}
	}
	s.confluent.Store(true)
	return true, nil
}
