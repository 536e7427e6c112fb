package testutil

import "github.com/roach88/semirace/internal/ir"

// Klein presents the two-element group on {a, b} with a as identity; the
// class of a word is the parity of its b count.
func Klein() ir.Presentation {
	return fixture("klein", 2, [][2]string{
		{"aa", "a"},
		{"bb", "a"},
		{"aba", "b"},
		{"bab", "a"},
	})
}

// Transformation presents the monoid generated by the transformations
// (1 0) and (0 0) of {0, 1}, without its identity: four elements.
func Transformation() ir.Presentation {
	return fixture("transformation", 2, [][2]string{
		{"ab", "b"},
		{"bb", "b"},
		{"aaa", "a"},
		{"baa", "b"},
	})
}

// Braid is the positive braid monoid on three strands. It has no finite
// complete rewriting system under shortlex, so completion never
// finishes.
func Braid() ir.Presentation {
	return fixture("braid", 2, [][2]string{{"aba", "bab"}})
}

// Cyclic presents the cyclic semigroup a^(index+period) = a^index.
func Cyclic(index, period int) ir.Presentation {
	lhs := make(ir.Word, index+period)
	rhs := make(ir.Word, index)
	return ir.Presentation{
		Name:      "cyclic",
		Alphabet:  ir.DefaultAlphabet(1),
		Relations: []ir.Relation{ir.NewRelation(lhs, rhs)},
	}
}

func fixture(name string, n int, rels [][2]string) ir.Presentation {
	a := ir.DefaultAlphabet(n)
	p := ir.Presentation{Name: name, Alphabet: a}
	for _, r := range rels {
		p.Relations = append(p.Relations, ir.NewRelation(a.MustParse(r[0]), a.MustParse(r[1])))
	}
	return p
}
