package froidurepin

import (
	"context"
	"log/slog"

	"github.com/roach88/semirace/internal/ir"
)

// Option configures a Semigroup.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger for enumeration messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Semigroup is a partially or fully enumerated semigroup.
//
// INVARIANTS:
//   - elements[i] has shortlex-least factorisation words[i]
//   - elements [0, expanded) have a complete row in right
//   - relations only ever grow, in discovery order
//
// Not safe for concurrent use.
type Semigroup[E Element[E]] struct {
	gens     []E
	genIndex []int  // element index of each generator
	genNew   []bool // generator g is not equal to an earlier generator

	elements []E
	words    []ir.Word
	suffix   []int    // element of words[i][1:], -1 for length 1
	right    [][]int  // right[i][g] = element of elements[i]*gens[g]
	reduced  [][]bool // words[i]+g is the least word of its product
	index    map[string]int

	expanded  int
	relations []ir.Relation
	logger    *slog.Logger
}

// New creates a semigroup generated by gens. Returns a ConfigurationError
// when gens is empty.
func New[E Element[E]](gens []E, opts ...Option) (*Semigroup[E], error) {
	if len(gens) == 0 {
		return nil, ir.NewConfigurationError("semigroup needs at least one generator")
	}
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Semigroup[E]{
		gens:     append([]E(nil), gens...),
		genIndex: make([]int, len(gens)),
		genNew:   make([]bool, len(gens)),
		index:    make(map[string]int),
		logger:   cfg.logger,
	}
	for g, x := range gens {
		if j, ok := s.index[x.Key()]; ok {
			s.genIndex[g] = j
			s.relations = append(s.relations, ir.NewRelation(ir.NewWord(g), s.words[j]))
			continue
		}
		s.genIndex[g] = s.add(x, ir.NewWord(g), -1)
		s.genNew[g] = true
	}
	return s, nil
}

func (s *Semigroup[E]) add(x E, w ir.Word, suffix int) int {
	i := len(s.elements)
	s.elements = append(s.elements, x)
	s.words = append(s.words, w)
	s.suffix = append(s.suffix, suffix)
	s.right = append(s.right, nil)
	s.reduced = append(s.reduced, nil)
	s.index[x.Key()] = i
	return i
}

// NrGenerators returns the number of generators.
func (s *Semigroup[E]) NrGenerators() int {
	return len(s.gens)
}

// Generators returns the generators in order.
func (s *Semigroup[E]) Generators() []E {
	return append([]E(nil), s.gens...)
}

// Size returns the number of elements found so far.
func (s *Semigroup[E]) Size() int {
	return len(s.elements)
}

// Finished reports whether enumeration is complete.
func (s *Semigroup[E]) Finished() bool {
	return s.expanded == len(s.elements)
}

// At returns element i in enumeration order.
func (s *Semigroup[E]) At(i int) E {
	return s.elements[i]
}

// Relations returns the defining relations found so far. Once Finished
// they present the semigroup.
func (s *Semigroup[E]) Relations() []ir.Relation {
	out := make([]ir.Relation, len(s.relations))
	for i, r := range s.relations {
		out[i] = ir.NewRelation(r.Left, r.Right)
	}
	return out
}

// Position returns the enumeration index of e.
func (s *Semigroup[E]) Position(e E) (int, bool) {
	i, ok := s.index[e.Key()]
	return i, ok
}

// Factorisation returns the shortlex-least word over the generators that
// evaluates to e.
func (s *Semigroup[E]) Factorisation(e E) (ir.Word, bool) {
	i, ok := s.index[e.Key()]
	if !ok {
		return nil, false
	}
	return s.words[i].Clone(), true
}

// Enumerate runs until the semigroup is fully enumerated, ctx ends, or
// more than limit elements are found (limit 0 means no limit).
func (s *Semigroup[E]) Enumerate(ctx context.Context, limit int) error {
	done, err := s.EnumerateUntil(limit, func() bool { return ctx.Err() != nil })
	if err != nil {
		return err
	}
	if !done {
		return ctx.Err()
	}
	return nil
}

// EnumerateUntil expands elements until stop returns true or the
// semigroup is finished. stop is polled once per element. Reports
// whether enumeration is complete; exceeding limit returns a
// ResourceExhausted error. Resumable.
func (s *Semigroup[E]) EnumerateUntil(limit int, stop func() bool) (bool, error) {
	for s.expanded < len(s.elements) {
		if stop() {
			return false, nil
		}
		s.expand(s.expanded)
		s.expanded++
		if limit > 0 && len(s.elements) > limit {
			return false, ir.NewResourceExhaustedError("elements", len(s.elements), limit)
		}
	}
	s.logger.Debug("enumeration finished", "size", len(s.elements), "relations", len(s.relations))
	return true, nil
}

// expand computes the right Cayley row of element i.
func (s *Semigroup[E]) expand(i int) {
	n := len(s.gens)
	s.right[i] = make([]int, n)
	s.reduced[i] = make([]bool, n)
	w := s.words[i]

	for g := 0; g < n; g++ {
		wg := ir.Concat(w, ir.NewWord(g))

		// The suffix of wg is not a least word: wg is not least either,
		// and its relation follows from the one that reduced the suffix.
		if !s.suffixReduced(i, g) {
			s.right[i][g] = s.index[s.elements[i].Product(s.gens[g]).Key()]
			continue
		}

		x := s.elements[i].Product(s.gens[g])
		if j, ok := s.index[x.Key()]; ok {
			s.right[i][g] = j
			s.relations = append(s.relations, ir.NewRelation(wg, s.words[j]))
			continue
		}

		suffix := s.genIndex[g]
		if len(w) > 1 {
			suffix = s.right[s.suffix[i]][g]
		}
		j := s.add(x, wg, suffix)
		s.right[i][g] = j
		s.reduced[i][g] = true
	}
}

// suffixReduced reports whether words[i][1:]+g is a least word.
func (s *Semigroup[E]) suffixReduced(i, g int) bool {
	if len(s.words[i]) == 1 {
		return s.genNew[g]
	}
	return s.reduced[s.suffix[i]][g]
}
