package congruence

import (
	"context"
	"strconv"

	"github.com/roach88/semirace/internal/froidurepin"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/runner"
	"github.com/roach88/semirace/internal/uf"
)

// StrategyToddCoxeter names the coset enumeration strategy.
const StrategyToddCoxeter = "todd-coxeter"

// DefaultMaxCosets caps the coset table.
const DefaultMaxCosets = 1_000_000

// toddCoxeter enumerates the right regular representation of the
// quotient monoid with the HLT strategy: every relation is traced at
// every live coset, defining cosets as needed, until a full pass defines
// nothing and finds no coincidence. Coset 0 is the empty word; the
// semigroup's classes are the other live cosets.
//
// Each coset visit is a suspension point. All enumeration state lives on
// the struct, so a stopped run resumes where it left off.
type toddCoxeter struct {
	*runner.Base

	n         int
	relations []ir.Relation
	maxCosets int
	maxClass  int

	table   [][]int // table[c][g], -1 when undefined
	blocks  *uf.UF
	pending [][2]int // coincidences to process
	next    int      // coset to visit in the current pass
	dirty   bool     // the current pass changed the table

	quotient *tableQuotient
}

func newToddCoxeter(p ir.Presentation, b Budget, opts ...runner.Option) *toddCoxeter {
	tc := &toddCoxeter{
		n:         p.NrGenerators(),
		relations: p.AllRelations(),
		maxCosets: b.MaxCosets,
		maxClass:  b.MaxClasses,
		blocks:    uf.New(0),
	}
	tc.define()
	tc.Base = runner.NewBase(StrategyToddCoxeter, tc.run, opts...)
	return tc
}

func (tc *toddCoxeter) result() quotient {
	return tc.quotient
}

func (tc *toddCoxeter) run(ctx context.Context, stop runner.StopFunc) (bool, error) {
	if tc.quotient == nil {
		done, err := tc.enumerate(stop)
		if err != nil || !done {
			return false, err
		}
		q, err := newTableQuotient(tc.compact(), tc.n)
		if err != nil {
			return false, err
		}
		tc.quotient = q
		tc.Logger().Debug("coset enumeration complete", "runner", tc.Name(), "cosets", len(tc.table))
	}
	return tc.quotient.enumerate(tc.maxClass, stop)
}

// enumerate runs HLT passes until one leaves the table unchanged.
func (tc *toddCoxeter) enumerate(stop runner.StopFunc) (bool, error) {
	for {
		for ; tc.next < len(tc.table); tc.next++ {
			c := tc.next
			if tc.blocks.Find(c) != c {
				continue
			}
			if stop() {
				return false, nil
			}
			for _, r := range tc.relations {
				if err := tc.scan(c, r); err != nil {
					return false, err
				}
				if tc.blocks.Find(c) != c {
					break
				}
			}
			if tc.blocks.Find(c) != c {
				continue
			}
			for g := 0; g < tc.n; g++ {
				if tc.table[c][g] < 0 {
					if err := tc.checkCap(); err != nil {
						return false, err
					}
					tc.table[c][g] = tc.define()
				}
			}
		}
		if !tc.dirty {
			return true, nil
		}
		tc.dirty = false
		tc.next = 0
	}
}

// scan makes c·u and c·v the same coset for the relation u = v.
func (tc *toddCoxeter) scan(c int, r ir.Relation) error {
	x, err := tc.trace(c, r.Left[:len(r.Left)-1])
	if err != nil {
		return err
	}
	y, err := tc.trace(c, r.Right[:len(r.Right)-1])
	if err != nil {
		return err
	}
	a, b := r.Left[len(r.Left)-1], r.Right[len(r.Right)-1]
	ex, ey := tc.target(x, a), tc.target(y, b)

	switch {
	case ex < 0 && ey < 0:
		if err := tc.checkCap(); err != nil {
			return err
		}
		d := tc.define()
		tc.table[x][a] = d
		tc.table[y][b] = d
	case ex < 0:
		tc.table[x][a] = ey
		tc.dirty = true
	case ey < 0:
		tc.table[y][b] = ex
		tc.dirty = true
	case ex != ey:
		tc.coincide(ex, ey)
	}
	return nil
}

// trace follows w from c, defining missing cosets.
func (tc *toddCoxeter) trace(c int, w ir.Word) (int, error) {
	for _, l := range w {
		t := tc.target(c, l)
		if t < 0 {
			if err := tc.checkCap(); err != nil {
				return 0, err
			}
			t = tc.define()
			tc.table[c][l] = t
		}
		c = t
	}
	return c, nil
}

// target returns the live coset c·l, or -1.
func (tc *toddCoxeter) target(c int, l ir.Letter) int {
	t := tc.table[c][l]
	if t < 0 {
		return -1
	}
	return tc.blocks.Find(t)
}

func (tc *toddCoxeter) define() int {
	row := make([]int, tc.n)
	for g := range row {
		row[g] = -1
	}
	tc.table = append(tc.table, row)
	tc.dirty = true
	return tc.blocks.Add()
}

func (tc *toddCoxeter) checkCap() error {
	if tc.maxCosets > 0 && len(tc.table) >= tc.maxCosets {
		return ir.NewResourceExhaustedError("cosets", len(tc.table)+1, tc.maxCosets)
	}
	return nil
}

// coincide merges a and b and everything their merge forces. The smaller
// coset survives; the dead coset's row is folded into the survivor's.
func (tc *toddCoxeter) coincide(a, b int) {
	tc.dirty = true
	tc.pending = append(tc.pending, [2]int{a, b})
	for len(tc.pending) > 0 {
		p := tc.pending[len(tc.pending)-1]
		tc.pending = tc.pending[:len(tc.pending)-1]

		ra, rb := tc.blocks.Find(p[0]), tc.blocks.Find(p[1])
		if ra == rb {
			continue
		}
		keep := tc.blocks.Union(ra, rb)
		dead := ra
		if keep == ra {
			dead = rb
		}
		for g := 0; g < tc.n; g++ {
			t := tc.table[dead][g]
			if t < 0 {
				continue
			}
			if tc.table[keep][g] < 0 {
				tc.table[keep][g] = t
				continue
			}
			tc.pending = append(tc.pending, [2]int{tc.table[keep][g], t})
		}
	}
}

// compact renumbers live cosets breadth-first from coset 0, generators in
// order, so coset i+1 is the i-th class in shortlex order of least words.
func (tc *toddCoxeter) compact() [][]int {
	id := map[int]int{0: 0}
	order := []int{tc.blocks.Find(0)}
	for i := 0; i < len(order); i++ {
		for g := 0; g < tc.n; g++ {
			t := tc.target(order[i], ir.Letter(g))
			if _, ok := id[t]; !ok {
				id[t] = len(order)
				order = append(order, t)
			}
		}
	}
	out := make([][]int, len(order))
	for i, c := range order {
		out[i] = make([]int, tc.n)
		for g := 0; g < tc.n; g++ {
			out[i][g] = id[tc.target(c, ir.Letter(g))]
		}
	}
	return out
}

// cosetElement is a class of the quotient as a compacted coset.
type cosetElement struct {
	q *tableQuotient
	c int
}

func (e cosetElement) Product(o cosetElement) cosetElement {
	return cosetElement{q: e.q, c: e.q.follow(e.c, e.q.words[o.c])}
}

func (e cosetElement) Key() string {
	return strconv.Itoa(e.c)
}

// tableQuotient answers queries from a complete coset table.
type tableQuotient struct {
	table [][]int
	words []ir.Word // least word of each coset, from the compaction order
	fp    *froidurepin.Semigroup[cosetElement]
}

var _ quotient = (*tableQuotient)(nil)

func newTableQuotient(table [][]int, n int) (*tableQuotient, error) {
	q := &tableQuotient{table: table, words: make([]ir.Word, len(table))}
	q.words[0] = ir.Word{}
	for c := range table {
		for g, t := range table[c] {
			if t != 0 && q.words[t] == nil {
				q.words[t] = ir.Concat(q.words[c], ir.NewWord(g))
			}
		}
	}
	gens := make([]cosetElement, n)
	for g := range gens {
		gens[g] = cosetElement{q: q, c: table[0][g]}
	}
	fp, err := froidurepin.New(gens)
	if err != nil {
		return nil, err
	}
	q.fp = fp
	return q, nil
}

func (q *tableQuotient) follow(c int, w ir.Word) int {
	for _, l := range w {
		c = q.table[c][l]
	}
	return c
}

func (q *tableQuotient) enumerate(limit int, stop func() bool) (bool, error) {
	return q.fp.EnumerateUntil(limit, stop)
}

func (q *tableQuotient) classIndex(w ir.Word) int {
	i, _ := q.fp.Position(cosetElement{q: q, c: q.follow(0, w)})
	return i
}

func (q *tableQuotient) equal(u, v ir.Word) bool {
	return q.follow(0, u) == q.follow(0, v)
}

func (q *tableQuotient) nrClasses() int {
	return q.fp.Size()
}

func (q *tableQuotient) semigroup() relationSource {
	return q.fp
}
