package rws

import "github.com/roach88/semirace/internal/ir"

// Order is a reduction order: a well-founded strict total order on words
// compatible with concatenation, used to orient equations.
//
// Compare returns -1 if u < v, 0 if u == v and +1 if u > v. Returning 0 for
// two different words violates totality and is reported by AddRule as a
// configuration error.
type Order interface {
	Compare(u, v ir.Word) int
	Name() string
}

// ShortLex orders words by length, then lexicographically by letter index.
type ShortLex struct{}

// Name returns "shortlex".
func (ShortLex) Name() string { return "shortlex" }

// Compare implements Order.
func (ShortLex) Compare(u, v ir.Word) int {
	if len(u) != len(v) {
		if len(u) < len(v) {
			return -1
		}
		return 1
	}
	for i := range u {
		if u[i] != v[i] {
			if u[i] < v[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// RecursivePath is the recursive path order on words viewed as monadic
// terms, first letter outermost, with letter precedence by index.
//
// For u = a·u' and v = b·v':
//
//	u > v  iff  u' >= v, or a > b and u > v', or a == b and u' > v'
//
// and every non-empty word is greater than the empty word.
type RecursivePath struct{}

// Name returns "recursive-path".
func (RecursivePath) Name() string { return "recursive-path" }

// Compare implements Order.
func (RecursivePath) Compare(u, v ir.Word) int {
	if u.Equal(v) {
		return 0
	}
	if rpoGreater(u, v) {
		return 1
	}
	return -1
}

func rpoGreater(u, v ir.Word) bool {
	if len(u) == 0 {
		return false
	}
	if len(v) == 0 {
		return true
	}
	a, rest := u[0], u[1:]
	b := v[0]
	if rest.Equal(v) || rpoGreater(rest, v) {
		return true
	}
	switch {
	case a > b:
		return rpoGreater(u, v[1:])
	case a == b:
		return rpoGreater(rest, v[1:])
	default:
		return false
	}
}

// OrderByName returns the order with the given name, or false.
func OrderByName(name string) (Order, bool) {
	switch name {
	case "", ShortLex{}.Name():
		return ShortLex{}, true
	case RecursivePath{}.Name(), "rpo":
		return RecursivePath{}, true
	default:
		return nil, false
	}
}
