package rws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/ir"
)

// allWords returns every word over n letters of length 0..maxLen.
func allWords(n, maxLen int) []ir.Word {
	out := []ir.Word{{}}
	frontier := []ir.Word{{}}
	for l := 1; l <= maxLen; l++ {
		var next []ir.Word
		for _, w := range frontier {
			for x := 0; x < n; x++ {
				next = append(next, ir.Concat(w, ir.NewWord(x)))
			}
		}
		out = append(out, next...)
		frontier = next
	}
	return out
}

func TestShortLex_Compare(t *testing.T) {
	o := ShortLex{}
	a := ir.DefaultAlphabet(2)

	assert.Equal(t, -1, o.Compare(a.MustParse("b"), a.MustParse("aa")))
	assert.Equal(t, 1, o.Compare(a.MustParse("ba"), a.MustParse("ab")))
	assert.Equal(t, 0, o.Compare(a.MustParse("aba"), a.MustParse("aba")))
	assert.Equal(t, -1, o.Compare(ir.Word{}, a.MustParse("a")))
}

func TestRecursivePath_Compare(t *testing.T) {
	o := RecursivePath{}
	a := ir.DefaultAlphabet(2)

	// Subterm property
	assert.Equal(t, 1, o.Compare(a.MustParse("ab"), a.MustParse("b")))
	// Higher letter outermost dominates longer words of lower letters
	assert.Equal(t, 1, o.Compare(a.MustParse("ba"), a.MustParse("ab")))
	assert.Equal(t, 1, o.Compare(a.MustParse("b"), a.MustParse("aaa")))
	assert.Equal(t, 1, o.Compare(a.MustParse("a"), ir.Word{}))
}

func TestOrders_AreStrictTotalOrders(t *testing.T) {
	words := allWords(2, 3)
	for _, o := range []Order{ShortLex{}, RecursivePath{}} {
		t.Run(o.Name(), func(t *testing.T) {
			for _, u := range words {
				for _, v := range words {
					c := o.Compare(u, v)
					if u.Equal(v) {
						require.Zero(t, c, "reflexive at %v", u)
						continue
					}
					require.NotZero(t, c, "total at %v %v", u, v)
					require.Equal(t, -c, o.Compare(v, u), "antisymmetric at %v %v", u, v)
				}
			}
			for _, u := range words {
				for _, v := range words {
					if o.Compare(u, v) <= 0 {
						continue
					}
					for _, w := range words {
						if o.Compare(v, w) > 0 {
							require.Equal(t, 1, o.Compare(u, w), "transitive at %v > %v > %v", u, v, w)
						}
					}
				}
			}
		})
	}
}

func TestOrders_CompatibleWithConcatenation(t *testing.T) {
	words := allWords(2, 2)
	for _, o := range []Order{ShortLex{}, RecursivePath{}} {
		for _, u := range words {
			for _, v := range words {
				if o.Compare(u, v) <= 0 {
					continue
				}
				for _, x := range words {
					for _, y := range words {
						assert.Equal(t, 1, o.Compare(ir.Concat(x, u, y), ir.Concat(x, v, y)),
							"%s: %v > %v must survive context %v _ %v", o.Name(), u, v, x, y)
					}
				}
			}
		}
	}
}

func TestOrderByName(t *testing.T) {
	o, ok := OrderByName("")
	require.True(t, ok)
	assert.Equal(t, "shortlex", o.Name())

	o, ok = OrderByName("rpo")
	require.True(t, ok)
	assert.Equal(t, "recursive-path", o.Name())

	_, ok = OrderByName("lex")
	assert.False(t, ok)
}
