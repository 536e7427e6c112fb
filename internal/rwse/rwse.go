// Package rwse represents semigroup elements as words in normal form with
// respect to a rewriting system.
//
// An Element stores the reduction of its word at construction time. If
// the system later gains rules, existing elements are not re-reduced;
// rebuild them with New when freshness matters. Comparisons are only
// meaningful between elements of the same system, and equality decides
// the semigroup's word problem only once that system is confluent.
package rwse

import (
	"github.com/roach88/semirace/internal/froidurepin"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/rws"
)

// Element is a rewritten word together with its system.
type Element struct {
	word ir.Word
	sys  *rws.System
}

var _ froidurepin.Element[Element] = Element{}

// New reduces w with sys. Returns an OutOfRange error for letters outside
// the system's alphabet.
func New(sys *rws.System, w ir.Word) (Element, error) {
	nf, err := sys.Rewrite(w)
	if err != nil {
		return Element{}, err
	}
	return Element{word: nf, sys: sys}, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(sys *rws.System, w ir.Word) Element {
	e, err := New(sys, w)
	if err != nil {
		panic(err)
	}
	return e
}

// FromGenerator returns the element of generator g.
func FromGenerator(sys *rws.System, g int) (Element, error) {
	return New(sys, ir.NewWord(g))
}

// Generators returns one element per generator of sys.
func Generators(sys *rws.System) []Element {
	out := make([]Element, sys.NrGenerators())
	for g := range out {
		out[g] = MustNew(sys, ir.NewWord(g))
	}
	return out
}

// Word returns a copy of the stored normal form.
func (e Element) Word() ir.Word {
	return e.word.Clone()
}

// System returns the backing rewriting system.
func (e Element) System() *rws.System {
	return e.sys
}

// Equal reports whether the stored normal forms are identical.
func (e Element) Equal(o Element) bool {
	return e.word.Equal(o.word)
}

// Less compares stored normal forms by the system's reduction order.
func (e Element) Less(o Element) bool {
	return e.sys.Order().Compare(e.word, o.word) < 0
}

// Product returns the element of the concatenation, reduced with the
// current rules.
func (e Element) Product(o Element) Element {
	return Element{word: e.sys.MustRewrite(ir.Concat(e.word, o.word)), sys: e.sys}
}

// Key identifies the stored normal form.
func (e Element) Key() string {
	return e.word.Key()
}

// String renders the stored word.
func (e Element) String() string {
	return e.word.String()
}
