package ir

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// EmptyWordSymbol is how Format renders the empty word.
const EmptyWordSymbol = "ε"

// Alphabet names the generators of a presentation. Alphabet[i] is the name
// of letter i. Every name is a single NFC-normalised rune so that words can
// be written as plain strings ("abba").
type Alphabet []string

// NewAlphabet validates and NFC-normalises generator names.
func NewAlphabet(names ...string) (Alphabet, error) {
	if len(names) == 0 {
		return nil, NewConfigurationError("alphabet must have at least one generator")
	}
	seen := make(map[string]int, len(names))
	out := make(Alphabet, len(names))
	for i, name := range names {
		n := norm.NFC.String(name)
		if utf8.RuneCountInString(n) != 1 {
			return nil, NewConfigurationError("generator %d: name %q must be a single character", i, name)
		}
		if n == EmptyWordSymbol {
			return nil, NewConfigurationError("generator %d: %q is reserved for the empty word", i, name)
		}
		if j, dup := seen[n]; dup {
			return nil, NewConfigurationError("generator %d: name %q already used by generator %d", i, n, j)
		}
		seen[n] = i
		out[i] = n
	}
	return out, nil
}

// DefaultAlphabet returns n generators named a, b, c, ... then A, B, C, ...
// and then consecutive runes from U+0100.
func DefaultAlphabet(n int) Alphabet {
	out := make(Alphabet, n)
	for i := range out {
		switch {
		case i < 26:
			out[i] = string(rune('a' + i))
		case i < 52:
			out[i] = string(rune('A' + i - 26))
		default:
			out[i] = string(rune(0x100 + i - 52))
		}
	}
	return out
}

// Parse converts a string of generator names into a Word.
// The input is NFC normalised first. The empty string and EmptyWordSymbol
// both parse to the empty word.
func (a Alphabet) Parse(s string) (Word, error) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" || s == EmptyWordSymbol {
		return Word{}, nil
	}
	index := make(map[rune]Letter, len(a))
	for i, name := range a {
		r, _ := utf8.DecodeRuneInString(name)
		index[r] = Letter(i)
	}
	w := make(Word, 0, utf8.RuneCountInString(s))
	for pos, r := range s {
		l, ok := index[r]
		if !ok {
			return nil, &Error{
				Code:    ErrCodeOutOfRange,
				Message: fmt.Sprintf("unknown generator %q at byte %d of %q", r, pos, s),
			}
		}
		w = append(w, l)
	}
	return w, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func (a Alphabet) MustParse(s string) Word {
	w, err := a.Parse(s)
	if err != nil {
		panic(err)
	}
	return w
}

// Format renders w using generator names. Letters outside the alphabet are
// rendered as "<n>".
func (a Alphabet) Format(w Word) string {
	if len(w) == 0 {
		return EmptyWordSymbol
	}
	var b strings.Builder
	for _, l := range w {
		if int(l) < len(a) {
			b.WriteString(a[l])
		} else {
			fmt.Fprintf(&b, "<%d>", l)
		}
	}
	return b.String()
}

// Presentation is a finitely presented semigroup: an alphabet, the defining
// relations and optional extra pairs to merge on top of them.
type Presentation struct {
	// Name is an optional label used in logs and traces.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Alphabet names the generators.
	Alphabet Alphabet `json:"alphabet" yaml:"alphabet"`

	// Relations are the defining relations.
	Relations []Relation `json:"relations" yaml:"relations"`

	// Extra are additional pairs generating the congruence together with
	// Relations.
	Extra []Relation `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// NrGenerators returns the size of the alphabet.
func (p Presentation) NrGenerators() int {
	return len(p.Alphabet)
}

// AllRelations returns Relations followed by Extra.
func (p Presentation) AllRelations() []Relation {
	out := make([]Relation, 0, len(p.Relations)+len(p.Extra))
	out = append(out, p.Relations...)
	out = append(out, p.Extra...)
	return out
}

// Validate checks that the alphabet is non-empty and every relation side is
// a non-empty word over the alphabet.
func (p Presentation) Validate() error {
	if len(p.Alphabet) == 0 {
		return NewConfigurationError("presentation has no generators")
	}
	check := func(kind string, i int, r Relation) error {
		if len(r.Left) == 0 || len(r.Right) == 0 {
			return NewConfigurationError("%s[%d]: semigroup relations cannot contain the empty word", kind, i)
		}
		if err := CheckWord(r.Left, len(p.Alphabet)); err != nil {
			return fmt.Errorf("%s[%d] left: %w", kind, i, err)
		}
		if err := CheckWord(r.Right, len(p.Alphabet)); err != nil {
			return fmt.Errorf("%s[%d] right: %w", kind, i, err)
		}
		return nil
	}
	for i, r := range p.Relations {
		if err := check("relations", i, r); err != nil {
			return err
		}
	}
	for i, r := range p.Extra {
		if err := check("extra", i, r); err != nil {
			return err
		}
	}
	return nil
}
