package compiler

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/semirace/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Alphabet errors (E100-E109)
	ErrNoGenerators         = "E100" // neither generators nor nr_generators given
	ErrAmbiguousAlphabet    = "E101" // both generators and nr_generators given
	ErrInvalidGeneratorName = "E102" // name is not a single character
	ErrDuplicateGenerator   = "E103" // name used twice after NFC normalisation

	// Relation errors (E110-E119)
	ErrRelationArity    = "E110" // relation is not a pair
	ErrEmptyWord        = "E111" // relation side is the empty word
	ErrUnknownGenerator = "E112" // word names an undeclared generator
	ErrLetterOutOfRange = "E113" // integer letter outside [0, n)
)

// ValidationError represents a presentation validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors is every problem found in one Source.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Validate checks src and returns all errors found (does not fail-fast).
func Validate(src *Source) []ValidationError {
	_, errs := resolve(src)
	return errs
}

// Build validates src and converts it to a Presentation. A failed
// validation is returned as ValidationErrors.
func Build(src *Source) (*ir.Presentation, error) {
	p, errs := resolve(src)
	if len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return p, nil
}

func resolve(src *Source) (*ir.Presentation, []ValidationError) {
	alphabet, errs := resolveAlphabet(src)
	if alphabet == nil {
		return nil, errs
	}

	p := &ir.Presentation{Name: src.Name, Alphabet: alphabet}
	var relErrs []ValidationError
	p.Relations, relErrs = resolveRelations("relations", src.Relations, alphabet)
	errs = append(errs, relErrs...)
	p.Extra, relErrs = resolveRelations("extra", src.Extra, alphabet)
	errs = append(errs, relErrs...)

	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

// resolveAlphabet returns a nil Alphabet when no words can be checked.
func resolveAlphabet(src *Source) (ir.Alphabet, []ValidationError) {
	switch {
	case len(src.Generators) == 0 && src.NrGenerators <= 0:
		return nil, []ValidationError{{
			Field:   "generators",
			Message: "at least one generator is required",
			Code:    ErrNoGenerators,
		}}
	case len(src.Generators) > 0 && src.NrGenerators > 0:
		return nil, []ValidationError{{
			Field:   "nr_generators",
			Message: "give either generators or nr_generators, not both",
			Code:    ErrAmbiguousAlphabet,
		}}
	case src.NrGenerators > 0:
		return ir.DefaultAlphabet(src.NrGenerators), nil
	}

	var errs []ValidationError
	seen := make(map[string]int, len(src.Generators))
	names := make([]string, len(src.Generators))
	for i, name := range src.Generators {
		field := fmt.Sprintf("generators[%d]", i)
		n := norm.NFC.String(name)
		names[i] = n
		if utf8.RuneCountInString(n) != 1 || n == ir.EmptyWordSymbol {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("generator name %q must be a single character other than %q", name, ir.EmptyWordSymbol),
				Code:    ErrInvalidGeneratorName,
			})
			continue
		}
		if j, dup := seen[n]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("generator name %q already used by generators[%d]", n, j),
				Code:    ErrDuplicateGenerator,
			})
			continue
		}
		seen[n] = i
	}
	if len(errs) > 0 {
		return nil, errs
	}

	alphabet, err := ir.NewAlphabet(names...)
	if err != nil {
		return nil, []ValidationError{{Field: "generators", Message: err.Error(), Code: ErrInvalidGeneratorName}}
	}
	return alphabet, nil
}

func resolveRelations(kind string, rels []Relation, alphabet ir.Alphabet) ([]ir.Relation, []ValidationError) {
	var errs []ValidationError
	out := make([]ir.Relation, 0, len(rels))
	for i, r := range rels {
		field := fmt.Sprintf("%s[%d]", kind, i)
		if len(r.Words) != 2 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("relation must have exactly two words, got %d", len(r.Words)),
				Code:    ErrRelationArity,
				Line:    r.Line,
			})
			continue
		}
		left, lerrs := resolveWord(field+"[0]", r.Words[0], r.Line, alphabet)
		right, rerrs := resolveWord(field+"[1]", r.Words[1], r.Line, alphabet)
		errs = append(errs, lerrs...)
		errs = append(errs, rerrs...)
		if len(lerrs) == 0 && len(rerrs) == 0 {
			out = append(out, ir.NewRelation(left, right))
		}
	}
	return out, errs
}

func resolveWord(field string, w Word, line int, alphabet ir.Alphabet) (ir.Word, []ValidationError) {
	if w.Line > 0 {
		line = w.Line
	}

	var word ir.Word
	if w.IsList {
		word = make(ir.Word, len(w.Letters))
		for i, l := range w.Letters {
			if l < 0 || l >= len(alphabet) {
				return nil, []ValidationError{{
					Field:   field,
					Message: fmt.Sprintf("letter %d at position %d is outside [0, %d)", l, i, len(alphabet)),
					Code:    ErrLetterOutOfRange,
					Line:    line,
				}}
			}
			word[i] = ir.Letter(l)
		}
	} else {
		var err error
		word, err = alphabet.Parse(w.Text)
		if err != nil {
			return nil, []ValidationError{{
				Field:   field,
				Message: err.Error(),
				Code:    ErrUnknownGenerator,
				Line:    line,
			}}
		}
	}

	if len(word) == 0 {
		return nil, []ValidationError{{
			Field:   field,
			Message: "semigroup relations cannot contain the empty word",
			Code:    ErrEmptyWord,
			Line:    line,
		}}
	}
	return word, nil
}
