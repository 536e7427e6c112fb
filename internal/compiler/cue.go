package compiler

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/semirace/internal/ir"
)

//go:embed schema.cue
var schemaCUE string

// CompileCUE compiles CUE source containing a top-level `presentation`
// struct. filename is used in error positions only.
func CompileCUE(data []byte, filename string) (*ir.Presentation, error) {
	src, err := decodeCUEBytes(data, filename)
	if err != nil {
		return nil, err
	}
	return Build(src)
}

func decodeCUEBytes(data []byte, filename string) (*Source, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return DecodeCUE(v.LookupPath(cue.ParsePath("presentation")))
}

// CompilePresentation checks a CUE presentation struct against the schema
// and converts it. The value must be the struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`presentation: { generators: ["a"], relations: [["aa", "a"]] }`)
//	p, err := CompilePresentation(v.LookupPath(cue.ParsePath("presentation")))
func CompilePresentation(v cue.Value) (*ir.Presentation, error) {
	src, err := DecodeCUE(v)
	if err != nil {
		return nil, err
	}
	return Build(src)
}

// DecodeCUE reads a CUE presentation struct into a Source without
// validating the words against the alphabet.
func DecodeCUE(v cue.Value) (*Source, error) {
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "presentation",
			Message: "presentation is required",
			Pos:     v.Pos(),
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling embedded schema: %w", err)
	}
	checked := schema.LookupPath(cue.ParsePath("#Presentation")).Unify(v)
	if err := checked.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	src := &Source{}
	if f := v.LookupPath(cue.ParsePath("name")); f.Exists() {
		name, err := f.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		src.Name = name
	}
	if f := v.LookupPath(cue.ParsePath("nr_generators")); f.Exists() {
		n, err := f.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		src.NrGenerators = int(n)
	}
	if f := v.LookupPath(cue.ParsePath("generators")); f.Exists() {
		iter, err := f.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			name, err := iter.Value().String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			src.Generators = append(src.Generators, name)
		}
	}

	var err error
	if src.Relations, err = decodeCUERelations(v, "relations"); err != nil {
		return nil, err
	}
	if src.Extra, err = decodeCUERelations(v, "extra"); err != nil {
		return nil, err
	}
	return src, nil
}

func decodeCUERelations(v cue.Value, field string) ([]Relation, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Relation
	for iter.Next() {
		rv := iter.Value()
		rel := Relation{Line: rv.Pos().Line()}
		words, err := rv.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for words.Next() {
			w, err := decodeCUEWord(words.Value())
			if err != nil {
				return nil, err
			}
			rel.Words = append(rel.Words, w)
		}
		out = append(out, rel)
	}
	return out, nil
}

func decodeCUEWord(v cue.Value) (Word, error) {
	w := Word{Line: v.Pos().Line()}
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return w, formatCUEError(err)
		}
		w.Text = s
	case cue.ListKind:
		w.IsList = true
		w.Letters = []int{}
		iter, err := v.List()
		if err != nil {
			return w, formatCUEError(err)
		}
		for iter.Next() {
			l, err := iter.Value().Int64()
			if err != nil {
				return w, formatCUEError(err)
			}
			w.Letters = append(w.Letters, int(l))
		}
	default:
		return w, &CompileError{
			Field:   "word",
			Message: fmt.Sprintf("word must be a string or a list of integers, got %s", v.Kind()),
			Pos:     v.Pos(),
		}
	}
	return w, nil
}

// CompileError is a decoding error with a source position when known.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
