package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/semirace/internal/ir"
)

// DecodeYAML decodes a presentation document without validating it.
// Unknown fields are errors.
func DecodeYAML(data []byte) (*Source, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var src Source
	if err := dec.Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "yaml", Message: "empty document"}
		}
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	return &src, nil
}

// CompileYAML decodes and validates a YAML presentation.
func CompileYAML(data []byte) (*ir.Presentation, error) {
	src, err := DecodeYAML(data)
	if err != nil {
		return nil, err
	}
	return Build(src)
}

// EncodeYAML renders p in the file format accepted by CompileYAML.
// Words are written as strings over the generator names.
func EncodeYAML(p *ir.Presentation) ([]byte, error) {
	src := Source{
		Name:       p.Name,
		Generators: append([]string(nil), p.Alphabet...),
		Relations:  textRelations(p.Alphabet, p.Relations),
		Extra:      textRelations(p.Alphabet, p.Extra),
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(src); err != nil {
		return nil, fmt.Errorf("encoding presentation: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding presentation: %w", err)
	}
	return buf.Bytes(), nil
}

func textRelations(a ir.Alphabet, rels []ir.Relation) []Relation {
	if len(rels) == 0 {
		return nil
	}
	out := make([]Relation, len(rels))
	for i, r := range rels {
		out[i] = Pair(TextWord(a.Format(r.Left)), TextWord(a.Format(r.Right)))
	}
	return out
}
