package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/semirace/internal/ir"
)

// LoadFile reads and compiles a presentation file. The format follows the
// extension: .cue is CUE, anything else (.yaml, .yml, .json) is YAML.
func LoadFile(path string) (*ir.Presentation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presentation: %w", err)
	}
	p, err := Compile(data, path)
	if err != nil {
		return nil, err
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// DecodeFile reads a presentation file into a Source without validating
// it, for callers that want every ValidationError at once.
func DecodeFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading presentation: %w", err)
	}
	if isCUE(path) {
		return decodeCUEBytes(data, path)
	}
	return DecodeYAML(data)
}

// Compile compiles data, choosing the format from filename's extension.
func Compile(data []byte, filename string) (*ir.Presentation, error) {
	if isCUE(filename) {
		return CompileCUE(data, filename)
	}
	return CompileYAML(data)
}

func isCUE(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cue")
}
