package compiler

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Source is a decoded but unvalidated presentation file.
type Source struct {
	Name         string     `yaml:"name,omitempty"`
	Generators   []string   `yaml:"generators,omitempty"`
	NrGenerators int        `yaml:"nr_generators,omitempty"`
	Relations    []Relation `yaml:"relations"`
	Extra        []Relation `yaml:"extra,omitempty"`
}

// Word is one side of a relation as written in a file: either a string of
// generator names or a list of generator indices.
type Word struct {
	Text    string
	Letters []int
	IsList  bool

	// Line is the 1-based source line, or 0 when unknown.
	Line int
}

// TextWord returns a Word written as a string.
func TextWord(s string) Word {
	return Word{Text: s}
}

// ListWord returns a Word written as a list of generator indices.
func ListWord(letters ...int) Word {
	return Word{Letters: letters, IsList: true}
}

// UnmarshalYAML accepts a scalar or a sequence of integers.
func (w *Word) UnmarshalYAML(n *yaml.Node) error {
	w.Line = n.Line
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag != "!!null" {
			w.Text = n.Value
		}
		return nil
	case yaml.SequenceNode:
		w.IsList = true
		w.Letters = []int{}
		return n.Decode(&w.Letters)
	default:
		return fmt.Errorf("line %d: word must be a string or a list of integers", n.Line)
	}
}

// MarshalYAML writes list words as flow sequences and text words as
// scalars.
func (w Word) MarshalYAML() (any, error) {
	return w.node(), nil
}

func (w Word) node() *yaml.Node {
	if !w.IsList {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: w.Text}
	}
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, l := range w.Letters {
		n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(l)})
	}
	return n
}

// Relation is a pair of words as written in a file. Words holds every
// element of the entry so that validation can report a wrong arity.
type Relation struct {
	Words []Word
	Line  int
}

// Pair returns a two-sided Relation.
func Pair(left, right Word) Relation {
	return Relation{Words: []Word{left, right}}
}

// UnmarshalYAML accepts a sequence of words.
func (r *Relation) UnmarshalYAML(n *yaml.Node) error {
	r.Line = n.Line
	if n.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: relation must be a list of two words", n.Line)
	}
	return n.Decode(&r.Words)
}

// MarshalYAML writes the relation as a flow sequence.
func (r Relation) MarshalYAML() (any, error) {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, w := range r.Words {
		n.Content = append(n.Content, w.node())
	}
	return n, nil
}
