// Package compiler turns presentation files into ir.Presentation values.
//
// Two formats are accepted. YAML files are decoded strictly (unknown
// fields are errors). CUE files declare a top-level `presentation` struct
// that is unified with an embedded schema before it is read.
//
// Both formats share one field set:
//
//	name: klein
//	generators: [a, b]
//	relations:
//	  - [aa, a]
//	  - [bb, a]
//	extra:
//	  - [ab, b]
//
// Words are strings over generator names or lists of generator indices.
// `nr_generators: n` may replace `generators` and names the letters
// a, b, c, ... Validation reports every problem it finds, each with an
// E1xx code.
package compiler
