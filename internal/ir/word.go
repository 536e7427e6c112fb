package ir

import (
	"encoding/binary"
	"strconv"
	"strings"
)

// Letter is a generator index.
type Letter uint32

// Word is a finite sequence of generator indices.
//
// A Word is treated as immutable once produced. Functions in this package
// never modify their arguments; functions that return a Word return a fresh
// slice unless documented otherwise.
type Word []Letter

// NewWord builds a Word from plain ints. Negative values panic.
// Intended for tests and literals.
func NewWord(letters ...int) Word {
	w := make(Word, len(letters))
	for i, l := range letters {
		if l < 0 {
			panic("ir.NewWord: negative letter " + strconv.Itoa(l))
		}
		w[i] = Letter(l)
	}
	return w
}

// Clone returns a copy of w. Clone of nil is an empty, non-nil word.
func (w Word) Clone() Word {
	out := make(Word, len(w))
	copy(out, w)
	return out
}

// Equal reports whether w and v contain the same letters.
func (w Word) Equal(v Word) bool {
	if len(w) != len(v) {
		return false
	}
	for i := range w {
		if w[i] != v[i] {
			return false
		}
	}
	return true
}

// Concat returns the concatenation of the given words.
func Concat(words ...Word) Word {
	n := 0
	for _, w := range words {
		n += len(w)
	}
	out := make(Word, 0, n)
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

// Index returns the position of the first occurrence of sub in w, or -1.
// The empty word occurs at position 0.
func (w Word) Index(sub Word) int {
	if len(sub) == 0 {
		return 0
	}
	for i := 0; i+len(sub) <= len(w); i++ {
		if w[i : i+len(sub)].Equal(sub) {
			return i
		}
	}
	return -1
}

// HasSuffix reports whether suffix is a suffix of w.
func (w Word) HasSuffix(suffix Word) bool {
	return len(suffix) <= len(w) && w[len(w)-len(suffix):].Equal(suffix)
}

// MaxLetter returns the largest letter in w and false when w is empty.
func (w Word) MaxLetter() (Letter, bool) {
	if len(w) == 0 {
		return 0, false
	}
	m := w[0]
	for _, l := range w[1:] {
		if l > m {
			m = l
		}
	}
	return m, true
}

// Key returns a prefix-free string encoding of w suitable as a map key.
// Distinct words always have distinct keys.
func (w Word) Key() string {
	buf := make([]byte, 0, len(w)+1)
	for _, l := range w {
		buf = binary.AppendUvarint(buf, uint64(l))
	}
	return string(buf)
}

// String renders w as a bracketed list of indices, e.g. "[0 1 0]".
func (w Word) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, l := range w {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(uint64(l), 10))
	}
	b.WriteByte(']')
	return b.String()
}
