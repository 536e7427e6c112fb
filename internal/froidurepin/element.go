package froidurepin

import (
	"encoding/binary"
	"fmt"
)

// Element is the contract for values the enumerator can multiply.
// Key must be equal for equal elements and distinct otherwise.
type Element[E any] interface {
	Product(E) E
	Key() string
}

// Transformation is a map {0..n-1} -> {0..n-1} in image-list form.
// Products compose left to right: x.Product(y) applies x, then y.
type Transformation []int

var _ Element[Transformation] = Transformation(nil)

// NewTransformation validates images against the degree len(images).
func NewTransformation(images ...int) (Transformation, error) {
	for i, v := range images {
		if v < 0 || v >= len(images) {
			return nil, fmt.Errorf("image %d of point %d out of range [0, %d)", v, i, len(images))
		}
	}
	return Transformation(append([]int(nil), images...)), nil
}

// Product returns x then y. Panics on a degree mismatch.
func (x Transformation) Product(y Transformation) Transformation {
	if len(x) != len(y) {
		panic(fmt.Sprintf("transformation degree mismatch: %d vs %d", len(x), len(y)))
	}
	out := make(Transformation, len(x))
	for i, v := range x {
		out[i] = y[v]
	}
	return out
}

// Key encodes the image list.
func (x Transformation) Key() string {
	buf := make([]byte, 0, len(x)*2)
	for _, v := range x {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return string(buf)
}

// Degree returns the number of points.
func (x Transformation) Degree() int {
	return len(x)
}
