// Package uf is a union-find over the integers 0..n-1.
//
// Union keeps the smaller index as representative, so the representative
// of a block is always its least element. Not safe for concurrent use;
// each owner keeps its own instance.
package uf

// UF is a disjoint-set forest with path halving.
type UF struct {
	parent []int
	blocks int
}

// New creates n singleton blocks.
func New(n int) *UF {
	u := &UF{parent: make([]int, n), blocks: n}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

// Add appends a new singleton block and returns its index.
func (u *UF) Add() int {
	u.parent = append(u.parent, len(u.parent))
	u.blocks++
	return len(u.parent) - 1
}

// Find returns the representative of a's block.
func (u *UF) Find(a int) int {
	for u.parent[a] != a {
		u.parent[a] = u.parent[u.parent[a]]
		a = u.parent[a]
	}
	return a
}

// Union merges the blocks of a and b and returns the new representative.
func (u *UF) Union(a, b int) int {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return ra
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.blocks--
	return ra
}

// Same reports whether a and b are in one block.
func (u *UF) Same(a, b int) bool {
	return u.Find(a) == u.Find(b)
}

// Size returns the number of elements.
func (u *UF) Size() int {
	return len(u.parent)
}

// NrBlocks returns the number of blocks.
func (u *UF) NrBlocks() int {
	return u.blocks
}
