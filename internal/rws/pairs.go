package rws

import "container/heap"

// pair is a queued (i, j) rule pair. cursor is the index of the next
// critical pair of overlaps(i, j) to resolve, so a pair interrupted at a
// suspension point resumes where it stopped.
type pair struct {
	i, j   int
	cursor int
	weight int   // len(LHS_i) + len(LHS_j)
	seq    int64 // enqueue order, breaks weight ties
}

// pairQueue is a min-heap of pairs: lightest (shortest overlaps) first,
// then first enqueued.
type pairQueue []*pair

var _ heap.Interface = (*pairQueue)(nil)

func (q pairQueue) Len() int { return len(q) }

func (q pairQueue) Less(a, b int) bool {
	if q[a].weight != q[b].weight {
		return q[a].weight < q[b].weight
	}
	return q[a].seq < q[b].seq
}

func (q pairQueue) Swap(a, b int) { q[a], q[b] = q[b], q[a] }

func (q *pairQueue) Push(x any) { *q = append(*q, x.(*pair)) }

func (q *pairQueue) Pop() any {
	old := *q
	n := len(old)
	p := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return p
}
