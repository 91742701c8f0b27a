package suggest

import (
	"container/heap"
	"sort"
)

// suggestionLess orders suggestions for output: descending score, then
// ascending product id so equal scores rank deterministically.
func suggestionLess(a, b Suggestion) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Product.ID < b.Product.ID
}

// suggestionHeap is a bounded min-heap: the root is the weakest suggestion
// currently retained, so it can be evicted in O(log k) when a stronger one
// arrives.
type suggestionHeap []Suggestion

func (h suggestionHeap) Len() int            { return len(h) }
func (h suggestionHeap) Less(i, j int) bool  { return suggestionLess(h[j], h[i]) }
func (h suggestionHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *suggestionHeap) Push(x any)         { *h = append(*h, x.(Suggestion)) }
func (h *suggestionHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// selectTop extracts the k best suggestions ordered by descending score. When
// the candidate count is at most k everything is sorted directly; otherwise a
// bounded heap keeps the selection at O(m log k).
func selectTop(scored []Suggestion, k int) []Suggestion {
	if k <= 0 {
		return []Suggestion{}
	}
	if len(scored) <= k {
		sort.Slice(scored, func(i, j int) bool { return suggestionLess(scored[i], scored[j]) })
		return scored
	}
	h := make(suggestionHeap, 0, k)
	heap.Init(&h)
	for _, s := range scored {
		if len(h) < k {
			heap.Push(&h, s)
			continue
		}
		if suggestionLess(s, h[0]) {
			h[0] = s
			heap.Fix(&h, 0)
		}
	}
	out := make([]Suggestion, len(h))
	for i := len(h) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Suggestion)
	}
	return out
}
