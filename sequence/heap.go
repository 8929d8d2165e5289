package sequence

import "container/heap"

// Heap is a max-heap ordered by a score function. Equal scores pop in
// insertion order, which keeps the beam deterministic.
type Heap[T any] struct {
	items heapItems[T]
	score func(T) float64
	next  int64
}

// NewHeap returns an empty heap ordered by score.
func NewHeap[T any](score func(T) float64) *Heap[T] {
	return &Heap[T]{score: score}
}

// NewLetterHeap returns a heap of letter sequences ordered by Score.
func NewLetterHeap() *Heap[*LetterSequence] {
	return NewHeap(func(s *LetterSequence) float64 { return s.Score() })
}

func (h *Heap[T]) Len() int { return len(h.items) }

func (h *Heap[T]) Push(v T) {
	heap.Push(&h.items, heapItem[T]{value: v, score: h.score(v), seq: h.next})
	h.next++
}

// Pop removes the best element.
func (h *Heap[T]) Pop() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	it := heap.Pop(&h.items).(heapItem[T])
	return it.value, true
}

// Take pops at most n best elements and discards the rest, which is how the
// beam is pruned.
func (h *Heap[T]) Take(n int) []T {
	out := make([]T, 0, min(n, len(h.items)))
	for len(out) < n {
		v, ok := h.Pop()
		if !ok {
			break
		}
		out = append(out, v)
	}
	h.items = h.items[:0]
	return out
}

type heapItem[T any] struct {
	value T
	score float64
	seq   int64
}

type heapItems[T any] []heapItem[T]

func (h heapItems[T]) Len() int { return len(h) }

func (h heapItems[T]) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score > h[j].score
	}
	return h[i].seq < h[j].seq
}

func (h heapItems[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *heapItems[T]) Push(x any) { *h = append(*h, x.(heapItem[T])) }

func (h *heapItems[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
