// Package rankheap implements a binary heap whose elements are addressable by
// identity.
//
// Elements are comparable handles (item ids in practice) and the ordering is
// supplied by a caller-owned "before" function that usually dereferences the
// handle into some external table. The heap never stores keys itself, so when
// the value behind a handle changes the caller must Remove and Push the handle
// again; until then the heap property may be violated for that element only.
package rankheap

// Heap is a max-ordered binary heap keyed by element identity.
// before(a, b) reports whether a must be served ahead of b.
// The zero value is not usable; construct with New.
type Heap[K comparable] struct {
	buf    []K
	pos    map[K]int
	before func(a, b K) bool
}

// New returns an empty heap ordered by before.
func New[K comparable](before func(a, b K) bool) *Heap[K] {
	return &Heap[K]{
		pos:    make(map[K]int),
		before: before,
	}
}

// Len returns the number of elements.
func (h *Heap[K]) Len() int {
	return len(h.buf)
}

// Contains reports whether k is currently placed in the heap.
func (h *Heap[K]) Contains(k K) bool {
	_, ok := h.pos[k]
	return ok
}

// Push places k in the heap. Pushing an element that is already present is
// rejected and reports false.
// The complexity is O(log n).
func (h *Heap[K]) Push(k K) bool {
	if _, ok := h.pos[k]; ok {
		return false
	}
	h.buf = append(h.buf, k)
	h.pos[k] = len(h.buf) - 1
	h.up(len(h.buf) - 1)
	return true
}

// Peek returns the first element without removing it.
func (h *Heap[K]) Peek() (K, bool) {
	if len(h.buf) == 0 {
		var zero K
		return zero, false
	}
	return h.buf[0], true
}

// Pop removes and returns the first element.
// The complexity is O(log n).
func (h *Heap[K]) Pop() (K, bool) {
	if len(h.buf) == 0 {
		var zero K
		return zero, false
	}
	k := h.buf[0]
	h.removeAt(0)
	return k, true
}

// Remove takes k out of the heap by identity. The ordering value behind k is
// never consulted to locate it, so a stale key is fine.
// The complexity is O(log n).
func (h *Heap[K]) Remove(k K) bool {
	i, ok := h.pos[k]
	if !ok {
		return false
	}
	h.removeAt(i)
	return true
}

// Top returns up to n elements in serving order without modifying the heap.
// It walks a frontier of heap slots, so the cost is O(n log n) regardless of
// the heap size.
func (h *Heap[K]) Top(n int) []K {
	if n <= 0 || len(h.buf) == 0 {
		return nil
	}
	if n > len(h.buf) {
		n = len(h.buf)
	}
	out := make([]K, 0, n)
	frontier := New(func(a, b int) bool { return h.before(h.buf[a], h.buf[b]) })
	frontier.Push(0)
	for len(out) < n {
		i, ok := frontier.Pop()
		if !ok {
			break
		}
		out = append(out, h.buf[i])
		if l := 2*i + 1; l < len(h.buf) {
			frontier.Push(l)
		}
		if r := 2*i + 2; r < len(h.buf) {
			frontier.Push(r)
		}
	}
	return out
}

// Elements returns a copy of the heap contents in slot order.
func (h *Heap[K]) Elements() []K {
	out := make([]K, len(h.buf))
	copy(out, h.buf)
	return out
}

// Valid reports whether every parent is served no later than its children and
// the identity index agrees with the slots.
func (h *Heap[K]) Valid() bool {
	if len(h.pos) != len(h.buf) {
		return false
	}
	for i, k := range h.buf {
		if p, ok := h.pos[k]; !ok || p != i {
			return false
		}
		if i == 0 {
			continue
		}
		if h.before(k, h.buf[(i-1)/2]) {
			return false
		}
	}
	return true
}

func (h *Heap[K]) removeAt(i int) {
	n := len(h.buf) - 1
	k := h.buf[i]
	if i != n {
		h.swap(i, n)
	}
	delete(h.pos, k)
	var zero K
	h.buf[n] = zero
	h.buf = h.buf[:n]
	if i != n {
		if !h.down(i, n) {
			h.up(i)
		}
	}
}

func (h *Heap[K]) swap(i, j int) {
	h.buf[i], h.buf[j] = h.buf[j], h.buf[i]
	h.pos[h.buf[i]] = i
	h.pos[h.buf[j]] = j
}

func (h *Heap[K]) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || !h.before(h.buf[j], h.buf[i]) {
			break
		}
		h.swap(i, j)
		j = i
	}
}

func (h *Heap[K]) down(i0, n int) bool {
	i := i0
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 { // j1 < 0 after int overflow
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.before(h.buf[j2], h.buf[j1]) {
			j = j2 // right child
		}
		if !h.before(h.buf[j], h.buf[i]) {
			break
		}
		h.swap(i, j)
		i = j
	}
	return i > i0
}
