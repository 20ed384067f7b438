package datastructure

import (
	"fmt"

	"github.com/CrashenX/dijkstra-server/domain"
)

// MinHeap is an indexed binary min-heap over vertex ids, ordered by each
// vertex's current Dist. The array is 1-based (slot 0 unused) so parent/child
// arithmetic stays i/2, 2i, 2i+1, and so a Vertex.HeapIdx of 0 can mean
// "not in the heap". Every swap writes both sides of the position index, which
// is what makes DecreaseKey O(log n) instead of a linear scan.
//
// Ordering is sentinel-aware: Dist 0 means infinity and is never smaller than
// a non-zero Dist. Between two non-zero values ordinary numeric order applies.
type MinHeap struct {
	g    *Graph
	slot []uint16 // slot[1..tail] hold vertex ids
	tail uint16
}

func NewMinHeap(g *Graph) *MinHeap {
	return &MinHeap{
		g:    g,
		slot: make([]uint16, 1, 64), // slot[0] stays unused
	}
}

// distLess reports a < b where 0 is infinity.
func distLess(a, b uint32) bool {
	return a != 0 && (a < b || b == 0)
}

func (h *MinHeap) Len() int {
	return int(h.tail)
}

// Contains is O(1) via the per-vertex position index.
func (h *MinHeap) Contains(id uint16) bool {
	return h.g.Vertex(id).HeapIdx != 0
}

// PeekMin returns the vertex id at the root without removing it, or
// (InvalidVertexID, false) when the heap is empty.
func (h *MinHeap) PeekMin() (uint16, bool) {
	if h.tail == 0 {
		return InvalidVertexID, false
	}
	return h.slot[1], true
}

// Insert appends id as a new leaf and sifts it up.
func (h *MinHeap) Insert(id uint16) {
	h.tail++
	if int(h.tail) >= len(h.slot) {
		h.slot = append(h.slot, InvalidVertexID)
	}
	h.set(h.tail, id)
	h.siftUp(h.tail)
}

// ExtractMin removes and returns the root. The last leaf replaces the root
// and is sifted down.
func (h *MinHeap) ExtractMin() (uint16, bool) {
	if h.tail == 0 {
		return InvalidVertexID, false
	}
	min := h.slot[1]
	h.swap(1, h.tail)
	h.clear(h.tail)
	h.tail--
	if h.tail > 0 {
		h.siftDown(1)
	}
	return min, true
}

// DecreaseKey must be called after id's Dist has been lowered externally.
// Distances only ever shrink in Dijkstra, so sifting up is sufficient.
func (h *MinHeap) DecreaseKey(id uint16) error {
	i := h.g.Vertex(id).HeapIdx
	if i == 0 {
		return domain.WrapErrorf(nil, domain.ErrInvariantViolation,
			"decrease-key on vertex %d which is not in the heap", id)
	}
	h.siftUp(i)
	return nil
}

func (h *MinHeap) set(i, id uint16) {
	h.slot[i] = id
	h.g.Vertex(id).HeapIdx = i
}

func (h *MinHeap) clear(i uint16) {
	h.g.Vertex(h.slot[i]).HeapIdx = 0
	h.slot[i] = InvalidVertexID
}

func (h *MinHeap) swap(a, b uint16) {
	s := h.slot[a]
	h.set(a, h.slot[b])
	h.set(b, s)
}

func (h *MinHeap) dist(i uint16) uint32 {
	return h.g.Vertex(h.slot[i]).Dist
}

func (h *MinHeap) siftUp(i uint16) {
	for i > 1 {
		p := i / 2
		if !distLess(h.dist(i), h.dist(p)) {
			break
		}
		h.swap(i, p)
		i = p
	}
}

func (h *MinHeap) siftDown(i uint16) {
	// Child indices of slots in the bottom half of the id space exceed 16
	// bits, so the index arithmetic happens in int and only converts back
	// once a child is known to be inside 1..tail.
	j := int(i)
	for {
		c := 2 * j
		if c > int(h.tail) {
			break
		}
		if c < int(h.tail) && distLess(h.dist(uint16(c+1)), h.dist(uint16(c))) {
			c++ // right child is the smaller one
		}
		if !distLess(h.dist(uint16(c)), h.dist(uint16(j))) {
			break
		}
		h.swap(uint16(j), uint16(c))
		j = c
	}
}

// CheckInvariant walks slots 1..tail and verifies both the heap property and
// the position index. Used by tests after every mutation.
func (h *MinHeap) CheckInvariant() error {
	// int loop counter: `i <= tail` in uint16 never terminates when the
	// heap is full at 65535 slots
	for i := 1; i <= int(h.tail); i++ {
		s := uint16(i)
		if h.g.Vertex(h.slot[s]).HeapIdx != s {
			return fmt.Errorf("position index desync at slot %d (vertex %d)", s, h.slot[s])
		}
		if s > 1 && distLess(h.dist(s), h.dist(s/2)) {
			return fmt.Errorf("heap property broken between slot %d and parent", s)
		}
	}
	return nil
}
