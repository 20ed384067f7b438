package datastructure

// Vertex ids live in [1,65535]. 0 is reserved as the empty/invalid id and is
// also what an unset predecessor looks like. Dist uses 0 as the infinity
// sentinel; that is safe because every edge cost is >= 1, so no vertex other
// than the source can hold a real distance of 0 while the algorithm runs.
const (
	InvalidVertexID = uint16(0)
	MaxVertexID     = uint16(65535)
	InfDist         = uint32(0)
)

type Edge struct {
	To   uint16
	Cost uint16
}

type Vertex struct {
	OutEdges []Edge
	Dist     uint32
	Prev     uint16
	HeapIdx  uint16 // 0 = not in heap, heap slots are 1-based
	Visited  bool
}

// Graph is one request's adjacency structure, keyed by the vertex ids that
// actually appear on the wire instead of a flat 65536-entry array.
type Graph struct {
	vertices  map[uint16]*Vertex
	edgeCount int
}

func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[uint16]*Vertex),
	}
}

// Vertex returns the record for id, creating an empty one on first use.
func (g *Graph) Vertex(id uint16) *Vertex {
	v, ok := g.vertices[id]
	if !ok {
		v = &Vertex{}
		g.vertices[id] = v
	}
	return v
}

func (g *Graph) HasVertex(id uint16) bool {
	_, ok := g.vertices[id]
	return ok
}

// AddEdge appends a directed edge from -> to with the given cost. Duplicate
// edges between the same pair are kept, in insertion order.
func (g *Graph) AddEdge(from, to uint16, cost uint16) {
	v := g.Vertex(from)
	v.OutEdges = append(v.OutEdges, Edge{To: to, Cost: cost})
	g.Vertex(to) // materialize the destination so VertexCount covers it
	g.edgeCount++
}

func (g *Graph) VertexCount() int {
	return len(g.vertices)
}

func (g *Graph) EdgeCount() int {
	return g.edgeCount
}
