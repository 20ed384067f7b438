// Package shortestpath runs single-pair Dijkstra over one request's graph.
//
// The whole run is synchronous and owns all of its state: caller hands in a
// freshly decoded graph, Solve consumes it and hands back the path. Nothing
// survives the call, so independent solves can run concurrently without any
// locking.
package shortestpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CrashenX/dijkstra-server/domain"
	"github.com/CrashenX/dijkstra-server/pkg/datastructure"
)

type Result struct {
	Path     []uint16 // start..target inclusive, empty when !Found
	Distance uint32
	Start    uint16
	Target   uint16
	Found    bool
}

// String renders the result the way the wire protocol expects it, without
// the trailing line break: "1->3->2->5 (20)" or "No path from '2' to '1'".
func (r Result) String() string {
	if !r.Found {
		return fmt.Sprintf("No path from '%d' to '%d'", r.Start, r.Target)
	}
	var sb strings.Builder
	for i, id := range r.Path {
		if i > 0 {
			sb.WriteString("->")
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}
	sb.WriteString(" (")
	sb.WriteString(strconv.FormatUint(uint64(r.Distance), 10))
	sb.WriteString(")")
	return sb.String()
}

// Solve runs Dijkstra from start and reconstructs the path to target.
// An unreachable target is a normal Found=false result; an error means the
// engine itself broke an invariant and the request must be aborted.
func Solve(g *datastructure.Graph, start, target uint16) (Result, error) {
	res := Result{Start: start, Target: target}

	// A vertex is trivially reachable from itself with distance 0. The
	// predecessor walk below cannot express this (start never gets a
	// predecessor), so it is an explicit case.
	if start == target {
		res.Found = true
		res.Path = []uint16{start}
		return res, nil
	}

	if err := run(g, start, target); err != nil {
		return res, err
	}
	return reconstruct(g, res)
}

// run executes the main loop: pop the closest frontier vertex, finalize it,
// relax its outgoing edges. Stops early once target is the heap minimum,
// since its distance is final at that point.
func run(g *datastructure.Graph, start, target uint16) error {
	heap := datastructure.NewMinHeap(g)

	// The start vertex keeps Dist 0; it reads as the infinity sentinel but
	// doubles as the genuine zero distance. That never misleads the loop
	// because start is the first vertex popped and finalized, before any
	// relaxation can look at it.
	heap.Insert(start)

	for {
		min, ok := heap.PeekMin()
		if !ok || min == target {
			return nil
		}
		u, _ := heap.ExtractMin()
		uv := g.Vertex(u)
		uv.Visited = true

		for _, e := range uv.OutEdges {
			nb := g.Vertex(e.To)
			if nb.Visited {
				continue
			}
			candidate := uv.Dist + uint32(e.Cost)
			if nb.Dist != datastructure.InfDist && candidate >= nb.Dist {
				continue
			}
			nb.Dist = candidate
			nb.Prev = u
			if heap.Contains(e.To) {
				// a frontier vertex whose distance just shrank; a failure
				// here means the position index is broken and the run
				// cannot be trusted
				if err := heap.DecreaseKey(e.To); err != nil {
					return err
				}
			} else {
				heap.Insert(e.To)
			}
		}
	}
}

// reconstruct backtracks predecessor links from target to start. An unset
// predecessor before start is reached means no path; a walk longer than the
// vertex count means the predecessor links form a cycle, which only a bug in
// the engine can produce.
func reconstruct(g *datastructure.Graph, res Result) (Result, error) {
	if g.Vertex(res.Target).Prev == datastructure.InvalidVertexID {
		return res, nil // target never reached
	}

	path := []uint16{res.Target}
	i := res.Target
	for i != res.Start {
		i = g.Vertex(i).Prev
		if i == datastructure.InvalidVertexID {
			res.Path = nil
			return res, nil
		}
		if len(path) > g.VertexCount() {
			return res, domain.WrapErrorf(nil, domain.ErrInvariantViolation,
				"predecessor cycle while reconstructing path %d -> %d", res.Start, res.Target)
		}
		path = append(path, i)
	}

	// reverse in place, the walk collected target..start
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}

	res.Found = true
	res.Path = path
	res.Distance = g.Vertex(res.Target).Dist
	return res, nil
}
