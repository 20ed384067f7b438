package shortestpath_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrashenX/dijkstra-server/pkg/datastructure"
	"github.com/CrashenX/dijkstra-server/pkg/engine/shortestpath"
)

// the classic 6 vertex graph: best route 1->5 goes 1->3->2->5
func classicGraph() *datastructure.Graph {
	g := datastructure.NewGraph()
	g.AddEdge(1, 2, 14)
	g.AddEdge(1, 3, 9)
	g.AddEdge(1, 4, 7)
	g.AddEdge(2, 5, 9)
	g.AddEdge(3, 2, 2)
	g.AddEdge(3, 6, 11)
	g.AddEdge(4, 3, 10)
	g.AddEdge(4, 6, 15)
	g.AddEdge(6, 5, 6)
	return g
}

func TestSolve(t *testing.T) {

	t.Run("classic graph 1 to 5", func(t *testing.T) {
		res, err := shortestpath.Solve(classicGraph(), 1, 5)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, []uint16{1, 3, 2, 5}, res.Path)
		assert.Equal(t, uint32(20), res.Distance)
		assert.Equal(t, "1->3->2->5 (20)", res.String())
	})

	t.Run("indirect route beats the direct edge", func(t *testing.T) {
		res, err := shortestpath.Solve(classicGraph(), 1, 2)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, "1->3->2 (11)", res.String())
	})

	t.Run("start equals target", func(t *testing.T) {
		res, err := shortestpath.Solve(classicGraph(), 1, 1)
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.Equal(t, []uint16{1}, res.Path)
		assert.Equal(t, uint32(0), res.Distance)
		assert.Equal(t, "1 (0)", res.String())
	})

	t.Run("target only reachable against edge direction", func(t *testing.T) {
		g := datastructure.NewGraph()
		g.AddEdge(1, 2, 5)

		res, err := shortestpath.Solve(g, 2, 1)
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Empty(t, res.Path)
		assert.Equal(t, "No path from '2' to '1'", res.String())
	})

	t.Run("disconnected target", func(t *testing.T) {
		g := classicGraph()
		g.AddEdge(100, 101, 1)

		res, err := shortestpath.Solve(g, 1, 101)
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("target absent from the graph entirely", func(t *testing.T) {
		res, err := shortestpath.Solve(classicGraph(), 1, 9999)
		require.NoError(t, err)
		assert.False(t, res.Found)
	})

	t.Run("duplicate edges use the cheaper one", func(t *testing.T) {
		g := datastructure.NewGraph()
		g.AddEdge(1, 2, 9)
		g.AddEdge(1, 2, 3)
		g.AddEdge(1, 2, 7)

		res, err := shortestpath.Solve(g, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, uint32(3), res.Distance)
	})

	t.Run("path cost equals reported distance", func(t *testing.T) {
		g := classicGraph()
		res, err := shortestpath.Solve(g, 1, 5)
		require.NoError(t, err)

		total := uint32(0)
		for i := 0; i+1 < len(res.Path); i++ {
			best := uint32(0)
			for _, e := range g.Vertex(res.Path[i]).OutEdges {
				if e.To == res.Path[i+1] && (best == 0 || uint32(e.Cost) < best) {
					best = uint32(e.Cost)
				}
			}
			require.NotZero(t, best, "path uses a non existent edge")
			total += best
		}
		assert.Equal(t, res.Distance, total)
	})

	t.Run("frontier wider than 32768 vertices", func(t *testing.T) {
		// star through a middle layer: 1 -> mid (cost = mid id) -> 65535
		// (cost 1). Best route is via vertex 2 for a total of 3, and the
		// frontier holds all 35000 middle vertices at once.
		g := datastructure.NewGraph()
		const fan = 35000
		target := uint16(65535)
		for i := 0; i < fan; i++ {
			mid := uint16(2 + i)
			g.AddEdge(1, mid, mid)
			g.AddEdge(mid, target, 1)
		}

		res, err := shortestpath.Solve(g, 1, target)
		require.NoError(t, err)
		require.True(t, res.Found)
		assert.Equal(t, []uint16{1, 2, target}, res.Path)
		assert.Equal(t, uint32(3), res.Distance)
	})

	t.Run("matches bellman-ford on random graphs", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 25; trial++ {
			nVertices := 2 + rng.Intn(40)
			nEdges := rng.Intn(5 * nVertices)

			g := datastructure.NewGraph()
			type edge struct {
				from, to uint16
				cost     uint32
			}
			edges := make([]edge, 0, nEdges)
			for i := 0; i < nEdges; i++ {
				e := edge{
					from: uint16(1 + rng.Intn(nVertices)),
					to:   uint16(1 + rng.Intn(nVertices)),
					cost: uint32(1 + rng.Intn(100)),
				}
				g.AddEdge(e.from, e.to, uint16(e.cost))
				edges = append(edges, e)
			}
			start := uint16(1 + rng.Intn(nVertices))
			target := uint16(1 + rng.Intn(nVertices))
			g.Vertex(start)
			g.Vertex(target)

			// bellman-ford reference distances
			const inf = ^uint32(0)
			dist := make(map[uint16]uint32)
			for id := uint16(1); id <= uint16(nVertices); id++ {
				dist[id] = inf
			}
			dist[start] = 0
			for i := 0; i < nVertices; i++ {
				for _, e := range edges {
					if dist[e.from] != inf && dist[e.from]+e.cost < dist[e.to] {
						dist[e.to] = dist[e.from] + e.cost
					}
				}
			}

			res, err := shortestpath.Solve(g, start, target)
			require.NoError(t, err)
			if dist[target] == inf {
				assert.False(t, res.Found, "trial %d: engine found a path bellman-ford says is absent", trial)
			} else {
				require.True(t, res.Found, "trial %d: engine missed an existing path", trial)
				assert.Equal(t, dist[target], res.Distance, "trial %d", trial)
				assert.Equal(t, start, res.Path[0])
				assert.Equal(t, target, res.Path[len(res.Path)-1])
			}
		}
	})
}
