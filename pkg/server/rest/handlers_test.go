package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
	"github.com/CrashenX/dijkstra-server/pkg/kv"
	"github.com/CrashenX/dijkstra-server/pkg/server/rest"
	"github.com/CrashenX/dijkstra-server/pkg/server/rest/service"
)

func newRouter(svc rest.SolverService) *chi.Mux {
	r := chi.NewRouter()
	m := rest.NewMetrics(prometheus.NewRegistry())
	rest.SolverRouter(r, svc, m)
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	bb, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(bb))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func classicEdges() []map[string]interface{} {
	raw := [][3]int{
		{1, 2, 14}, {1, 3, 9}, {1, 4, 7}, {2, 5, 9}, {3, 2, 2},
		{3, 6, 11}, {4, 3, 10}, {4, 6, 15}, {6, 5, 6},
	}
	edges := []map[string]interface{}{}
	for _, e := range raw {
		edges = append(edges, map[string]interface{}{"source": e[0], "target": e[1], "cost": e[2]})
	}
	return edges
}

func TestShortestPathHandler(t *testing.T) {
	svc := service.NewSolverService(nil, nil, zap.NewNop())
	router := newRouter(svc)

	t.Run("solves the classic graph", func(t *testing.T) {
		w := postJSON(t, router, "/api/routes/shortest-path", map[string]interface{}{
			"start": 1, "target": 5, "edges": classicEdges(),
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.ShortestPathResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Found)
		assert.Equal(t, "1->3->2->5 (20)", resp.Path)
		assert.Equal(t, []uint16{1, 3, 2, 5}, resp.Vertices)
		assert.Equal(t, uint32(20), resp.Distance)
	})

	t.Run("no path is a 200 with found false", func(t *testing.T) {
		w := postJSON(t, router, "/api/routes/shortest-path", map[string]interface{}{
			"start": 2, "target": 1,
			"edges": []map[string]interface{}{{"source": 1, "target": 2, "cost": 5}},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.ShortestPathResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Found)
		assert.Equal(t, "No path from '2' to '1'", resp.Path)
	})

	t.Run("missing start is rejected", func(t *testing.T) {
		w := postJSON(t, router, "/api/routes/shortest-path", map[string]interface{}{
			"target": 5, "edges": classicEdges(),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("zero cost edge fails validation", func(t *testing.T) {
		w := postJSON(t, router, "/api/routes/shortest-path", map[string]interface{}{
			"start": 1, "target": 2,
			"edges": []map[string]interface{}{{"source": 1, "target": 2, "cost": 0}},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["validation"])
	})
}

func TestQueryHistoryHandler(t *testing.T) {

	t.Run("solved queries show up in history", func(t *testing.T) {
		db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
		require.NoError(t, err)
		k, err := kv.NewKVDB(db, zap.NewNop())
		require.NoError(t, err)
		defer k.Close()

		pool := concurrent.NewWorkerPool[concurrent.SaveRecordJobItem, interface{}](1, 16)
		pool.Start(k.SaveRecord)

		svc := service.NewSolverService(k, pool, zap.NewNop())
		router := newRouter(svc)

		w := postJSON(t, router, "/api/routes/shortest-path", map[string]interface{}{
			"start": 1, "target": 5, "edges": classicEdges(),
		})
		require.Equal(t, http.StatusOK, w.Code)

		// flush the async history write before reading it back
		pool.Close()
		pool.Wait()
		for range pool.CollectResults() {
		}

		req := httptest.NewRequest(http.MethodGet, "/api/routes/history?limit=5", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp rest.QueryHistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Queries, 1)
		assert.Equal(t, uint16(1), resp.Queries[0].Start)
		assert.Equal(t, uint16(5), resp.Queries[0].Target)
		assert.Equal(t, "1->3->2->5 (20)", resp.Queries[0].Path)
		assert.True(t, resp.Queries[0].Found)
	})

	t.Run("bad limit is rejected", func(t *testing.T) {
		svc := service.NewSolverService(nil, nil, zap.NewNop())
		router := newRouter(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/routes/history?limit=banana", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
