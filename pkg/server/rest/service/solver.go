package service

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/CrashenX/dijkstra-server/domain"
	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
	"github.com/CrashenX/dijkstra-server/pkg/datastructure"
	"github.com/CrashenX/dijkstra-server/pkg/engine/shortestpath"
	"github.com/CrashenX/dijkstra-server/pkg/protocol"
)

type HistoryStore interface {
	NextSeq() uint64
	RecentQueries(limit int) ([]concurrent.QueryRecord, error)
}

// SolverService runs the engine for both transports (binary TCP frames and
// the JSON API) and queues every solved query onto the history writer pool.
type SolverService struct {
	history HistoryStore
	records *concurrent.WorkerPool[concurrent.SaveRecordJobItem, interface{}]
	log     *zap.Logger
}

// NewSolverService builds the service. history and records may both be nil,
// which disables history recording (useful for tests and for running without
// a store).
func NewSolverService(history HistoryStore, records *concurrent.WorkerPool[concurrent.SaveRecordJobItem, interface{}], log *zap.Logger) *SolverService {
	return &SolverService{history: history, records: records, log: log}
}

// Solve runs one independent shortest-path computation over g. The graph is
// consumed by the run and must not be reused.
func (uc *SolverService) Solve(ctx context.Context, start, target uint16, g *datastructure.Graph) (shortestpath.Result, error) {
	res, err := shortestpath.Solve(g, start, target)
	if err != nil {
		return res, domain.WrapErrorf(err, domain.ErrInternalServerError,
			"shortest path %d -> %d", start, target)
	}

	uc.record(res)
	return res, nil
}

// SolveFrame decodes a single binary frame from r and solves it. maxEdges
// bounds the declared edge count before the graph is built.
func (uc *SolverService) SolveFrame(ctx context.Context, r io.Reader, maxEdges int) (shortestpath.Result, error) {
	req, err := protocol.DecodeRequest(r, maxEdges)
	if err != nil {
		return shortestpath.Result{}, err
	}
	return uc.Solve(ctx, req.Start, req.Target, req.Graph)
}

func (uc *SolverService) History(ctx context.Context, limit int) ([]concurrent.QueryRecord, error) {
	if uc.history == nil {
		return []concurrent.QueryRecord{}, nil
	}
	recs, err := uc.history.RecentQueries(limit)
	if err != nil {
		return nil, domain.WrapErrorf(err, domain.ErrInternalServerError, "read query history")
	}
	return recs, nil
}

func (uc *SolverService) record(res shortestpath.Result) {
	if uc.history == nil || uc.records == nil {
		return
	}
	uc.records.AddJob(concurrent.SaveRecordJobItem{
		Seq: uc.history.NextSeq(),
		Record: concurrent.QueryRecord{
			SolvedAt: time.Now().UnixNano(),
			Start:    res.Start,
			Target:   res.Target,
			Found:    res.Found,
			Distance: res.Distance,
			Path:     res.String(),
		},
	})
}
