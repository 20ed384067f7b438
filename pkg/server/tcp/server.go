// Package tcp serves the binary frame protocol: one connection, one frame,
// one response line, close. Each accepted connection is handed to the shared
// worker pool and solved with per-request state only, so connections never
// contend on anything but the listener.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/CrashenX/dijkstra-server/domain"
	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
	"github.com/CrashenX/dijkstra-server/pkg/engine/shortestpath"
	"github.com/CrashenX/dijkstra-server/pkg/protocol"
)

type Solver interface {
	SolveFrame(ctx context.Context, r io.Reader, maxEdges int) (shortestpath.Result, error)
}

type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxEdges     int
	Workers      int
	// NulTerminated appends the trailing NUL the original service wrote
	// after the line break.
	NulTerminated bool
}

type Server struct {
	svc     Solver
	log     *zap.Logger
	opts    Options
	queries *prometheus.CounterVec // outcome: found | no_path | incomplete_input | error
	pool    *concurrent.WorkerPool[concurrent.ConnJobItem, error]
}

func NewServer(svc Solver, log *zap.Logger, queries *prometheus.CounterVec, opts Options) *Server {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Server{
		svc:     svc,
		log:     log,
		opts:    opts,
		queries: queries,
		pool:    concurrent.NewWorkerPool[concurrent.ConnJobItem, error](opts.Workers, opts.Workers*2),
	}
}

// Serve accepts connections on ln until ctx is cancelled or the listener
// fails. It blocks; cancel ctx to shut down, after which queued connections
// are drained before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.pool.Start(s.handle)
	go func() {
		// handler errors are already logged, the channel just has to move
		for range s.pool.CollectResults() {
		}
	}()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() == nil {
				acceptErr = err
			}
			break
		}
		s.pool.AddJob(concurrent.ConnJobItem{Conn: conn})
	}

	s.pool.Close()
	s.pool.Wait()
	return acceptErr
}

func (s *Server) handle(item concurrent.ConnJobItem) error {
	conn := item.Conn
	defer conn.Close()

	if s.opts.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}

	res, err := s.svc.SolveFrame(context.Background(), conn, s.opts.MaxEdges)
	if err != nil {
		// No partial response on a bad frame, the connection just closes.
		if errors.Is(err, domain.ErrIncompleteInput) {
			s.count("incomplete_input")
			s.log.Warn("incomplete frame", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		} else {
			s.count("error")
			s.log.Error("solve frame", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		}
		return err
	}

	if res.Found {
		s.count("found")
	} else {
		s.count("no_path")
	}

	if s.opts.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
	if _, err := conn.Write(protocol.EncodeResponse(res, s.opts.NulTerminated)); err != nil {
		s.count("error")
		s.log.Error("write response", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) count(outcome string) {
	if s.queries != nil {
		s.queries.WithLabelValues(outcome).Inc()
	}
}
