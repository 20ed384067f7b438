package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/CrashenX/dijkstra-server/pkg/concurrent"
	"github.com/CrashenX/dijkstra-server/pkg/kv"
	"github.com/CrashenX/dijkstra-server/pkg/server/rest"
	"github.com/CrashenX/dijkstra-server/pkg/server/rest/service"
	"github.com/CrashenX/dijkstra-server/pkg/server/tcp"
)

var (
	listenAddr  = flag.String("listenaddr", ":7777", "tcp frame server listen address")
	httpAddr    = flag.String("httpaddr", ":5000", "http api listen address")
	dbPath      = flag.String("db", "dijkstraDB", "pebble directory for the query history store")
	readTimeout = flag.Duration("read-timeout", 10*time.Second, "per-connection frame read deadline")
	maxEdges    = flag.Int("max-edges", 65535, "largest edge count a frame may declare")
	workers     = flag.Int("workers", 8, "concurrent tcp connections served")
	nulTerm     = flag.Bool("nul", true, "append the trailing NUL the original service wrote")
)

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := pebble.Open(*dbPath, &pebble.Options{})
	if err != nil {
		logger.Fatal("open history db", zap.String("path", *dbPath), zap.Error(err))
	}
	kvDB, err := kv.NewKVDB(db, logger)
	if err != nil {
		logger.Fatal("init history db", zap.Error(err))
	}
	defer kvDB.Close()

	records := concurrent.NewWorkerPool[concurrent.SaveRecordJobItem, interface{}](2, 1024)
	records.Start(kvDB.SaveRecord)
	go func() {
		for range records.CollectResults() {
		}
	}()

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	solverSvc := service.NewSolverService(kvDB, records, logger)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(rest.PromeHttpMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Mount("/debug", middleware.Profiler())
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rest.SolverRouter(r, solverSvc, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", *listenAddr), zap.Error(err))
	}
	tcpSrv := tcp.NewServer(solverSvc, logger, m.TCPQueryCount, tcp.Options{
		ReadTimeout:   *readTimeout,
		WriteTimeout:  *readTimeout,
		MaxEdges:      *maxEdges,
		Workers:       *workers,
		NulTerminated: *nulTerm,
	})
	go func() {
		logger.Info("tcp frame server listening", zap.String("addr", *listenAddr))
		if err := tcpSrv.Serve(ctx, ln); err != nil {
			logger.Error("tcp server", zap.Error(err))
		}
	}()

	httpServer := &http.Server{Addr: *httpAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("http api listening", zap.String("addr", *httpAddr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server", zap.Error(err))
	}

	// let queued history writes land before the db closes
	records.Close()
	records.Wait()
}
