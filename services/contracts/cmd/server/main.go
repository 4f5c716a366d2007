package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/aniss699/ProjectFirst-sub005/pkg/db"
	"github.com/aniss699/ProjectFirst-sub005/services/contracts/internal/api"
	"github.com/aniss699/ProjectFirst-sub005/services/contracts/internal/lifecycle"
	"github.com/aniss699/ProjectFirst-sub005/services/contracts/internal/notify"
	"github.com/aniss699/ProjectFirst-sub005/services/contracts/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	var repo lifecycle.Repository
	var sink notify.Sink
	if os.Getenv("DATABASE_URL") != "" {
		pool := db.MustConnect()
		defer pool.Close()
		repo = store.NewPostgres(pool)
		sink = notify.NewStore(pool)
		logger.Info("using postgres repository")
	} else {
		// Dev mode: everything in memory, notifications only logged.
		repo = store.NewMemory()
		sink = notify.LogSink{Logger: logger}
		logger.Warn("DATABASE_URL not set, using in-memory repository")
	}

	dispatcher := notify.NewDispatcher(sink, logger)
	defer dispatcher.Close()

	engine := lifecycle.NewEngine(repo, dispatcher, logger)

	ops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contracts_operations_total",
			Help: "Lifecycle operations by name and result",
		},
		[]string{"op", "result"},
	)
	prometheus.MustRegister(ops)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	r.Handle("/metrics", promhttp.Handler())
	api.NewHandler(engine, logger, ops).Mount(r)

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8083"
	}
	logger.Info("contracts service listening", "port", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
