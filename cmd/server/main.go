package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	espHandler "crewops/internal/esp/handler"
	espMetrics "crewops/internal/esp/metrics"
	espService "crewops/internal/esp/service"
	espStore "crewops/internal/esp/store"
	jwtToken "crewops/internal/jwt_token"
	"crewops/internal/leave"
	leaveHandler "crewops/internal/leave/handler"
	leaveMetrics "crewops/internal/leave/metrics"
	leaveService "crewops/internal/leave/service"
	leaveStore "crewops/internal/leave/store"
	"crewops/internal/orgdata"
	orgCache "crewops/internal/orgdata/cache"
	orgMetrics "crewops/internal/orgdata/metrics"
	orgStore "crewops/internal/orgdata/store"
	"crewops/internal/platform/config"
	"crewops/internal/platform/httpserver"
	"crewops/internal/platform/logger"
	"crewops/internal/platform/middleware"
	"crewops/internal/platform/postgres"
	"crewops/internal/platform/redis"
	"crewops/internal/workflow"
	wfMetrics "crewops/internal/workflow/metrics"
	wfPublisher "crewops/internal/workflow/publisher"
	wfStore "crewops/internal/workflow/store"
)

const (
	shutdownTimeout = 15 * time.Second
	requestTimeout  = 30 * time.Second
	publishBuffer   = 256
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.ApplySchema(ctx, db); err != nil {
		log.Error("schema apply failed", "error", err)
		os.Exit(1)
	}

	// Org snapshot reads go through Redis when configured, straight to
	// Postgres otherwise.
	var gateway orgdata.Gateway = orgStore.NewPostgres(db)
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = redis.New(cfg.Redis)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		gateway = orgCache.New(gateway, redisClient.Client, cfg.Redis.SnapshotTTL, log, orgMetrics.New())
	}

	// Workflow events are durable in Postgres; Kafka delivery is optional
	// and best effort.
	wfM := wfMetrics.New()
	var publisher *wfPublisher.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := wfPublisher.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka connection failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		publisher = wfPublisher.NewPublisher(sink, wfM, log, wfPublisher.WithAsyncBuffer(publishBuffer))
		defer publisher.Close()
	}

	var enginePublisher workflow.Publisher
	if publisher != nil {
		enginePublisher = publisher
	}
	engine := workflow.NewEngine(wfStore.NewPostgresStore(db), wfStore.NewSQLTxRunner(db), enginePublisher, wfM, log)

	leaveSvc := leaveService.NewService(
		leaveStore.NewPostgresStore(db),
		leave.NewDetector(gateway),
		engine,
		gateway,
		leaveMetrics.New(),
		log,
	)
	espSvc := espService.NewService(
		espStore.NewPostgresStore(db),
		engine,
		gateway,
		espMetrics.New(),
		log,
	)

	jwtSvc := jwtToken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Timeout(requestTimeout))

	router.Get("/healthz", healthHandler(db, redisClient))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(jwtSvc, log))
		leaveHandler.New(leaveSvc, log).Register(r)
		espHandler.New(espSvc, log).Register(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "error", err)
	}
	log.Info("server stopped")
}

func healthHandler(db *sql.DB, rc *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		if rc != nil {
			if err := rc.Health(ctx); err != nil {
				http.Error(w, "cache unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
