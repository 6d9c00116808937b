package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"funnelgate/internal/analytics"
	"funnelgate/internal/funnel"
	"funnelgate/internal/geo"
	"funnelgate/internal/identity"
	"funnelgate/internal/platform/config"
	"funnelgate/internal/platform/httpserver"
	"funnelgate/internal/platform/kafka"
	"funnelgate/internal/platform/logger"
	"funnelgate/internal/platform/metrics"
	"funnelgate/internal/platform/middleware"
	"funnelgate/internal/platform/redis"
	"funnelgate/internal/redirect"
	"funnelgate/internal/session"
)

// main wires dependencies and owns the server lifecycle. Every external
// dependency is optional: missing Redis falls back to in-memory stores,
// missing Kafka means events only reach the archive, missing Postgres means
// no archive. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx := context.Background()

	rdb, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var (
		sessionStore session.Store
		handoffStore funnel.HandoffStore
	)
	if rdb != nil {
		defer rdb.Close()
		sessionStore = session.NewRedisStore(rdb.Client)
		handoffStore = funnel.NewRedisHandoffStore(rdb.Client)
		log.Info("using redis-backed stores")
	} else {
		sessionStore = session.NewInMemoryStore()
		handoffStore = funnel.NewInMemoryHandoffStore()
		log.Info("no redis configured, using in-memory stores")
	}

	producer, err := kafka.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka producer init failed", "error", err)
		os.Exit(1)
	}
	var sink analytics.Sink
	if producer != nil {
		defer producer.Close()
		go func() {
			if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
				log.Warn("event topic creation failed", "error", err)
			}
			producer.WaitReady(ctx, kafka.ReadyInterval, kafka.ReadyAttempts)
		}()
		sink = producer
	}

	pgArchive, err := analytics.NewPostgresArchive(ctx, cfg.ArchiveDSN)
	if err != nil {
		log.Error("event archive init failed", "error", err)
		os.Exit(1)
	}
	var archive analytics.Archive
	if pgArchive != nil {
		defer pgArchive.Close()
		archive = pgArchive
	}

	sessionClient := session.NewClient(cfg.CheckoutBaseURL, cfg.SessionAuthToken,
		&http.Client{Timeout: cfg.SessionTimeout})
	sessions := session.NewService(sessionStore, sessionClient,
		cfg.SessionTTL, cfg.SessionTimeout, log, m)

	geoClient := geo.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderToken,
		&http.Client{Timeout: cfg.GeocoderTimeout})
	geoSvc := geo.NewService(geoClient, cfg.GeocoderTimeout, log, m)

	identityClient := identity.NewClient(cfg.CheckoutBaseURL, nil)
	identitySvc := identity.NewService(identityClient, log, m)

	events := analytics.NewPublisher(sink, archive, log, m)
	composer := redirect.NewComposer(cfg.QuizBaseURL)

	orchestrator := funnel.NewService(sessions, geoSvc, identitySvc,
		events, composer, handoffStore, log, m)
	handler := funnel.NewHandler(orchestrator, log)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	handler.Register(router)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				http.Error(w, `{"status":"degraded"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting funnelgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
