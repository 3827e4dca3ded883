// Package main provides the course advisor API server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/philippgille/chromem-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/chatharvard/chatharvard-go/internal/advisor"
	"github.com/chatharvard/chatharvard-go/internal/buildinfo"
	"github.com/chatharvard/chatharvard-go/internal/config"
	"github.com/chatharvard/chatharvard-go/internal/genai"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
	"github.com/chatharvard/chatharvard-go/internal/r2client"
	"github.com/chatharvard/chatharvard-go/internal/rag"
	"github.com/chatharvard/chatharvard-go/internal/ratelimit"
	"github.com/chatharvard/chatharvard-go/internal/sentry"
	"github.com/chatharvard/chatharvard-go/internal/snapshot"
	"github.com/chatharvard/chatharvard-go/internal/storage"
	"github.com/chatharvard/chatharvard-go/internal/timeouts"
	"github.com/chatharvard/chatharvard-go/internal/warmup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logShutdown := logger.Setup(cfg.LogLevel, os.Stdout, logger.ShippingOptions{
		Token:    cfg.BetterStackToken,
		Endpoint: cfg.BetterStackEndpoint,
	})
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = logShutdown(flushCtx)
	}()
	log.WithField("version", buildinfo.Version).Info("Starting course advisor server")

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.Environment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warn("Error tracking disabled")
	}
	defer sentry.Flush(2 * time.Second)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create data directory")
	}

	db, err := storage.NewHotSwapDB(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open catalog database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Catalog database opened")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	// Embedding provider chain: OpenAI primary, Gemini fallback. With
	// neither key the vector side stays off and retrieval is
	// lexical-only.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var embedFn chromem.EmbeddingFunc
	openaiEmbedder := genai.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel, m)
	geminiEmbedder, err := genai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, m)
	if err != nil {
		log.WithError(err).Warn("Gemini embedder unavailable")
	}
	embedder := genai.NewFallbackEmbedder(openaiEmbedder, geminiEmbedder)
	if embedder.IsConfigured() {
		embedFn = genai.NewEmbeddingFunc(embedder)
		log.WithField("provider", string(embedder.Provider())).Info("Embedding provider configured")
	} else {
		log.Info("No embedding provider configured, semantic search disabled")
	}

	vdb, err := rag.NewVectorDB(cfg.DataDir, embedFn, log)
	if err != nil {
		log.WithError(err).Warn("Vector database unavailable, semantic search disabled")
		vdb = nil
	}

	provider := rag.NewProvider()
	builder := warmup.NewBuilder(provider, vdb, m, log)
	readiness := warmup.NewReadinessState(cfg.ReadinessTimeout)

	// Snapshot sync pulls the published catalog from R2 and keeps it
	// fresh. Without R2 the server uses whatever the local database
	// holds.
	var manager *snapshot.Manager
	if cfg.R2.Enabled() {
		r2c, err := r2client.New(ctx, r2client.Config{
			AccountID:   cfg.R2.AccountID,
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create R2 client")
		}
		manager = snapshot.NewManager(r2c, snapshot.Config{
			SnapshotKey:  cfg.R2.SnapshotKey,
			LockKey:      "locks/catalog-publish.json",
			LockTTL:      5 * time.Minute,
			PollInterval: cfg.R2.PollInterval,
			DataDir:      cfg.DataDir,
		}, db, builder, log)

		bootCtx, bootCancel := context.WithTimeout(ctx, timeouts.SnapshotDownload)
		if err := manager.Bootstrap(bootCtx); err != nil {
			log.WithError(err).Warn("Snapshot bootstrap failed, serving local catalog")
		}
		bootCancel()

		manager.StartPolling(ctx)
		defer manager.StopPolling()
	} else {
		log.Info("R2 not configured, snapshot sync disabled")
	}

	// First index build runs in the background; requests get 503 until
	// it lands or the readiness timeout passes.
	builder.RunAsync(ctx, db, readiness)

	retriever := rag.NewRetriever(cfg.Retrieval, m, log)
	engine := advisor.NewEngine(cfg, provider, retriever, db, m, log)

	limiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     cfg.SessionRateTokens,
		RefillRate:    cfg.SessionRateRefill,
		CleanupPeriod: timeouts.RateLimiterCleanupInterval,
	})
	limiter.OnDrop(func() { m.RecordRateLimiterDrop("session") })
	defer limiter.Stop()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	srv := &server{
		cfg:       cfg,
		engine:    engine,
		provider:  provider,
		manager:   manager,
		readiness: readiness,
		limiter:   limiter,
		metrics:   m,
		registry:  registry,
		log:       log.WithModule("http"),
	}
	srv.setupRoutes(router)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  timeouts.HTTPRead,
		WriteTimeout: timeouts.HTTPWrite,
		IdleTimeout:  timeouts.HTTPIdle,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
