// Command warmup builds the catalog search indexes offline. Run it
// after a new catalog database lands to embed every course into the
// local vector store before the server boots, so the first serving
// instance starts warm instead of spending minutes on embedding API
// calls. With -publish it also uploads the database as the published
// snapshot for other instances to pull.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatharvard/chatharvard-go/internal/config"
	"github.com/chatharvard/chatharvard-go/internal/genai"
	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/metrics"
	"github.com/chatharvard/chatharvard-go/internal/r2client"
	"github.com/chatharvard/chatharvard-go/internal/rag"
	"github.com/chatharvard/chatharvard-go/internal/snapshot"
	"github.com/chatharvard/chatharvard-go/internal/storage"
	"github.com/chatharvard/chatharvard-go/internal/timeouts"
	"github.com/chatharvard/chatharvard-go/internal/warmup"
)

var (
	publishFlag = flag.Bool("publish", false, "Upload the database as the published snapshot after building")
	timeoutFlag = flag.Duration("timeout", timeouts.WarmupDefault, "Overall timeout for the build")
)

func main() {
	flag.Parse()

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
	log.Info("Starting catalog warmup tool")

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to open catalog database")
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var embedFn chromem.EmbeddingFunc
	openaiEmbedder := genai.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIEmbeddingModel, m)
	geminiEmbedder, err := genai.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, m)
	if err != nil {
		log.WithError(err).Warn("Gemini embedder unavailable")
	}
	embedder := genai.NewFallbackEmbedder(openaiEmbedder, geminiEmbedder)
	if embedder.IsConfigured() {
		embedFn = genai.NewEmbeddingFunc(embedder)
	} else {
		log.Info("No embedding provider configured, building lexical index only")
	}

	vdb, err := rag.NewVectorDB(cfg.DataDir, embedFn, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open vector store")
	}

	start := time.Now()
	builder := warmup.NewBuilder(rag.NewProvider(), vdb, m, log)
	idx, err := builder.Rebuild(ctx, db, "offline")
	if err != nil {
		log.WithError(err).Fatal("Index build failed")
	}
	log.WithFields(map[string]any{
		"courses":  idx.Store.Len(),
		"semantic": idx.Vector.IsEnabled(),
		"duration": time.Since(start).String(),
	}).Info("Index build complete")

	if !*publishFlag {
		return
	}

	if !cfg.R2.Enabled() {
		log.Fatal("Cannot publish: R2 is not configured")
	}
	r2c, err := r2client.New(ctx, r2client.Config{
		AccountID:   cfg.R2.AccountID,
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretKey,
		BucketName:  cfg.R2.BucketName,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create R2 client")
	}

	publisher := snapshot.NewPublisher(r2c, snapshot.Config{
		SnapshotKey: cfg.R2.SnapshotKey,
		LockKey:     "locks/catalog-publish.json",
		LockTTL:     5 * time.Minute,
	}, log)

	etag, err := publisher.Publish(ctx, cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Snapshot publish failed")
	}
	log.WithField("etag", etag).Info("Snapshot published")
}
