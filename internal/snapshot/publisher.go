package snapshot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/r2client"
)

// Publisher uploads a catalog database as the published snapshot. The
// publish lock keeps concurrent ingest runs from clobbering each
// other's uploads.
type Publisher struct {
	client *r2client.Client
	cfg    Config
	log    *logger.Logger
}

// NewPublisher creates a Publisher for the configured snapshot key.
func NewPublisher(client *r2client.Client, cfg Config, log *logger.Logger) *Publisher {
	return &Publisher{
		client: client,
		cfg:    cfg,
		log:    log.WithModule("snapshot"),
	}
}

// Publish compresses the database at dbPath and uploads it under the
// publish lock. Returns the new snapshot ETag.
func (p *Publisher) Publish(ctx context.Context, dbPath string) (string, error) {
	lock := r2client.NewPublishLock(p.client, p.cfg.LockKey, p.cfg.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("publish: acquire lock: %w", err)
	}
	if !acquired {
		return "", fmt.Errorf("publish: another instance holds the lock %q", p.cfg.LockKey)
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			p.log.WithError(err).Warn("Publish lock release failed")
		}
	}()

	zstPath := dbPath + fmt.Sprintf(".%d.zst", time.Now().UnixNano())
	if err := r2client.CompressFile(dbPath, zstPath); err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}
	defer os.Remove(zstPath)

	zstFile, err := os.Open(zstPath)
	if err != nil {
		return "", fmt.Errorf("publish: open compressed snapshot: %w", err)
	}
	defer zstFile.Close()

	etag, err := p.client.Upload(ctx, p.cfg.SnapshotKey, zstFile, r2client.SnapshotContentType)
	if err != nil {
		return "", fmt.Errorf("publish: %w", err)
	}

	p.log.WithFields(map[string]any{
		"key":  p.cfg.SnapshotKey,
		"etag": etag,
	}).Info("Catalog snapshot published")

	return etag, nil
}
