// Package snapshot manages the course-catalog snapshot lifecycle: the
// ingest side publishes a compressed SQLite snapshot to R2, the serving
// side downloads it at boot, polls for new ETags, and hot-swaps the
// database and search indexes when one appears.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/chatharvard/chatharvard-go/internal/logger"
	"github.com/chatharvard/chatharvard-go/internal/r2client"
	"github.com/chatharvard/chatharvard-go/internal/storage"
	"github.com/chatharvard/chatharvard-go/internal/warmup"
)

// ErrNoSnapshot is returned when no snapshot has been published yet.
var ErrNoSnapshot = errors.New("snapshot: none published")

// Config holds the snapshot object layout and poll cadence.
type Config struct {
	SnapshotKey  string        // R2 key of the compressed catalog database
	LockKey      string        // R2 key of the publish lock
	LockTTL      time.Duration // publish lock TTL
	PollInterval time.Duration // how often the serving side checks the ETag
	DataDir      string        // where downloaded databases land
}

// Manager keeps a serving instance's catalog in sync with the
// published snapshot.
type Manager struct {
	client  *r2client.Client
	cfg     Config
	db      *storage.HotSwapDB
	builder *warmup.Builder
	log     *logger.Logger

	mu          sync.RWMutex
	currentETag string

	group singleflight.Group

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// NewManager wires the snapshot client to the hot-swappable database
// and the index builder that publishes rebuilt catalogs.
func NewManager(client *r2client.Client, cfg Config, db *storage.HotSwapDB, builder *warmup.Builder, log *logger.Logger) *Manager {
	if cfg.DataDir == "" {
		cfg.DataDir = os.TempDir()
	}
	return &Manager{
		client:  client,
		cfg:     cfg,
		db:      db,
		builder: builder,
		log:     log.WithModule("snapshot"),
	}
}

// Bootstrap fetches the published snapshot into the local database at
// boot. When none is published the local database (possibly empty) is
// kept and the poll picks up the first publication later.
func (m *Manager) Bootstrap(ctx context.Context) error {
	dbPath, etag, err := m.download(ctx)
	if err != nil {
		if errors.Is(err, ErrNoSnapshot) {
			m.log.Info("No published snapshot; serving from local database")
			return nil
		}
		return fmt.Errorf("bootstrap: %w", err)
	}

	if err := m.db.Swap(ctx, dbPath); err != nil {
		_ = os.Remove(dbPath)
		return fmt.Errorf("bootstrap: %w", err)
	}

	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()

	m.log.WithField("etag", etag).Info("Catalog snapshot downloaded")
	return nil
}

// Refresh checks for a newer snapshot and, when one exists (or force
// is set), downloads it, hot-swaps the database, and rebuilds the
// search indexes. Concurrent calls collapse into one download; every
// caller gets the same result. Reports whether a swap happened.
func (m *Manager) Refresh(ctx context.Context, trigger string, force bool) (bool, error) {
	swapped, err, _ := m.group.Do("refresh", func() (any, error) {
		return m.refreshOnce(ctx, trigger, force)
	})
	if err != nil {
		return false, err
	}
	return swapped.(bool), nil
}

func (m *Manager) refreshOnce(ctx context.Context, trigger string, force bool) (bool, error) {
	m.mu.RLock()
	current := m.currentETag
	m.mu.RUnlock()

	remote, err := m.client.Head(ctx, m.cfg.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return false, ErrNoSnapshot
		}
		return false, fmt.Errorf("refresh: head snapshot: %w", err)
	}
	if remote == current && !force {
		return false, nil
	}

	dbPath, etag, err := m.download(ctx)
	if err != nil {
		return false, fmt.Errorf("refresh: %w", err)
	}
	if err := m.db.Swap(ctx, dbPath); err != nil {
		_ = os.Remove(dbPath)
		return false, fmt.Errorf("refresh: %w", err)
	}
	if _, err := m.builder.Rebuild(ctx, m.db, trigger); err != nil {
		return false, fmt.Errorf("refresh: %w", err)
	}

	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()

	m.log.WithFields(map[string]any{
		"trigger":  trigger,
		"old_etag": current,
		"new_etag": etag,
	}).Info("Catalog snapshot refreshed")

	return true, nil
}

// download streams the snapshot to a unique local path, decompressing
// on the way. Returns the database path and the snapshot ETag.
func (m *Manager) download(ctx context.Context) (string, string, error) {
	body, etag, err := m.client.Download(ctx, m.cfg.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			return "", "", ErrNoSnapshot
		}
		return "", "", fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	dbPath := filepath.Join(m.cfg.DataDir, fmt.Sprintf("catalog_%d.db", time.Now().UnixNano()))
	if err := r2client.Decompress(body, dbPath); err != nil {
		_ = os.Remove(dbPath)
		return "", "", fmt.Errorf("decompress snapshot: %w", err)
	}
	return dbPath, etag, nil
}

// StartPolling launches the background ETag poll.
func (m *Manager) StartPolling(ctx context.Context) {
	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel
	m.pollDone = make(chan struct{})

	go func() {
		defer close(m.pollDone)

		ticker := time.NewTicker(m.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				m.log.Info("Snapshot polling stopped")
				return
			case <-ticker.C:
				swapped, err := m.Refresh(pollCtx, "poll", false)
				if err != nil && !errors.Is(err, ErrNoSnapshot) {
					m.log.WithError(err).Warn("Snapshot poll failed")
				}
				_ = swapped
			}
		}
	}()

	m.log.WithFields(map[string]any{
		"interval": m.cfg.PollInterval.String(),
		"key":      m.cfg.SnapshotKey,
	}).Info("Snapshot polling started")
}

// StopPolling stops the background poll and waits for it to exit.
func (m *Manager) StopPolling() {
	if m.pollCancel != nil {
		m.pollCancel()
		<-m.pollDone
	}
}

// CurrentETag returns the ETag of the snapshot currently served.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}
