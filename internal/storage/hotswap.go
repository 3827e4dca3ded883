package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
)

// closeGrace is how long a replaced database stays open so in-flight
// queries can finish before the connection pool is torn down.
const closeGrace = 30 * time.Second

// HotSwapDB wraps a DB so the underlying catalog database file can be
// replaced while the service keeps answering queries. Reads take a
// read lock; Swap takes the write lock only for the pointer exchange.
type HotSwapDB struct {
	mu      sync.RWMutex
	current *DB
}

// NewHotSwapDB opens the database at dbPath and wraps it for swapping.
func NewHotSwapDB(dbPath string) (*HotSwapDB, error) {
	db, err := New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("hotswap: open initial db: %w", err)
	}
	return &HotSwapDB{current: db}, nil
}

// DB returns the current database handle.
func (h *HotSwapDB) DB() *DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap replaces the current database with the one at newPath. The new
// database is opened and pinged before the exchange, so a corrupt
// download never displaces a working catalog. The old database is
// closed after a grace period and its files removed.
func (h *HotSwapDB) Swap(ctx context.Context, newPath string) error {
	newDB, err := New(newPath)
	if err != nil {
		return fmt.Errorf("hotswap: open new db: %w", err)
	}
	if err := newDB.Ping(ctx); err != nil {
		_ = newDB.Close()
		return fmt.Errorf("hotswap: ping new db: %w", err)
	}

	h.mu.Lock()
	old := h.current
	h.current = newDB
	h.mu.Unlock()

	if old == nil {
		return nil
	}
	oldPath := old.Path()
	go func() {
		time.Sleep(closeGrace)
		_ = old.Close()
		if oldPath != newPath && oldPath != ":memory:" {
			_ = os.Remove(oldPath)
			_ = os.Remove(oldPath + "-wal")
			_ = os.Remove(oldPath + "-shm")
		}
	}()
	return nil
}

// Path returns the current database file path.
func (h *HotSwapDB) Path() string {
	return h.DB().Path()
}

// Ping checks the current database.
func (h *HotSwapDB) Ping(ctx context.Context) error {
	return h.DB().Ping(ctx)
}

// Close closes the current database.
func (h *HotSwapDB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current == nil {
		return nil
	}
	return h.current.Close()
}

// LoadCourses reads the full course catalog from the current database.
func (h *HotSwapDB) LoadCourses(ctx context.Context) ([]catalog.CourseRecord, error) {
	return h.DB().LoadCourses(ctx)
}

// LoadConcentrationRequirements reads requirement rows from the
// current database, so the wrapper can serve the advisor directly.
func (h *HotSwapDB) LoadConcentrationRequirements(ctx context.Context, concentration string) ([]ConcentrationRequirement, error) {
	return h.DB().LoadConcentrationRequirements(ctx, concentration)
}
