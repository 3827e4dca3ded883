package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/chatharvard/chatharvard-go/internal/catalog"
	"github.com/chatharvard/chatharvard-go/internal/logger"
)

const (
	// CourseCollectionName is the name of the course collection in chromem
	CourseCollectionName = "courses"

	// DefaultSemanticResults is the default number of results for semantic search
	DefaultSemanticResults = 50

	// MaxSemanticResults is the maximum number of results for semantic search
	MaxSemanticResults = 200
)

// VectorDB wraps a chromem-go database for semantic course search.
// A nil *VectorDB is valid and means semantic search is disabled.
type VectorDB struct {
	db            *chromem.DB
	collection    *chromem.Collection
	embeddingFunc chromem.EmbeddingFunc
	logger        *logger.Logger
	mu            sync.RWMutex
	initialized   bool
}

// SemanticResult is one vector search hit.
type SemanticResult struct {
	Code       string
	Similarity float32 // cosine similarity (0-1)
}

// NewVectorDB creates a persistent vector database under persistDir.
// Returns nil if embeddingFunc is nil (no embedding provider configured).
func NewVectorDB(persistDir string, embeddingFunc chromem.EmbeddingFunc, log *logger.Logger) (*VectorDB, error) {
	if embeddingFunc == nil {
		log.Info("No embedding provider configured, semantic search disabled")
		return nil, nil
	}

	chromemPath := filepath.Join(persistDir, "chromem", "courses")

	db, err := chromem.NewPersistentDB(chromemPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to create chromem database: %w", err)
	}

	return &VectorDB{
		db:            db,
		embeddingFunc: embeddingFunc,
		logger:        log,
	}, nil
}

// Initialize embeds the store's courses into the collection. When the
// persisted collection already holds one document per course it is
// reused as-is; any mismatch (new snapshot, partial previous run)
// drops the collection and re-embeds everything.
func (v *VectorDB) Initialize(ctx context.Context, store *catalog.Store) error {
	if v == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(CourseCollectionName, nil, v.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to get/create collection: %w", err)
	}

	existingCount := collection.Count()
	if existingCount == store.Len() && existingCount > 0 {
		v.collection = collection
		v.initialized = true
		v.logger.WithField("count", existingCount).Info("Loaded existing course embeddings from disk")
		return nil
	}

	if existingCount > 0 {
		v.logger.WithFields(map[string]any{
			"embedded": existingCount,
			"courses":  store.Len(),
		}).Info("Course embeddings out of sync, rebuilding collection")
		if err := v.db.DeleteCollection(CourseCollectionName); err != nil {
			return fmt.Errorf("failed to delete stale collection: %w", err)
		}
		collection, err = v.db.GetOrCreateCollection(CourseCollectionName, nil, v.embeddingFunc)
		if err != nil {
			return fmt.Errorf("failed to recreate collection: %w", err)
		}
	}

	records := store.Courses()
	docs := make([]chromem.Document, 0, len(records))
	for i := range records {
		rec := &records[i]
		content := strings.TrimSpace(rec.SearchText())
		if content == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      docID(rec.Code, rec.Term),
			Content: content,
			Metadata: map[string]string{
				"code":  rec.Code,
				"term":  rec.Term,
				"title": rec.Title,
			},
		})
	}

	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, 4); err != nil { // 4 concurrent embeddings
			return fmt.Errorf("failed to add documents: %w", err)
		}
		v.logger.WithField("count", len(docs)).Info("Indexed courses for semantic search")
	}

	v.collection = collection
	v.initialized = true
	return nil
}

// Search performs semantic search and returns up to nResults hits,
// deduplicated by course code (highest similarity wins), sorted by
// similarity descending.
func (v *VectorDB) Search(ctx context.Context, query string, nResults int) ([]SemanticResult, error) {
	if v == nil || v.collection == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	if nResults <= 0 {
		nResults = DefaultSemanticResults
	}
	if nResults > MaxSemanticResults {
		nResults = MaxSemanticResults
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	// chromem-go returns an error if nResults > document count
	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}
	queryLimit := nResults
	if queryLimit > docCount {
		queryLimit = docCount
	}

	results, err := v.collection.Query(ctx, query, queryLimit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	best := make(map[string]float32, len(results))
	for _, result := range results {
		code := result.Metadata["code"]
		if code == "" {
			code = codeFromDocID(result.ID)
		}
		if code == "" {
			continue
		}
		if existing, ok := best[code]; !ok || result.Similarity > existing {
			best[code] = result.Similarity
		}
	}

	out := make([]SemanticResult, 0, len(best))
	for code, sim := range best {
		out = append(out, SemanticResult{Code: code, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Code < out[j].Code
	})

	if len(out) > nResults {
		out = out[:nResults]
	}
	return out, nil
}

// docID builds a document ID in the format "CODE|TERM".
func docID(code, term string) string {
	return code + "|" + term
}

// codeFromDocID extracts the course code from a "CODE|TERM" document ID.
func codeFromDocID(id string) string {
	if idx := strings.Index(id, "|"); idx > 0 {
		return id[:idx]
	}
	return ""
}

// Count returns the number of embedded documents.
func (v *VectorDB) Count() int {
	if v == nil || v.collection == nil {
		return 0
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.collection.Count()
}

// IsEnabled reports whether semantic search is ready to serve queries.
func (v *VectorDB) IsEnabled() bool {
	if v == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized && v.collection != nil
}
