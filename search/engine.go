package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nholmst/ragent/ai"
	"github.com/nholmst/ragent/core"
	"github.com/nholmst/ragent/storage"
)

// Engine provides semantic similarity search over the document collection.
// Each search embeds the query, scans every stored document, and ranks
// documents by cosine similarity against the query vector.
type Engine struct {
	documents storage.DocumentRepository
	embedder  ai.Embedder
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a new search engine.
func NewEngine(
	documents storage.DocumentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		documents: documents,
		embedder:  provider.Embedder(),
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Search finds documents similar to the query.
// Returns up to topK results with similarity at or above threshold,
// ranked by similarity descending. Ties are broken by ascending
// document id so that rankings are deterministic.
func (e *Engine) Search(ctx context.Context, query string, topK int, threshold float32) ([]*core.SearchResult, error) {
	if topK <= 0 {
		return nil, ErrInvalidLimit
	}
	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	queryVector, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		e.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}

	return e.SearchByVector(ctx, queryVector, topK, threshold)
}

// SearchByVector finds documents similar to a precomputed query vector.
// Documents without an embedding are skipped.
func (e *Engine) SearchByVector(ctx context.Context, queryVector []float32, topK int, threshold float32) ([]*core.SearchResult, error) {
	if topK <= 0 {
		return nil, ErrInvalidLimit
	}
	if threshold < 0 || threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	scanned := 0
	results := []*core.SearchResult{}
	err := e.documents.ScanDocuments(ctx, func(doc *core.Document) error {
		scanned++

		vector, ok := doc.Vector()
		if !ok {
			e.logger.Debug("skipping document without embedding", "id", doc.Id)
			return nil
		}

		similarity := CalculateSimilarity(queryVector, vector)
		if similarity < threshold {
			return nil
		}

		results = append(results, &core.SearchResult{
			Id:         doc.Id,
			Text:       doc.Text(),
			Similarity: similarity,
			Metadata:   doc.Metadata,
			CreatedAt:  doc.CreatedAt,
			UpdatedAt:  doc.UpdatedAt,
		})
		return nil
	})
	if err != nil {
		e.logger.Error("error scanning documents", "err", err)
		return nil, err
	}

	// Sort by similarity descending, ties by ascending id
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Id < results[j].Id
	})
	if len(results) > topK {
		results = results[:topK]
	}

	e.logger.Debug("search complete",
		"scanned", scanned,
		"matched", len(results),
		"threshold", threshold)

	return results, nil
}
