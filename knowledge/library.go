package knowledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/nholmst/ragent/ai"
	"github.com/nholmst/ragent/core"
	"github.com/nholmst/ragent/storage"
	"github.com/panjf2000/ants/v2"
)

const (
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Library manages the document collection backing retrieval.
// It owns the embed-then-store write path: every document accepted into
// the collection carries both its text and the embedding computed for it.
type Library struct {
	documents      storage.DocumentRepository
	embedder       ai.Embedder
	pool           *ants.Pool
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// Option configures a Library.
type Option func(*Library) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithPoolSize sets the worker pool size for bulk operations.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(l *Library) error {
		if size < 1 {
			size = 1
		}
		if l.pool != nil {
			l.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		l.pool = pool
		return nil
	}
}

// WithRetry configures embedding retry behavior.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(l *Library) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		l.maxRetries = maxAttempts
		l.retryBaseDelay = baseDelay
		return nil
	}
}

// NewLibrary creates a new document library.
func NewLibrary(
	documents storage.DocumentRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Library, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	l := &Library{
		documents:      documents,
		embedder:       provider.Embedder(),
		pool:           pool,
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(l); err != nil {
			l.Release()
			return nil, err
		}
	}

	return l, nil
}

// Release releases the worker pool.
// The library should not be used after calling Release.
func (l *Library) Release() {
	if l.pool != nil {
		l.pool.Release()
	}
}

// AddDocument embeds text and stores it as a new document.
// An empty id is replaced with a generated UUID.
func (l *Library) AddDocument(ctx context.Context, id, text string, metadata map[string]string) (*core.Document, error) {
	if text == "" {
		return nil, core.ErrEmptyText
	}
	if id == "" {
		id = uuid.NewString()
	}

	vector, err := l.embedText(ctx, text)
	if err != nil {
		return nil, err
	}

	doc := &core.Document{
		Id: id,
		Fields: map[string]any{
			core.FieldText:      text,
			core.FieldEmbedding: vector,
		},
		Metadata: metadata,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	if err := l.documents.PutDocument(ctx, doc); err != nil {
		return nil, err
	}

	l.logger.Debug("document added", "id", doc.Id, "textLen", len(text))
	return doc, nil
}

// UpdateDocument applies a partial update to an existing document. A non-nil
// text replaces the stored text and re-embeds it; a non-nil metadata map
// replaces the stored metadata. Either may be updated without the other.
// Returns false if no document exists under the id.
func (l *Library) UpdateDocument(ctx context.Context, id string, text *string, metadata map[string]string) (bool, error) {
	if id == "" {
		return false, core.ErrEmptyId
	}
	if text != nil && *text == "" {
		return false, core.ErrEmptyText
	}

	existing, err := l.documents.GetDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if text != nil {
		vector, err := l.embedText(ctx, *text)
		if err != nil {
			return false, err
		}
		existing.Fields[core.FieldText] = *text
		existing.Fields[core.FieldEmbedding] = vector
	}
	if metadata != nil {
		existing.Metadata = metadata
	}

	if err := l.documents.PutDocument(ctx, existing); err != nil {
		return false, err
	}

	l.logger.Debug("document updated", "id", id)
	return true, nil
}

// DeleteDocument removes a document from the collection.
// Returns false if no document exists under the id.
func (l *Library) DeleteDocument(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, core.ErrEmptyId
	}

	err := l.documents.DeleteDocument(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	l.logger.Debug("document deleted", "id", id)
	return true, nil
}

// GetDocument retrieves a single document by id.
func (l *Library) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	return l.documents.GetDocument(ctx, id)
}

// ListDocuments returns a page of documents ordered by creation time
// descending, along with the total collection size.
func (l *Library) ListDocuments(ctx context.Context, limit, offset int) ([]*core.Document, int, error) {
	docs, err := l.documents.ListDocuments(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := l.documents.CountDocuments(ctx)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// embedText generates an embedding for text with retry.
func (l *Library) embedText(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = l.embedder.EmbedText(ctx, text)
		return err
	}, l.maxRetries, l.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}
	return vector, nil
}
