package storage

import (
	"context"

	"github.com/nholmst/ragent/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// DocumentRepository provides operations for managing stored documents.
type DocumentRepository interface {
	Repository

	// PutDocument inserts or replaces a document by its id.
	// Sets CreatedAt on first write and refreshes UpdatedAt unconditionally.
	PutDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a single document by id.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.Document, error)

	// DeleteDocument removes a document by id.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id string) error

	// ScanDocuments streams every stored document through fn within a
	// single read transaction. Iteration stops on the first error fn
	// returns, which is propagated to the caller.
	ScanDocuments(ctx context.Context, fn func(doc *core.Document) error) error

	// ListDocuments returns a page of documents ordered by CreatedAt
	// descending, skipping offset documents and returning up to limit.
	ListDocuments(ctx context.Context, limit, offset int) ([]*core.Document, error)

	// CountDocuments returns the size of the full collection.
	CountDocuments(ctx context.Context) (int, error)
}

// CheckpointRepository provides keyed persistence for conversation memory.
// Entries are keyed by conversation id; writes are last-writer-wins per key.
type CheckpointRepository interface {
	// SaveCheckpoint persists a conversation checkpoint.
	// Refreshes the checkpoint's UpdatedAt timestamp.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a conversation id.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, conversationId string) (*core.Checkpoint, error)
}
