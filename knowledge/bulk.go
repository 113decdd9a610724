package knowledge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nholmst/ragent/ai"
	"github.com/nholmst/ragent/core"
)

// batchSize is the number of texts embedded per batch call.
const batchSize = 16

// DocumentInput describes a document to be added in bulk.
type DocumentInput struct {
	Id       string
	Text     string
	Metadata map[string]string
}

// AddDocuments embeds and stores multiple documents concurrently.
// Texts are embedded in batches; batches are dispatched to the worker
// pool and stored independently. The first error encountered is
// returned after all batches finish, alongside the documents that were
// stored successfully.
func (l *Library) AddDocuments(ctx context.Context, inputs []DocumentInput) ([]*core.Document, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	for i := range inputs {
		if inputs[i].Text == "" {
			return nil, fmt.Errorf("%w: input %d", core.ErrEmptyText, i)
		}
		if inputs[i].Id == "" {
			inputs[i].Id = uuid.NewString()
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		stored   []*core.Document
		firstErr error
	)

	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for start := 0; start < len(inputs); start += batchSize {
		end := start + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch := inputs[start:end]

		wg.Add(1)
		err := l.pool.Submit(func() {
			defer wg.Done()

			docs, err := l.addBatch(ctx, batch)
			if err != nil {
				l.logger.Error("error adding document batch", "size", len(batch), "err", err)
				recordErr(err)
			}

			mu.Lock()
			stored = append(stored, docs...)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			recordErr(err)
		}
	}

	wg.Wait()
	return stored, firstErr
}

// addBatch embeds one batch of inputs and stores the resulting documents.
// Returns the documents stored before any failure.
func (l *Library) addBatch(ctx context.Context, batch []DocumentInput) ([]*core.Document, error) {
	texts := make([]string, len(batch))
	for i, input := range batch {
		texts[i] = input.Text
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = l.embedder.EmbedTexts(ctx, texts)
		return err
	}, l.maxRetries, l.retryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}
	if len(embeddings) != len(batch) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(embeddings))
	}

	stored := make([]*core.Document, 0, len(batch))
	for i, input := range batch {
		doc := &core.Document{
			Id: input.Id,
			Fields: map[string]any{
				core.FieldText:      input.Text,
				core.FieldEmbedding: embeddings[i],
			},
			Metadata: input.Metadata,
		}
		if err := l.documents.PutDocument(ctx, doc); err != nil {
			return stored, err
		}
		stored = append(stored, doc)
	}
	return stored, nil
}
