package knowledge

import (
	"context"
	"fmt"
	"sync"

	"github.com/nholmst/ragent/ai"
	"github.com/nholmst/ragent/core"
)

// ReembedStats reports the outcome of a full re-embedding run.
type ReembedStats struct {
	Total      int // Documents scanned
	Reembedded int // Documents with refreshed embeddings
	Skipped    int // Documents without text content
	Failed     int // Documents that could not be updated
}

// ReembedAll regenerates embeddings for every document in the collection.
// Documents without resolvable text are skipped. Batches are processed
// concurrently on the worker pool; per-batch failures are counted rather
// than aborting the run, so a partial failure still refreshes the rest
// of the collection. The first error is returned with the stats.
func (l *Library) ReembedAll(ctx context.Context) (*ReembedStats, error) {
	stats := &ReembedStats{}

	// Collect the working set up front so re-embedding writes don't
	// interleave with the scan transaction.
	var docs []*core.Document
	err := l.documents.ScanDocuments(ctx, func(doc *core.Document) error {
		stats.Total++
		// An empty text field would otherwise be re-embedded as the
		// placeholder doc.Text() substitutes.
		if text, ok := core.TextFields.Resolve(doc.Fields); !ok || text == "" {
			stats.Skipped++
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return stats, err
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	for start := 0; start < len(docs); start += batchSize {
		end := start + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		wg.Add(1)
		submitErr := l.pool.Submit(func() {
			defer wg.Done()

			err := l.reembedBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				l.logger.Error("error re-embedding batch", "size", len(batch), "err", err)
				stats.Failed += len(batch)
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			stats.Reembedded += len(batch)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			stats.Failed += len(batch)
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
		}
	}

	wg.Wait()

	l.logger.Info("re-embedding complete",
		"total", stats.Total,
		"reembedded", stats.Reembedded,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	return stats, firstErr
}

// reembedBatch refreshes embeddings for one batch of documents.
func (l *Library) reembedBatch(ctx context.Context, batch []*core.Document) error {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Text()
	}

	var embeddings [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		embeddings, err = l.embedder.EmbedTexts(ctx, texts)
		return err
	}, l.maxRetries, l.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("%w: %w", ai.ErrEmbedding, err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(embeddings))
	}

	for i, doc := range batch {
		doc.Fields[core.FieldEmbedding] = embeddings[i]
		if err := l.documents.PutDocument(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
