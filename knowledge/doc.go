// Package knowledge manages the document collection backing retrieval.
//
// The Library type owns the write path: documents are embedded before
// they are stored, so the collection is always searchable. It supports
// single-document operations, concurrent bulk ingestion on a worker
// pool, and full collection re-embedding for embedding model upgrades.
//
// Embedding calls are retried with exponential backoff, since transient
// provider failures are common during bulk loads.
package knowledge
