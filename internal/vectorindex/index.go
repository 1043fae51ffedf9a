// Package vectorindex defines the port every vector store backend
// implements. Adapters are explicitly constructed and injected; there is no
// shared client state.
package vectorindex

import (
	"context"
	"errors"

	"campus-rag/internal/models"
)

// ErrNotReady is returned when the backing index exists but is not yet
// serving.
var ErrNotReady = errors.New("vector index not ready")

// Index is a namespace-scoped similarity-search service. Upsert is
// idempotent per record ID: re-upserting overwrites, never duplicates.
type Index interface {
	// EnsureReady lazily provisions the backing index and blocks until the
	// service reports it ready for upserts.
	EnsureReady(ctx context.Context) error

	Upsert(ctx context.Context, records []models.Record, namespace string) error

	// Query returns up to topK matches ranked by descending similarity.
	Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Match, error)

	// DeleteAll purges a namespace.
	DeleteAll(ctx context.Context, namespace string) error

	// Recreate destroys and re-provisions the backing index.
	Recreate(ctx context.Context) error
}
