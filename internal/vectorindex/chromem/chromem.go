// Package chromem backs the vector index port with a chromem-go store, one
// collection per namespace. It needs no external service, which makes it the
// default backend for local runs.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	cg "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"campus-rag/internal/models"
	"campus-rag/internal/vectorindex"
)

type Store struct {
	db       *cg.DB
	path     string
	inMemory bool
}

// New opens (or creates) a persistent store at path. An empty path yields an
// in-memory store, used by tests.
func New(path string) (*Store, error) {
	if path == "" {
		return &Store{db: cg.NewDB(), inMemory: true}, nil
	}
	db, err := cg.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem store: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

var _ vectorindex.Index = (*Store)(nil)

// EnsureReady is a no-op beyond opening the store; collections are created
// on first upsert into a namespace.
func (s *Store) EnsureReady(ctx context.Context) error { return nil }

func (s *Store) Recreate(ctx context.Context) error {
	for name := range s.db.ListCollections() {
		if err := s.db.DeleteCollection(name); err != nil {
			return fmt.Errorf("delete collection %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []models.Record, namespace string) error {
	if len(records) == 0 {
		return nil
	}
	col, err := s.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", namespace, err)
	}

	docs := make([]cg.Document, len(records))
	for i, r := range records {
		docs[i] = cg.Document{
			ID:        r.ID,
			Content:   r.Metadata.Text,
			Embedding: r.Vector,
			Metadata:  metadataToMap(r.Metadata),
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	log.Debug().Int("records", len(records)).Str("namespace", namespace).Msg("Upserted batch")
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Match, error) {
	col, err := s.db.GetOrCreateCollection(namespace, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", namespace, err)
	}
	// chromem rejects nResults beyond the stored document count.
	if n := col.Count(); n == 0 {
		return nil, nil
	} else if topK > n {
		topK = n
	}

	results, err := col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query topK=%d: %w", topK, err)
	}

	matches := make([]models.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, models.Match{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: metadataFromMap(r.Metadata, r.Content),
		})
	}
	return matches, nil
}

func (s *Store) DeleteAll(ctx context.Context, namespace string) error {
	if s.db.GetCollection(namespace, nil) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(namespace); err != nil {
		return fmt.Errorf("purge namespace %s: %w", namespace, err)
	}
	return nil
}

func metadataToMap(m models.Metadata) map[string]string {
	out := map[string]string{
		"source_id":    m.SourceID,
		"chunk_index":  strconv.Itoa(m.ChunkIndex),
		"total_chunks": strconv.Itoa(m.TotalChunks),
	}
	if m.URL != "" {
		out["url"] = m.URL
	}
	return out
}

func metadataFromMap(m map[string]string, content string) models.Metadata {
	md := models.Metadata{
		SourceID: m["source_id"],
		URL:      m["url"],
		Text:     content,
	}
	md.ChunkIndex, _ = strconv.Atoi(m["chunk_index"])
	md.TotalChunks, _ = strconv.Atoi(m["total_chunks"])
	return md
}
