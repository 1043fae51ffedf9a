// Package ingest orchestrates the write path: load a document, chunk it,
// embed the chunks in bounded batches and upsert them with deterministic IDs.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"campus-rag/internal/chunker"
	"campus-rag/internal/config"
	"campus-rag/internal/helper"
	"campus-rag/internal/loader"
	"campus-rag/internal/models"
)

// Embedder is the slice of the embedding adapter the pipeline needs.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is the slice of the vector index port the pipeline needs.
type Index interface {
	Upsert(ctx context.Context, records []models.Record, namespace string) error
	DeleteAll(ctx context.Context, namespace string) error
}

// Pipeline ingests documents into one namespace. Adapters are injected; the
// pipeline holds no hidden client state.
type Pipeline struct {
	embedder Embedder
	index    Index
	cfg      *config.RAGConfig
	dryRun   bool
}

func New(embedder Embedder, index Index, cfg *config.RAGConfig, dryRun bool) *Pipeline {
	return &Pipeline{embedder: embedder, index: index, cfg: cfg, dryRun: dryRun}
}

// DeriveID returns the deterministic record ID for a chunk. Re-running
// ingestion on unchanged input yields identical IDs, making upserts
// idempotent.
func DeriveID(sourceID string, chunkIndex int) string {
	sum := sha256.Sum256([]byte(sourceID + ":" + strconv.Itoa(chunkIndex)))
	return hex.EncodeToString(sum[:16])
}

// IngestFile loads and ingests a single file.
func (p *Pipeline) IngestFile(ctx context.Context, path string) error {
	doc, err := loader.Load(path)
	if err != nil {
		return err
	}
	return p.IngestDocument(ctx, doc)
}

// IngestDir ingests every supported file under dir. Per-document read and
// parse failures are logged and skipped; an index failure aborts the run,
// since continuing would silently leave the index incomplete.
func (p *Pipeline) IngestDir(ctx context.Context, dir string, skipPDF bool) error {
	runID, err := helper.GenerateUUID()
	if err != nil {
		return err
	}
	lg := log.With().Str("run_id", runID).Logger()

	docs, err := loader.LoadDir(dir, skipPDF)
	if err != nil {
		return fmt.Errorf("load documents from %s: %w", dir, err)
	}
	lg.Info().Int("documents", len(docs)).Str("dir", dir).Msg("Starting ingestion run")

	for _, doc := range docs {
		if err := p.IngestDocument(ctx, doc); err != nil {
			return fmt.Errorf("ingest %s: %w", doc.SourceID, err)
		}
	}
	lg.Info().Msg("Ingestion run complete")
	return nil
}

// Purge wipes the target namespace.
func (p *Pipeline) Purge(ctx context.Context) error {
	if p.dryRun {
		log.Info().Str("namespace", p.cfg.Namespace).Msg("Dry run: would purge namespace")
		return nil
	}
	return p.index.DeleteAll(ctx, p.cfg.Namespace)
}

// IngestDocument chunks, embeds and upserts one document. Batches are
// strictly sequential: batch i is upserted before batch i+1 is embedded, so
// at most one batch of vectors is resident at a time.
func (p *Pipeline) IngestDocument(ctx context.Context, doc models.Document) error {
	pieces := chunker.Chunk(doc.Text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		log.Warn().Str("source", doc.SourceID).Msg("Document produced no chunks, skipping")
		return nil
	}

	chunks := make([]models.Chunk, len(pieces))
	for i, text := range pieces {
		chunks[i] = models.Chunk{
			Text:        text,
			Index:       i,
			TotalChunks: len(pieces),
			SourceID:    doc.SourceID,
			URL:         doc.URL,
			DerivedID:   DeriveID(doc.SourceID, i),
		}
	}

	log.Info().Str("source", doc.SourceID).Int("chunks", len(chunks)).Msg("Ingesting document")

	batchSize := p.cfg.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = config.DefaultEmbedBatchSize
	}
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := p.ingestBatch(ctx, chunks[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) ingestBatch(ctx context.Context, batch []models.Chunk) error {
	records := make([]models.Record, len(batch))
	for i, c := range batch {
		records[i] = models.Record{
			ID: c.DerivedID,
			Metadata: models.Metadata{
				SourceID:    c.SourceID,
				URL:         c.URL,
				Text:        c.Text,
				ChunkIndex:  c.Index,
				TotalChunks: c.TotalChunks,
			},
		}
	}

	if p.dryRun {
		for _, r := range records {
			log.Info().Str("id", r.ID).Str("source", r.Metadata.SourceID).
				Int("chunk_index", r.Metadata.ChunkIndex).Int("chars", len(r.Metadata.Text)).
				Msg("Dry run: would upsert")
		}
		return nil
	}

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return err
	}
	for i := range records {
		records[i].Vector = vectors[i]
	}
	return p.index.Upsert(ctx, records, p.cfg.Namespace)
}
