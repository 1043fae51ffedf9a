// Package pgvector backs the vector index port with Postgres + pgvector via
// bun. One table holds every namespace; cosine similarity orders queries.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"campus-rag/internal/config"
	"campus-rag/internal/models"
	"campus-rag/internal/vectorindex"
)

type record struct {
	bun.BaseModel `bun:"table:chunk_records,alias:r"`

	ID          string    `bun:"id,pk"`
	Namespace   string    `bun:"namespace,notnull"`
	SourceID    string    `bun:"source_id,notnull"`
	URL         string    `bun:"url"`
	Content     string    `bun:"content,notnull"`
	ChunkIndex  int       `bun:"chunk_index,notnull"`
	TotalChunks int       `bun:"total_chunks,notnull"`
	Embedding   []float32 `bun:"embedding,notnull"`
	Score       float64   `bun:"score,scanonly"`
}

// Store implements vectorindex.Index on a bun-managed Postgres connection.
type Store struct {
	db        *bun.DB
	dimension int
}

func New(cfg *config.DatabaseConfig, dimension int) *Store {
	dsn := cfg.DSN
	var sqldb *sql.DB
	if cfg.Password != "" {
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password)))
	} else {
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db, dimension: dimension}
}

var _ vectorindex.Index = (*Store)(nil)

func (s *Store) Close() error { return s.db.Close() }

// EnsureReady creates the pgvector extension, the records table and its
// namespace index. Postgres serves as soon as DDL commits; no polling.
func (s *Store) EnsureReady(ctx context.Context) error {
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunk_records (
			id text PRIMARY KEY,
			namespace text NOT NULL,
			source_id text NOT NULL,
			url text,
			content text NOT NULL,
			chunk_index int NOT NULL,
			total_chunks int NOT NULL,
			embedding vector(%d) NOT NULL
		)`, s.dimension),
		"CREATE INDEX IF NOT EXISTS chunk_records_namespace_idx ON chunk_records (namespace)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("provision pgvector store: %w", err)
		}
	}
	return nil
}

func (s *Store) Recreate(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*record)(nil)).IfExists().Exec(ctx); err != nil {
		return fmt.Errorf("drop records table: %w", err)
	}
	return s.EnsureReady(ctx)
}

func (s *Store) Upsert(ctx context.Context, records []models.Record, namespace string) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]record, len(records))
	for i, r := range records {
		rows[i] = record{
			ID:          r.ID,
			Namespace:   namespace,
			SourceID:    r.Metadata.SourceID,
			URL:         r.Metadata.URL,
			Content:     r.Metadata.Text,
			ChunkIndex:  r.Metadata.ChunkIndex,
			TotalChunks: r.Metadata.TotalChunks,
			Embedding:   r.Vector,
		}
	}
	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("namespace = EXCLUDED.namespace").
		Set("source_id = EXCLUDED.source_id").
		Set("url = EXCLUDED.url").
		Set("content = EXCLUDED.content").
		Set("chunk_index = EXCLUDED.chunk_index").
		Set("total_chunks = EXCLUDED.total_chunks").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert %d records: %w", len(records), err)
	}
	log.Debug().Int("records", len(records)).Str("namespace", namespace).Msg("Upserted batch")
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int, namespace string) ([]models.Match, error) {
	var rows []record
	err := s.db.NewSelect().
		Model(&rows).
		ColumnExpr("r.*").
		ColumnExpr("1 - (r.embedding <=> ?) AS score", vector).
		Where("r.namespace = ?", namespace).
		OrderExpr("r.embedding <=> ?", vector).
		Limit(topK).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("query topK=%d: %w", topK, err)
	}

	matches := make([]models.Match, 0, len(rows))
	for _, row := range rows {
		matches = append(matches, models.Match{
			ID:    row.ID,
			Score: float32(row.Score),
			Metadata: models.Metadata{
				SourceID:    row.SourceID,
				URL:         row.URL,
				Text:        row.Content,
				ChunkIndex:  row.ChunkIndex,
				TotalChunks: row.TotalChunks,
			},
		})
	}
	return matches, nil
}

func (s *Store) DeleteAll(ctx context.Context, namespace string) error {
	_, err := s.db.NewDelete().
		Model((*record)(nil)).
		Where("namespace = ?", namespace).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("purge namespace %s: %w", namespace, err)
	}
	return nil
}
