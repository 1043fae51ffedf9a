package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"campus-rag/internal/answer"
	"campus-rag/internal/config"
	"campus-rag/internal/embedding"
	"campus-rag/internal/entities"
	"campus-rag/internal/helper"
	"campus-rag/internal/ingest"
	"campus-rag/internal/retriever"
	"campus-rag/internal/vectorindex"
	"campus-rag/internal/vectorindex/chromem"
	"campus-rag/internal/vectorindex/pgvector"
	"campus-rag/internal/vectorindex/pinecone"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	filePath := flag.String("file", "", "Path to a document file to ingest")
	dirPath := flag.String("dir", "", "Path to a directory of documents to ingest")
	query := flag.String("query", "", "Question to answer from the index")
	dryRun := flag.Bool("dry", false, "Skip writes, log intended upserts")
	recreate := flag.Bool("recreate-index", false, "Destroy and re-provision the backing index before ingesting")
	skipPDF := flag.Bool("skip-pdf", false, "Skip PDF files during directory ingestion")
	purge := flag.Bool("purge", false, "Wipe the namespace before ingesting")
	flag.Parse()

	if *query == "" && *filePath == "" && *dirPath == "" {
		log.Fatal().Msg("Provide -file or -dir to ingest, or -query to ask a question")
	}
	if *query != "" && (*filePath != "" || *dirPath != "") {
		log.Fatal().Msg("Ingestion and query flags are mutually exclusive")
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	index, cleanup, err := buildIndex(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error constructing vector index")
	}
	defer cleanup()

	embedder, err := embedding.NewOpenAIEmbedder(&cfg.EmbedLLM, cfg.RAG.EmbedBatchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	if *query != "" {
		runQuery(ctx, cfg, embedder, index, *query)
		return
	}
	runIngest(ctx, cfg, embedder, index, *filePath, *dirPath, *dryRun, *recreate, *skipPDF, *purge)
}

func buildIndex(cfg *config.Config) (vectorindex.Index, func(), error) {
	switch cfg.RAG.Backend {
	case "pinecone":
		return pinecone.New(cfg.Pinecone, cfg.RAG.VectorDimension), func() {}, nil
	case "pgvector":
		store := pgvector.New(&cfg.Database, cfg.RAG.VectorDimension)
		return store, func() { _ = store.Close() }, nil
	case "chromem":
		store, err := chromem.New(cfg.RAG.LocalDBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.RAG.Backend)
	}
}

func runIngest(ctx context.Context, cfg *config.Config, embedder *embedding.Embedder, index vectorindex.Index, filePath, dirPath string, dryRun, recreate, skipPDF, purge bool) {
	if recreate {
		if dryRun {
			log.Info().Msg("Dry run: would recreate index")
		} else if err := index.Recreate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error recreating index")
		}
	}
	if !dryRun {
		if err := index.EnsureReady(ctx); err != nil {
			log.Fatal().Err(err).Msg("Vector index not ready")
		}
	}

	pipeline := ingest.New(embedder, index, &cfg.RAG, dryRun)

	if purge {
		if err := pipeline.Purge(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error purging namespace")
		}
	}

	var err error
	if filePath != "" {
		err = pipeline.IngestFile(ctx, filePath)
	} else {
		err = pipeline.IngestDir(ctx, dirPath, skipPDF)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}
}

func runQuery(ctx context.Context, cfg *config.Config, embedder *embedding.Embedder, index vectorindex.Index, query string) {
	extractor, err := entities.NewRegexExtractor(cfg.Entities.OrgPatterns)
	if err != nil {
		log.Fatal().Err(err).Msg("Error compiling entity patterns")
	}

	r := retriever.New(embedder, index, &cfg.RAG, extractor)
	result, err := r.Retrieve(ctx, query, cfg.RAG.TopK)
	if err != nil {
		log.Fatal().Err(err).Msg("Retrieval failed")
	}

	log.Info().Float32("top_score", result.TopScore).Bool("below_threshold", result.BelowThreshold).
		Bool("aggregation", result.IsAggregation).Int("matches", len(result.Matches)).Msg("Retrieved")
	if len(result.Entities) > 0 {
		helper.PrettyPrint(result.Entities)
	}

	client := answer.New(&cfg.ChatLLM)
	response, err := client.Answer(ctx, query, result)
	if err != nil {
		log.Fatal().Err(err).Msg("Answer generation failed")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response)
}
