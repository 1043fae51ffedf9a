package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-rag/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("PINECONE_API_KEY", "")
	t.Setenv("DATABASE_URL", "")
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
embedding:
  key: sk-test
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "chromem", cfg.RAG.Backend)
	assert.Equal(t, "campus", cfg.RAG.Namespace)
	assert.Equal(t, 1200, cfg.RAG.ChunkSize)
	assert.Equal(t, 200, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 10, cfg.RAG.EmbedBatchSize)
	assert.Equal(t, 3072, cfg.RAG.VectorDimension)
	assert.Equal(t, 5, cfg.RAG.TopK)
	assert.InDelta(t, 0.75, cfg.RAG.ScoreThreshold, 1e-9)
	assert.InDelta(t, 0.7, cfg.RAG.AggregationRelaxFactor, 1e-9)
	assert.Equal(t, "cosine", cfg.Pinecone.Metric)
	assert.Equal(t, "text-embedding-3-large", cfg.EmbedLLM.Model)
	assert.Equal(t, cfg.EmbedLLM.BaseURL, cfg.ChatLLM.BaseURL)
}

func TestLoadConfigExplicitValuesWin(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
embedding:
  key: sk-test
  model: text-embedding-3-small
rag:
  backend: pgvector
  namespace: staging
  chunk_size: 800
  chunk_overlap: 100
  score_threshold: 0.6
database:
  dsn: postgres://localhost/campus
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pgvector", cfg.RAG.Backend)
	assert.Equal(t, "staging", cfg.RAG.Namespace)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.InDelta(t, 0.6, cfg.RAG.ScoreThreshold, 1e-9)
	assert.Equal(t, "text-embedding-3-small", cfg.EmbedLLM.Model)
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("PINECONE_API_KEY", "pc-from-env")
	t.Setenv("DATABASE_URL", "postgres://env/campus")

	path := writeConfig(t, `
rag:
  backend: pinecone
pinecone:
  index_name: campus-index
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.EmbedLLM.Key)
	assert.Equal(t, "sk-from-env", cfg.ChatLLM.Key, "chat key falls back to the embedding key")
	assert.Equal(t, "pc-from-env", cfg.Pinecone.APIKey)
	assert.Equal(t, "postgres://env/campus", cfg.Database.DSN)
	require.NoError(t, cfg.Validate())
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "missing embedding key",
			mutate:  func(cfg *config.Config) { cfg.EmbedLLM.Key = "" },
			wantErr: "embedding API key",
		},
		{
			name: "pinecone without api key",
			mutate: func(cfg *config.Config) {
				cfg.RAG.Backend = "pinecone"
				cfg.Pinecone.IndexName = "campus-index"
			},
			wantErr: "pinecone API key",
		},
		{
			name: "pinecone without index name",
			mutate: func(cfg *config.Config) {
				cfg.RAG.Backend = "pinecone"
				cfg.Pinecone.APIKey = "pc-key"
			},
			wantErr: "index_name",
		},
		{
			name:    "pgvector without dsn",
			mutate:  func(cfg *config.Config) { cfg.RAG.Backend = "pgvector" },
			wantErr: "database DSN",
		},
		{
			name:    "unknown backend",
			mutate:  func(cfg *config.Config) { cfg.RAG.Backend = "milvus" },
			wantErr: "unknown backend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.EmbedLLM.Key = "sk-test"
			config.ApplyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
