package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig points at an OpenAI-compatible endpoint for either embeddings or
// chat completions.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

// PineconeConfig configures the serverless vector index.
type PineconeConfig struct {
	APIKey     string `yaml:"api_key"`
	ControlURL string `yaml:"control_url"`
	IndexName  string `yaml:"index_name"`
	Metric     string `yaml:"metric"`
	Cloud      string `yaml:"cloud"`
	Region     string `yaml:"region"`
}

// DatabaseConfig configures the pgvector backend.
type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

// RAGConfig holds the tunables of the chunking and retrieval core.
type RAGConfig struct {
	Backend                string  `yaml:"backend"` // pinecone | pgvector | chromem
	Namespace              string  `yaml:"namespace"`
	LocalDBPath            string  `yaml:"local_db_path"`
	ChunkSize              int     `yaml:"chunk_size"`
	ChunkOverlap           int     `yaml:"chunk_overlap"`
	EmbedBatchSize         int     `yaml:"embed_batch_size"`
	VectorDimension        int     `yaml:"vector_dimension"`
	TopK                   int     `yaml:"top_k"`
	ScoreThreshold         float64 `yaml:"score_threshold"`
	AggregationRelaxFactor float64 `yaml:"aggregation_relax_factor"`
}

// EntitiesConfig carries the organization-matching patterns for the regex
// entity extractor. Patterns are data, not code, so deployments can swap
// them without a rebuild.
type EntitiesConfig struct {
	OrgPatterns []string `yaml:"org_patterns"`
}

type Config struct {
	EmbedLLM LLMConfig      `yaml:"embedding"`
	ChatLLM  LLMConfig      `yaml:"inference"`
	Pinecone PineconeConfig `yaml:"pinecone"`
	Database DatabaseConfig `yaml:"database"`
	RAG      RAGConfig      `yaml:"rag"`
	Entities EntitiesConfig `yaml:"entities"`
}

const (
	DefaultChunkSize       = 1200
	DefaultChunkOverlap    = 200
	DefaultEmbedBatchSize  = 10
	DefaultVectorDimension = 3072
	DefaultTopK            = 5
	DefaultScoreThreshold  = 0.75
	DefaultRelaxFactor     = 0.7
	DefaultNamespace       = "campus"
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg)
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.EmbedLLM.Key = v
		if cfg.ChatLLM.Key == "" {
			cfg.ChatLLM.Key = v
		}
	}
	if v := os.Getenv("PINECONE_API_KEY"); v != "" {
		cfg.Pinecone.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
}

func ApplyDefaults(cfg *Config) {
	if cfg.RAG.Backend == "" {
		cfg.RAG.Backend = "chromem"
	}
	if cfg.RAG.Namespace == "" {
		cfg.RAG.Namespace = DefaultNamespace
	}
	if cfg.RAG.LocalDBPath == "" {
		cfg.RAG.LocalDBPath = "./chromemdb"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = DefaultChunkSize
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = DefaultChunkOverlap
	}
	if cfg.RAG.EmbedBatchSize == 0 {
		cfg.RAG.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if cfg.RAG.VectorDimension == 0 {
		cfg.RAG.VectorDimension = DefaultVectorDimension
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = DefaultTopK
	}
	if cfg.RAG.ScoreThreshold == 0 {
		cfg.RAG.ScoreThreshold = DefaultScoreThreshold
	}
	if cfg.RAG.AggregationRelaxFactor == 0 {
		cfg.RAG.AggregationRelaxFactor = DefaultRelaxFactor
	}
	if cfg.Pinecone.ControlURL == "" {
		cfg.Pinecone.ControlURL = "https://api.pinecone.io"
	}
	if cfg.Pinecone.Metric == "" {
		cfg.Pinecone.Metric = "cosine"
	}
	if cfg.Pinecone.Cloud == "" {
		cfg.Pinecone.Cloud = "aws"
	}
	if cfg.Pinecone.Region == "" {
		cfg.Pinecone.Region = "us-east-1"
	}
	if cfg.EmbedLLM.BaseURL == "" {
		cfg.EmbedLLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.EmbedLLM.Model == "" {
		cfg.EmbedLLM.Model = "text-embedding-3-large"
	}
	if cfg.ChatLLM.BaseURL == "" {
		cfg.ChatLLM.BaseURL = cfg.EmbedLLM.BaseURL
	}
}

// Validate fails fast on missing credentials so the process never starts
// half-configured.
func (cfg *Config) Validate() error {
	if cfg.EmbedLLM.Key == "" {
		return fmt.Errorf("missing embedding API key (set embedding.key or OPENAI_API_KEY)")
	}
	switch cfg.RAG.Backend {
	case "pinecone":
		if cfg.Pinecone.APIKey == "" {
			return fmt.Errorf("missing pinecone API key (set pinecone.api_key or PINECONE_API_KEY)")
		}
		if cfg.Pinecone.IndexName == "" {
			return fmt.Errorf("missing pinecone.index_name")
		}
	case "pgvector":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("missing database DSN (set database.dsn or DATABASE_URL)")
		}
	case "chromem":
	default:
		return fmt.Errorf("unknown backend %q (want pinecone, pgvector or chromem)", cfg.RAG.Backend)
	}
	return nil
}
