package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	UploadDir string `yaml:"upload_dir"`
}

type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	MaxRetries  int     `yaml:"max_retries"`
	Key         string  `yaml:"-"`
}

type EmbeddingConfig struct {
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimension  int    `yaml:"dimension"`
	MaxRetries int    `yaml:"max_retries"`
	Key        string `yaml:"-"`
}

type ChromemConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type PostgresConfig struct {
	URL      string `yaml:"url"`
	Debug    bool   `yaml:"debug"`
	Password string `yaml:"-"`
}

type VectorStoreConfig struct {
	Type     string         `yaml:"type"`
	Chromem  ChromemConfig  `yaml:"chromem"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type RAGConfig struct {
	ChunkSize    int  `yaml:"chunk_size"`
	ChunkOverlap int  `yaml:"chunk_overlap"`
	TopK         int  `yaml:"top_k"`
	FilterByUser bool `yaml:"filter_by_user"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	RAG         RAGConfig         `yaml:"rag"`
}

const (
	// GenerationKeyEnv must be set; startup fails without it.
	GenerationKeyEnv = "OPENROUTER_API_KEY"
	// VectorDBKeyEnv is only consulted by the postgres backend.
	VectorDBKeyEnv = "VECTOR_DB_PASSWORD"
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
	applyDefaults(&cfg)
	if err := loadSecrets(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadSecrets(cfg *Config) error {
	key := os.Getenv(GenerationKeyEnv)
	if key == "" {
		return fmt.Errorf("%s is not set in environment variables", GenerationKeyEnv)
	}
	cfg.LLM.Key = key
	// the embedding endpoint is OpenAI-compatible and shares the key
	cfg.Embedding.Key = key
	cfg.VectorStore.Postgres.Password = os.Getenv(VectorDBKeyEnv)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "tmp_uploads"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "mistralai/mixtral-8x7b-instruct"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "all-minilm"
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = 384
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = 3
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "chromem"
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "./chromemdb"
	}
	if cfg.VectorStore.Chromem.Collection == "" {
		cfg.VectorStore.Chromem.Collection = "interview-question-creator"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1024
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 100
	}
	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 4
	}
}
