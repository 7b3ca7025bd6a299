package config

import (
	"github.com/caarlos0/env/v10"
)

// LLM points at an OpenAI-compatible chat completions endpoint.
type LLM struct {
	URL   string `env:"LLM_URL" envDefault:"http://localhost:11434/v1"`
	Model string `env:"LLM_MODEL" envDefault:"gemma2:2b"`
	Key   string `env:"LLM_API_KEY"`
}

type Config struct {
	DocsDir          string `env:"DOCS_DIR" envDefault:"./docs"`
	DataDir          string `env:"DATA_DIR" envDefault:"./data"`
	OllamaURL        string `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	OllamaEmbedModel string `env:"OLLAMA_EMBED_MODEL" envDefault:"nomic-embed-text"`

	LlmMain LLM

	ChunkSize    int    `env:"CHUNK_SIZE" envDefault:"800"`
	ChunkOverlap int    `env:"CHUNK_OVERLAP" envDefault:"0"`
	ChunkMethod  string `env:"CHUNK_METHOD"`

	SearchTopK    int     `env:"SEARCH_TOP_K" envDefault:"50"`
	MinSimilarity float32 `env:"MIN_SIMILARITY" envDefault:"0"`
	RSEPreset     string  `env:"RSE_PRESET" envDefault:"balanced"`

	MaxConcurrency  int     `env:"MAX_CONCURRENCY" envDefault:"4"`
	MaxTokens       int     `env:"MAX_TOKENS" envDefault:"1024"`
	Temperature     float64 `env:"TEMPERATURE" envDefault:"0.2"`
	MaxPromptTokens int     `env:"MAX_PROMPT_TOKENS" envDefault:"4000"`

	ForceReindex bool `env:"FORCE_REINDEX"`

	// Derived from DataDir in main.
	MetadataFile string
	DBFile       string
	ChunksFile   string
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}
