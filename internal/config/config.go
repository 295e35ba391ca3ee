package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CollectionEnv overrides the configured collection name when set.
const CollectionEnv = "QDRANT_COLLECTION_NAME"

// OpenAIConfig holds configuration for OpenAI-compatible endpoints.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// GeminiConfig holds configuration for Google Gemini models.
type GeminiConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string        `yaml:"type"`
	BatchSize int           `yaml:"batch_size"`
	Retries   int           `yaml:"retries"`
	Dimension int           `yaml:"dimension"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
	Gemini    *GeminiConfig `yaml:"gemini,omitempty"`
}

// LLMConfig selects and configures the language model.
type LLMConfig struct {
	Type      string        `yaml:"type"`
	MaxTokens int           `yaml:"max_tokens"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
	Gemini    *GeminiConfig `yaml:"gemini,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
// Changing it requires re-ingesting the collection.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is a pointer so an explicit 0 is kept while an unset value gets the default.
	ChunkOverlap *int `yaml:"chunk_overlap"`
}

// Overlap returns the configured overlap, 0 when unset.
func (c ChunkerConfig) Overlap() int {
	if c.ChunkOverlap == nil {
		return 0
	}
	return *c.ChunkOverlap
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type       string        `yaml:"type"`
	Collection string        `yaml:"collection"`
	Memory     *MemoryConfig `yaml:"memory,omitempty"`
	Qdrant     *QdrantConfig `yaml:"qdrant,omitempty"`
}

// MemoryConfig configures the in-process index.
type MemoryConfig struct {
	Snapshot string `yaml:"snapshot"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	APIKeyEnv string `yaml:"api_key_env"`
	UseTLS    bool   `yaml:"use_tls"`
}

// RetrievalConfig tunes question answering.
type RetrievalConfig struct {
	K       int    `yaml:"k"`
	Refusal string `yaml:"refusal"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Sources     []string          `yaml:"sources,omitempty"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	LLM         LLMConfig         `yaml:"llm"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Log         LogConfig         `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/oracle/config.yaml.
// If neither exists, it writes defaults to ~/.config/oracle/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate reports settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.Chunker.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunker.chunk_size must be positive, got %d", c.Chunker.ChunkSize))
	}
	if o := c.Chunker.Overlap(); o < 0 || o >= c.Chunker.ChunkSize {
		errs = append(errs, fmt.Errorf("chunker.chunk_overlap must be in [0, chunk_size), got %d", o))
	}
	if c.Retrieval.K <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.k must be positive, got %d", c.Retrieval.K))
	}
	if strings.TrimSpace(c.Retrieval.Refusal) == "" {
		errs = append(errs, errors.New("retrieval.refusal must not be empty"))
	}
	if c.VectorStore.Collection == "" {
		errs = append(errs, errors.New("vector_store.collection must not be empty"))
	}
	switch c.Embedder.Type {
	case "hashing", "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown embedder: %q", c.Embedder.Type))
	}
	switch c.LLM.Type {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("unknown llm: %q", c.LLM.Type))
	}
	switch c.VectorStore.Type {
	case "memory", "qdrant":
	default:
		errs = append(errs, fmt.Errorf("unknown vector store: %q", c.VectorStore.Type))
	}
	return errors.Join(errs...)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "oracle", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "openai"},
		LLM:      LLMConfig{Type: "openai"},
		VectorStore: VectorStoreConfig{
			Type:   "memory",
			Memory: &MemoryConfig{Snapshot: filepath.Join("data", "index.gob")},
		},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == nil {
		cfg.Chunker.ChunkOverlap = defaultOverlap(cfg.Chunker.ChunkSize)
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 4
	}
	if cfg.Retrieval.Refusal == "" {
		cfg.Retrieval.Refusal = "I'm sorry, but that information is not in the provided documents."
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "documents"
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "openai"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 64
	}
	if cfg.LLM.Type == "" {
		cfg.LLM.Type = "openai"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI == nil {
		cfg.Embedder.OpenAI = &OpenAIConfig{}
	}
	if cfg.Embedder.OpenAI != nil {
		openAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
	}
	if cfg.LLM.Type == "openai" && cfg.LLM.OpenAI == nil {
		cfg.LLM.OpenAI = &OpenAIConfig{}
	}
	if cfg.LLM.OpenAI != nil {
		openAIDefaults(cfg.LLM.OpenAI, "gpt-4o-mini", 60)
	}
	if cfg.Embedder.Type == "gemini" && cfg.Embedder.Gemini == nil {
		cfg.Embedder.Gemini = &GeminiConfig{}
	}
	if cfg.Embedder.Gemini != nil {
		geminiDefaults(cfg.Embedder.Gemini, "text-embedding-004")
	}
	if cfg.LLM.Type == "gemini" && cfg.LLM.Gemini == nil {
		cfg.LLM.Gemini = &GeminiConfig{}
	}
	if cfg.LLM.Gemini != nil {
		geminiDefaults(cfg.LLM.Gemini, "gemini-1.5-flash")
	}
	if cfg.VectorStore.Type == "qdrant" && cfg.VectorStore.Qdrant == nil {
		cfg.VectorStore.Qdrant = &QdrantConfig{}
	}
	if q := cfg.VectorStore.Qdrant; q != nil {
		if q.Host == "" {
			q.Host = "localhost"
		}
		if q.Port == 0 {
			q.Port = 6334
		}
		if q.APIKeyEnv == "" {
			q.APIKeyEnv = "QDRANT_API_KEY"
		}
	}
}

// defaultOverlap is 150 characters, or 15% of size for chunks too small to hold that.
func defaultOverlap(size int) *int {
	overlap := 150
	if overlap >= size {
		overlap = size * 15 / 100
	}
	return &overlap
}

func openAIDefaults(c *OpenAIConfig, model string, timeout int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeout
	}
}

func geminiDefaults(c *GeminiConfig, model string) {
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "GEMINI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
}

func applyEnv(cfg *AppConfig) {
	if name := os.Getenv(CollectionEnv); name != "" {
		cfg.VectorStore.Collection = name
	}
}
