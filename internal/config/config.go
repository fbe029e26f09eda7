// Package config loads qmd's configuration: defaults, an optional project
// YAML file, then environment variable overrides, mirroring the layered
// precedence the teacher's config package documents.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is qmd's complete runtime configuration (spec.md §6).
type Config struct {
	Version int `yaml:"version"`

	Store      StoreConfig      `yaml:"store"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Indexing   IndexingConfig   `yaml:"indexing"`
	Cache      CacheConfig      `yaml:"cache"`
	Server     ServerConfig     `yaml:"server"`
}

// StoreConfig controls where the embedded database lives.
type StoreConfig struct {
	// IndexPath overrides the default database file path.
	IndexPath string `yaml:"index_path"`
	// CacheHome overrides the root under which the default path resides.
	CacheHome string `yaml:"cache_home"`
}

// SearchConfig controls the defaults used by SearchEngine operations.
type SearchConfig struct {
	DefaultEmbedModel  string `yaml:"default_embed_model"`
	DefaultQueryModel  string `yaml:"default_query_model"`
	DefaultRerankModel string `yaml:"default_rerank_model"`
	RerankEnabled      bool   `yaml:"rerank_enabled"`
	ExpansionCount     int    `yaml:"expansion_count"`
}

// EmbeddingsConfig controls the LLM provider HTTP endpoint.
type EmbeddingsConfig struct {
	LLMBaseURL string `yaml:"llm_base_url"`
}

// IndexingConfig controls file-walking and chunking behavior.
type IndexingConfig struct {
	ChunkByteSize   int      `yaml:"chunk_byte_size"`
	MultiGetMaxBytes int64   `yaml:"multi_get_max_bytes"`
	ExcludeDirs     []string `yaml:"exclude_dirs"`
}

// CacheConfig controls the LLM response cache bound.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// ServerConfig controls the tool-server transport.
type ServerConfig struct {
	Transport string `yaml:"transport"`
}

const (
	DefaultChunkByteSize    = 6144
	DefaultMultiGetMaxBytes = 1 << 20 // 1MiB
	DefaultCacheMaxEntries  = 1000
	DefaultExpansionCount   = 2
)

var defaultExcludeDirs = []string{"node_modules", ".git", ".cache", "vendor", "dist", "build"}

// Default returns qmd's built-in configuration before any file or
// environment overrides are applied.
func Default() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			DefaultEmbedModel:  "nomic-embed-text",
			DefaultQueryModel:  "llama3.2",
			DefaultRerankModel: "llama3.2",
			RerankEnabled:      true,
			ExpansionCount:     DefaultExpansionCount,
		},
		Embeddings: EmbeddingsConfig{
			LLMBaseURL: "http://localhost:11434",
		},
		Indexing: IndexingConfig{
			ChunkByteSize:    DefaultChunkByteSize,
			MultiGetMaxBytes: DefaultMultiGetMaxBytes,
			ExcludeDirs:      append([]string(nil), defaultExcludeDirs...),
		},
		Cache: CacheConfig{
			MaxEntries: DefaultCacheMaxEntries,
		},
		Server: ServerConfig{
			Transport: "stdio",
		},
	}
}

// Load builds the effective configuration: defaults, then path (if
// non-empty and present) merged in, then environment variable overrides.
// A missing path is not an error — it simply means "use defaults".
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("QMD_INDEX_PATH"); v != "" {
		cfg.Store.IndexPath = v
	}
	if v := os.Getenv("QMD_CACHE_HOME"); v != "" {
		cfg.Store.CacheHome = v
	}
	if v := os.Getenv("QMD_LLM_BASE_URL"); v != "" {
		cfg.Embeddings.LLMBaseURL = v
	}
	if v := os.Getenv("QMD_DEFAULT_EMBED_MODEL"); v != "" {
		cfg.Search.DefaultEmbedModel = v
	}
	if v := os.Getenv("QMD_DEFAULT_QUERY_MODEL"); v != "" {
		cfg.Search.DefaultQueryModel = v
	}
	if v := os.Getenv("QMD_DEFAULT_RERANK_MODEL"); v != "" {
		cfg.Search.DefaultRerankModel = v
	}
	if v := os.Getenv("QMD_CHUNK_BYTE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Indexing.ChunkByteSize = n
		}
	}
	if v := os.Getenv("QMD_MULTI_GET_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Indexing.MultiGetMaxBytes = n
		}
	}
}

// DatabasePath resolves the effective SQLite database file path, honoring
// StoreConfig.IndexPath first, then CacheHome, then the OS cache directory.
func (c *Config) DatabasePath() string {
	if c.Store.IndexPath != "" {
		return c.Store.IndexPath
	}
	home := c.Store.CacheHome
	if home == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			home = filepath.Join(dir, "qmd")
		} else {
			home = ".qmd"
		}
	}
	return filepath.Join(home, "qmd.db")
}
