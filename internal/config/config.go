package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type MeilisearchConfig struct {
	Host   string `toml:"host"`
	APIKey string `toml:"api_key"`
	// PrimaryKey is the document identity field in backend hits.
	PrimaryKey string `toml:"primary_key"`
	// RateLimit caps backend calls per second; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

type DictionaryConfig struct {
	Path string `toml:"path"`
	// Watch enables automatic reload when the dictionary file changes.
	Watch bool `toml:"watch"`
	// MinConfidence rejects dictionary matches below this confidence.
	MinConfidence float64 `toml:"min_confidence"`
}

type SegmenterConfig struct {
	// Engines is the ordered fallback chain applied after the dictionary
	// engine; the last one must be "grapheme".
	Engines []string `toml:"engines"`
	// EngineBudgetMs bounds one fallback-engine call.
	EngineBudgetMs int `toml:"engine_budget_ms"`
}

type SearchConfig struct {
	// MaxVariants caps the per-request fan-out.
	MaxVariants int `toml:"max_variants"`
	// ShortQueryThreshold is the rune length under which a partial variant
	// is generated.
	ShortQueryThreshold int `toml:"short_query_threshold"`
	// MaxInFlight bounds concurrent backend calls per request.
	MaxInFlight int `toml:"max_in_flight"`
	// PerCallTimeoutMs bounds a single variant search.
	PerCallTimeoutMs int `toml:"per_call_timeout_ms"`
	// RequestTimeoutMs is the overall deadline of one proxied search.
	RequestTimeoutMs int `toml:"request_timeout_ms"`
	// DefaultLimit is the page size when the caller sends none.
	DefaultLimit int `toml:"default_limit"`
	// BatchPoolSize bounds concurrent queries of one batch request.
	BatchPoolSize int `toml:"batch_pool_size"`
}

type CacheConfig struct {
	Capacity int `toml:"capacity"`
	TTLMs    int `toml:"ttl_ms"`
}

type Config struct {
	Meilisearch MeilisearchConfig `toml:"meilisearch"`
	Dictionary  DictionaryConfig  `toml:"dictionary"`
	Segmenter   SegmenterConfig   `toml:"segmenter"`
	Search      SearchConfig      `toml:"search"`
	Cache       CacheConfig       `toml:"cache"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Meilisearch: MeilisearchConfig{
			Host:       "http://localhost:7700",
			PrimaryKey: "id",
		},
		Dictionary: DictionaryConfig{Watch: true},
		Search: SearchConfig{
			RequestTimeoutMs: 5000,
		},
		Cache: CacheConfig{Capacity: 1024, TTLMs: 60000},
	}
}

func (c *SegmenterConfig) EngineBudget() time.Duration {
	return time.Duration(c.EngineBudgetMs) * time.Millisecond
}

func (c *SearchConfig) PerCallTimeout() time.Duration {
	return time.Duration(c.PerCallTimeoutMs) * time.Millisecond
}

func (c *SearchConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}
