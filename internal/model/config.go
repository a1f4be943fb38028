package model

import "time"

// Config holds the full geoparse configuration.
type Config struct {
	Graph       GraphConfig       `yaml:"graph" json:"graph"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Cluster     ClusterConfig     `yaml:"cluster" json:"cluster"`
	Filter      FilterConfig      `yaml:"filter" json:"filter"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// GraphConfig configures the Neo4j gazetteer connection.
type GraphConfig struct {
	URI           string `yaml:"uri" json:"uri"`
	User          string `yaml:"user" json:"user"`
	Password      string `yaml:"password" json:"-"`
	MaxCandidates int    `yaml:"max_candidates" json:"max_candidates"`
}

// LLMConfig configures the reasoning-service provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider" json:"provider"` // "openai", "anthropic", "ollama"
	Model       string  `yaml:"model" json:"model"`
	APIKey      string  `yaml:"api_key" json:"-"`
	BaseURL     string  `yaml:"base_url" json:"base_url"` // Custom endpoint (OpenRouter, Ollama)
	Timeout     int     `yaml:"timeout" json:"timeout"`   // Seconds
	MaxTokens   int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
	HTTPProxy   string  `yaml:"http_proxy" json:"http_proxy,omitempty"`
	HTTPSProxy  string  `yaml:"https_proxy" json:"https_proxy,omitempty"`
	NoProxy     string  `yaml:"no_proxy" json:"no_proxy,omitempty"`
}

// ClusterConfig configures context clustering and evidence selection.
type ClusterConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	MaxContexts         int     `yaml:"max_contexts" json:"max_contexts"`
}

// FilterConfig configures the ungroundable-toponym filter.
type FilterConfig struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	StrictMode         bool   `yaml:"strict_mode" json:"strict_mode"`
	AmbiguousTermsFile string `yaml:"ambiguous_terms_file" json:"ambiguous_terms_file,omitempty"`
}

// CacheConfig configures candidate caching.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" json:"enabled"`
	Dir     string        `yaml:"dir" json:"dir"`         // Disk layer; empty keeps cache memory-only
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
}

// ConcurrencyConfig controls batch fan-out.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// RateLimitConfig throttles reasoning-service calls during batch runs.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose     bool   `yaml:"verbose" json:"verbose"`
	Format      string `yaml:"format" json:"format"` // Source document format: "toponym" or "inline"
	AllClusters bool   `yaml:"all_clusters" json:"all_clusters"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Graph: GraphConfig{
			URI:           "bolt://localhost:7687",
			User:          "neo4j",
			MaxCandidates: 10,
		},
		LLM: LLMConfig{
			Provider:    "", // Disabled until configured
			Timeout:     60,
			MaxTokens:   1000,
			Temperature: 0.1,
		},
		Cluster: ClusterConfig{
			SimilarityThreshold: 0.3,
			MaxContexts:         3,
		},
		Filter: FilterConfig{
			Enabled: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Output: OutputConfig{
			Format: "toponym",
		},
	}
}
