package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the full verilab configuration.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Cache     CacheConfig     `yaml:"cache"`
	ResultLog ResultLogConfig `yaml:"result_log"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Reader    ReaderConfig    `yaml:"reader"`
	Output    OutputConfig    `yaml:"output"`
}

// SearchConfig configures the evidence lookup client.
type SearchConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"-"` // from TAVILY_API_KEY, never persisted
	Timeout           time.Duration `yaml:"timeout"`
	MaxResults        int           `yaml:"max_results"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	BurstSize         int           `yaml:"burst_size"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty"`
}

// LLMConfig configures the claim-extraction provider.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // groq, openai, ollama
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"` // from env, never persisted
	BaseURL    string `yaml:"base_url,omitempty"`
	Timeout    int    `yaml:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy,omitempty"`
	HTTPSProxy string `yaml:"https_proxy,omitempty"`
}

// CacheConfig configures the search-response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ResultLogConfig configures the trial result log.
type ResultLogConfig struct {
	Path string `yaml:"path"`
}

// DatasetConfig configures the trap-question dataset.
type DatasetConfig struct {
	Path                 string `yaml:"path"`
	QuestionsPerCategory int    `yaml:"questions_per_category"`
	Workers              int    `yaml:"workers"`
}

// ReaderConfig configures the full-page reader for source-grounded review.
type ReaderConfig struct {
	Enabled      bool          `yaml:"enabled"`
	UserAgent    string        `yaml:"user_agent"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// OutputConfig controls operator-facing output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:           "https://api.tavily.com",
			Timeout:           30 * time.Second,
			MaxResults:        1,
			RequestsPerSecond: 1.0,
			BurstSize:         2,
		},
		LLM: LLMConfig{
			Provider:  "groq",
			Model:     "llama-3.3-70b-versatile",
			Timeout:   30,
			MaxTokens: 300,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		ResultLog: ResultLogConfig{
			Path: "experiment_results.csv",
		},
		Dataset: DatasetConfig{
			Path:                 "adversarial_dataset.csv",
			QuestionsPerCategory: 3,
			Workers:              2,
		},
		Reader: ReaderConfig{
			Enabled:      true,
			UserAgent:    "Verilab/0.1 (+https://github.com/okarpov/verilab)",
			Timeout:      20 * time.Second,
			MaxBodyBytes: 2_000_000,
		},
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".verilab-cache"
	}
	return filepath.Join(home, ".verilab", "cache")
}
