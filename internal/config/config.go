package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Request bounds shared by validation and the CLI.
const (
	MinK = 1
	MaxK = 50

	// MaxRerankTopK bounds the cost of a single cross-encoder call.
	MaxRerankTopK = 20
)

// Config represents the complete hybridsearch configuration.
// Every recognized option is enumerated here with an explicit default in
// NewConfig and a range check in Validate.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Rerank      RerankConfig      `yaml:"rerank" json:"rerank"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Confidence  ConfidenceConfig  `yaml:"confidence" json:"confidence"`
	Web         WebConfig         `yaml:"web" json:"web"`
	Credibility CredibilityConfig `yaml:"credibility" json:"credibility"`
	Citations   CitationsConfig   `yaml:"citations" json:"citations"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Breaker     BreakerConfig     `yaml:"breaker" json:"breaker"`
	Logging     LoggingConfig     `yaml:"logging" json:"logging"`
}

// SearchConfig configures request defaults, fusion weights and retriever timeouts.
// Weights are configurable via:
//  1. User config (~/.config/hybridsearch/config.yaml)
//  2. Project config (.hybridsearch.yaml)
//  3. Env vars (HYBRIDSEARCH_DENSE_WEIGHT, HYBRIDSEARCH_SPARSE_WEIGHT)
type SearchConfig struct {
	// DefaultK is the result count used when a request leaves k unset.
	DefaultK int `yaml:"default_k" json:"default_k"`

	// MaxK is the upper bound accepted for k (at most 50).
	MaxK int `yaml:"max_k" json:"max_k"`

	// DefaultMinCredibility applies when a request leaves min_credibility unset.
	DefaultMinCredibility float64 `yaml:"default_min_credibility" json:"default_min_credibility"`

	// DenseWeight is the fusion weight for normalized dense scores (0.0-1.0).
	DenseWeight float64 `yaml:"dense_weight" json:"dense_weight"`

	// SparseWeight is the fusion weight for normalized sparse scores (0.0-1.0).
	SparseWeight float64 `yaml:"sparse_weight" json:"sparse_weight"`

	// DenseTimeout bounds a single dense retrieval call.
	DenseTimeout time.Duration `yaml:"dense_timeout" json:"dense_timeout"`

	// SparseTimeout bounds a single sparse (BM25 and/or web) retrieval call.
	SparseTimeout time.Duration `yaml:"sparse_timeout" json:"sparse_timeout"`

	// SparseBackend selects the BM25 implementation: "sqlite" (default) or "bleve".
	SparseBackend string `yaml:"sparse_backend" json:"sparse_backend"`

	// QueryExpansion adds synonyms of the query terms to BM25 queries.
	QueryExpansion bool `yaml:"query_expansion" json:"query_expansion"`

	// Synonyms extends the built-in expansion vocabulary.
	Synonyms map[string][]string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
}

// RerankConfig configures the cross-encoder reranker.
type RerankConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Endpoint string        `yaml:"endpoint" json:"endpoint"`
	Model    string        `yaml:"model" json:"model"`
	TopK     int           `yaml:"top_k" json:"top_k"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Backend is "memory" (default) or "badger" for a persistent cache.
	Backend string `yaml:"backend" json:"backend"`

	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Capacity int           `yaml:"capacity" json:"capacity"`
	Shards   int           `yaml:"shards" json:"shards"`

	// Path is the badger directory. Ignored by the memory backend.
	Path string `yaml:"path" json:"path"`
}

// ConfidenceConfig holds the confidence penalties and quality thresholds.
type ConfidenceConfig struct {
	SingleRetrieverPenalty float64 `yaml:"single_retriever_penalty" json:"single_retriever_penalty"`
	NoRerankPenalty        float64 `yaml:"no_rerank_penalty" json:"no_rerank_penalty"`
	ShortResultPenalty     float64 `yaml:"short_result_penalty" json:"short_result_penalty"`
	HighThreshold          float64 `yaml:"high_threshold" json:"high_threshold"`
	MediumThreshold        float64 `yaml:"medium_threshold" json:"medium_threshold"`
}

// WebConfig configures the web search client.
type WebConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// APIKey is never written back by WriteYAML.
	APIKey string `yaml:"api_key,omitempty" json:"-"`

	RatePerMinute int           `yaml:"rate_per_minute" json:"rate_per_minute"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// CredibilityConfig configures the domain reputation scorer.
type CredibilityConfig struct {
	TrustedDomains []string `yaml:"trusted_domains" json:"trusted_domains"`
	BlockedDomains []string `yaml:"blocked_domains" json:"blocked_domains"`
}

// CitationsConfig configures citation formatting.
type CitationsConfig struct {
	Style string `yaml:"style" json:"style"`
	Max   int    `yaml:"max" json:"max"`
}

// EmbeddingsConfig configures the query embedder.
type EmbeddingsConfig struct {
	Dimensions int `yaml:"dimensions" json:"dimensions"`
	CacheSize  int `yaml:"cache_size" json:"cache_size"`

	// Workers bounds concurrent document embedding during index builds.
	Workers int `yaml:"workers" json:"workers"`
}

// BreakerConfig configures the circuit breakers around remote collaborators.
type BreakerConfig struct {
	FailureRatio float64       `yaml:"failure_ratio" json:"failure_ratio"`
	MinRequests  uint32        `yaml:"min_requests" json:"min_requests"`
	OpenTimeout  time.Duration `yaml:"open_timeout" json:"open_timeout"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
}

// DefaultTrustedDomains are domains that receive a credibility bonus.
var DefaultTrustedDomains = []string{
	"wikipedia.org", "nature.com", "nytimes.com",
	"bbc.co.uk", "reuters.com", "nasa.gov",
}

// DefaultBlockedDomains are domains that receive a credibility penalty.
var DefaultBlockedDomains = []string{"clickbait.com", "fakenews.net"}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Search: SearchConfig{
			DefaultK:              10,
			MaxK:                  MaxK,
			DefaultMinCredibility: 0.5,
			DenseWeight:           0.5,
			SparseWeight:          0.5,
			DenseTimeout:          2 * time.Second,
			SparseTimeout:         2 * time.Second,
			SparseBackend:         "sqlite",
		},
		Rerank: RerankConfig{
			Enabled: false,
			TopK:    MaxRerankTopK,
			Timeout: 3 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Backend:  "memory",
			TTL:      time.Hour,
			Capacity: 1000,
			Shards:   16,
			Path:     defaultDataPath("cache"),
		},
		Confidence: ConfidenceConfig{
			SingleRetrieverPenalty: 0.2,
			NoRerankPenalty:        0.1,
			ShortResultPenalty:     0.1,
			HighThreshold:          0.7,
			MediumThreshold:        0.4,
		},
		Web: WebConfig{
			Enabled:       true,
			Endpoint:      "https://google.serper.dev/search",
			RatePerMinute: 10,
			Timeout:       10 * time.Second,
		},
		Credibility: CredibilityConfig{
			TrustedDomains: append([]string(nil), DefaultTrustedDomains...),
			BlockedDomains: append([]string(nil), DefaultBlockedDomains...),
		},
		Citations: CitationsConfig{
			Style: "apa",
			Max:   5,
		},
		Embeddings: EmbeddingsConfig{
			Dimensions: 256,
			CacheSize:  1000,
			Workers:    runtime.NumCPU(),
		},
		Breaker: BreakerConfig{
			FailureRatio: 0.6,
			MinRequests:  5,
			OpenTimeout:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// defaultDataPath returns a path under ~/.hybridsearch.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".hybridsearch", name)
	}
	return filepath.Join(home, ".hybridsearch", name)
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/hybridsearch/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/hybridsearch/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hybridsearch", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "hybridsearch", "config.yaml")
	}
	return filepath.Join(home, ".config", "hybridsearch", "config.yaml")
}

// Load loads configuration for the given directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/hybridsearch/config.yaml)
//  3. Project config (.hybridsearch.yaml in dir)
//  4. Environment variables (HYBRIDSEARCH_*)
func Load(dir string) (*Config, error) {
	return load(dir, "")
}

// LoadFile is like Load but reads an explicit config file in place of the
// project config. The user config and env overrides still apply.
func LoadFile(path string) (*Config, error) {
	return load("", path)
}

func load(dir, explicit string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if explicit != "" {
		if err := cfg.loadYAML(explicit); err != nil {
			return nil, err
		}
	} else if dir != "" {
		if err := cfg.loadFromDir(dir); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromDir loads .hybridsearch.yaml or .hybridsearch.yml if present.
func (c *Config) loadFromDir(dir string) error {
	for _, name := range []string{".hybridsearch.yaml", ".hybridsearch.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML decodes a YAML file over the current values.
// Keys absent from the file keep their current value.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies HYBRIDSEARCH_* environment variable overrides.
// Malformed values are ignored so a bad env var never masks a good file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HYBRIDSEARCH_DENSE_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Search.DenseWeight = w
		}
	}
	if v := os.Getenv("HYBRIDSEARCH_SPARSE_WEIGHT"); v != "" {
		if w, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			c.Search.SparseWeight = w
		}
	}
	if v := os.Getenv("HYBRIDSEARCH_SPARSE_BACKEND"); v != "" {
		c.Search.SparseBackend = v
	}

	if v := os.Getenv("HYBRIDSEARCH_QUERY_EXPANSION"); v != "" {
		c.Search.QueryExpansion = parseBool(v)
	}

	if v := os.Getenv("HYBRIDSEARCH_CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool(v)
	}
	if v := os.Getenv("HYBRIDSEARCH_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("HYBRIDSEARCH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Cache.TTL = d
		}
	}
	if v := os.Getenv("HYBRIDSEARCH_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}

	if v := os.Getenv("HYBRIDSEARCH_RERANK_ENDPOINT"); v != "" {
		c.Rerank.Endpoint = v
		c.Rerank.Enabled = true
	}

	// SERPER_API_KEY is accepted for compatibility with existing deployments.
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.Web.APIKey = v
	}
	if v := os.Getenv("HYBRIDSEARCH_WEB_API_KEY"); v != "" {
		c.Web.APIKey = v
	}
	if v := os.Getenv("HYBRIDSEARCH_WEB_ENDPOINT"); v != "" {
		c.Web.Endpoint = v
	}
	if v := os.Getenv("HYBRIDSEARCH_WEB_ENABLED"); v != "" {
		c.Web.Enabled = parseBool(v)
	}

	if v := os.Getenv("HYBRIDSEARCH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes"
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	s := c.Search
	if s.MaxK < MinK || s.MaxK > MaxK {
		return fmt.Errorf("search.max_k must be between %d and %d, got %d", MinK, MaxK, s.MaxK)
	}
	if s.DefaultK < MinK || s.DefaultK > s.MaxK {
		return fmt.Errorf("search.default_k must be between %d and %d, got %d", MinK, s.MaxK, s.DefaultK)
	}
	if err := checkUnit("search.default_min_credibility", s.DefaultMinCredibility); err != nil {
		return err
	}
	if err := checkUnit("search.dense_weight", s.DenseWeight); err != nil {
		return err
	}
	if err := checkUnit("search.sparse_weight", s.SparseWeight); err != nil {
		return err
	}
	if s.DenseWeight+s.SparseWeight <= 0 {
		return fmt.Errorf("search.dense_weight + search.sparse_weight must be positive")
	}
	if s.DenseTimeout <= 0 || s.SparseTimeout <= 0 {
		return fmt.Errorf("search.dense_timeout and search.sparse_timeout must be positive")
	}
	switch strings.ToLower(s.SparseBackend) {
	case "sqlite", "bleve":
	default:
		return fmt.Errorf("search.sparse_backend must be 'sqlite' or 'bleve', got %s", s.SparseBackend)
	}

	if c.Rerank.TopK < 1 || c.Rerank.TopK > MaxRerankTopK {
		return fmt.Errorf("rerank.top_k must be between 1 and %d, got %d", MaxRerankTopK, c.Rerank.TopK)
	}
	if c.Rerank.Timeout <= 0 {
		return fmt.Errorf("rerank.timeout must be positive")
	}
	if c.Rerank.Enabled && c.Rerank.Endpoint == "" {
		return fmt.Errorf("rerank.endpoint is required when rerank.enabled is true")
	}

	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "badger":
	default:
		return fmt.Errorf("cache.backend must be 'memory' or 'badger', got %s", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive, got %d", c.Cache.Capacity)
	}
	if c.Cache.Shards < 1 || c.Cache.Shards > 256 {
		return fmt.Errorf("cache.shards must be between 1 and 256, got %d", c.Cache.Shards)
	}

	conf := c.Confidence
	for name, v := range map[string]float64{
		"confidence.single_retriever_penalty": conf.SingleRetrieverPenalty,
		"confidence.no_rerank_penalty":        conf.NoRerankPenalty,
		"confidence.short_result_penalty":     conf.ShortResultPenalty,
		"confidence.high_threshold":           conf.HighThreshold,
		"confidence.medium_threshold":         conf.MediumThreshold,
	} {
		if err := checkUnit(name, v); err != nil {
			return err
		}
	}
	if conf.MediumThreshold > conf.HighThreshold {
		return fmt.Errorf("confidence.medium_threshold (%.2f) must not exceed confidence.high_threshold (%.2f)",
			conf.MediumThreshold, conf.HighThreshold)
	}

	if c.Web.RatePerMinute <= 0 {
		return fmt.Errorf("web.rate_per_minute must be positive, got %d", c.Web.RatePerMinute)
	}

	switch strings.ToLower(c.Citations.Style) {
	case "apa", "mla", "chicago":
	default:
		return fmt.Errorf("citations.style must be 'apa', 'mla', or 'chicago', got %s", c.Citations.Style)
	}
	if c.Citations.Max < 1 {
		return fmt.Errorf("citations.max must be at least 1, got %d", c.Citations.Max)
	}

	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings.dimensions must be positive, got %d", c.Embeddings.Dimensions)
	}

	if err := checkUnit("breaker.failure_ratio", c.Breaker.FailureRatio); err != nil {
		return err
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	return nil
}

func checkUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %f", name, v)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	out := *c
	out.Web.APIKey = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
