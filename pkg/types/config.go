package types

import (
	"fmt"
	"time"
)

// ScoringConfig holds the hybrid scorer defaults.
type ScoringConfig struct {
	// Alpha is the weight of direct embedding similarity; concept similarity
	// gets 1-Alpha (default 0.8).
	Alpha float64 `json:"alpha" yaml:"alpha" mapstructure:"alpha"`

	// MinScore drops papers scoring below it before aggregation (default 0).
	MinScore float64 `json:"min_score" yaml:"min_score" mapstructure:"min_score"`
}

// Blend returns the default blend derived from Alpha.
func (c ScoringConfig) Blend() Blend {
	return BlendFromAlpha(c.Alpha)
}

// EngineConfig holds settings for the scoring engine and its candidate fetch.
type EngineConfig struct {
	// PoolSize bounds the aggregation worker pool (default 3: papers, authors, venues).
	PoolSize int `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`

	// FetchTimeout bounds the candidate fetch. On expiry the engine scores
	// the candidates retrieved so far (default 5s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// MaxCandidates caps the papers fetched per query (default 2000).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates" mapstructure:"max_candidates"`

	// PageSize is the default page limit (default 10).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`
}

// StoreConfig holds settings for the SQLite candidate store.
type StoreConfig struct {
	// DataDir contains the database file (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// SnapshotsDir contains normalized YAML snapshots to ingest (default "snapshots").
	SnapshotsDir string `json:"snapshots_dir" yaml:"snapshots_dir" mapstructure:"snapshots_dir"`
}

// EncoderBackend identifies the query embedding service.
type EncoderBackend string

const (
	EncoderOpenAI EncoderBackend = "openai"
	EncoderOllama EncoderBackend = "ollama"
)

// EncoderConfig holds settings for the external query encoder.
type EncoderConfig struct {
	Backend EncoderBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the embedding model; it must match the model that produced
	// the stored embeddings.
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL overrides the service endpoint (OpenAI-compatible or Ollama).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MaxRetries is the number of retries on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// RateLimit is the sustained requests per second across all clients (0 disables).
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst     int     `json:"burst" yaml:"burst" mapstructure:"burst"`

	// MaxUploadBytes caps the text read from an uploaded paper (default 8000).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// Config groups all component configurations.
type Config struct {
	Scoring ScoringConfig `json:"scoring" yaml:"scoring" mapstructure:"scoring"`
	Engine  EngineConfig  `json:"engine" yaml:"engine" mapstructure:"engine"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Encoder EncoderConfig `json:"encoder" yaml:"encoder" mapstructure:"encoder"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		Scoring: ScoringConfig{Alpha: 0.8, MinScore: 0},
		Engine: EngineConfig{
			PoolSize:      3,
			FetchTimeout:  5 * time.Second,
			MaxCandidates: 2000,
			PageSize:      10,
		},
		Store: StoreConfig{DataDir: "data", SnapshotsDir: "snapshots"},
		Encoder: EncoderConfig{
			Backend:    EncoderOpenAI,
			Model:      "text-embedding-3-small",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RateLimit:      20,
			Burst:          40,
			MaxUploadBytes: 8000,
		},
	}
}

// Validate checks value ranges that cannot be defaulted.
func (c Config) Validate() error {
	if err := c.Scoring.Blend().Validate(); err != nil {
		return fmt.Errorf("scoring.alpha: %w", err)
	}
	if c.Scoring.MinScore < 0 || c.Scoring.MinScore > 1 {
		return fmt.Errorf("scoring.min_score must be in [0,1], got %g", c.Scoring.MinScore)
	}
	if c.Engine.PoolSize < 0 {
		return fmt.Errorf("engine.pool_size must not be negative, got %d", c.Engine.PoolSize)
	}
	if c.Engine.FetchTimeout < 0 {
		return fmt.Errorf("engine.fetch_timeout must not be negative, got %s", c.Engine.FetchTimeout)
	}
	switch c.Encoder.Backend {
	case EncoderOpenAI, EncoderOllama:
	default:
		return fmt.Errorf("encoder.backend %q: use openai or ollama", c.Encoder.Backend)
	}
	return nil
}
