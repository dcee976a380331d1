package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tender-search/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds 429 retries (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// DocSearchEndpoint is the card feed for the document search backend.
	DocSearchEndpoint string `json:"docsearch_endpoint" yaml:"docsearch_endpoint" mapstructure:"docsearch_endpoint"`

	// ExtendedSearchEndpoint is the card feed for the order search backend.
	ExtendedSearchEndpoint string `json:"extendedsearch_endpoint" yaml:"extendedsearch_endpoint" mapstructure:"extendedsearch_endpoint"`

	// EnableDocSearch controls whether the docSearch backend is used.
	EnableDocSearch bool `json:"enable_docsearch" yaml:"enable_docsearch" mapstructure:"enable_docsearch"`

	// EnableExtendedSearch controls whether the extendedsearch backend is used.
	EnableExtendedSearch bool `json:"enable_extendedsearch" yaml:"enable_extendedsearch" mapstructure:"enable_extendedsearch"`

	// Limit is the per-source result cap (default 50).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// Parallel runs sources concurrently instead of one after another.
	Parallel bool `json:"parallel" yaml:"parallel" mapstructure:"parallel"`
}

// Ranking profiles select a quality/speed tradeoff for the embedding model.
const (
	ModeFast     = "fast"
	ModeBalanced = "balanced"
	ModeQuality  = "quality"
)

// RankingConfig holds settings for the relevance scorer.
type RankingConfig struct {
	// Enabled turns relevance ranking on for the search command.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Threshold drops records scoring below it; 0 keeps everything.
	Threshold float64 `json:"threshold" yaml:"threshold" mapstructure:"threshold"`

	// Mode is the ranking profile: fast, balanced, or quality.
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// Model overrides the profile's model identifier.
	Model string `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`

	// AllowDownload permits models not yet present on the embedding host.
	AllowDownload bool `json:"allow_download" yaml:"allow_download" mapstructure:"allow_download"`

	// EmbeddingHost is the base URL of an OpenAI-compatible embedding API.
	EmbeddingHost string `json:"embedding_host" yaml:"embedding_host" mapstructure:"embedding_host"`

	// APIKey authenticates against the embedding host, if it needs one.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// VectorCache is the SQLite file used to cache title embeddings; empty disables it.
	VectorCache string `json:"vector_cache,omitempty" yaml:"vector_cache,omitempty" mapstructure:"vector_cache"`
}

// DeliveryConfig holds settings for e-mail delivery.
type DeliveryConfig struct {
	// Mode is "mailto" or "smtp".
	Mode string `json:"mode" yaml:"mode" mapstructure:"mode"`

	// SMTPHost and SMTPPort address the authenticated transport.
	SMTPHost string `json:"smtp_host" yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort int    `json:"smtp_port" yaml:"smtp_port" mapstructure:"smtp_port"`

	// Login and Password are never written back to disk.
	Login    string `json:"-" yaml:"-" mapstructure:"login"`
	Password string `json:"-" yaml:"-" mapstructure:"password"`

	// Timeout bounds the SMTP dial and send.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search" mapstructure:"search"`
	Ranking  RankingConfig  `json:"ranking" yaml:"ranking" mapstructure:"ranking"`
	Delivery DeliveryConfig `json:"delivery" yaml:"delivery" mapstructure:"delivery"`
}
