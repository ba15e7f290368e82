package types

import "time"

// HTTPConfig holds shared HTTP settings for requests to the Granola API.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with API requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// APIConfig holds settings for listing documents from the Granola API.
type APIConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the API origin (default https://api.granola.ai).
	BaseURL string `json:"base_url" yaml:"base_url"`

	// AccessToken overrides the token read from supabase.json when set.
	AccessToken string `json:"access_token,omitempty" yaml:"access_token,omitempty"`

	// PageSize is the number of documents requested per call (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Limit caps the total number of documents fetched. Zero means no cap.
	Limit int `json:"limit" yaml:"limit"`

	// RequestsPerSecond throttles consecutive page requests (default 2).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ExportConfig holds settings for the export stage.
type ExportConfig struct {
	// GranolaDir is the desktop app's data directory holding supabase.json
	// and cache-v3.json.
	GranolaDir string `json:"granola_dir" yaml:"granola_dir"`

	// OutputDir receives one Markdown file per note plus the state ledger.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Overlap is subtracted from the last export date to form the
	// incremental cutoff (default 24h).
	Overlap time.Duration `json:"overlap" yaml:"overlap"`

	// Full ignores the last export date and considers every document.
	Full bool `json:"full" yaml:"full"`

	// Force rewrites notes the ledger reports as unchanged.
	Force bool `json:"force" yaml:"force"`

	// Location is the time zone used for transcript timestamps.
	Location *time.Location `json:"-" yaml:"-"`
}
