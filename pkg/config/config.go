package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds the global application configuration. Values originate
// from built-in defaults, an optional YAML file, and command-line flags,
// applied in that order.
type AppConfig struct {
	InputCSV  string `yaml:"in_csv,omitempty"`
	OutputCSV string `yaml:"out_csv,omitempty"`
	ImagesDir string `yaml:"images_dir,omitempty"`
	EventsDir string `yaml:"events_dir,omitempty"` // organize subcommand destination root

	Timeout time.Duration `yaml:"timeout,omitempty"` // per-attempt wall-clock bound
	Retries int           `yaml:"retries,omitempty"` // total attempts per fetch, not retries-after-first

	// Format normalization targets; empty string disables a conversion.
	ConvertWebP string `yaml:"convert_webp"`
	ConvertHEIC string `yaml:"convert_heic"`
	ForceFormat string `yaml:"force_format,omitempty"` // overrides the per-class targets when set

	UserAgent string `yaml:"user_agent,omitempty"`
	Accept    string `yaml:"accept,omitempty"` // Accept header nudging servers toward raster types

	InitialRetryDelay time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay     time.Duration `yaml:"max_retry_delay,omitempty"`

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client.
type HTTPClientConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Default configuration values.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultRetries     = 3
	DefaultConvertWebP = "jpg"
	DefaultConvertHEIC = "jpg"
	DefaultImagesDir   = "./images"
	DefaultEventsDir   = "./events"
	DefaultUserAgent   = "Mozilla/5.0 (compatible; ImageFetcher/1.1)"
	DefaultAccept      = "image/avif,image/webp,image/heif,image/heic,image/apng,image/*;q=0.8,*/*;q=0.5"
)

// NewDefault returns an AppConfig populated with built-in defaults.
func NewDefault() *AppConfig {
	return &AppConfig{
		ImagesDir:         DefaultImagesDir,
		EventsDir:         DefaultEventsDir,
		Timeout:           DefaultTimeout,
		Retries:           DefaultRetries,
		ConvertWebP:       DefaultConvertWebP,
		ConvertHEIC:       DefaultConvertHEIC,
		UserAgent:         DefaultUserAgent,
		Accept:            DefaultAccept,
		InitialRetryDelay: 500 * time.Millisecond,
		MaxRetryDelay:     5 * time.Second,
	}
}

// Load reads a YAML config file over the built-in defaults. Fields absent
// from the file keep their defaults; fields present override them, so an
// explicit empty convert_webp disables WEBP conversion.
func Load(path string) (*AppConfig, error) {
	cfg := NewDefault()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
