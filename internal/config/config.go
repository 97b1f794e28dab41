package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitalscope/vitalscope/vitals"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultHTTPPort    = 8077
	DefaultRunInterval = 30 * time.Second
	DefaultSettleDelay = 3 * time.Second
)

// Config is the top-level vitalscope configuration. Fields map 1:1 to
// config.example.yaml.
type Config struct {
	Tracker    TrackerConfig   `yaml:"tracker"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
	Provider   ProviderConfig  `yaml:"provider"`
	Server     ServerConfig    `yaml:"server"`
	Webhooks   []WebhookConfig `yaml:"webhooks"`
}

// TrackerConfig gates the tracker stages and tunes collector timing.
// The stage flags default to true; defaults() prefills them before the
// YAML is unmarshalled so absent keys keep the documented defaults.
type TrackerConfig struct {
	// Metrics runs the aggregation cycle.
	Metrics bool `yaml:"metrics"`

	// Alerts evaluates thresholds after aggregation.
	Alerts bool `yaml:"alerts"`

	// Gamification computes and logs the score and feedback tier.
	Gamification bool `yaml:"gamification"`

	// InputWait bounds the first-input and interaction collectors.
	InputWait time.Duration `yaml:"input_wait"`

	// CollectorTimeout caps the collectors that would otherwise wait
	// indefinitely. 0 preserves the wait-forever behaviour.
	CollectorTimeout time.Duration `yaml:"collector_timeout"`

	// Interval is the re-aggregation period in beacon mode.
	Interval time.Duration `yaml:"interval"`
}

// ThresholdConfig holds alert ceiling overrides. A zero field is unset and
// falls back to the built-in default for that metric.
type ThresholdConfig struct {
	FCPMs    float64 `yaml:"fcp_ms"`
	LCPMs    float64 `yaml:"lcp_ms"`
	TTIMs    float64 `yaml:"tti_ms"`
	CLS      float64 `yaml:"cls"`
	FIDMs    float64 `yaml:"fid_ms"`
	INPMs    float64 `yaml:"inp_ms"`
	TTFBMs   float64 `yaml:"ttfb_ms"`
	RenderMs float64 `yaml:"component_render_ms"`
}

// Thresholds converts the set fields into a partial override map.
func (t ThresholdConfig) Thresholds() vitals.Thresholds {
	out := vitals.Thresholds{}
	set := func(m vitals.Metric, v float64) {
		if v > 0 {
			out[m] = v
		}
	}
	set(vitals.MetricFCP, t.FCPMs)
	set(vitals.MetricLCP, t.LCPMs)
	set(vitals.MetricTTI, t.TTIMs)
	set(vitals.MetricCLS, t.CLS)
	set(vitals.MetricFID, t.FIDMs)
	set(vitals.MetricINP, t.INPMs)
	set(vitals.MetricTTFB, t.TTFBMs)
	set(vitals.MetricRender, t.RenderMs)
	return out
}

// ProviderConfig selects and configures the observation source.
type ProviderConfig struct {
	// Mode is one of: beacon | chrome | promtext.
	Mode string `yaml:"mode"`

	// Chrome mode: the page URL to profile, an optional DevTools
	// WebSocket URL of an external Chrome, and the post-load settle delay.
	URL         string        `yaml:"url"`
	RemoteURL   string        `yaml:"remote_url"`
	SettleDelay time.Duration `yaml:"settle_delay"`

	// Promtext mode: the exposition endpoint to fetch.
	Endpoint string `yaml:"endpoint"`
}

// ServerConfig holds the HTTP surface: the beacon WebSocket endpoint and
// the read-only JSON API.
type ServerConfig struct {
	HTTPPort int        `yaml:"http_port"`
	Auth     AuthConfig `yaml:"auth"`
}

// AuthConfig configures API authentication.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header the key is expected in.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable holding the key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// WebhookConfig defines one alert delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Tracker: TrackerConfig{
			Metrics:      true,
			Alerts:       true,
			Gamification: true,
			InputWait:    vitals.DefaultInputWait,
			Interval:     DefaultRunInterval,
		},
		Provider: ProviderConfig{
			Mode:        "beacon",
			SettleDelay: DefaultSettleDelay,
		},
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	switch cfg.Provider.Mode {
	case "beacon":
		if cfg.Server.HTTPPort <= 0 {
			return fmt.Errorf("server.http_port must be positive in beacon mode")
		}
	case "chrome":
		if cfg.Provider.URL == "" {
			return fmt.Errorf("provider.url is required in chrome mode")
		}
	case "promtext":
		if cfg.Provider.Endpoint == "" {
			return fmt.Errorf("provider.endpoint is required in promtext mode")
		}
	default:
		return fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}

	if cfg.Tracker.InputWait <= 0 {
		return fmt.Errorf("tracker.input_wait must be positive")
	}
	if cfg.Tracker.CollectorTimeout < 0 {
		return fmt.Errorf("tracker.collector_timeout must not be negative")
	}
	if cfg.Tracker.Interval <= 0 {
		return fmt.Errorf("tracker.interval must be positive")
	}

	th := cfg.Thresholds
	for name, v := range map[string]float64{
		"fcp_ms": th.FCPMs, "lcp_ms": th.LCPMs, "tti_ms": th.TTIMs,
		"cls": th.CLS, "fid_ms": th.FIDMs, "inp_ms": th.INPMs,
		"ttfb_ms": th.TTFBMs, "component_render_ms": th.RenderMs,
	} {
		if v < 0 {
			return fmt.Errorf("thresholds.%s must not be negative", name)
		}
	}

	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("unknown auth mode %q", cfg.Server.Auth.Mode)
	}

	for i, wh := range cfg.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}
	return nil
}
