package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the site configuration loaded from site.yaml.
type Config struct {
	Title       string          `yaml:"title"`
	Description string          `yaml:"description,omitempty"`
	BaseURL     string          `yaml:"base_url,omitempty"`
	Social      []Social        `yaml:"social,omitempty"`
	Sidebar     []SidebarGroup  `yaml:"sidebar"`
	Content     ContentConfig   `yaml:"content,omitempty"`
	Output      OutputConfig    `yaml:"output,omitempty"`
	Serve       ServeConfig     `yaml:"serve,omitempty"`
	LinkCheck   LinkCheckConfig `yaml:"linkcheck,omitempty"`
	History     HistoryConfig   `yaml:"history,omitempty"`
	Lint        LintConfig      `yaml:"lint,omitempty"`
}

// Social represents a social link rendered in the site header.
type Social struct {
	Icon  string `yaml:"icon"`
	Label string `yaml:"label"`
	Href  string `yaml:"href"`
}

// SidebarGroup is an ordered group of sidebar items.
type SidebarGroup struct {
	Label string        `yaml:"label"`
	Items []SidebarItem `yaml:"items"`
}

// SidebarItem links a label to a content slug.
// An empty label means "use the page title".
type SidebarItem struct {
	Label string `yaml:"label,omitempty"`
	Slug  string `yaml:"slug"`
}

// ContentConfig describes where content pages live.
type ContentConfig struct {
	Dir string `yaml:"dir,omitempty"` // defaults to "content"
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory,omitempty"`
	Clean     bool   `yaml:"clean,omitempty"` // Clean output directory before build
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Port            int    `yaml:"port,omitempty"`
	LiveReload      *bool  `yaml:"live_reload,omitempty"` // nil means enabled
	Metrics         bool   `yaml:"metrics,omitempty"`
	RebuildInterval string `yaml:"rebuild_interval,omitempty"` // empty disables scheduled rebuilds
	Debounce        string `yaml:"debounce,omitempty"`
}

// LinkCheckConfig configures external link verification.
type LinkCheckConfig struct {
	Enabled          bool   `yaml:"enabled,omitempty"`
	MaxConcurrent    int    `yaml:"max_concurrent,omitempty"`
	RequestTimeout   string `yaml:"request_timeout,omitempty"`
	RateLimitDelay   string `yaml:"rate_limit_delay,omitempty"`
	FollowRedirects  bool   `yaml:"follow_redirects,omitempty"`
	MaxRedirects     int    `yaml:"max_redirects,omitempty"`
	NATSURL          string `yaml:"nats_url,omitempty"` // empty means in-memory cache, no event publishing
	Subject          string `yaml:"subject,omitempty"`
	KVBucket         string `yaml:"kv_bucket,omitempty"`
	CacheTTL         string `yaml:"cache_ttl,omitempty"`
	CacheTTLFailures string `yaml:"cache_ttl_failures,omitempty"`
}

// HistoryConfig configures the build history store.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite file; defaults to .ardoc/history.db
}

// LintConfig carries lint-related site settings.
type LintConfig struct {
	RequireUID bool `yaml:"require_uid,omitempty"`
}

// LiveReloadEnabled reports whether livereload should be active.
func (s ServeConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// DebounceDuration parses the configured debounce, falling back to 500ms.
func (s ServeConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// RebuildIntervalDuration parses the scheduled rebuild interval.
// Zero means scheduled rebuilds are disabled.
func (s ServeConfig) RebuildIntervalDuration() time.Duration {
	if s.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(s.RebuildInterval)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// Load loads configuration from the specified file.
//
// Environment variables referenced as ${VAR} in the YAML are expanded; a .env
// file next to the working directory is loaded first when present.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- path supplied by the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Documentation"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "content"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
		c.Output.Clean = true
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 1414
	}
	if c.Serve.Debounce == "" {
		c.Serve.Debounce = "500ms"
	}
	if c.History.Path == "" {
		c.History.Path = ".ardoc/history.db"
	}
	lc := &c.LinkCheck
	if lc.MaxConcurrent <= 0 {
		lc.MaxConcurrent = 10
	}
	if lc.RequestTimeout == "" {
		lc.RequestTimeout = "10s"
	}
	if lc.RateLimitDelay == "" {
		lc.RateLimitDelay = "100ms"
	}
	if lc.MaxRedirects == 0 {
		lc.MaxRedirects = 5
	}
	if lc.Subject == "" {
		lc.Subject = "ardoc.links.broken"
	}
	if lc.KVBucket == "" {
		lc.KVBucket = "ardoc-link-cache"
	}
	if lc.CacheTTL == "" {
		lc.CacheTTL = "24h"
	}
	if lc.CacheTTLFailures == "" {
		lc.CacheTTLFailures = "1h"
	}
}
