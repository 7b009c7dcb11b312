package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"

	"github.com/flowscape/flowscape/backend/internal/shared/paths"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Blocklist BlocklistConfig
	Engine    EngineConfig
	Window    WindowConfig
	Policy    PolicyConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"9700"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// BlocklistConfig holds ad and tracker blocklist configuration.
type BlocklistConfig struct {
	SourceURL       string        `envconfig:"BLOCKLIST_SOURCE"`
	CachePath       string        `envconfig:"BLOCKLIST_CACHE"`
	RefreshInterval time.Duration `envconfig:"BLOCKLIST_REFRESH_INTERVAL" default:"24h"`
	FetchTimeout    time.Duration `envconfig:"BLOCKLIST_FETCH_TIMEOUT" default:"30s"`
	RemoteRefresh   bool          `envconfig:"BLOCKLIST_REMOTE_REFRESH" default:"true"`
}

// EngineConfig holds rendering engine configuration.
type EngineConfig struct {
	Headless bool   `envconfig:"ENGINE_HEADLESS" default:"false"`
	BinPath  string `envconfig:"ENGINE_BIN"`
}

// WindowConfig holds the application window geometry used for fullscreen
// expansion before the shell reports its real size.
type WindowConfig struct {
	Width  int `envconfig:"WINDOW_WIDTH" default:"1440"`
	Height int `envconfig:"WINDOW_HEIGHT" default:"900"`
}

// PolicyConfig points at the optional YAML policy file.
type PolicyConfig struct {
	Path string `envconfig:"POLICY_FILE"`
}

// Policy holds operator-tunable domain policy, loaded from an optional YAML
// file. Empty lists fall back to the built-in defaults.
type Policy struct {
	// AuthDomains are identity hosts whose blocked embedded logins hand
	// off to the system browser.
	AuthDomains []string `yaml:"auth_domains"`
	// OAuthPopupDomains are identity providers whose popups open as real
	// native windows instead of being flattened.
	OAuthPopupDomains []string `yaml:"oauth_popup_domains"`
	// BlocklistSources are extra hosts-format list URLs merged on refresh.
	BlocklistSources []string `yaml:"blocklist_sources"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Blocklist.CachePath == "" {
		cfg.Blocklist.CachePath = defaultCachePath()
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "9700",
			Host: "127.0.0.1",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Blocklist: BlocklistConfig{
			CachePath:       defaultCachePath(),
			RefreshInterval: 24 * time.Hour,
			FetchTimeout:    30 * time.Second,
			RemoteRefresh:   true,
		},
		Engine: EngineConfig{
			Headless: false,
		},
		Window: WindowConfig{
			Width:  1440,
			Height: 900,
		},
	}
}

// LoadPolicy reads the YAML policy file at path. A missing file yields an
// empty policy; a malformed one returns an error so the operator notices.
func LoadPolicy(path string) (*Policy, error) {
	if path == "" {
		return &Policy{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Policy{}, nil
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return &p, nil
}

func defaultCachePath() string {
	path, err := paths.BlocklistCache()
	if err != nil {
		return filepath.Join(os.TempDir(), "flowscape-blocklist.txt")
	}
	return path
}
