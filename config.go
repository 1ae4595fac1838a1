package reportr

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config holds the full reportr configuration.
type Config struct {
	Listen      string `yaml:"listen" env:"REPORTR_LISTEN"`
	DataDir     string `yaml:"data_dir" env:"REPORTR_DATA_DIR"`
	SessionsDir string `yaml:"sessions_dir" env:"REPORTR_SESSIONS_DIR"`
	ReportsDir  string `yaml:"reports_dir" env:"REPORTR_REPORTS_DIR"`

	MaxFileMB    int `yaml:"max_file_mb" env:"REPORTR_MAX_FILE_MB"`
	MaxSessionMB int `yaml:"max_session_mb" env:"REPORTR_MAX_SESSION_MB"`
	MaxImageSide int `yaml:"max_image_side" env:"REPORTR_MAX_IMAGE_SIDE"`

	RenderSlots            int `yaml:"render_slots" env:"REPORTR_RENDER_SLOTS"`
	SessionTTLHours        int `yaml:"session_ttl_hours" env:"REPORTR_SESSION_TTL_HOURS"`
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes" env:"REPORTR_CLEANUP_INTERVAL_MINUTES"`

	// ChromeURL is the WebSocket URL of an external Chrome. Empty launches
	// a local headless Chrome.
	ChromeURL string `yaml:"chrome_url" env:"REPORTR_CHROME_URL"`
	// LogoPath points at the company logo placed on the cover and running
	// header. Empty or missing renders a text fallback.
	LogoPath string `yaml:"logo_path" env:"REPORTR_LOGO_PATH"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:                 ":8080",
		DataDir:                "data",
		MaxFileMB:              15,
		MaxSessionMB:           300,
		MaxImageSide:           1200,
		RenderSlots:            3,
		SessionTTLHours:        24,
		CleanupIntervalMinutes: 30,
	}
}

// LoadConfig reads a YAML config file over DefaultConfig, then applies
// REPORTR_* environment overrides on top. An empty path skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DataDir == "" && (c.SessionsDir == "" || c.ReportsDir == "") {
		return fmt.Errorf("data_dir is required (or set sessions_dir and reports_dir)")
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.MaxSessionMB < c.MaxFileMB {
		return fmt.Errorf("max_session_mb must be >= max_file_mb")
	}
	if c.MaxImageSide <= 0 {
		return fmt.Errorf("max_image_side must be > 0")
	}
	if c.RenderSlots <= 0 {
		return fmt.Errorf("render_slots must be > 0")
	}
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("session_ttl_hours must be > 0")
	}
	if c.CleanupIntervalMinutes <= 0 {
		return fmt.Errorf("cleanup_interval_minutes must be > 0")
	}
	return nil
}

// SessionsRoot resolves the sessions directory, defaulting under DataDir.
func (c *Config) SessionsRoot() string {
	if c.SessionsDir != "" {
		return c.SessionsDir
	}
	return c.DataDir + "/report_sessions"
}

// ReportsRoot resolves the artifacts directory, defaulting under DataDir.
func (c *Config) ReportsRoot() string {
	if c.ReportsDir != "" {
		return c.ReportsDir
	}
	return c.DataDir + "/generated_reports"
}

// MaxFileBytes returns the per-image ceiling in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

// MaxSessionBytes returns the per-session image budget in bytes.
func (c *Config) MaxSessionBytes() int64 { return int64(c.MaxSessionMB) * 1024 * 1024 }

// SessionTTL returns the incomplete-session retention window.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// CleanupInterval returns the sweep cadence.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinutes) * time.Minute
}
