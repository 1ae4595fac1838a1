package reportr

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportr.yaml")
	yaml := []byte("listen: \":9000\"\ndata_dir: /var/lib/reportr\nmax_file_mb: 20\n")
	if err := os.WriteFile(path, yaml, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REPORTR_MAX_FILE_MB", "25")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("listen = %q", cfg.Listen)
	}
	if cfg.MaxFileMB != 25 {
		t.Errorf("max_file_mb = %d, env override lost", cfg.MaxFileMB)
	}
	// untouched fields keep their defaults
	if cfg.RenderSlots != 3 || cfg.SessionTTLHours != 24 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestConfigAccessors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"

	if got := cfg.MaxFileBytes(); got != 15*1024*1024 {
		t.Errorf("MaxFileBytes = %d", got)
	}
	if got := cfg.MaxSessionBytes(); got != 300*1024*1024 {
		t.Errorf("MaxSessionBytes = %d", got)
	}
	if got := cfg.SessionTTL(); got != 24*time.Hour {
		t.Errorf("SessionTTL = %v", got)
	}
	if got := cfg.CleanupInterval(); got != 30*time.Minute {
		t.Errorf("CleanupInterval = %v", got)
	}
	if got := cfg.SessionsRoot(); got != "/data/report_sessions" {
		t.Errorf("SessionsRoot = %q", got)
	}
	if got := cfg.ReportsRoot(); got != "/data/generated_reports" {
		t.Errorf("ReportsRoot = %q", got)
	}

	cfg.SessionsDir = "/custom/sessions"
	if got := cfg.SessionsRoot(); got != "/custom/sessions" {
		t.Errorf("explicit SessionsRoot = %q", got)
	}
}

func TestConfigValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Listen = "" },
		func(c *Config) { c.DataDir = "" },
		func(c *Config) { c.MaxFileMB = 0 },
		func(c *Config) { c.MaxSessionMB = c.MaxFileMB - 1 },
		func(c *Config) { c.MaxImageSide = 0 },
		func(c *Config) { c.RenderSlots = 0 },
		func(c *Config) { c.SessionTTLHours = 0 },
		func(c *Config) { c.CleanupIntervalMinutes = 0 },
	}
	for i, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
