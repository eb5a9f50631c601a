package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
	if cfg.RenderTimeout != 30*time.Second {
		t.Errorf("RenderTimeout = %v, want 30s", cfg.RenderTimeout)
	}
	if cfg.MaxDescriptionBytes != 1<<20 {
		t.Errorf("MaxDescriptionBytes = %d, want 1 MiB", cfg.MaxDescriptionBytes)
	}
	if cfg.Cache.Backend != CacheNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, `
output_dir = "/srv/graphs"
allowed_root = "/srv"
render_timeout = "5s"
max_description_bytes = 2048
log_level = "debug"

[cache]
backend = "redis"
ttl = "1h"
redis_addr = "cache:6379"
prefix = "graphcp:prod:"

[http]
addr = ":8080"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.OutputDir != "/srv/graphs" || cfg.AllowedRoot != "/srv" {
		t.Errorf("dirs = %q, %q", cfg.OutputDir, cfg.AllowedRoot)
	}
	if cfg.RenderTimeout != 5*time.Second {
		t.Errorf("RenderTimeout = %v, want 5s", cfg.RenderTimeout)
	}
	if cfg.MaxDescriptionBytes != 2048 {
		t.Errorf("MaxDescriptionBytes = %d, want 2048", cfg.MaxDescriptionBytes)
	}
	if cfg.Level() != log.DebugLevel {
		t.Errorf("Level() = %v, want debug", cfg.Level())
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.Prefix != "graphcp:prod:" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.RenderTimeout != Default().RenderTimeout {
		t.Errorf("RenderTimeout = %v, want default", cfg.RenderTimeout)
	}
}

func TestLoadDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`log_level = "warn"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Level() != log.WarnLevel {
		t.Errorf("Level() = %v, want warn", cfg.Level())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() with missing explicit path should fail")
	}
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", `colour = "blue"`, "unknown keys: colour"},
		{"unknown cache backend", "[cache]\nbackend = \"memcached\"", "Backend"},
		{"zero timeout", `render_timeout = "0s"`, "RenderTimeout"},
		{"negative size", `max_description_bytes = -1`, "MaxDescriptionBytes"},
		{"bad log level", `log_level = "loud"`, "LogLevel"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\nredis_addr = \"\"", "RedisAddr"},
		{"malformed", `output_dir = `, "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := writeConfig(t, `output_dir = "/from/file"`)

	t.Setenv("GRAPHCP_OUTPUT_DIR", "/from/env")
	t.Setenv("GRAPHCP_RENDER_TIMEOUT", "2m")
	t.Setenv("GRAPHCP_MAX_DESCRIPTION_BYTES", "4096")
	t.Setenv("GRAPHCP_CACHE_BACKEND", "file")
	t.Setenv("GRAPHCP_HTTP_ADDR", "127.0.0.1:9000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.OutputDir != "/from/env" {
		t.Errorf("OutputDir = %q, want env value", cfg.OutputDir)
	}
	if cfg.RenderTimeout != 2*time.Minute {
		t.Errorf("RenderTimeout = %v, want 2m", cfg.RenderTimeout)
	}
	if cfg.MaxDescriptionBytes != 4096 {
		t.Errorf("MaxDescriptionBytes = %d, want 4096", cfg.MaxDescriptionBytes)
	}
	if cfg.Cache.Backend != CacheFile {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
}

func TestEnvOverrideErrors(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	tests := []struct{ key, value string }{
		{"GRAPHCP_RENDER_TIMEOUT", "soon"},
		{"GRAPHCP_CACHE_TTL", "forever"},
		{"GRAPHCP_MAX_DESCRIPTION_BYTES", "lots"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load("")
			if err == nil || !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Load() error = %v, want it to mention %s", err, tt.key)
			}
		})
	}
}

func TestCacheDir(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	cfg := Default()
	dir, err := cfg.CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join(cache, AppName) {
		t.Errorf("CacheDir() = %q, want XDG default", dir)
	}

	cfg.Cache.Dir = "/custom"
	if dir, _ := cfg.CacheDir(); dir != "/custom" {
		t.Errorf("CacheDir() = %q, want /custom", dir)
	}
}
