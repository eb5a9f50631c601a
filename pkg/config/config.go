// Package config loads graphcp settings.
//
// Settings come from three layers, later ones winning: built-in defaults,
// a TOML file, and GRAPHCP_* environment variables. Command-line flags are
// applied on top by the CLI.
//
//	output_dir = "/srv/graphs"
//	render_timeout = "10s"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/graphcp/pkg/dot"
	"github.com/matzehuels/graphcp/pkg/pipeline"
)

// AppName names the config and cache directories.
const AppName = "graphcp"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the complete runtime configuration.
type Config struct {
	// OutputDir is the initial output root. Empty selects the temp default.
	OutputDir string `toml:"output_dir"`

	// AllowedRoot, when set, confines set_output_location to this directory.
	AllowedRoot string `toml:"allowed_root"`

	RenderTimeout       time.Duration `toml:"render_timeout" validate:"gt=0"`
	MaxDescriptionBytes int           `toml:"max_description_bytes" validate:"gt=0"`
	LogLevel            string        `toml:"log_level" validate:"oneof=debug info warn error"`

	Cache CacheConfig `toml:"cache"`
	HTTP  HTTPConfig  `toml:"http"`
}

// CacheConfig selects and tunes the artifact cache.
type CacheConfig struct {
	Backend   string        `toml:"backend" validate:"oneof=file redis none"`
	Dir       string        `toml:"dir"`
	TTL       time.Duration `toml:"ttl" validate:"gte=0"`
	RedisAddr string        `toml:"redis_addr" validate:"required_if=Backend redis"`
	Prefix    string        `toml:"prefix"`
}

// HTTPConfig configures the streamable HTTP transport.
type HTTPConfig struct {
	// Addr is the listen address. Empty serves over stdio.
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RenderTimeout:       pipeline.DefaultTimeout,
		MaxDescriptionBytes: dot.DefaultMaxBytes,
		LogLevel:            "info",
		Cache: CacheConfig{
			Backend:   CacheNone,
			TTL:       pipeline.DefaultCacheTTL,
			RedisAddr: "localhost:6379",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/graphcp/config.toml, falling back
// to ~/.config/graphcp/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// DefaultCacheDir returns the cache directory using XDG standard (~/.cache/graphcp/).
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// Load reads the config file at path, applies environment overrides and
// validates the result. An empty path reads DefaultPath, which may be
// missing; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			if explicit || !stderrors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// applyEnv overrides fields from GRAPHCP_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("GRAPHCP_OUTPUT_DIR", &c.OutputDir)
	str("GRAPHCP_ALLOWED_ROOT", &c.AllowedRoot)
	str("GRAPHCP_LOG_LEVEL", &c.LogLevel)
	str("GRAPHCP_CACHE_BACKEND", &c.Cache.Backend)
	str("GRAPHCP_CACHE_DIR", &c.Cache.Dir)
	str("GRAPHCP_REDIS_ADDR", &c.Cache.RedisAddr)
	str("GRAPHCP_CACHE_PREFIX", &c.Cache.Prefix)
	str("GRAPHCP_HTTP_ADDR", &c.HTTP.Addr)

	if err := dur("GRAPHCP_RENDER_TIMEOUT", &c.RenderTimeout); err != nil {
		return err
	}
	if err := dur("GRAPHCP_CACHE_TTL", &c.Cache.TTL); err != nil {
		return err
	}
	if v, ok := lookup("GRAPHCP_MAX_DESCRIPTION_BYTES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GRAPHCP_MAX_DESCRIPTION_BYTES: %w", err)
		}
		c.MaxDescriptionBytes = n
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid config: %w", err)
	}
	fe := verrs[0]
	return fmt.Errorf("invalid config: %s=%v fails %q", fe.Namespace(), fe.Value(), fe.ActualTag())
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// CacheDir returns the configured cache directory or DefaultCacheDir.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}
