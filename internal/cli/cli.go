// Package cli implements the graphcp command-line interface.
//
// The same pipeline backs every command: serve exposes it as MCP tools, while
// dot, image and watch drive it directly from files or stdin.
//
// # Commands
//
//   - serve: run the MCP tool server over stdio or streamable HTTP
//   - dot: validate a DOT description and save it to the output directory
//   - image: render a DOT description to png, svg or pdf
//   - watch: re-render DOT files whenever they change
//   - cache: manage the rendered artifact cache
//
// # Logging
//
// Logs go to stderr so stdout stays free for the stdio transport. The level
// comes from log_level in the config file; --verbose (-v) forces debug.
// Loggers are passed through context.Context to every command.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphcp/pkg/buildinfo"
	"github.com/matzehuels/graphcp/pkg/cache"
	"github.com/matzehuels/graphcp/pkg/config"
	"github.com/matzehuels/graphcp/pkg/dot"
	"github.com/matzehuels/graphcp/pkg/pipeline"
	"github.com/matzehuels/graphcp/pkg/render"
	"github.com/matzehuels/graphcp/pkg/store"
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	outputDir  string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          buildinfo.Name,
		Short:        "graphcp renders Graphviz DOT descriptions into files",
		Long:         `graphcp validates Graphviz DOT descriptions and writes them, or images rendered from them, into a confined output directory. It runs as an MCP tool server or as a plain CLI.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/graphcp/config.toml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&c.outputDir, "output-dir", "o", "", "initial output directory (overrides output_dir)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.imageCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies flag overrides.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.outputDir != "" {
		cfg.OutputDir = c.outputDir
	}

	c.Logger.SetLevel(effectiveLevel(cfg.Level(), c.verbose))
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner wires a pipeline runner from the loaded config. The returned
// function releases the renderer and the cache.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, func(), error) {
	engine, err := render.NewEngine(ctx, c.Logger)
	if err != nil {
		return nil, nil, err
	}

	st := store.New(nil, store.Options{
		Fallback: c.Config.OutputDir,
		Sandbox:  c.Config.AllowedRoot,
		Logger:   c.Logger,
	})
	runner := pipeline.NewRunner(st, dot.NewValidator(engine, c.Config.MaxDescriptionBytes), engine, c.Logger)
	runner.Timeout = c.Config.RenderTimeout
	runner.CacheTTL = c.Config.Cache.TTL
	runner.WithCache(c.newCache(ctx))

	cleanup := func() {
		if err := runner.Close(); err != nil {
			c.Logger.Warn("close cache", "err", err)
		}
		if err := engine.Close(); err != nil {
			c.Logger.Warn("close renderer", "err", err)
		}
	}
	return runner, cleanup, nil
}

// newCache opens the configured artifact cache. Failures disable caching
// instead of failing the command.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, cache.Keyer) {
	keyer := cache.NewDefaultKeyer()
	if c.Config.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(keyer, c.Config.Cache.Prefix)
	}

	switch c.Config.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.Config.Cache.RedisAddr})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", c.Config.Cache.RedisAddr, "err", err)
			return cache.NewNullCache(), keyer
		}
		c.Logger.Debug("using redis cache", "addr", c.Config.Cache.RedisAddr)
		return rc, keyer
	case config.CacheFile:
		dir, err := c.Config.CacheDir()
		if err != nil {
			c.Logger.Warn("cache directory unavailable, caching disabled", "err", err)
			return cache.NewNullCache(), keyer
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, caching disabled", "dir", dir, "err", err)
			return cache.NewNullCache(), keyer
		}
		c.Logger.Debug("using file cache", "dir", dir)
		return fc, keyer
	default:
		return cache.NewNullCache(), keyer
	}
}
