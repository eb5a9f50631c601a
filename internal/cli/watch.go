package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var flags imageFlags

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-render DOT files whenever they change",
		Long: `Render each file once, then again every time it is saved.

Each file is written as <base name>.<format> in the output directory.
Invalid descriptions are reported and watching continues.`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeDescriptionFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, a := range args {
				if a == "-" {
					return fmt.Errorf("watch needs file paths, not stdin")
				}
			}
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			runner, cleanup, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			renderFile := func(path string) {
				desc, err := readDescription(nil, path)
				if err != nil {
					logger.Error("read failed", "file", path, "err", err)
					return
				}
				prog := newProgress(logger, "re-render")
				res, err := runner.EmitRenderedImage(ctx, flags.request(desc, nameFor("", path)))
				if err != nil {
					prog.failed(err, "file", path)
					printError("%s: %v", filepath.Base(path), err)
					return
				}
				prog.done("file", path, "cache_hit", res.CacheHit)
				printSuccess("%s", filepath.Base(path))
				printFile(res.Path)
			}

			for _, p := range args {
				renderFile(p)
			}
			printInfo("Watching %d file(s), Ctrl+C to stop", len(args))
			return watchFiles(ctx, logger, args, watchDebounce, renderFile)
		},
	}

	flags.register(cmd, false)
	return cmd
}

// watchFiles calls fn with a file's path after it changes and then stays
// quiet for the debounce window. It watches parent directories so files
// replaced by rename (as many editors save) keep being tracked. It returns
// nil when ctx ends.
func watchFiles(ctx context.Context, logger *log.Logger, files []string, debounce time.Duration, fn func(string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	tracked := make(map[string]string, len(files)) // absolute -> as given
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		tracked[abs] = f
		dir := filepath.Dir(abs)
		if !dirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			dirs[dir] = true
		}
	}

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, ok := tracked[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			logger.Debug("file changed", "file", name, "op", event.Op.String())
			pending[name] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			for name := range pending {
				fn(name)
			}
			clear(pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
