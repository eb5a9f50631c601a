package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// Engine renders DOT with go-graphviz. Calls are serialized: the underlying
// Graphviz instance is not safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	gv     *graphviz.Graphviz
	Logger *log.Logger
}

// NewEngine initializes a Graphviz instance. Close releases it.
func NewEngine(ctx context.Context, logger *log.Logger) (*Engine, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	gv.SetLayout(graphviz.DOT)
	return &Engine{gv: gv, Logger: logger}, nil
}

// Close releases the Graphviz instance.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gv.Close()
}

// CheckOnly parses and lays out description, discarding the output.
func (e *Engine) CheckOnly(ctx context.Context, description string) error {
	return e.run(ctx, func() error {
		g, err := parse(description)
		if err != nil {
			return err
		}
		defer g.Close()

		if err := e.gv.Render(ctx, g, graphviz.XDOT, io.Discard); err != nil {
			return fmt.Errorf("layout: %w", err)
		}
		return nil
	})
}

// Render returns description rendered in format.
func (e *Engine) Render(ctx context.Context, description string, format Format, opts Options) ([]byte, error) {
	gvFormat := graphviz.Format(format)
	if format == FormatPDF {
		gvFormat = graphviz.SVG
	}

	var buf bytes.Buffer
	start := time.Now()
	err := e.run(ctx, func() error {
		g, err := parse(description)
		if err != nil {
			return err
		}
		defer g.Close()

		if opts.DPI > 0 {
			g.SetDPI(opts.DPI)
		}
		if err := e.gv.Render(ctx, g, gvFormat, &buf); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.Logger.Debug("graphviz render", "format", format, "dpi", opts.DPI, "bytes", buf.Len(), "duration", time.Since(start))

	if format == FormatPDF {
		return ToPDF(ctx, buf.Bytes())
	}
	return buf.Bytes(), nil
}

// RenderToFile renders description and writes the result to path.
func (e *Engine) RenderToFile(ctx context.Context, description string, format Format, path string, opts Options) error {
	data, err := e.Render(ctx, description, format, opts)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("render %s: empty output", format)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// run executes fn under the engine lock and returns early when ctx ends.
// An abandoned call keeps the lock until Graphviz returns.
func (e *Engine) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if ctx.Err() != nil {
			done <- ctx.Err()
			return
		}
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("graphviz: %w", ctx.Err())
	}
}

func parse(description string) (*cgraph.Graph, error) {
	g, err := graphviz.ParseBytes([]byte(description))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	if g == nil {
		return nil, fmt.Errorf("parse DOT: no graph found")
	}
	return g, nil
}

// Ensure Engine implements Renderer.
var _ Renderer = (*Engine)(nil)
