package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphcp/pkg/cache"
	"github.com/matzehuels/graphcp/pkg/dot"
	"github.com/matzehuels/graphcp/pkg/errors"
	"github.com/matzehuels/graphcp/pkg/observability"
	"github.com/matzehuels/graphcp/pkg/pathguard"
	"github.com/matzehuels/graphcp/pkg/render"
	"github.com/matzehuels/graphcp/pkg/store"
)

// Operation names used in logs.
const (
	opSetOutput   = "set_output_location"
	opDescription = "generate_description_file"
	opImage       = "generate_image"
)

// Runner executes the tool operations against one output store.
//
// The Runner holds no per-call state; the output root inside Store is the
// only shared mutable value. Multiple goroutines can use the same Runner.
type Runner struct {
	Store     *store.OutputStore
	Validator *dot.Validator
	Renderer  render.Renderer
	Cache     cache.Cache
	Keyer     cache.Keyer
	Logger    *log.Logger

	// Timeout bounds a single render. Zero selects DefaultTimeout.
	Timeout time.Duration

	// CacheTTL is the lifetime of cached artifacts.
	CacheTTL time.Duration
}

// NewRunner creates a runner with caching disabled.
// If validator is nil, one backed by renderer is used.
func NewRunner(st *store.OutputStore, validator *dot.Validator, renderer render.Renderer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if validator == nil {
		validator = dot.NewValidator(renderer, 0)
	}
	return &Runner{
		Store:     st,
		Validator: validator,
		Renderer:  renderer,
		Cache:     cache.NewNullCache(),
		Keyer:     cache.NewDefaultKeyer(),
		Logger:    logger,
		Timeout:   DefaultTimeout,
		CacheTTL:  DefaultCacheTTL,
	}
}

// WithCache enables the artifact cache. A nil keyer selects the default.
func (r *Runner) WithCache(c cache.Cache, keyer cache.Keyer) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	r.Cache = c
	r.Keyer = keyer
	return r
}

// SetOutputLocation makes dir the output root and returns its canonical path.
func (r *Runner) SetOutputLocation(ctx context.Context, dir string) (string, error) {
	root, err := r.Store.SetRoot(dir)
	if err != nil {
		return "", r.fail(opSetOutput, err, "Failed to set output directory", "directory", dir)
	}
	return root, nil
}

// EmitDescriptionFile validates description and writes it verbatim to
// <root>/<name>.dot, overwriting any existing file. It returns the path.
func (r *Runner) EmitDescriptionFile(ctx context.Context, description, name string) (string, error) {
	if err := r.validate(ctx, description); err != nil {
		return "", r.fail(opDescription, err, "Failed to validate DOT content", "name", name)
	}
	if _, err := r.Store.Ensure(); err != nil {
		return "", r.fail(opDescription, err, "Failed to create output directory", "name", name)
	}

	path, err := r.Store.Resolve(pathguard.SanitizeName(name), render.DescriptionExtension, render.DescriptionAliases...)
	if err != nil {
		return "", r.fail(opDescription, err, "Failed to resolve output path", "name", name)
	}

	err = store.WriteFileAtomic(path, []byte(description))
	observability.Render().OnWrite(ctx, "description", int64(len(description)), err)
	if err != nil {
		return "", r.fail(opDescription, errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to write DOT file"), "", "path", path)
	}

	r.Logger.Info("description file written", "path", path, "bytes", len(description))
	return path, nil
}

// EmitRenderedImage validates the request, renders it and writes the image
// to <root>/<name>.<format>. The requested size is a target: Graphviz picks
// the final pixel size from the layout and the derived DPI.
func (r *Runner) EmitRenderedImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	start := time.Now()

	if err := r.validate(ctx, req.Description); err != nil {
		return nil, r.fail(opImage, err, "Failed to validate DOT content", "name", req.Name)
	}

	dims := render.Dimensions{Width: req.Width, Height: req.Height}
	if err := dims.Validate(); err != nil {
		return nil, r.fail(opImage, err, "", "width", req.Width, "height", req.Height)
	}
	format, err := render.ParseFormat(req.Format)
	if err != nil {
		return nil, r.fail(opImage, err, "", "format", req.Format)
	}

	if _, err := r.Store.Ensure(); err != nil {
		return nil, r.fail(opImage, err, "Failed to create output directory", "name", req.Name)
	}
	path, err := r.Store.Resolve(pathguard.SanitizeName(req.Name), format.Extension())
	if err != nil {
		return nil, r.fail(opImage, err, "Failed to resolve output path", "name", req.Name)
	}

	opts := render.Options{DPI: dims.DPI()}
	tmp := store.TempPath(path)
	defer os.Remove(tmp) // no-op once renamed

	hit, err := r.produce(ctx, req.Description, format, tmp, opts)
	if err != nil {
		return nil, r.fail(opImage, err, "Failed to generate image", "path", path)
	}

	info, err := os.Stat(tmp)
	if err != nil || info.Size() == 0 {
		err = errors.New(errors.ErrCodeFileOperation, "Image file was not created successfully: %s", path).WithPaths(path, r.Store.Root())
		observability.Render().OnWrite(ctx, string(format), 0, err)
		return nil, r.fail(opImage, err, "", "path", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		err = errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to write image file").WithPaths(path, r.Store.Root())
		observability.Render().OnWrite(ctx, string(format), 0, err)
		return nil, r.fail(opImage, err, "", "path", path)
	}
	observability.Render().OnWrite(ctx, string(format), info.Size(), nil)

	res := &ImageResult{
		Path:     path,
		Format:   format,
		Width:    dims.Width,
		Height:   dims.Height,
		DPI:      opts.DPI,
		CacheHit: hit,
		Duration: time.Since(start),
	}
	r.Logger.Info("image written",
		"path", path,
		"format", format,
		"dpi", opts.DPI,
		"bytes", info.Size(),
		"cached", hit,
		"duration", res.Duration)
	return res, nil
}

// produce writes the rendered artifact to tmp, from the cache when possible.
func (r *Runner) produce(ctx context.Context, description string, format render.Format, tmp string, opts render.Options) (bool, error) {
	if _, disabled := r.Cache.(cache.NullCache); disabled {
		return false, r.renderWithTimeout(ctx, description, format, tmp, opts)
	}

	key := r.Keyer.ArtifactKey(cache.Hash([]byte(description)), cache.ArtifactKeyOpts{
		Format: string(format),
		DPI:    opts.DPI,
	})

	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		r.Logger.Warn("artifact cache lookup failed", "err", err)
	case hit && len(data) > 0:
		observability.Cache().OnCacheHit(ctx, "artifact")
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return false, errors.Wrap(errors.ErrCodeFileOperation, err, "Failed to write image file")
		}
		return true, nil
	default:
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	if err := r.renderWithTimeout(ctx, description, format, tmp, opts); err != nil {
		return false, err
	}

	if data, err := os.ReadFile(tmp); err == nil && len(data) > 0 {
		if err := r.Cache.Set(ctx, key, data, r.CacheTTL); err != nil {
			r.Logger.Warn("artifact cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return false, nil
}

func (r *Runner) renderWithTimeout(ctx context.Context, description string, format render.Format, tmp string, opts render.Options) error {
	timeout := r.timeout()
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	observability.Render().OnRenderStart(ctx, string(format))
	start := time.Now()
	err := r.Renderer.RenderToFile(rctx, description, format, tmp, opts)
	observability.Render().OnRenderComplete(ctx, string(format), time.Since(start), err)

	if err != nil {
		if rctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return errors.Wrap(errors.ErrCodeFileOperation, err, "Rendering timed out after %s", timeout)
		}
		return errors.Classify(err, errors.ErrCodeFileOperation, "Failed to generate image")
	}
	return nil
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// validate runs the validator under the render timeout, since the final
// check compiles the description with the renderer.
func (r *Runner) validate(ctx context.Context, description string) error {
	vctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	start := time.Now()
	err := r.Validator.Validate(vctx, description)
	if err != nil && vctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = errors.Wrap(errors.ErrCodeFileOperation, vctx.Err(), "DOT validation timed out after %s", r.timeout())
	}
	observability.Render().OnValidate(ctx, len(description), time.Since(start), err)
	return err
}

// fail classifies err with ErrCodeFileOperation when it has no code yet and
// logs it with the operation name and the offending values.
func (r *Runner) fail(op string, err error, fallback string, keyvals ...any) error {
	if fallback == "" {
		fallback = "Operation failed"
	}
	err = errors.Classify(err, errors.ErrCodeFileOperation, "%s", fallback)
	keyvals = append(keyvals, "code", errors.GetCode(err), "err", err)
	r.Logger.Error(op+" failed", keyvals...)
	return err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
