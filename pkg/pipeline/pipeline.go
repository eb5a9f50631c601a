// Package pipeline turns DOT descriptions into files in the output root.
//
// A [Runner] implements the three tool operations shared by the MCP server
// and the CLI:
//
//  1. SetOutputLocation: replace the output root
//  2. EmitDescriptionFile: validate and write a .dot file
//  3. EmitRenderedImage: validate, render and write a png/svg/pdf image
//
// Every returned error carries a code from pkg/errors. Files are written to
// a temp sibling and renamed into place, so a failed call leaves any
// previous file at the target path untouched.
//
// # Usage
//
//	runner := pipeline.NewRunner(st, validator, engine, logger)
//	res, err := runner.EmitRenderedImage(ctx, pipeline.ImageRequest{
//	    Description: "digraph { a -> b }",
//	    Name:        "deps",
//	})
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/graphcp/pkg/render"
)

const (
	// DefaultTimeout bounds a single render.
	DefaultTimeout = 30 * time.Second

	// DefaultCacheTTL is the lifetime of a cached artifact.
	DefaultCacheTTL = 24 * time.Hour
)

// ImageRequest describes one EmitRenderedImage call. An empty Name becomes
// "output" and an empty Format becomes png. Width and Height are required.
type ImageRequest struct {
	Description string
	Name        string
	Width       int
	Height      int
	Format      string
}

// ImageResult describes a written image.
type ImageResult struct {
	Path   string
	Format render.Format

	// Width and Height are the requested dimensions, not the measured ones.
	Width  int
	Height int
	DPI    float64

	// CacheHit reports whether the bytes came from the artifact cache.
	CacheHit bool
	Duration time.Duration
}

// Message is the confirmation returned to tool callers.
func (r *ImageResult) Message() string {
	return fmt.Sprintf("%s file successfully created: %s (%dx%d target size)",
		strings.ToUpper(string(r.Format)), r.Path, r.Width, r.Height)
}

// DescriptionMessage is the confirmation for EmitDescriptionFile.
func DescriptionMessage(path string) string {
	return "DOT file successfully created: " + path
}

// OutputLocationMessage is the confirmation for SetOutputLocation.
func OutputLocationMessage(dir string) string {
	return "Output directory successfully set to: " + dir
}
