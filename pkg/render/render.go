package render

import (
	"context"
	"strings"

	"github.com/matzehuels/graphcp/pkg/errors"
)

// Format is an output format supported by the renderer.
type Format string

// Supported output formats.
const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// DefaultFormat is used when a caller does not ask for one.
const DefaultFormat = FormatPNG

// DescriptionExtension is appended to description file names.
const DescriptionExtension = ".dot"

// DescriptionAliases are description extensions kept as-is.
var DescriptionAliases = []string{".gv"}

// Formats lists every supported image format.
var Formats = []Format{FormatPNG, FormatSVG, FormatPDF}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ParseFormat validates a caller-supplied format name.
// An empty string selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultFormat, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidParameter, "unsupported image format %q (must be 'png', 'svg' or 'pdf')", s)
}

// Options tunes a single render.
type Options struct {
	// DPI sets the Graphviz dpi attribute. Zero leaves the graph's own value.
	DPI float64
}

// Renderer is the external rendering capability.
type Renderer interface {
	// CheckOnly compiles description without producing output.
	CheckOnly(ctx context.Context, description string) error

	// RenderToFile renders description in format and writes it to path.
	RenderToFile(ctx context.Context, description string, format Format, path string, opts Options) error
}
