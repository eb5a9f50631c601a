package server

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matzehuels/graphcp/pkg/errors"
	"github.com/matzehuels/graphcp/pkg/pathguard"
	"github.com/matzehuels/graphcp/pkg/pipeline"
	"github.com/matzehuels/graphcp/pkg/render"
)

// Tool names.
const (
	ToolSetOutputLocation = "set_output_location"
	ToolGenerateDOT       = "generate_description_file"
	ToolGenerateImage     = "generate_image"
)

// SetOutputLocationInput is the input of set_output_location.
type SetOutputLocationInput struct {
	DirectoryPath string `json:"directory_path" jsonschema:"directory that receives all generated files; created if missing"`
}

// GenerateDOTInput is the input of generate_description_file.
type GenerateDOTInput struct {
	DOTContent string `json:"dot_content" jsonschema:"Graphviz DOT description, e.g. digraph G { a -> b }"`
	Filename   string `json:"filename,omitempty" jsonschema:"file name without directories; .dot is appended if missing (default output)"`
}

// GenerateImageInput is the input of generate_image. Width and Height are
// pointers so an explicit 0 can be told apart from an omitted value.
type GenerateImageInput struct {
	DOTContent string `json:"dot_content" jsonschema:"Graphviz DOT description, e.g. digraph G { a -> b }"`
	Filename   string `json:"filename,omitempty" jsonschema:"file name without directories; the format extension is appended if missing (default output)"`
	Width      *int   `json:"width,omitempty" jsonschema:"target width in pixels, 1-10000 (default 500); advisory, the layout decides the final size"`
	Height     *int   `json:"height,omitempty" jsonschema:"target height in pixels, 1-10000 (default 500); advisory, the layout decides the final size"`
	Format     string `json:"format,omitempty" jsonschema:"png, svg or pdf (default png)"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolSetOutputLocation,
		Description: "Set the directory where generated DOT and image files are written",
	}, s.handleSetOutputLocation)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolGenerateDOT,
		Description: "Validate a Graphviz DOT description and save it as a .dot file in the output directory",
	}, s.handleGenerateDOT)

	sdk.AddTool(s.server, &sdk.Tool{
		Name: ToolGenerateImage,
		Description: "Render a Graphviz DOT description to a PNG, SVG or PDF file in the output directory. " +
			"Width and height are a target size: resolution is derived from them, but the graph layout decides the final pixel size.",
	}, s.handleGenerateImage)
}

func (s *Server) handleSetOutputLocation(ctx context.Context, req *sdk.CallToolRequest, args SetOutputLocationInput) (*sdk.CallToolResult, any, error) {
	done := s.track(ToolSetOutputLocation)
	root, err := s.runner.SetOutputLocation(ctx, args.DirectoryPath)
	done(err)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(pipeline.OutputLocationMessage(root)), nil, nil
}

func (s *Server) handleGenerateDOT(ctx context.Context, req *sdk.CallToolRequest, args GenerateDOTInput) (*sdk.CallToolResult, any, error) {
	done := s.track(ToolGenerateDOT)
	path, err := s.runner.EmitDescriptionFile(ctx, args.DOTContent, nameOrDefault(args.Filename))
	done(err)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(pipeline.DescriptionMessage(path)), nil, nil
}

func (s *Server) handleGenerateImage(ctx context.Context, req *sdk.CallToolRequest, args GenerateImageInput) (*sdk.CallToolResult, any, error) {
	done := s.track(ToolGenerateImage)
	res, err := s.runner.EmitRenderedImage(ctx, pipeline.ImageRequest{
		Description: args.DOTContent,
		Name:        nameOrDefault(args.Filename),
		Width:       intOrDefault(args.Width, render.DefaultWidth),
		Height:      intOrDefault(args.Height, render.DefaultHeight),
		Format:      args.Format,
	})
	done(err)
	if err != nil {
		return errorResult(err), nil, nil
	}
	return textResult(res.Message()), nil, nil
}

// track logs the start and end of a tool call under a fresh request id.
func (s *Server) track(tool string) func(error) {
	logger := s.logger.With("tool", tool, "request", uuid.NewString())
	start := time.Now()
	logger.Debug("tool call")
	return func(err error) {
		if err != nil {
			logger.Debug("tool call failed", "code", errors.GetCode(err), "duration", time.Since(start))
			return
		}
		logger.Debug("tool call done", "duration", time.Since(start))
	}
}

func textResult(msg string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: msg}},
	}
}

func errorResult(err error) *sdk.CallToolResult {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf("%s: %s", code, errors.UserMessage(err))}},
	}
}

func nameOrDefault(name string) string {
	if name == "" {
		return pathguard.FallbackName
	}
	return name
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
