package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphcp/pkg/pathguard"
	"github.com/matzehuels/graphcp/pkg/pipeline"
	"github.com/matzehuels/graphcp/pkg/render"
)

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "dot <file|->",
		Short: "Validate a DOT description and save it to the output directory",
		Example: `  graphcp dot deps.dot
  echo 'digraph { a -> b }' | graphcp dot - --name ab`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDescriptionFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			desc, err := readDescription(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			runner, cleanup, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			path, err := runner.EmitDescriptionFile(ctx, desc, nameFor(name, args[0]))
			if err != nil {
				return err
			}
			printSuccess("DOT file created")
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "output file name (default: input base name)")
	return cmd
}

// imageFlags are the render options shared by image and watch.
type imageFlags struct {
	name   string
	width  int
	height int
	format string
}

func (f *imageFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVarP(&f.name, "name", "n", "", "output file name (default: input base name)")
	}
	cmd.Flags().IntVar(&f.width, "width", render.DefaultWidth, "target width in pixels (1-10000)")
	cmd.Flags().IntVar(&f.height, "height", render.DefaultHeight, "target height in pixels (1-10000)")
	cmd.Flags().StringVarP(&f.format, "format", "f", string(render.DefaultFormat), "output format: png, svg or pdf")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func (f *imageFlags) request(description, name string) pipeline.ImageRequest {
	return pipeline.ImageRequest{
		Description: description,
		Name:        name,
		Width:       f.width,
		Height:      f.height,
		Format:      f.format,
	}
}

// imageCommand creates the image command.
func (c *CLI) imageCommand() *cobra.Command {
	var flags imageFlags

	cmd := &cobra.Command{
		Use:   "image <file|->",
		Short: "Render a DOT description to png, svg or pdf",
		Long: `Render a DOT description to png, svg or pdf in the output directory.

Width and height are a target: they set the rendering resolution, but the
graph layout decides the final pixel size.`,
		Example: `  graphcp image deps.dot
  graphcp image deps.dot --format svg --width 1200 --height 800`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeDescriptionFiles,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			desc, err := readDescription(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			runner, cleanup, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			prog := newProgress(loggerFromContext(ctx), "render")
			res, err := runner.EmitRenderedImage(ctx, flags.request(desc, nameFor(flags.name, args[0])))
			if err != nil {
				prog.failed(err, "input", args[0])
				return err
			}
			prog.done("file", filepath.Base(res.Path), "cache_hit", res.CacheHit)

			printSuccess("%s file created", strings.ToUpper(string(res.Format)))
			printFile(res.Path)
			printStats(res)
			return nil
		},
	}

	flags.register(cmd, true)
	return cmd
}

// readDescription reads a DOT description from a file, or from r when
// arg is "-".
func readDescription(r io.Reader, arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", arg, err)
	}
	return string(data), nil
}

// nameFor returns name, or the input's base name without extension.
func nameFor(name, input string) string {
	if name != "" {
		return name
	}
	if input == "-" {
		return pathguard.FallbackName
	}
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
