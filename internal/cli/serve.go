package cli

import (
	"context"
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphcp/internal/metrics"
	"github.com/matzehuels/graphcp/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server",
		Long: `Run the MCP tool server.

By default the server speaks MCP over stdin/stdout. With --http it serves
streamable HTTP at /mcp instead, next to /healthz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("http") {
				c.Config.HTTP.Addr = addr
			}
			return c.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address (e.g. :8080)")
	return cmd
}

func (c *CLI) runServe(ctx context.Context) error {
	logger := loggerFromContext(ctx)

	runner, cleanup, err := c.newRunner(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.New(reg).Install()

	srv := server.New(runner, logger)
	if c.Config.HTTP.Addr == "" {
		err := srv.ServeStdio(ctx)
		if stderrors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	return srv.ServeHTTP(ctx, c.Config.HTTP.Addr, srv.Handler(reg))
}
