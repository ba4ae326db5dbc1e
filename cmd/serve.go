package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oncallzero/triage-cli/internal/notify"
	"github.com/oncallzero/triage-cli/internal/observability"
)

// newServeCmd creates the `serve` command running the notification API.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the notification API",
		Long: `Starts the notification API, which receives post-analysis
notifications, logs them, and echoes an acknowledgment. The server is
stateless; stop it with an interrupt signal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			server := notify.NewServer(cfg.Notify(), logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx)
			})
			return g.Wait()
		},
	}
}
