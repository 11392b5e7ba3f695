package cli

import (
	"github.com/spf13/cobra"

	"github.com/shandysiswandi/goweave/internal/app"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	shutdown := app.DefaultShutdownTimeout

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.New(opts.configPath).Run(cmd.Context(), shutdown)
		},
	}

	cmd.Flags().DurationVar(&shutdown, "shutdown-timeout", shutdown, "Grace period for in-flight work on shutdown")

	return cmd
}
