// Package cli holds the goweave command tree.
package cli

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/goweave/internal/app"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

// ShutdownSignals cancel the context of a running command, serve included.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

type rootOptions struct {
	configPath string
	timeout    time.Duration
}

// NewRootCommand builds the goweave command and its subcommands.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "goweave",
		Short: "Warehouse ingestion, OCR and LLM chains",
		Long: `goweave streams CSV files into a data warehouse, extracts text from
images and runs prompt chains against a chat model.

Run "goweave serve" for the HTTP API or use the subcommands directly.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Config file (default: ./config/config.yaml when LOCAL=true, else /config/config.yaml)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Abort the command after this long (0 = no limit)")

	root.AddCommand(
		newServeCommand(opts),
		newIngestCommand(opts),
		newOCRCommand(opts),
		newTranslateCommand(opts),
		newReportCommand(opts),
		newRespondCommand(opts),
		newDownloadCommand(opts),
		newGendataCommand(),
		newConfigCommand(opts),
	)

	return root
}

// setup loads the config and prepares logging, secrets and the proxy. The
// returned context honors --timeout; done releases it.
func (o *rootOptions) setup(cmd *cobra.Command) (context.Context, pkgconfig.Config, func(), error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	closeLog, err := app.Configure(ctx, cfg)
	if err != nil {
		_ = cfg.Close()
		return nil, nil, nil, err
	}

	cancel := func() {}
	if o.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
	}

	done := func() {
		cancel()
		_ = closeLog()
		_ = cfg.Close()
	}

	return ctx, cfg, done, nil
}
