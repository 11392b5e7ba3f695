package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/ingest"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

func newIngestCommand(opts *rootOptions) *cobra.Command {
	var (
		table     string
		mode      string
		batchSize int
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <file.csv>",
		Short: "Stream a CSV file into a warehouse table",
		Long: `Stream every row of a CSV file into a warehouse table.

The table must already exist with columns matching the CSV headers, unless
warehouse.auto_create is set for a SQL or document backend. Rows the
warehouse rejects are logged and counted; they never stop the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := warehouse.ParseTableRef(table)
			if err != nil {
				return err
			}

			ctx, cfg, done, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			iopts, err := ingest.OptionsFromConfig(cfg)
			if err != nil {
				return err
			}
			if mode != "" {
				if iopts.Mode, err = ingest.ParseMode(mode); err != nil {
					return err
				}
			}
			if batchSize > 0 {
				iopts.BatchSize = batchSize
			}

			ids, err := pkguid.NewSnowflake()
			if err != nil {
				return err
			}

			var ins warehouse.Inserter
			if dryRun {
				ins = warehouse.NewMemory(true)
			} else if ins, err = warehouse.Open(ctx, cfg, ids); err != nil {
				return err
			}
			defer ins.Close()

			stats, err := ingest.NewStreamer(ins, iopts).StreamFile(ctx, ref, args[0], csvrow.Options{
				Strict:    cfg.GetBool("ingest.strict"),
				TrimSpace: cfg.GetBool("ingest.trim_space"),
			})
			if err != nil {
				if errors.Is(err, warehouse.ErrTableNotFound) {
					return fmt.Errorf("%w: create %s with columns matching the CSV headers first", err, ref)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "streamed=%d failed=%d rows=%d batches=%d mismatched=%d skipped=%d elapsed=%s\n",
				stats.Streamed, stats.Failed, stats.Rows, stats.Batches, stats.Mismatched, stats.Skipped, stats.Elapsed)

			return nil
		},
	}

	cmd.Flags().StringVarP(&table, "table", "t", "", "Target table as project.dataset.table or dataset.table (required)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Insert mode: batch, row or async (default: ingest.mode)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per insert call in batch mode (default: ingest.batch_size)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Stream into an in-memory warehouse instead")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}
