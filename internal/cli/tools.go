package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/goweave/internal/app"
	"github.com/shandysiswandi/goweave/internal/download"
	"github.com/shandysiswandi/goweave/internal/gendata"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

func newDownloadCommand(opts *rootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "download <url...>",
		Short: "Download files concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, done, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			results, err := download.NewFromConfig(cfg, app.HTTPClient(cfg)).Fetch(ctx, args, dir)
			if err != nil {
				return err
			}

			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", r.Path, r.Bytes)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to save files in")

	return cmd
}

func newGendataCommand() *cobra.Command {
	var (
		path    string
		records int
		columns int
	)

	cmd := &cobra.Command{
		Use:   "gendata",
		Short: "Write a CSV file of random data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := gendata.Generate(path, records, columns); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "generated %s with %d records and %d columns\n", path, records, columns)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", filepath.Join("data", "large_data.csv"), "Output file")
	cmd.Flags().IntVarP(&records, "records", "n", 100000, "Number of data rows")
	cmd.Flags().IntVar(&columns, "columns", 10, "Number of columns")

	return cmd
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, done, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			out, err := pkgconfig.Dump(cfg)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
