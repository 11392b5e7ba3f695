package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/goweave/internal/ocr"
)

func newOCRCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ocr <image>",
		Short: "Print the text found in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cfg, done, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer done()

			engine, err := ocr.NewEngine(ctx, cfg)
			if err != nil {
				return err
			}
			svc := ocr.NewService(engine)
			defer svc.Close()

			text, err := svc.ExtractText(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}
