package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shandysiswandi/goweave/internal/app"
	"github.com/shandysiswandi/goweave/internal/chain"
	"github.com/shandysiswandi/goweave/internal/llm"
	"github.com/shandysiswandi/goweave/internal/ocr"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
)

func buildModel(ctx context.Context, cfg pkgconfig.Config) (llm.ChatModel, error) {
	factory, err := llm.FactoryFromConfig(cfg, app.HTTPClient(cfg))
	if err != nil {
		return nil, err
	}
	return factory.Build(ctx)
}

// runChain is the shared body of the chain commands.
func runChain(cmd *cobra.Command, opts *rootOptions, run func(ctx context.Context, cfg pkgconfig.Config, model llm.ChatModel) (string, error)) error {
	ctx, cfg, done, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	defer done()

	model, err := buildModel(ctx, cfg)
	if err != nil {
		return err
	}

	out, err := run(ctx, cfg, model)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func newTranslateCommand(opts *rootOptions) *cobra.Command {
	var from, to, image string

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate text, or the text of an image",
		Args: func(cmd *cobra.Command, args []string) error {
			if image == "" && len(args) == 0 {
				return fmt.Errorf("text or --image is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, opts, func(ctx context.Context, cfg pkgconfig.Config, model llm.ChatModel) (string, error) {
				if image == "" {
					c, err := chain.NewTranslateChain(model, from, to)
					if err != nil {
						return "", err
					}
					return c.Invoke(ctx, chain.Vars{"text": strings.Join(args, " ")})
				}

				engine, err := ocr.NewEngine(ctx, cfg)
				if err != nil {
					return "", err
				}
				svc := ocr.NewService(engine)
				defer svc.Close()

				c, err := chain.NewOCRTranslateChain(svc, model, from, to)
				if err != nil {
					return "", err
				}
				return c.Invoke(ctx, image)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", chain.DefaultFromLanguage, "Source language")
	cmd.Flags().StringVar(&to, "to", chain.DefaultToLanguage, "Target language")
	cmd.Flags().StringVar(&image, "image", "", "Translate the text found in this image instead")

	return cmd
}

func newReportCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "report <topic...>",
		Short: "Write a short report on a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, opts, func(ctx context.Context, _ pkgconfig.Config, model llm.ChatModel) (string, error) {
				return chain.NewReportChain(model).Invoke(ctx, strings.Join(args, " "))
			})
		},
	}
}

func newRespondCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "respond <text...>",
		Short: "Answer text according to its sentiment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChain(cmd, opts, func(ctx context.Context, _ pkgconfig.Config, model llm.ChatModel) (string, error) {
				return chain.NewSentimentChain(model).Invoke(ctx, strings.Join(args, " "))
			})
		},
	}
}
