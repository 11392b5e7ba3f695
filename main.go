package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/shandysiswandi/goweave/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), cli.ShutdownSignals...)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
