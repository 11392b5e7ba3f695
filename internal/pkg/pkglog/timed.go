package pkglog

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Timed runs fn and logs when it starts, when it finishes and how long it took.
// args are logged verbatim to identify the call.
func Timed(ctx context.Context, name string, fn func(ctx context.Context) error, args ...any) error {
	_, err := TimedValue(ctx, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, args...)
	return err
}

// TimedValue is Timed for functions that return a value.
func TimedValue[T any](ctx context.Context, name string, fn func(ctx context.Context) (T, error), args ...any) (T, error) {
	argText := fmt.Sprint(args...)
	start := time.Now()
	slog.InfoContext(ctx, "function started", "function", name, "args", argText)

	v, err := fn(ctx)

	elapsed := time.Since(start)
	attrs := []any{
		"function", name,
		"args", argText,
		"elapsed_seconds", fmt.Sprintf("%.4f", elapsed.Seconds()),
	}
	if err != nil {
		slog.WarnContext(ctx, "function finished with error", append(attrs, "error", err)...)
	} else {
		slog.InfoContext(ctx, "function finished", attrs...)
	}

	return v, err
}
