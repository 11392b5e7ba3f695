package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

// LogHandler records dead letters without touching the warehouse.
type LogHandler struct{}

func (LogHandler) Handle(ctx context.Context, event entity.RowFailedEvent) error {
	if event.EventID == "" {
		return errors.New("missing event id")
	}

	slog.WarnContext(ctx, "row rejected by warehouse", "event_id", event.EventID, "job_id", event.JobID,
		"table", event.Table, "line", event.Failure.Line, "reason", event.Failure.Reason)
	return nil
}

// Reinserter sends the rejected row to the warehouse again.
type Reinserter struct {
	Inserter warehouse.Inserter
	// OnRecovered, when set, is called after a successful re-insert.
	OnRecovered func(ctx context.Context, event entity.RowFailedEvent)
}

func (h Reinserter) Handle(ctx context.Context, event entity.RowFailedEvent) error {
	table, err := warehouse.ParseTableRef(event.Table)
	if err != nil {
		return err
	}

	rowErrs, err := h.Inserter.Insert(ctx, table, []csvrow.Row{event.Failure.Row})
	if err != nil {
		return err
	}
	if len(rowErrs) > 0 {
		return fmt.Errorf("re-insert line %d: %w", event.Failure.Line, rowErrs[0])
	}

	slog.InfoContext(ctx, "recovered failed row", "event_id", event.EventID, "job_id", event.JobID, "line", event.Failure.Line)
	if h.OnRecovered != nil {
		h.OnRecovered(ctx, event)
	}
	return nil
}
