package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

// Stats summarizes one run.
type Stats struct {
	Streamed   int64         `json:"streamed"`
	Failed     int64         `json:"failed"`
	Rows       int64         `json:"rows"`
	Batches    int64         `json:"batches"`
	Mismatched int64         `json:"mismatched"`
	Skipped    int64         `json:"skipped"`
	Elapsed    time.Duration `json:"elapsed"`
}

// FailedRow is a row the warehouse rejected. Line is the 1-based data row number.
type FailedRow struct {
	Line   int64
	Row    csvrow.Row
	Reason string
}

// FailureFunc receives every rejected row.
type FailureFunc func(ctx context.Context, failed FailedRow)

// Streamer sends rows from an iterator to one table.
type Streamer struct {
	ins       warehouse.Inserter
	opts      Options
	onFailure FailureFunc
}

// Option configures a Streamer.
type Option func(*Streamer)

// WithFailureFunc registers fn to be called for every rejected row.
func WithFailureFunc(fn FailureFunc) Option {
	return func(s *Streamer) { s.onFailure = fn }
}

// NewStreamer returns a Streamer writing through ins.
func NewStreamer(ins warehouse.Inserter, opts Options, options ...Option) *Streamer {
	s := &Streamer{ins: ins, opts: opts.withDefaults()}
	for _, o := range options {
		o(s)
	}
	return s
}

// Options returns the effective options.
func (s *Streamer) Options() Options {
	return s.opts
}

// StreamFile opens path and streams it into table.
func (s *Streamer) StreamFile(ctx context.Context, table warehouse.TableRef, path string, copts csvrow.Options) (Stats, error) {
	it := csvrow.Open(path, copts)
	defer it.Close()

	return s.Stream(ctx, table, it)
}

// Stream checks that table exists and then drains it into the warehouse.
// Rejected rows are counted in Stats, not returned as errors. The returned
// error is set only when the run could not complete (missing table,
// unreadable input or a canceled context).
func (s *Streamer) Stream(ctx context.Context, table warehouse.TableRef, it *csvrow.Iterator) (Stats, error) {
	if err := s.ins.Exists(ctx, table); err != nil {
		if errors.Is(err, warehouse.ErrTableNotFound) {
			slog.ErrorContext(ctx, "table not found, make sure it exists and its schema matches the CSV headers",
				"table", table.String(), "error", err)
		}
		return Stats{}, err
	}

	slog.InfoContext(ctx, "streaming started", "table", table.String(), "mode", s.opts.Mode)

	r := &run{Streamer: s, table: table, start: time.Now()}

	var err error
	switch s.opts.Mode {
	case ModeRow:
		err = r.rows(ctx, it)
	case ModeAsync:
		err = r.async(ctx, it)
	default:
		err = r.batches(ctx, it)
	}

	stats := r.stats(it)
	slog.InfoContext(ctx, "streaming summary",
		"table", table.String(),
		"mode", s.opts.Mode,
		"streamed", stats.Streamed,
		"failed", stats.Failed,
		"batches", stats.Batches,
		"mismatched", stats.Mismatched,
		"elapsed_seconds", fmt.Sprintf("%.2f", stats.Elapsed.Seconds()),
	)

	return stats, err
}

type run struct {
	*Streamer
	table warehouse.TableRef
	start time.Time

	streamed   atomic.Int64
	failed     atomic.Int64
	rowsSeen   atomic.Int64
	batchCount atomic.Int64
}

func (r *run) stats(it *csvrow.Iterator) Stats {
	return Stats{
		Streamed:   r.streamed.Load(),
		Failed:     r.failed.Load(),
		Rows:       r.rowsSeen.Load(),
		Batches:    r.batchCount.Load(),
		Mismatched: it.Mismatched(),
		Skipped:    it.Skipped(),
		Elapsed:    time.Since(r.start),
	}
}

// insert sends rows whose first element is data row firstLine.
func (r *run) insert(ctx context.Context, firstLine int64, rows []csvrow.Row) {
	r.batchCount.Add(1)

	rowErrs, err := r.ins.Insert(ctx, r.table, rows)
	if err != nil {
		slog.ErrorContext(ctx, "insert call failed", "table", r.table.String(),
			"first_row", firstLine, "rows", len(rows), "error", err)
		r.failed.Add(int64(len(rows)))
		for i, row := range rows {
			r.reject(ctx, firstLine+int64(i), row, err.Error())
		}
		return
	}

	if len(rowErrs) == 0 {
		r.streamed.Add(int64(len(rows)))
		slog.InfoContext(ctx, "rows inserted", "table", r.table.String(), "rows", len(rows))
		return
	}

	slog.WarnContext(ctx, "encountered errors while inserting rows", "table", r.table.String(),
		"first_row", firstLine, "rows", len(rows), "errors", rowErrs)

	rejected := 0
	for _, re := range rowErrs {
		if re.Index < 0 || re.Index >= len(rows) {
			continue
		}
		rejected++
		r.reject(ctx, firstLine+int64(re.Index), rows[re.Index], re.Reason)
	}
	r.failed.Add(int64(rejected))
	r.streamed.Add(int64(len(rows) - rejected))
}

func (r *run) reject(ctx context.Context, line int64, row csvrow.Row, reason string) {
	if r.onFailure != nil {
		r.onFailure(ctx, FailedRow{Line: line, Row: row, Reason: reason})
	}
}

func (r *run) progress(ctx context.Context, n int64) {
	if n%int64(r.opts.ProgressEvery) == 0 {
		slog.InfoContext(ctx, "streaming progress", "table", r.table.String(), "rows", n,
			"elapsed_seconds", fmt.Sprintf("%.2f", time.Since(r.start).Seconds()))
	}
}

func (r *run) batches(ctx context.Context, it *csvrow.Iterator) error {
	buf := make([]csvrow.Row, 0, r.opts.BatchSize)
	first := int64(1)

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		buf = append(buf, it.Row())
		n := r.rowsSeen.Add(1)

		if len(buf) == r.opts.BatchSize {
			r.insert(ctx, first, buf)
			buf = make([]csvrow.Row, 0, r.opts.BatchSize)
			first = n + 1
		}
	}

	if len(buf) > 0 {
		r.insert(ctx, first, buf)
	}

	return it.Err()
}

func (r *run) rows(ctx context.Context, it *csvrow.Iterator) error {
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := r.rowsSeen.Add(1)
		r.insert(ctx, n, []csvrow.Row{it.Row()})
		r.progress(ctx, n)
	}

	return it.Err()
}

func (r *run) async(ctx context.Context, it *csvrow.Iterator) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := pkgroutine.NewManager(r.opts.Workers)

	rows := csvrow.Stream(ctx, it, r.opts.Workers)

	var readErr error
	for res := range rows {
		if res.Err != nil {
			readErr = res.Err
			// the producer still closes it; wait for that before the caller touches it
			for range rows {
			}
			break
		}

		n := r.rowsSeen.Add(1)
		row := res.Row
		pool.Go(ctx, func(ctx context.Context) error {
			r.insert(ctx, n, []csvrow.Row{row})
			r.progress(ctx, n)
			return nil
		})
	}

	if err := pool.Wait(); err != nil {
		slog.ErrorContext(ctx, "async insert workers reported errors", "error", err)
	}

	if readErr != nil {
		return readErr
	}
	return ctx.Err()
}
