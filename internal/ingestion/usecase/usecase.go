package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/ingest"
	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goweave/internal/pkg/pkglog"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

type Store interface {
	CreateJob(ctx context.Context, job entity.Job) error
	UpdateJob(ctx context.Context, jobID string, fn func(job *entity.Job)) error
	AddFailure(ctx context.Context, jobID string, failure entity.FailedRow) error
	GetJob(ctx context.Context, jobID string) (entity.Job, error)
	ListFailures(ctx context.Context, jobID string, page, pageSize int) ([]entity.FailedRow, int, entity.Job, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event entity.RowFailedEvent) error
}

var errJobNotStarted = errors.New("ingestion job was not started")

// Runner starts f in the background and reports whether it did. When it
// returns false f never runs.
type Runner interface {
	Go(ctx context.Context, f func(ctx context.Context) error) bool
}

type Clock interface {
	Now() time.Time
}

type Dependency struct {
	Store     Store
	Events    EventPublisher
	Runner    Runner
	Clock     Clock
	ID        pkguid.StringID
	RootCtx   context.Context
	Warehouse warehouse.Inserter
	Options   ingest.Options
	CSV       csvrow.Options
}

type Usecase struct {
	store     Store
	events    EventPublisher
	runner    Runner
	clock     Clock
	id        pkguid.StringID
	rootCtx   context.Context
	warehouse warehouse.Inserter
	opts      ingest.Options
	csv       csvrow.Options
}

func New(dep Dependency) *Usecase {
	root := dep.RootCtx
	if root == nil {
		root = context.Background()
	}

	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &Usecase{
		store:     dep.Store,
		events:    dep.Events,
		runner:    dep.Runner,
		clock:     clock,
		id:        dep.ID,
		rootCtx:   root,
		warehouse: dep.Warehouse,
		opts:      dep.Options,
		csv:       dep.CSV,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// CreateJob validates the target and queues a job that consumes r in the
// background. r is closed once the job finishes.
func (u *Usecase) CreateJob(ctx context.Context, in CreateJobInput, r io.ReadCloser) (JobResult, error) {
	if u.store == nil || u.id == nil || u.runner == nil || u.warehouse == nil {
		return JobResult{}, pkgerror.NewServer(errors.New("missing dependency"))
	}

	table, err := warehouse.ParseTableRef(in.Table)
	if err != nil {
		return JobResult{}, pkgerror.NewInvalidInput(err)
	}

	mode := u.opts.Mode
	if in.Mode != "" {
		if mode, err = ingest.ParseMode(in.Mode); err != nil {
			return JobResult{}, pkgerror.NewInvalidInput(err)
		}
	}
	if mode == "" {
		mode = ingest.ModeBatch
	}

	if err := u.warehouse.Exists(ctx, table); err != nil {
		if errors.Is(err, warehouse.ErrTableNotFound) {
			return JobResult{}, pkgerror.NewBusiness("table not found", pkgerror.CodeNotFound)
		}
		return JobResult{}, pkgerror.NewUnavailable(err, "warehouse unavailable")
	}

	jobID := u.id.Generate()
	if err := u.store.CreateJob(ctx, entity.Job{
		ID:     jobID,
		Table:  table.String(),
		Mode:   string(mode),
		Status: entity.JobStatusQueued,
	}); err != nil {
		return JobResult{}, normalizeErr(err)
	}

	// the job outlives the request but keeps its correlation ID
	started := u.runner.Go(pkglog.DetachContext(u.rootCtx, ctx), func(ctx context.Context) error {
		defer r.Close()

		if err := u.processJob(ctx, jobID, table, mode, r); err != nil {
			slog.ErrorContext(ctx, "ingestion job failed", "job_id", jobID, "error", err)
			return err
		}
		return nil
	})
	if !started {
		_ = r.Close()
		if err := u.store.UpdateJob(ctx, jobID, func(job *entity.Job) {
			job.Status = entity.JobStatusFailed
			job.Err = errJobNotStarted.Error()
			job.EndedAt = u.clock.Now().Unix()
		}); err != nil {
			slog.WarnContext(ctx, "failed to mark job as failed", "job_id", jobID, "error", err)
		}
		return JobResult{}, pkgerror.NewUnavailable(errJobNotStarted, "ingestion is shutting down")
	}

	return JobResult{JobID: jobID}, nil
}

func (u *Usecase) Job(ctx context.Context, jobID string) (entity.Job, error) {
	if jobID == "" {
		return entity.Job{}, pkgerror.NewInvalidInput(errors.New("job id is required"))
	}

	job, err := u.store.GetJob(ctx, jobID)
	if err != nil {
		return entity.Job{}, mapStoreErr(err)
	}

	return job, nil
}

func (u *Usecase) Failures(ctx context.Context, jobID string, page, pageSize int) (FailuresResult, error) {
	if jobID == "" {
		return FailuresResult{}, pkgerror.NewInvalidInput(errors.New("job id is required"))
	}

	if page < 1 || pageSize < 1 || page > math.MaxInt/pageSize {
		return FailuresResult{}, pkgerror.NewInvalidInput(errors.New("invalid pagination"))
	}

	failures, total, job, err := u.store.ListFailures(ctx, jobID, page, pageSize)
	if err != nil {
		return FailuresResult{}, mapStoreErr(err)
	}

	return FailuresResult{
		Job:      job,
		Failures: failures,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// RecordRecovered bumps the recovered counter of a job after the dead-letter
// consumer re-inserted one of its rows.
func (u *Usecase) RecordRecovered(ctx context.Context, event entity.RowFailedEvent) {
	if err := u.store.UpdateJob(ctx, event.JobID, func(job *entity.Job) {
		job.Stats.Recovered++
	}); err != nil {
		slog.WarnContext(ctx, "failed to record recovered row", "job_id", event.JobID, "error", err)
	}
}

func (u *Usecase) processJob(ctx context.Context, jobID string, table warehouse.TableRef, mode ingest.Mode, r io.Reader) error {
	startedAt := u.clock.Now()
	if err := u.store.UpdateJob(ctx, jobID, func(job *entity.Job) {
		job.Status = entity.JobStatusProcessing
		job.StartedAt = startedAt.Unix()
	}); err != nil {
		return err
	}

	opts := u.opts
	opts.Mode = mode
	streamer := ingest.NewStreamer(u.warehouse, opts, ingest.WithFailureFunc(func(ctx context.Context, f ingest.FailedRow) {
		u.onFailure(ctx, jobID, table, f)
	}))

	stats, err := streamer.Stream(ctx, table, csvrow.NewReaderIterator(r, u.csv))

	endedAt := u.clock.Now()
	status := entity.JobStatusDone
	errMsg := ""
	if err != nil {
		status = entity.JobStatusFailed
		errMsg = err.Error()
	}

	// record the outcome even when ctx was canceled mid-run
	if metaErr := u.store.UpdateJob(context.WithoutCancel(ctx), jobID, func(job *entity.Job) {
		job.Status = status
		job.Err = errMsg
		job.EndedAt = endedAt.Unix()
		job.Stats.Rows = stats.Rows
		job.Stats.Streamed = stats.Streamed
		job.Stats.Failed = stats.Failed
		job.Stats.Batches = stats.Batches
		job.Stats.Mismatched = stats.Mismatched
		job.Stats.ElapsedMS = endedAt.Sub(startedAt).Milliseconds()
	}); metaErr != nil {
		return metaErr
	}

	return err
}

func (u *Usecase) onFailure(ctx context.Context, jobID string, table warehouse.TableRef, f ingest.FailedRow) {
	failure := entity.FailedRow{Line: f.Line, Row: f.Row, Reason: f.Reason}

	if err := u.store.AddFailure(ctx, jobID, failure); err != nil {
		slog.WarnContext(ctx, "failed to store failed row", "job_id", jobID, "line", f.Line, "error", err)
	}

	if u.events == nil {
		return
	}

	event := entity.RowFailedEvent{
		EventID: u.id.Generate(),
		JobID:   jobID,
		Table:   table.String(),
		Failure: failure,
	}
	if err := u.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event", "job_id", jobID, "event_id", event.EventID, "error", err)
	}
}

func mapStoreErr(err error) error {
	if errors.Is(err, pkgerror.ErrNotFound) {
		return pkgerror.NewBusiness("job not found", pkgerror.CodeNotFound)
	}
	return normalizeErr(err)
}

func normalizeErr(err error) error {
	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		return perr
	}
	return pkgerror.NewServer(err)
}
