package inbound

import (
	"context"
	"io"

	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/ingestion/usecase"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
)

type uc interface {
	CreateJob(ctx context.Context, in usecase.CreateJobInput, r io.ReadCloser) (usecase.JobResult, error)
	Job(ctx context.Context, jobID string) (entity.Job, error)
	Failures(ctx context.Context, jobID string, page, pageSize int) (usecase.FailuresResult, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/ingestions", end.CreateJob) // ?table=&mode=
	r.GET("/ingestions/:id", end.Job)
	r.GET("/ingestions/:id/failures", end.Failures) // ?page=&page_size=
}
