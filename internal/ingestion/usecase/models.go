package usecase

import "github.com/shandysiswandi/goweave/internal/ingestion/entity"

type CreateJobInput struct {
	Table string
	Mode  string
}

type JobResult struct {
	JobID string
}

type FailuresResult struct {
	Job      entity.Job
	Failures []entity.FailedRow
	Page     int
	PageSize int
	Total    int
}
