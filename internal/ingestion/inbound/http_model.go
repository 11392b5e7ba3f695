package inbound

import (
	"net/http"

	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
)

type CreateJobResponse struct {
	JobID string `json:"job_id"`
	Bytes int64  `json:"bytes_received"`
}

func (CreateJobResponse) StatusCode() int {
	return http.StatusAccepted
}

func (CreateJobResponse) Message() string {
	return "ingestion accepted"
}

type JobResponse struct {
	JobID     string           `json:"job_id"`
	Table     string           `json:"table"`
	Mode      string           `json:"mode"`
	Status    entity.JobStatus `json:"status"`
	Error     string           `json:"error,omitempty"`
	StartedAt int64            `json:"started_at,omitempty"`
	EndedAt   int64            `json:"ended_at,omitempty"`
	Stats     entity.JobStats  `json:"stats"`
}

func toJobResponse(job entity.Job) JobResponse {
	return JobResponse{
		JobID:     job.ID,
		Table:     job.Table,
		Mode:      job.Mode,
		Status:    job.Status,
		Error:     job.Err,
		StartedAt: job.StartedAt,
		EndedAt:   job.EndedAt,
		Stats:     job.Stats,
	}
}

type FailedRow struct {
	Line   int64             `json:"line"`
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"`
}

type FailuresResponse struct {
	JobID    string           `json:"job_id"`
	Status   entity.JobStatus `json:"status"`
	Failures []FailedRow      `json:"failures"`
	page     int
	pageSize int
	total    int
}

func (r FailuresResponse) Meta() map[string]any {
	return map[string]any{
		"page":      r.page,
		"page_size": r.pageSize,
		"total":     r.total,
	}
}
