package entity

type Job struct {
	ID        string    `json:"id"`
	Table     string    `json:"table"`
	Mode      string    `json:"mode"`
	Status    JobStatus `json:"status"`
	Err       string    `json:"err,omitempty"`
	StartedAt int64     `json:"started_at,omitempty"`
	EndedAt   int64     `json:"ended_at,omitempty"`

	Stats JobStats `json:"stats"`
}

type JobStats struct {
	Rows       int64 `json:"rows"`
	Streamed   int64 `json:"streamed"`
	Failed     int64 `json:"failed"`
	Recovered  int64 `json:"recovered"`
	Batches    int64 `json:"batches"`
	Mismatched int64 `json:"mismatched"`
	ElapsedMS  int64 `json:"elapsed_ms"`
}
