package entity

// FailedRow is a CSV row the warehouse rejected. Line counts data rows from 1.
type FailedRow struct {
	Line   int64             `json:"line"`
	Row    map[string]string `json:"row"`
	Reason string            `json:"reason"`
}

// RowFailedEvent is published on the dead-letter bus for every rejected row.
type RowFailedEvent struct {
	EventID string
	JobID   string
	Table   string
	Failure FailedRow
}
