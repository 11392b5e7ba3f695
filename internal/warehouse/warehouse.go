package warehouse

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

// ErrTableNotFound is returned by Exists when the target table is missing.
var ErrTableNotFound = errors.New("table not found")

// TableRef identifies a table. Project is optional for backends that have no
// notion of one (or default to the client's project).
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

// ParseTableRef accepts "project.dataset.table" or "dataset.table".
func ParseTableRef(s string) (TableRef, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")

	var ref TableRef
	switch len(parts) {
	case 2:
		ref = TableRef{Dataset: parts[0], Table: parts[1]}
	case 3:
		ref = TableRef{Project: parts[0], Dataset: parts[1], Table: parts[2]}
	default:
		return TableRef{}, fmt.Errorf("invalid table id %q: want dataset.table or project.dataset.table", s)
	}

	for _, p := range []string{ref.Dataset, ref.Table} {
		if !identRe.MatchString(p) {
			return TableRef{}, fmt.Errorf("invalid table id %q: bad identifier %q", s, p)
		}
	}

	return ref, nil
}

// String renders the reference in dotted form.
func (t TableRef) String() string {
	if t.Project == "" {
		return t.Dataset + "." + t.Table
	}
	return t.Project + "." + t.Dataset + "." + t.Table
}

// RowError describes why one row of an insert call was rejected.
type RowError struct {
	Index    int    `json:"index"`
	InsertID string `json:"insert_id,omitempty"`
	Reason   string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// Inserter is the row-insert contract every backend implements.
type Inserter interface {
	// Exists returns ErrTableNotFound (wrapped) when the table is missing.
	Exists(ctx context.Context, table TableRef) error
	// Insert writes rows and reports rejected rows by their index in rows.
	Insert(ctx context.Context, table TableRef, rows []csvrow.Row) ([]RowError, error)
	Close() error
}

// IDGenerator produces row insert IDs.
type IDGenerator interface {
	GenerateString() string
}

func insertIDs(ids IDGenerator, n int) []string {
	out := make([]string, n)
	if ids == nil {
		return out
	}
	for i := range out {
		out[i] = ids.GenerateString()
	}
	return out
}

// sqlName flattens a reference into a single identifier for backends that
// keep every table in one namespace.
func sqlName(t TableRef) string {
	return strings.ReplaceAll(t.Dataset+"__"+t.Table, "-", "_")
}
