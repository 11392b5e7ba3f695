package warehouse

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

// Memory keeps rows in process. Reject, when set, is consulted for every
// row and a non-empty reason marks the row as failed.
type Memory struct {
	mu         sync.Mutex
	tables     map[string][]csvrow.Row
	calls      int
	autoCreate bool

	Reject func(row csvrow.Row) string
}

var _ Inserter = (*Memory)(nil)

// NewMemory returns an empty warehouse holding the given tables.
func NewMemory(autoCreate bool, tables ...TableRef) *Memory {
	m := &Memory{tables: make(map[string][]csvrow.Row), autoCreate: autoCreate}
	for _, t := range tables {
		m.tables[t.String()] = nil
	}
	return m
}

// Exists reports whether the table was registered.
func (m *Memory) Exists(_ context.Context, ref TableRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tables[ref.String()]; ok {
		return nil
	}
	if m.autoCreate {
		m.tables[ref.String()] = nil
		return nil
	}
	return fmt.Errorf("%s: %w", ref, ErrTableNotFound)
}

// Insert appends accepted rows.
func (m *Memory) Insert(ctx context.Context, ref TableRef, rows []csvrow.Row) ([]RowError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++

	if _, ok := m.tables[ref.String()]; !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrTableNotFound)
	}

	var rowErrs []RowError
	for i, row := range rows {
		if m.Reject != nil {
			if reason := m.Reject(row); reason != "" {
				rowErrs = append(rowErrs, RowError{Index: i, Reason: reason})
				continue
			}
		}
		m.tables[ref.String()] = append(m.tables[ref.String()], maps.Clone(row))
	}

	return rowErrs, nil
}

// Rows returns a copy of what the table holds.
func (m *Memory) Rows(ref TableRef) []csvrow.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]csvrow.Row(nil), m.tables[ref.String()]...)
}

// Calls returns how many Insert calls were made.
func (m *Memory) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// Close is a no-op.
func (m *Memory) Close() error {
	return nil
}
