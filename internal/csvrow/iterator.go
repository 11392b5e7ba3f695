package csvrow

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
)

// ErrNoHeader is returned when the input has no header record.
var ErrNoHeader = errors.New("csv has no header row")

// Row is one CSV record keyed by header name.
type Row map[string]string

// Options tunes how records are paired with the header.
type Options struct {
	// Strict skips records whose field count differs from the header instead
	// of pairing up to the shorter of the two.
	Strict bool
	// TrimSpace trims leading and trailing spaces from headers and cells.
	TrimSpace bool
}

// Iterator yields rows from a single pass over a CSV input.
type Iterator struct {
	open func() (io.ReadCloser, error)
	name string
	opts Options

	rc     io.ReadCloser
	reader *csv.Reader
	header []string
	row    Row
	err    error
	done   bool

	rows       int64
	mismatched int64
	skipped    int64
}

// Open returns an Iterator over the file at path. The file is opened lazily
// on the first call to Next.
func Open(path string, opts Options) *Iterator {
	return &Iterator{
		open: func() (io.ReadCloser, error) { return os.Open(path) },
		name: path,
		opts: opts,
	}
}

// NewReaderIterator returns an Iterator over r. Close closes r when it is an
// io.Closer.
func NewReaderIterator(r io.Reader, opts Options) *Iterator {
	return &Iterator{
		open: func() (io.ReadCloser, error) {
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
		name: "reader",
		opts: opts,
	}
}

// Next advances to the next row. It returns false when the input is
// exhausted or an error occurred; the underlying file is closed by then.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}

	if it.reader == nil {
		if err := it.init(); err != nil {
			it.fail(err)
			return false
		}
	}

	for {
		record, err := it.reader.Read()
		if errors.Is(err, io.EOF) {
			it.finish()
			return false
		}
		if err != nil {
			it.fail(fmt.Errorf("read %s: %w", it.name, err))
			return false
		}

		if len(record) != len(it.header) {
			if it.opts.Strict {
				it.skipped++
				line, _ := it.reader.FieldPos(0)
				slog.Warn("skip csv record with wrong field count",
					"source", it.name, "line", line, "fields", len(record), "header_fields", len(it.header))
				continue
			}
			it.mismatched++
		}

		it.row = it.pair(record)
		it.rows++
		return true
	}
}

// Row returns the current row. It is valid until the next call to Next.
func (it *Iterator) Row() Row {
	return it.row
}

// Header returns the header record. It is nil until the first call to Next.
func (it *Iterator) Header() []string {
	return it.header
}

// Err returns the first error encountered, if any. Exhaustion is not an error.
func (it *Iterator) Err() error {
	return it.err
}

// Rows returns how many rows were yielded so far.
func (it *Iterator) Rows() int64 {
	return it.rows
}

// Mismatched returns how many yielded rows had a field count different from
// the header and were truncated to the shorter of the two.
func (it *Iterator) Mismatched() int64 {
	return it.mismatched
}

// Skipped returns how many records were dropped in strict mode.
func (it *Iterator) Skipped() int64 {
	return it.skipped
}

// Close releases the underlying file. It is safe to call more than once and
// after exhaustion.
func (it *Iterator) Close() error {
	it.done = true
	it.row = nil
	if it.rc == nil {
		return nil
	}
	err := it.rc.Close()
	it.rc = nil
	return err
}

func (it *Iterator) init() error {
	rc, err := it.open()
	if err != nil {
		return fmt.Errorf("open %s: %w", it.name, err)
	}
	it.rc = rc

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	it.reader = reader

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrNoHeader
	}
	if err != nil {
		return fmt.Errorf("read header of %s: %w", it.name, err)
	}

	it.header = slices.Clone(header)
	if it.opts.TrimSpace {
		for i := range it.header {
			it.header[i] = strings.TrimSpace(it.header[i])
		}
	}

	return nil
}

func (it *Iterator) pair(record []string) Row {
	n := min(len(record), len(it.header))
	row := make(Row, n)
	for i := 0; i < n; i++ {
		cell := record[i]
		if it.opts.TrimSpace {
			cell = strings.TrimSpace(cell)
		}
		row[it.header[i]] = cell
	}
	return row
}

func (it *Iterator) finish() {
	if it.mismatched > 0 {
		slog.Warn("csv records truncated to header length",
			"source", it.name, "rows", it.rows, "mismatched", it.mismatched)
	}
	_ = it.Close()
}

func (it *Iterator) fail(err error) {
	it.err = err
	_ = it.Close()
}
