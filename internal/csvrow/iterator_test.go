package csvrow

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func TestIteratorPairsHeaderAndRows(t *testing.T) {
	path := writeCSV(t, "id,name\n101,product_a\n102,product_b\n")

	it := Open(path, Options{})
	defer it.Close()

	assert.Nil(t, it.Header(), "header must not be read before Next")

	var rows []Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []string{"id", "name"}, it.Header())
	assert.Equal(t, []Row{
		{"id": "101", "name": "product_a"},
		{"id": "102", "name": "product_b"},
	}, rows)
	assert.EqualValues(t, 2, it.Rows())
}

func TestIteratorOpensLazily(t *testing.T) {
	it := Open(filepath.Join(t.TempDir(), "missing.csv"), Options{})

	// Constructing the iterator must not touch the file system.
	assert.NoError(t, it.Err())

	assert.False(t, it.Next())
	require.Error(t, it.Err())
	assert.True(t, errors.Is(it.Err(), os.ErrNotExist))
}

func TestIteratorTruncatesMismatchedRows(t *testing.T) {
	it := NewReaderIterator(strings.NewReader("a,b,c\n1,2\n1,2,3,4\n"), Options{})
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, Row{"a": "1", "b": "2"}, it.Row())

	require.True(t, it.Next())
	assert.Equal(t, Row{"a": "1", "b": "2", "c": "3"}, it.Row())

	assert.False(t, it.Next())
	require.NoError(t, it.Err())
	assert.EqualValues(t, 2, it.Mismatched())
}

func TestIteratorStrictSkipsMismatchedRows(t *testing.T) {
	it := NewReaderIterator(strings.NewReader("a,b\n1\n3,4\n5,6,7\n"), Options{Strict: true})
	defer it.Close()

	var rows []Row
	for it.Next() {
		rows = append(rows, it.Row())
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []Row{{"a": "3", "b": "4"}}, rows)
	assert.EqualValues(t, 2, it.Skipped())
	assert.EqualValues(t, 0, it.Mismatched())
}

func TestIteratorTrimSpace(t *testing.T) {
	it := NewReaderIterator(strings.NewReader(" id , name \n 1 , bob \n"), Options{TrimSpace: true})
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, Row{"id": "1", "name": "bob"}, it.Row())
}

func TestIteratorEmptyInput(t *testing.T) {
	it := NewReaderIterator(strings.NewReader(""), Options{})

	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrNoHeader)
}

func TestIteratorHeaderOnly(t *testing.T) {
	it := NewReaderIterator(strings.NewReader("a,b\n"), Options{})

	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b"}, it.Header())
}

func TestIteratorClosesOnExhaustion(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("a\n1\n")}
	it := NewReaderIterator(rc, Options{})

	for it.Next() {
	}

	assert.Equal(t, 1, rc.closed, "exhaustion must close the input")

	require.NoError(t, it.Close())
	require.NoError(t, it.Close())
	assert.Equal(t, 1, rc.closed, "Close must be idempotent")
	assert.False(t, it.Next(), "an exhausted iterator stays exhausted")
}

func TestIteratorClosesOnExplicitClose(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("a\n1\n2\n")}
	it := NewReaderIterator(rc, Options{})

	require.True(t, it.Next())
	require.NoError(t, it.Close())

	assert.Equal(t, 1, rc.closed)
	assert.False(t, it.Next())
}

func TestIteratorClosesOnReadError(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("a,b\n1,\"unterminated\n")}
	it := NewReaderIterator(rc, Options{})

	for it.Next() {
	}

	require.Error(t, it.Err())
	assert.Equal(t, 1, rc.closed)
}

func TestSourceIsRestartable(t *testing.T) {
	src := NewSource(writeCSV(t, "k\n1\n2\n3\n"), Options{})

	count := func() int {
		n := 0
		for row, err := range src.All() {
			require.NoError(t, err)
			require.NotEmpty(t, row["k"])
			n++
		}
		return n
	}

	assert.Equal(t, 3, count())
	assert.Equal(t, 3, count(), "a second pass must reopen the file")

	it := src.Iter()
	defer it.Close()
	require.True(t, it.Next())
	assert.Equal(t, "1", it.Row()["k"])
}

func TestSourceAllStopsEarly(t *testing.T) {
	src := NewSource(writeCSV(t, "k\n1\n2\n3\n"), Options{})

	var seen []string
	for row, err := range src.All() {
		require.NoError(t, err)
		seen = append(seen, row["k"])
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2"}, seen)
}

func TestSourceAllYieldsError(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing.csv"), Options{})

	var errs []error
	for row, err := range src.All() {
		assert.Nil(t, row)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], os.ErrNotExist)
}

func TestStreamDeliversRowsAndCloses(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("k\n1\n2\n")}

	var got []string
	for res := range Stream(context.Background(), NewReaderIterator(rc, Options{}), 1) {
		require.NoError(t, res.Err)
		got = append(got, res.Row["k"])
	}

	assert.Equal(t, []string{"1", "2"}, got)
	assert.Equal(t, 1, rc.closed)
}

func TestStreamReportsError(t *testing.T) {
	var last Result
	for res := range Stream(context.Background(), NewReaderIterator(strings.NewReader(""), Options{}), 0) {
		last = res
	}
	assert.ErrorIs(t, last.Err, ErrNoHeader)
}

func TestStreamStopsOnCancel(t *testing.T) {
	var b strings.Builder
	b.WriteString("k\n")
	for range 1000 {
		b.WriteString("v\n")
	}
	rc := &trackingCloser{Reader: strings.NewReader(b.String())}

	ctx, cancel := context.WithCancel(context.Background())
	ch := Stream(ctx, NewReaderIterator(rc, Options{}), 0)

	<-ch
	cancel()
	for range ch {
	}

	assert.Equal(t, 1, rc.closed)
}
