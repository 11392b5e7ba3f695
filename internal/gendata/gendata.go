// Package gendata writes CSV files filled with random data for load tests.
package gendata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

// CellLength is the length of every generated cell.
const CellLength = 10

const letters = "abcdefghijklmnopqrstuvwxyz"

// Generate writes a CSV at path with headers Column_1..Column_columns and
// records rows of random lowercase strings. The parent directory is created.
func Generate(path string, records, columns int) error {
	return generate(path, records, columns, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func generate(path string, records, columns int, rnd *rand.Rand) (err error) {
	if records < 0 || columns <= 0 {
		return fmt.Errorf("invalid size: %d records, %d columns", records, columns)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	w := csv.NewWriter(bw)

	row := make([]string, columns)
	for i := range row {
		row[i] = "Column_" + strconv.Itoa(i+1)
	}
	if err := w.Write(row); err != nil {
		return err
	}

	for range records {
		for i := range row {
			row[i] = randomString(rnd, CellLength)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	slog.Info("generated csv file", "path", path, "records", records, "columns", columns)

	return nil
}

func randomString(rnd *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rnd.IntN(len(letters))]
	}
	return string(b)
}
