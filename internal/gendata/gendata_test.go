package gendata

import (
	"encoding/csv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/goweave/internal/csvrow"
)

var cellPattern = regexp.MustCompile(`^[a-z]{10}$`)

func TestGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "large_data.csv")

	require.NoError(t, Generate(path, 25, 4))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 26)

	assert.Equal(t, []string{"Column_1", "Column_2", "Column_3", "Column_4"}, records[0])
	for _, rec := range records[1:] {
		require.Len(t, rec, 4)
		for _, cell := range rec {
			assert.Regexp(t, cellPattern, cell)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")

	require.NoError(t, generate(a, 5, 3, rand.New(rand.NewPCG(1, 2))))
	require.NoError(t, generate(b, 5, 3, rand.New(rand.NewPCG(1, 2))))

	da, err := os.ReadFile(a)
	require.NoError(t, err)
	db, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestGenerateFeedsIterator(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, Generate(path, 3, 2))

	var n int
	for row, err := range csvrow.NewSource(path, csvrow.Options{}).All() {
		require.NoError(t, err)
		assert.Len(t, row, 2)
		n++
	}
	assert.Equal(t, 3, n)
}

func TestGenerateInvalidSize(t *testing.T) {
	assert.Error(t, Generate(filepath.Join(t.TempDir(), "x.csv"), 1, 0))
}
