package ingest

import (
	"fmt"
	"strings"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
)

// Mode selects how rows are sent to the warehouse.
type Mode string

// Supported modes.
const (
	ModeBatch Mode = "batch"
	ModeRow   Mode = "row"
	ModeAsync Mode = "async"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultBatchSize     = 1000
	DefaultProgressEvery = 1000
)

// ParseMode accepts batch, row or async (case insensitive). Empty means batch.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeBatch, nil
	case ModeBatch, ModeRow, ModeAsync:
		return m, nil
	default:
		return "", fmt.Errorf("unknown ingest mode %q", s)
	}
}

// Options tunes a Streamer. Zero values fall back to the defaults.
type Options struct {
	Mode          Mode
	BatchSize     int
	ProgressEvery int
	Workers       int
}

// OptionsFromConfig reads the ingest.* keys.
func OptionsFromConfig(cfg pkgconfig.Config) (Options, error) {
	mode, err := ParseMode(cfg.GetString("ingest.mode"))
	if err != nil {
		return Options{}, err
	}

	return Options{
		Mode:          mode,
		BatchSize:     int(cfg.GetInt("ingest.batch_size")),
		ProgressEvery: int(cfg.GetInt("ingest.progress_every")),
		Workers:       int(cfg.GetInt("ingest.workers")),
	}.withDefaults(), nil
}

func (o Options) withDefaults() Options {
	if o.Mode == "" {
		o.Mode = ModeBatch
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = DefaultProgressEvery
	}
	if o.Workers <= 0 {
		o.Workers = pkgroutine.DefaultWorkers()
	}
	return o
}
