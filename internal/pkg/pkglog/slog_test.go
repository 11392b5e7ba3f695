package pkglog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type captureHandler struct {
	attrs map[string]slog.Value
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	if h.attrs == nil {
		h.attrs = make(map[string]slog.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.attrs[a.Key] = a.Value
		return true
	})
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *captureHandler) WithGroup(_ string) slog.Handler {
	return h
}

func TestContextHandlerAddsServiceAndCID(t *testing.T) {
	capture := &captureHandler{}
	handler := &contextHandler{Handler: capture}

	ctx := SetCorrelationID(context.Background(), "cid-abc")
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)

	if err := handler.Handle(ctx, rec); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if got := capture.attrs["service"].String(); got != "goweave" {
		t.Fatalf("expected service=goweave, got %q", got)
	}
	if got := capture.attrs["_cID"].String(); got != "cid-abc" {
		t.Fatalf("expected _cID=cid-abc, got %q", got)
	}
}

func TestContextHandlerSkipsInvalidCID(t *testing.T) {
	capture := &captureHandler{}
	handler := &contextHandler{Handler: capture}

	ctx := context.Background()
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)

	if err := handler.Handle(ctx, rec); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if _, ok := capture.attrs["_cID"]; ok {
		t.Fatalf("did not expect _cID to be set")
	}
	if got := capture.attrs["service"].String(); got != "goweave" {
		t.Fatalf("expected service=goweave, got %q", got)
	}
}

func TestInitLoggingWritesFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	closeFn, err := InitLogging(Options{File: path, Writer: &buf})
	if err != nil {
		t.Fatalf("InitLogging: %v", err)
	}

	slog.Info("basic setup done")

	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "basic setup done") {
		t.Fatalf("expected record in file, got %q", data)
	}
	if !strings.Contains(buf.String(), `"severity":"INFO"`) {
		t.Fatalf("expected severity key in stdout copy, got %q", buf.String())
	}
}

func TestRenameAttr(t *testing.T) {
	src := &slog.Source{File: "/src/goweave/internal/ingest/streamer.go", Line: 42}
	got := renameAttr(nil, slog.Any(slog.SourceKey, src))
	if got.Key != "file" || got.Value.String() != "internal/ingest/streamer.go:42" {
		t.Fatalf("unexpected source attr: %v", got)
	}

	outside := &slog.Source{File: "/go/pkg/mod/x/y.go", Line: 1}
	if got := renameAttr(nil, slog.Any(slog.SourceKey, outside)); !got.Equal(slog.Attr{}) {
		t.Fatalf("expected dropped attr, got %v", got)
	}

	if got := renameAttr([]string{"req"}, slog.String(slog.TimeKey, "x")); got.Key != slog.TimeKey {
		t.Fatalf("grouped keys must stay, got %q", got.Key)
	}
}

func TestContextHandlerKeepsWrappingWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&contextHandler{Handler: newJSONHandler(&buf, slog.LevelInfo)}).With("job_id", "j1")

	logger.InfoContext(SetCorrelationID(context.Background(), "cid-9"), "row inserted")

	out := buf.String()
	for _, want := range []string{`"job_id":"j1"`, `"_cID":"cid-9"`, `"service":"goweave"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
