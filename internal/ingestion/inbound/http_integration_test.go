package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/goweave/internal/csvrow"
	"github.com/shandysiswandi/goweave/internal/ingest"
	"github.com/shandysiswandi/goweave/internal/ingestion/entity"
	"github.com/shandysiswandi/goweave/internal/ingestion/event"
	"github.com/shandysiswandi/goweave/internal/ingestion/store"
	"github.com/shandysiswandi/goweave/internal/ingestion/usecase"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
	"github.com/shandysiswandi/goweave/internal/warehouse"
)

type envelope[T any] struct {
	Data T              `json:"data"`
	Meta map[string]any `json:"meta,omitempty"`
}

const peopleCSV = "name,age\nann,31\nbob,\ncid,27\ndee,\n"

func newTestRouter(t *testing.T) (http.Handler, *pkgroutine.Manager) {
	t.Helper()

	runner := pkgroutine.NewManager(10)
	mem := warehouse.NewMemory(false, warehouse.TableRef{Project: "p", Dataset: "ds", Table: "people"})
	mem.Reject = func(row csvrow.Row) string {
		if row["age"] == "" {
			return "age is required"
		}
		return ""
	}

	uc := usecase.New(usecase.Dependency{
		Store:     store.NewInMemoryStore(),
		Events:    event.NewBus(10),
		Runner:    runner,
		ID:        pkguid.NewUUID(),
		RootCtx:   context.Background(),
		Warehouse: mem,
		Options:   ingest.Options{BatchSize: 2},
	})

	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, uc)

	return router, runner
}

func TestIngestProcessQuery(t *testing.T) {
	router, runner := newTestRouter(t)

	jobID := uploadCSV(t, router)

	var job JobResponse
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job = getJob(t, router, jobID)
		if job.Status == entity.JobStatusDone {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if job.Status != entity.JobStatusDone {
		t.Fatalf("job not done, status=%s", job.Status)
	}
	if job.Stats.Streamed != 2 || job.Stats.Failed != 2 {
		t.Fatalf("unexpected stats: %+v", job.Stats)
	}
	if job.Table != "p.ds.people" || job.Mode != "batch" {
		t.Fatalf("unexpected job: %+v", job)
	}

	failures := getFailures(t, router, jobID)
	if len(failures.Failures) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(failures.Failures))
	}
	if failures.Failures[0].Row["name"] != "bob" || failures.Failures[1].Line != 4 {
		t.Fatalf("unexpected failures: %+v", failures.Failures)
	}

	if err := runner.Wait(); err != nil {
		t.Fatalf("runner wait: %v", err)
	}
}

func TestCreateJobErrors(t *testing.T) {
	router, runner := newTestRouter(t)
	defer func() { _ = runner.Wait() }()

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{name: "missing table", target: "/ingestions", body: peopleCSV, want: http.StatusUnprocessableEntity},
		{name: "unknown table", target: "/ingestions?table=p.ds.nope", body: peopleCSV, want: http.StatusNotFound},
		{name: "bad mode", target: "/ingestions?table=p.ds.people&mode=turbo", body: peopleCSV, want: http.StatusUnprocessableEntity},
		{name: "empty body", target: "/ingestions?table=p.ds.people", want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.body != "" {
				body = strings.NewReader(tt.body)
				req = httptest.NewRequest(http.MethodPost, tt.target, body)
				req.Header.Set("Content-Type", "text/csv")
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/ingestions/unknown", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown job status = %d", rec.Code)
	}
}

func uploadCSV(t *testing.T, router http.Handler) string {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "people.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}

	if _, err := part.Write([]byte(peopleCSV)); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/ingestions?table=p.ds.people", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var env envelope[CreateJobResponse]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if env.Data.JobID == "" {
		t.Fatal("job id is empty")
	}

	return env.Data.JobID
}

func getJob(t *testing.T, router http.Handler, jobID string) JobResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ingestions/"+jobID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected job status: %d", rec.Code)
	}

	var env envelope[JobResponse]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode job: %v", err)
	}

	return env.Data
}

func getFailures(t *testing.T, router http.Handler, jobID string) FailuresResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/ingestions/"+jobID+"/failures?page=1&page_size=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected failures status: %d", rec.Code)
	}

	var env envelope[FailuresResponse]
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode failures: %v", err)
	}

	if total, _ := env.Meta["total"].(float64); int(total) != len(env.Data.Failures) {
		t.Fatalf("meta total = %v, want %d", env.Meta["total"], len(env.Data.Failures))
	}

	return env.Data
}
