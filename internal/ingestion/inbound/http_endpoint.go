package inbound

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shandysiswandi/goweave/internal/ingestion/usecase"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
)

// Failure pages hold DefaultPageSize rows unless the client asks for at
// most MaxPageSize.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type HTTPEndpoint struct {
	uc uc
}

// CreateJob streams the uploaded CSV into a new job. The body is piped to
// the job while the request is still open, so large files are never held in
// memory.
func (h *HTTPEndpoint) CreateJob(ctx context.Context, r *http.Request) (any, error) {
	q := r.URL.Query()
	in := usecase.CreateJobInput{
		Table: strings.TrimSpace(q.Get("table")),
		Mode:  strings.TrimSpace(q.Get("mode")),
	}
	if in.Table == "" {
		return nil, pkgerror.NewInvalidInput(errors.New("table is required"))
	}

	upload, err := openUpload(r)
	if err != nil {
		return nil, err
	}
	defer upload.Close()

	pr, pw := io.Pipe()
	res, err := h.uc.CreateJob(ctx, in, pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}

	n, err := io.Copy(pw, upload)
	_ = pw.CloseWithError(err)

	switch {
	case err == nil:
	case errors.Is(err, io.ErrClosedPipe):
		// the job quit early; its status says why
		slog.WarnContext(ctx, "ingestion job stopped reading the upload", "job_id", res.JobID, "bytes", n)
	default:
		return nil, pkgerror.NewServer(fmt.Errorf("read upload: %w", err))
	}

	return CreateJobResponse{JobID: res.JobID, Bytes: n}, nil
}

func (h *HTTPEndpoint) Job(ctx context.Context, _ *http.Request) (any, error) {
	job, err := h.uc.Job(ctx, strings.TrimSpace(pkgrouter.GetParam(ctx, "id")))
	if err != nil {
		return nil, err
	}

	return toJobResponse(job), nil
}

func (h *HTTPEndpoint) Failures(ctx context.Context, r *http.Request) (any, error) {
	q := r.URL.Query()

	page, err := positiveInt(q, "page", 1)
	if err != nil {
		return nil, err
	}
	size, err := positiveInt(q, "page_size", DefaultPageSize)
	if err != nil {
		return nil, err
	}
	size = min(size, MaxPageSize)

	res, err := h.uc.Failures(ctx, strings.TrimSpace(pkgrouter.GetParam(ctx, "id")), page, size)
	if err != nil {
		return nil, err
	}

	out := FailuresResponse{
		JobID:    res.Job.ID,
		Status:   res.Job.Status,
		Failures: make([]FailedRow, len(res.Failures)),
		page:     res.Page,
		pageSize: res.PageSize,
		total:    res.Total,
	}
	for i, f := range res.Failures {
		out.Failures[i] = FailedRow{Line: f.Line, Row: f.Row, Reason: f.Reason}
	}

	return out, nil
}

func positiveInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, pkgerror.NewInvalidInput(fmt.Errorf("invalid %s", key))
	}
	return v, nil
}

// openUpload returns the "file" part of a multipart request, or the raw body.
func openUpload(r *http.Request) (io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.EqualFold(mediaType, "multipart/form-data") {
		if r.Body == nil || r.Body == http.NoBody {
			return nil, pkgerror.NewInvalidInput(errors.New("empty request body"))
		}
		return r.Body, nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, pkgerror.NewInvalidFormat()
	}

	for {
		part, err := mr.NextPart()
		switch {
		case errors.Is(err, io.EOF):
			return nil, pkgerror.NewInvalidInput(errors.New("file part is required"))
		case err != nil:
			return nil, pkgerror.NewInvalidFormat()
		case part.FormName() == "file":
			return part, nil
		}
		_ = part.Close()
	}
}
