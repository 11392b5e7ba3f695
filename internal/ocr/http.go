package ocr

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
)

// MaxImageBytes caps the size of an uploaded image.
const MaxImageBytes = 20 << 20

type extractor interface {
	ExtractTextFromBytes(ctx context.Context, image []byte) (string, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, svc extractor) {
	end := &HTTPEndpoint{svc: svc}

	r.POST("/ocr", end.Extract)
}

type HTTPEndpoint struct {
	svc extractor
}

type TextResponse struct {
	Text string `json:"text"`
}

func (TextResponse) Message() string {
	return "text extracted"
}

func (h *HTTPEndpoint) Extract(ctx context.Context, r *http.Request) (any, error) {
	image, err := ReadImage(r)
	if err != nil {
		return nil, err
	}

	text, err := h.svc.ExtractTextFromBytes(ctx, image)
	if err != nil {
		return nil, MapError(err)
	}

	return TextResponse{Text: text}, nil
}

// MapError converts engine errors into HTTP-aware errors.
func MapError(err error) error {
	switch {
	case errors.Is(err, ErrNoText), errors.Is(err, ErrEmptyImage):
		return pkgerror.NewInvalidInput(err)
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerror.NewBusiness("ocr timed out", pkgerror.CodeTimeout)
	default:
		return pkgerror.NewUnavailable(err, "ocr engine unavailable")
	}
}

// ReadImage returns the "file" part of a multipart request, or the raw body.
func ReadImage(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, pkgerror.NewInvalidInput(errors.New("empty request body"))
	}
	body := http.MaxBytesReader(nil, r.Body, MaxImageBytes)
	r.Body = body

	var src io.Reader = body
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil &&
		strings.EqualFold(mediaType, "multipart/form-data") {
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, pkgerror.NewInvalidFormat()
		}

		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil, pkgerror.NewInvalidInput(errors.New("file part is required"))
			}
			if err != nil {
				return nil, pkgerror.NewInvalidFormat()
			}
			if part.FormName() == "file" {
				defer part.Close()
				src = part
				break
			}
			_ = part.Close()
		}
	}

	data, err := io.ReadAll(src)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, pkgerror.NewInvalidInput(errors.New("image too large"))
		}
		return nil, pkgerror.NewInvalidFormat()
	}

	return data, nil
}
