package pkgrouter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgerror"
)

// Optional methods a handler result may implement.
type (
	statusCoder interface{ StatusCode() int }
	messager    interface{ Message() string }
	metaer      interface{ Meta() map[string]any }
)

type successBody struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type errorBody struct {
	Message string       `json:"message"`
	Error   *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

func writeResult(w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(statusCoder); ok {
		code = sc.StatusCode()
	}
	if resp == nil || code == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body := successBody{Message: "request has been successfully", Data: resp}
	if m, ok := resp.(messager); ok {
		body.Message = m.Message()
	}
	if m, ok := resp.(metaer); ok {
		body.Meta = m.Meta()
	}

	writeJSON(w, body, code)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var perr *pkgerror.Error
	if !errors.As(err, &perr) {
		slog.ErrorContext(ctx, "unhandled error", "error", err)
		writeJSON(w, errorBody{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	if perr.Type() == pkgerror.TypeServer {
		slog.ErrorContext(ctx, "request failed", "error", perr.String())
	}

	writeJSON(w, errorBody{
		Message: perr.Msg(),
		Error:   &errorDetail{Code: perr.Code().String(), Detail: perr.Detail()},
	}, perr.StatusCode())
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
