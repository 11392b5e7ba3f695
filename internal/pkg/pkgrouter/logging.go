package pkgrouter

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
)

const maxLoggedBody = 16 << 10

//nolint:gochecknoglobals // lookup table
var sensitiveKeys = map[string]struct{}{
	"authorization":  {},
	"cookie":         {},
	"api_key":        {},
	"x-goog-api-key": {},
	"password":       {},
	"access_token":   {},
	"refresh_token":  {},
	"credentials":    {},
}

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// loggableBody reports whether a request body is small structured data
// worth logging. Uploads are streamed to handlers and never read here.
func loggableBody(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "application/json") ||
		strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}

func maskHeaders(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if isSensitive(k) {
			out.Set(k, "***")
		}
	}
	return out
}

func maskValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if isSensitive(k) {
				out[k] = "***"
				continue
			}
			out[k] = maskValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = maskValue(inner)
		}
		return out
	default:
		return v
	}
}

// describeBody renders a captured body for the log. truncated bodies are
// not parsed.
func describeBody(contentType string, body []byte, truncated bool) any {
	if len(body) == 0 {
		return nil
	}
	if !truncated {
		var v any
		if json.Unmarshal(body, &v) == nil {
			return maskValue(v)
		}
		if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
			if values, err := url.ParseQuery(string(body)); err == nil {
				out := make(map[string]any, len(values))
				for k, vs := range values {
					if isSensitive(k) {
						out[k] = "***"
					} else {
						out[k] = strings.Join(vs, ",")
					}
				}
				return out
			}
		}
	}
	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if truncated {
		return string(body) + "...(truncated)"
	}
	return string(body)
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of
// the remaining body.
func peekBody(r *http.Request) ([]byte, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	head, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	truncated := len(head) > maxLoggedBody

	rest := io.Reader(r.Body)
	if err != nil {
		// the handler sees the read error once the buffered head is used up
		rest = failedReader{err: err}
	}

	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), rest), r.Body}

	if truncated {
		head = head[:maxLoggedBody]
	}
	return head, truncated
}

type failedReader struct {
	err error
}

func (f failedReader) Read([]byte) (int, error) {
	return 0, f.err
}

type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	head   bytes.Buffer
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if room := maxLoggedBody - w.head.Len(); room > 0 {
		w.head.Write(p[:min(room, len(p))])
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath()
		if route == "" {
			route = r.URL.Path
		}
		contentType := r.Header.Get("Content-Type")

		var reqBody any
		if loggableBody(contentType) {
			head, truncated := peekBody(r)
			reqBody = describeBody(contentType, head, truncated)
		} else if r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
			reqBody = "<streamed " + contentType + " body>"
		}

		slog.InfoContext(r.Context(), "request received",
			"method", r.Method,
			"route", route,
			"query", r.URL.RawQuery,
			"headers", maskHeaders(r.Header),
			"body", reqBody,
		)

		rec := &responseRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}

		attrs := []any{
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", rec.bytes,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		level := slog.LevelInfo
		if status >= http.StatusBadRequest {
			// success bodies can be whole reports; only failures are logged
			attrs = append(attrs, "body", describeBody("application/json", rec.head.Bytes(), rec.bytes > rec.head.Len()))
			level = slog.LevelWarn
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
		}

		slog.Log(r.Context(), level, "response sent", attrs...)
	})
}
