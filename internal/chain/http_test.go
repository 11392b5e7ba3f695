package chain

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shandysiswandi/goweave/internal/llm"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/goweave/internal/pkg/pkguid"
)

func serve(t *testing.T, model llm.ChatModel, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	router := pkgrouter.NewRouter(pkguid.NewUUID())
	RegisterHTTPEndpoint(router, model)

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHTTPTranslate(t *testing.T) {
	rec := serve(t, &llm.Stub{}, "/translate", `{"text":"good morning","from":"English","to":"German"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output":"Translate this sentence from English to German. good morning"`)
}

func TestHTTPReport(t *testing.T) {
	stub := &llm.Stub{Reply: llm.Scripted("final report", map[string]string{"Define": "a definition"})}
	rec := serve(t, stub, "/report", `{"topic":"remote work"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output":"final report"`)
}

func TestHTTPRespond(t *testing.T) {
	stub := &llm.Stub{Reply: llm.Scripted("ok", map[string]string{
		"Analyze": "positive",
		"Great!":  "glad to hear it",
	})}
	rec := serve(t, stub, "/respond", `{"text":"we shipped"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"output":"glad to hear it"`)
}

func TestHTTPErrors(t *testing.T) {
	tests := []struct {
		name  string
		model llm.ChatModel
		path  string
		body  string
		want  int
	}{
		{name: "bad json", model: &llm.Stub{}, path: "/translate", body: `{`, want: http.StatusBadRequest},
		{name: "missing text", model: &llm.Stub{}, path: "/translate", body: `{"text":" "}`, want: http.StatusUnprocessableEntity},
		{name: "missing topic", model: &llm.Stub{}, path: "/report", body: `{}`, want: http.StatusUnprocessableEntity},
		{
			name: "model down",
			model: &llm.Stub{Reply: func([]llm.Message) (string, error) {
				return "", errors.New("quota exceeded")
			}},
			path: "/respond",
			body: `{"text":"hi"}`,
			want: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, tt.model, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
