package pkgrouter

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/shandysiswandi/goweave/internal/pkg/pkglog"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if want := []string{"outer", "inner", "handler"}; !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestNormalizeCID(t *testing.T) {
	tests := map[string]string{
		"  abc  ":                "abc",
		"a\r\nInjected: header":  "",
		strings.Repeat("x", 200): strings.Repeat("x", maxCIDLen),
	}
	for in, want := range tests {
		if got := normalizeCID(in); got != want {
			t.Fatalf("normalizeCID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCorrelationID(t *testing.T) {
	var seen string
	h := correlationID(fixedID("generated"))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = pkglog.GetCorrelationID(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{name: "correlation header", header: HeaderCorrelationID, value: "from-client", want: "from-client"},
		{name: "request id header", header: HeaderRequestID, value: "from-proxy", want: "from-proxy"},
		{name: "generated", want: "generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen != tt.want || rec.Header().Get(HeaderCorrelationID) != tt.want {
				t.Fatalf("cid = %q header = %q, want %q", seen, rec.Header().Get(HeaderCorrelationID), tt.want)
			}
		})
	}
}

func TestAppFrames(t *testing.T) {
	stack := []byte("goroutine 1 [running]:\n" +
		"main.main()\n" +
		"\t/src/goweave/internal/ingest/streamer.go:120 +0x1d\n" +
		"\t/usr/local/go/src/net/http/server.go:2000 +0x2\n")

	got := appFrames(stack)
	if want := []string{"internal/ingest/streamer.go:120"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
}

func TestAccessLogKeepsBodies(t *testing.T) {
	var got string
	h := accessLog(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = string(b)
	}))

	for _, tt := range []struct{ contentType, body string }{
		{"application/json", `{"api_key":"AIza","text":"hi"}`},
		{"application/json", `{"text":"` + strings.Repeat("a", maxLoggedBody*2) + `"}`},
		{"text/csv", "a,b\n1,2\n"},
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", tt.contentType)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if got != tt.body {
			t.Fatalf("%s body altered: got %d bytes, want %d", tt.contentType, len(got), len(tt.body))
		}
	}
}

func TestAccessLogKeepsBodyReadError(t *testing.T) {
	errReset := errors.New("connection reset")

	var (
		got     string
		readErr error
	)
	h := accessLog(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		got, readErr = string(b), err
	}))

	body := io.MultiReader(strings.NewReader(`{"text":"hi"`), iotest.ErrReader(errReset))
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != `{"text":"hi"` {
		t.Fatalf("head = %q", got)
	}
	if !errors.Is(readErr, errReset) {
		t.Fatalf("read err = %v, want %v", readErr, errReset)
	}
}

func TestMasking(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer x")
	h.Set("X-Goog-Api-Key", "AIza")
	h.Set("Accept", "application/json")

	masked := maskHeaders(h)
	if masked.Get("Authorization") != "***" || masked.Get("X-Goog-Api-Key") != "***" || masked.Get("Accept") == "***" {
		t.Fatalf("masked headers = %v", masked)
	}
	if h.Get("Authorization") != "Bearer x" {
		t.Fatal("original headers modified")
	}

	body := describeBody("application/json", []byte(`{"api_key":"k","nested":[{"password":"p","ok":1}]}`), false)
	want := map[string]any{
		"api_key": "***",
		"nested":  []any{map[string]any{"password": "***", "ok": float64(1)}},
	}
	if !reflect.DeepEqual(body, want) {
		t.Fatalf("describeBody = %#v", body)
	}

	form := describeBody("application/x-www-form-urlencoded", []byte("password=p&topic=go"), false)
	if !reflect.DeepEqual(form, map[string]any{"password": "***", "topic": "go"}) {
		t.Fatalf("form = %#v", form)
	}

	if got := describeBody("application/octet-stream", []byte{0xff, 0xfe}, false); got != "<binary body omitted>" {
		t.Fatalf("binary = %v", got)
	}
}
