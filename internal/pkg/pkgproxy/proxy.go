// Package pkgproxy enables an HTTP proxy for outbound calls when one is reachable.
package pkgproxy

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// DefaultTimeout bounds the reachability probe.
const DefaultTimeout = 2 * time.Second

//nolint:gochecknoglobals // env names read by Go and the cloud SDKs
var proxyEnvNames = []string{"http_proxy", "https_proxy", "HTTP_PROXY", "HTTPS_PROXY"}

// Probe dials host:port and, when the proxy answers, points the proxy
// environment variables at it. It returns the proxy URL it installed, or an
// empty string when the proxy is unreachable and the environment was left
// untouched.
func Probe(ctx context.Context, host string, port int, timeout time.Duration) string {
	if host == "" || port <= 0 {
		return ""
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		slog.InfoContext(ctx, "proxy not reachable, connecting directly", "address", addr, "error", err)
		return ""
	}
	_ = conn.Close()

	proxyURL := (&url.URL{Scheme: "http", Host: addr}).String()
	for _, name := range proxyEnvNames {
		//nolint:errcheck,gosec // setenv only fails on invalid names
		os.Setenv(name, proxyURL)
	}

	slog.InfoContext(ctx, "proxy setup done", "proxy", proxyURL)

	return proxyURL
}

// Transport returns an http.Transport that resolves the proxy from the
// environment at request time, so a later Probe takes effect.
func Transport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.Proxy = func(req *http.Request) (*url.URL, error) {
		return httpproxy.FromEnvironment().ProxyFunc()(req.URL)
	}
	return t
}
