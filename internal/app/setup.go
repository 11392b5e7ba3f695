package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/shandysiswandi/goweave/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/goweave/internal/pkg/pkglog"
	"github.com/shandysiswandi/goweave/internal/pkg/pkgproxy"
)

// Config file locations.
const (
	ContainerConfigPath = "/config/config.yaml"
	LocalConfigPath     = "./config/config.yaml"
)

// SecretKeys hold environment variable names rather than values.
//
//nolint:gochecknoglobals // fixed list
var SecretKeys = []string{"gemini.api_key"}

// DefaultConfigPath is LocalConfigPath when LOCAL=true and
// ContainerConfigPath otherwise.
func DefaultConfigPath() string {
	if os.Getenv("LOCAL") == "true" {
		return LocalConfigPath
	}
	return ContainerConfigPath
}

// LoadConfig reads the config file at path, or DefaultConfigPath when path
// is empty.
func LoadConfig(path string) (pkgconfig.Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if tz := cfg.GetString("tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	return cfg, nil
}

// Configure prepares the process for cfg: logging, secret resolution and
// the optional proxy. The returned func closes the log file.
func Configure(ctx context.Context, cfg pkgconfig.Config) (func() error, error) {
	closeLog, err := pkglog.InitLogging(pkglog.Options{
		Level: pkglog.ParseLevel(cfg.GetString("log.level")),
		File:  cfg.GetString("log.file"),
	})
	if err != nil {
		return closeLog, err
	}

	for _, key := range SecretKeys {
		pkgconfig.ResolveSecret(cfg, key)
	}

	if cfg.GetBool("proxy.enabled") {
		pkgproxy.Probe(ctx,
			cfg.GetString("proxy.host"),
			int(cfg.GetInt("proxy.port")),
			cfg.GetDuration("proxy.timeout"),
		)
	}

	return closeLog, nil
}

// HTTPClient is the client used for outbound calls. It honors the proxy set
// up by Configure.
func HTTPClient(cfg pkgconfig.Config) *http.Client {
	timeout := cfg.GetDuration("http_client.timeout")
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &http.Client{Transport: pkgproxy.Transport(), Timeout: timeout}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
