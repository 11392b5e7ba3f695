package pkgconfig

import (
	"log/slog"
	"os"
	"strings"
)

// ResolveSecret treats the value stored at key as the name of an environment
// variable. When that variable is set its value replaces the config value and
// true is returned. Otherwise the file value is kept.
func ResolveSecret(cfg Config, key string) bool {
	envName := strings.TrimSpace(cfg.GetString(key))
	if envName == "" {
		return false
	}

	value, ok := os.LookupEnv(envName)
	if !ok || value == "" {
		slog.Warn("secret environment variable not found, using value from config file", "key", key, "env", envName)
		return false
	}

	cfg.Set(key, value)
	slog.Info("secret environment variable found, using value from environment", "key", key, "value", Mask(value))

	return true
}

// Mask keeps the first five characters of a secret.
func Mask(secret string) string {
	const keep = 5
	if len(secret) <= keep {
		return strings.Repeat("x", len(secret))
	}
	return secret[:keep] + "xxxxxxx"
}
