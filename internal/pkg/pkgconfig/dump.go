package pkgconfig

import (
	"strings"

	"gopkg.in/yaml.v3"
)

//nolint:gochecknoglobals // lookup table
var secretKeyHints = []string{"key", "secret", "password", "token", "credential", "dsn", "uri"}

// Dump renders the effective settings as YAML with secret-like values masked.
func Dump(cfg Config) ([]byte, error) {
	return yaml.Marshal(maskSettings(cfg.AllSettings()))
}

func maskSettings(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case map[string]any:
			out[k] = maskSettings(val)
		case string:
			if isSecretKey(k) && val != "" {
				out[k] = Mask(val)
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(key, hint) {
			return true
		}
	}
	return false
}
