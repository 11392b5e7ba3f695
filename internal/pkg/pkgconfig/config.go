package pkgconfig

import "time"

// Config is the read side of the application configuration.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetBinary(key string) []byte
	GetArray(key string) []string
	GetMap(key string) map[string]string
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Set(key string, value any)
	AllSettings() map[string]any
	Close() error
}
