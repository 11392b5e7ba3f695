package pkgconfig

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "GOWEAVE"

// Viper is the Config used by the binaries. Lookups fall through
// Set overrides, then GOWEAVE_* env vars, then the file.
type Viper struct {
	v *viper.Viper
}

var _ Config = (*Viper)(nil)

// NewViper reads the file at pathFile once; its format follows the
// extension. There is no watcher: ResolveSecret writes into the settings and
// a reload would undo it.
func NewViper(pathFile string) (*Viper, error) {
	vc := blank()
	vc.v.SetConfigFile(pathFile)

	if err := vc.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", pathFile, err)
	}

	return vc, nil
}

// NewFromMap builds a Config from in-memory values, mostly for tests and
// the CLI. Env overrides still win.
func NewFromMap(values map[string]any) *Viper {
	vc := blank()
	for k, val := range values {
		vc.v.Set(k, val)
	}

	return vc
}

func blank() *Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Viper{v: v}
}

func (vc *Viper) GetInt(key string) int64 { return vc.v.GetInt64(key) }
func (vc *Viper) GetBool(key string) bool { return vc.v.GetBool(key) }
func (vc *Viper) GetFloat(key string) float64 { return vc.v.GetFloat64(key) }
func (vc *Viper) GetString(key string) string { return vc.v.GetString(key) }
func (vc *Viper) GetDuration(key string) time.Duration { return vc.v.GetDuration(key) }
func (vc *Viper) IsSet(key string) bool { return vc.v.IsSet(key) }
func (vc *Viper) Set(key string, value any) { vc.v.Set(key, value) }
func (vc *Viper) AllSettings() map[string]any { return vc.v.AllSettings() }

// GetBinary decodes a base64 value. Invalid input yields nil.
func (vc *Viper) GetBinary(key string) []byte {
	data, err := base64.StdEncoding.DecodeString(vc.v.GetString(key))
	if err != nil {
		return nil
	}

	return data
}

// GetArray accepts both a YAML list and a comma separated string, which is
// the only form an env override can take.
func (vc *Viper) GetArray(key string) []string {
	if raw := vc.v.GetString(key); raw != "" {
		return strings.Split(raw, ",")
	}

	return vc.v.GetStringSlice(key)
}

// GetMap parses "k:v,k:v". Pairs without a colon are skipped.
func (vc *Viper) GetMap(key string) map[string]string {
	out := make(map[string]string)
	for pair := range strings.SplitSeq(vc.v.GetString(key), ",") {
		if k, v, ok := strings.Cut(pair, ":"); ok {
			out[k] = v
		}
	}

	return out
}

// Close is a no-op.
func (vc *Viper) Close() error {
	return nil
}
