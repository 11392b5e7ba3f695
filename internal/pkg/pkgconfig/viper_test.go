package pkgconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestViperConfigValues(t *testing.T) {
	path := writeConfigFile(t, "int: 42\nbool: true\nfloat: 3.14\nstring: hi\nbinary: aGVsbG8=\narray: a,b,c\nmap: k1:v1,k2:v2\nwait: 250ms\n")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}
	defer func() {
		if err := cfg.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}()

	if got := cfg.GetInt("int"); got != 42 {
		t.Fatalf("GetInt: expected 42, got %d", got)
	}
	if got := cfg.GetBool("bool"); got != true {
		t.Fatalf("GetBool: expected true, got %v", got)
	}
	if got := cfg.GetFloat("float"); got != 3.14 {
		t.Fatalf("GetFloat: expected 3.14, got %v", got)
	}
	if got := cfg.GetString("string"); got != "hi" {
		t.Fatalf("GetString: expected hi, got %q", got)
	}
	if got := string(cfg.GetBinary("binary")); got != "hello" {
		t.Fatalf("GetBinary: expected hello, got %q", got)
	}
	if got := cfg.GetArray("array"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("GetArray: unexpected value: %#v", got)
	}
	if got := cfg.GetMap("map"); !reflect.DeepEqual(got, map[string]string{"k1": "v1", "k2": "v2"}) {
		t.Fatalf("GetMap: unexpected value: %#v", got)
	}
	if got := cfg.GetDuration("wait"); got != 250*time.Millisecond {
		t.Fatalf("GetDuration: expected 250ms, got %v", got)
	}
}

func TestViperGetBinaryInvalid(t *testing.T) {
	path := writeConfigFile(t, "binary: not-base64\n")
	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	if got := cfg.GetBinary("binary"); got != nil {
		t.Fatalf("expected nil for invalid base64, got %v", got)
	}
}

func TestViperEnvOverride(t *testing.T) {
	path := writeConfigFile(t, "warehouse:\n  driver: bigquery\n")
	t.Setenv("GOWEAVE_WAREHOUSE_DRIVER", "sqlite")

	cfg, err := NewViper(path)
	if err != nil {
		t.Fatalf("NewViper: %v", err)
	}

	if got := cfg.GetString("warehouse.driver"); got != "sqlite" {
		t.Fatalf("expected env override sqlite, got %q", got)
	}
}

func TestViperMissingFile(t *testing.T) {
	if _, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestResolveSecret(t *testing.T) {
	t.Run("env present", func(t *testing.T) {
		t.Setenv("GOWEAVE_TEST_GEMINI_KEY", "AIzaSecretValue")
		cfg := NewFromMap(map[string]any{"gemini.api_key": "GOWEAVE_TEST_GEMINI_KEY"})

		if !ResolveSecret(cfg, "gemini.api_key") {
			t.Fatal("expected secret to be resolved")
		}
		if got := cfg.GetString("gemini.api_key"); got != "AIzaSecretValue" {
			t.Fatalf("expected resolved value, got %q", got)
		}
	})

	t.Run("env missing keeps file value", func(t *testing.T) {
		cfg := NewFromMap(map[string]any{"gemini.api_key": "GOWEAVE_TEST_UNSET_KEY"})

		if ResolveSecret(cfg, "gemini.api_key") {
			t.Fatal("expected secret not to be resolved")
		}
		if got := cfg.GetString("gemini.api_key"); got != "GOWEAVE_TEST_UNSET_KEY" {
			t.Fatalf("expected file value, got %q", got)
		}
	})

	t.Run("empty key", func(t *testing.T) {
		cfg := NewFromMap(map[string]any{})
		if ResolveSecret(cfg, "gemini.api_key") {
			t.Fatal("expected false for empty key")
		}
	})
}

func TestMask(t *testing.T) {
	if got := Mask("AIzaSyLongSecret"); got != "AIzaSxxxxxxx" {
		t.Fatalf("unexpected mask: %q", got)
	}
	if got := Mask("abc"); got != "xxx" {
		t.Fatalf("unexpected short mask: %q", got)
	}
}

func TestDumpMasksSecrets(t *testing.T) {
	cfg := NewFromMap(map[string]any{
		"gemini.api_key":   "AIzaSyLongSecret",
		"gemini.model":     "gemini-2.0-flash",
		"warehouse.driver": "bigquery",
	})

	out, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}

	text := string(out)
	if strings.Contains(text, "AIzaSyLongSecret") {
		t.Fatalf("secret leaked in dump: %s", text)
	}
	if !strings.Contains(text, "AIzaSxxxxxxx") {
		t.Fatalf("expected masked secret in dump: %s", text)
	}
	if !strings.Contains(text, "gemini-2.0-flash") {
		t.Fatalf("expected plain value in dump: %s", text)
	}
}
