package taint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "taint.yaml", `
sources:
  - method: "<Source: String src()>"
    type: "raw"
sinks:
  - method: "<Sink: void sink(String)>"
    index: 0
transfers:
  - method: "<String: String concat(String)>"
    from: base
    to: result
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Type != "raw" {
		t.Fatalf("sources wrong: %+v", cfg.Sources)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Index != 0 {
		t.Fatalf("sinks wrong: %+v", cfg.Sinks)
	}
	if len(cfg.Transfers) != 1 || cfg.Transfers[0].From != "base" {
		t.Fatalf("transfers wrong: %+v", cfg.Transfers)
	}
}

func TestLoadConfigJSONValidated(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "taint.json", `{
  "sources": [{"method": "<Source: String src()>", "type": "raw"}],
  "sinks": [{"method": "<Sink: void sink(String)>", "index": 0}],
  "transfers": []
}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Sources) != 1 || len(cfg.Sinks) != 1 {
		t.Fatalf("config content wrong: %+v", cfg)
	}
}

func TestLoadConfigJSONSchemaViolation(t *testing.T) {
	t.Parallel()

	// index as a string violates the schema.
	path := writeConfig(t, "taint.json", `{
  "sinks": [{"method": "<Sink: void sink(String)>", "index": "zero"}]
}`)
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "taint.yaml", "sources: [unclosed")
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestLoadConfigUnknownExtension(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "taint.toml", "")
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestLoadConfigBadTransferLocation(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "taint.yaml", `
transfers:
  - method: "<String: String concat(String)>"
    from: receiver
    to: result
`)
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig, got %v", err)
	}
}

func TestParseLoc(t *testing.T) {
	t.Parallel()

	if l, err := parseLoc("base"); err != nil || l.kind != locBase {
		t.Fatalf("base: %v %v", l, err)
	}
	if l, err := parseLoc("result"); err != nil || l.kind != locResult {
		t.Fatalf("result: %v %v", l, err)
	}
	if l, err := parseLoc("2"); err != nil || l.kind != locArg || l.arg != 2 {
		t.Fatalf("arg: %v %v", l, err)
	}
	if _, err := parseLoc("-1"); err == nil {
		t.Fatalf("negative index should be rejected")
	}
}

func TestParseMethodSig(t *testing.T) {
	t.Parallel()

	cls, subsig, err := parseMethodSig("<java.lang.String: String concat(String)>")
	if err != nil || cls != "java.lang.String" || subsig != "String concat(String)" {
		t.Fatalf("parse: %q %q %v", cls, subsig, err)
	}
	if _, _, err := parseMethodSig("String concat(String)"); err == nil {
		t.Fatalf("missing angle brackets should be rejected")
	}
}

func TestPredefinedConfigsAreWellFormed(t *testing.T) {
	t.Parallel()

	for _, cfg := range []*Config{CommandInjection(), SQLInjection()} {
		if err := cfg.validate(); err != nil {
			t.Fatalf("predefined config invalid: %v", err)
		}
	}
}
