// Package taint layers a source/sink/transfer taint analysis on top of the
// context-sensitive points-to engine. Taint marks are abstract objects
// carried through the points-to sets; a taint-flow graph overlay forwards
// them across configured method summaries.
package taint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
)

// ErrInvalidConfig reports a malformed taint configuration. It is fatal at
// construction: a half-understood config silently weakens the analysis.
var ErrInvalidConfig = errors.New("taint: invalid configuration")

// Source marks a method whose result is tainted.
type Source struct {
	// Method is the full signature, e.g. "<Request: String param(int)>".
	Method string `yaml:"method" json:"method"`
	// Type is the taint type label attached to produced marks.
	Type string `yaml:"type" json:"type"`
}

// Sink marks a method argument position that must not receive taint.
type Sink struct {
	Method string `yaml:"method" json:"method"`
	// Index is the 0-based argument position checked at the sink.
	Index int `yaml:"index" json:"index"`
}

// Transfer summarizes taint moving through a method from one location to
// another, optionally relabeling it.
type Transfer struct {
	Method string `yaml:"method" json:"method"`
	// From and To are "base", "result" or a 0-based argument index.
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
	Type string `yaml:"type" json:"type"`
}

// Config is a full taint specification. Predefined catalogs live in this
// package; files are loaded with LoadConfig.
type Config struct {
	Sources   []Source   `yaml:"sources" json:"sources"`
	Sinks     []Sink     `yaml:"sinks" json:"sinks"`
	Transfers []Transfer `yaml:"transfers" json:"transfers"`
}

// configSchema validates JSON configs before decoding. YAML configs go
// through the same structural checks in validate().
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["method", "type"],
        "properties": {
          "method": {"type": "string", "minLength": 1},
          "type": {"type": "string", "minLength": 1}
        }
      }
    },
    "sinks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["method", "index"],
        "properties": {
          "method": {"type": "string", "minLength": 1},
          "index": {"type": "integer", "minimum": 0}
        }
      }
    },
    "transfers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["method", "from", "to"],
        "properties": {
          "method": {"type": "string", "minLength": 1},
          "from": {"type": "string", "pattern": "^(base|result|[0-9]+)$"},
          "to": {"type": "string", "pattern": "^(base|result|[0-9]+)$"},
          "type": {"type": "string"}
        }
      }
    }
  },
  "additionalProperties": false
}`

// LoadConfig reads a taint configuration from a YAML or JSON file, chosen by
// extension. JSON files are validated against the embedded schema first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var cfg Config
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case ".json":
		if err := validateJSON(data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrInvalidConfig, ext)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateJSON(data []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(configSchema))
	if err != nil {
		return fmt.Errorf("%w: schema: %v", ErrInvalidConfig, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("taint-config.json", schemaDoc); err != nil {
		return fmt.Errorf("%w: schema: %v", ErrInvalidConfig, err)
	}
	schema, err := compiler.Compile("taint-config.json")
	if err != nil {
		return fmt.Errorf("%w: schema: %v", ErrInvalidConfig, err)
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) validate() error {
	for _, s := range c.Sources {
		if s.Method == "" || s.Type == "" {
			return fmt.Errorf("%w: source needs method and type", ErrInvalidConfig)
		}
	}
	for _, s := range c.Sinks {
		if s.Method == "" || s.Index < 0 {
			return fmt.Errorf("%w: sink needs method and non-negative index", ErrInvalidConfig)
		}
	}
	for _, t := range c.Transfers {
		if t.Method == "" {
			return fmt.Errorf("%w: transfer needs method", ErrInvalidConfig)
		}
		for _, loc := range []string{t.From, t.To} {
			if _, err := parseLoc(loc); err != nil {
				return err
			}
		}
	}
	return nil
}

// loc is a decoded transfer endpoint.
type loc struct {
	kind locKind
	arg  int
}

type locKind uint8

const (
	locBase locKind = iota
	locResult
	locArg
)

func parseLoc(s string) (loc, error) {
	switch s {
	case "base":
		return loc{kind: locBase}, nil
	case "result":
		return loc{kind: locResult}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return loc{}, fmt.Errorf("%w: bad transfer location %q", ErrInvalidConfig, s)
	}
	return loc{kind: locArg, arg: n}, nil
}

// parseMethodSig splits "<Class: subsig>" into class name and subsignature.
func parseMethodSig(sig string) (class, subsig string, err error) {
	s := strings.TrimSpace(sig)
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return "", "", fmt.Errorf("%w: bad method signature %q", ErrInvalidConfig, sig)
	}
	s = s[1 : len(s)-1]
	class, subsig, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", fmt.Errorf("%w: bad method signature %q", ErrInvalidConfig, sig)
	}
	return strings.TrimSpace(class), strings.TrimSpace(subsig), nil
}
