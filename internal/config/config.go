// Package config loads and validates the engine configuration record of
// spec.md §6, using goccy/go-yaml the way the front end loads its own
// tool configuration.
package config

import (
	"fmt"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/lkgv/PythonStAn-sub002/internal/diag"
)

// FieldSensitivity selects whether attribute stores/loads key on the
// literal attribute name or collapse onto the unknown field universally.
type FieldSensitivity string

const (
	FieldSensitiveByName    FieldSensitivity = "attr-name"
	FieldInsensitive        FieldSensitivity = "field-insensitive"
)

// Config is the engine configuration record of spec.md §6.
type Config struct {
	K                int               `yaml:"k"`
	ObjDepth         int               `yaml:"obj_depth"`
	FieldSensitivity FieldSensitivity  `yaml:"field_sensitivity"`
	Containers       map[string]string `yaml:"containers"`
	TimeoutSeconds   int               `yaml:"timeout"` // 0 means none
	MaxHeapWidening  int               `yaml:"max_heap_widening"` // 0 means none
	Verbose          bool              `yaml:"verbose"`
}

// Default returns the configuration spec.md §6 names as the default
// record: k=2, obj_depth=2, attribute-name field sensitivity, the
// standard container mapping, no timeout, no widening threshold.
func Default() Config {
	return Config{
		K:                2,
		ObjDepth:         2,
		FieldSensitivity: FieldSensitiveByName,
		Containers: map[string]string{
			"list":  "elem",
			"tuple": "elem",
			"set":   "elem",
			"dict":  "value",
		},
	}
}

// Load parses a YAML configuration document, starting from Default() so
// that an omitted field keeps its default value.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &diag.Diagnostic{Class: diag.ClassConfiguration, Message: fmt.Sprintf("parsing configuration: %v", err)}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports a Configuration-class diagnostic for any out-of-range
// field (spec.md §7).
func (c Config) Validate() error {
	if c.K < 0 {
		return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: "k must be >= 0"}
	}
	if c.ObjDepth < 0 {
		return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: "obj_depth must be >= 0"}
	}
	switch c.FieldSensitivity {
	case FieldSensitiveByName, FieldInsensitive, "":
	default:
		return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: fmt.Sprintf("unknown field_sensitivity %q", c.FieldSensitivity)}
	}
	for kind, field := range c.Containers {
		if field != "elem" && field != "value" {
			return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: fmt.Sprintf("container %q maps to unknown field %q", kind, field)}
		}
	}
	if c.TimeoutSeconds < 0 {
		return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: "timeout must be >= 0"}
	}
	if c.MaxHeapWidening < 0 {
		return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: "max_heap_widening must be >= 0"}
	}
	return nil
}

// Timeout returns the configured timeout as a time.Duration, or 0 (no
// deadline) when TimeoutSeconds is unset.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
