package config

import (
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("expected the default configuration to validate, got %v", err)
	}
}

func TestLoadOverlaysOnDefault(t *testing.T) {
	cfg, err := Load([]byte("k: 3\nverbose: true\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.K != 3 {
		t.Fatalf("expected k overridden to 3, got %d", cfg.K)
	}
	if !cfg.Verbose {
		t.Fatalf("expected verbose overridden to true")
	}
	if cfg.ObjDepth != Default().ObjDepth {
		t.Fatalf("expected obj_depth to keep its default when omitted, got %d", cfg.ObjDepth)
	}
}

func TestLoadRejectsNegativeK(t *testing.T) {
	_, err := Load([]byte("k: -1\n"))
	if err == nil {
		t.Fatalf("expected an error for negative k")
	}
}

func TestLoadRejectsUnknownFieldSensitivity(t *testing.T) {
	_, err := Load([]byte("field_sensitivity: bogus\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown field_sensitivity value")
	}
}

func TestLoadRejectsUnknownContainerField(t *testing.T) {
	_, err := Load([]byte("containers:\n  list: wat\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown container field mapping")
	}
}

func TestTimeoutZeroMeansNone(t *testing.T) {
	cfg := Default()
	if cfg.Timeout() != 0 {
		t.Fatalf("expected zero timeout by default, got %v", cfg.Timeout())
	}
	cfg.TimeoutSeconds = 5
	if cfg.Timeout() != 5*time.Second {
		t.Fatalf("expected a 5s timeout, got %v", cfg.Timeout())
	}
}
