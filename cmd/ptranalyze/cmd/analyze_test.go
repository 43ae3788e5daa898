package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

const fixtureIR = `{
	"functions": [
		{
			"id": "module",
			"name": "<module>",
			"is_method": false,
			"site": {"kind": "module", "pos": {"file": "m.py", "line": 1, "col": 1}},
			"events": [
				{"kind": "alloc", "target": "x", "alloc_kind": "obj", "pos": {"file": "m.py", "line": 2, "col": 1}},
				{"kind": "copy", "target": "y", "source": "x"}
			]
		}
	]
}`

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "program.ir.json")
	if err := os.WriteFile(path, []byte(fixtureIR), 0o644); err != nil {
		t.Fatalf("writing fixture IR: %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	runErr := fn()
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String(), runErr
}

func TestLoadConfigDefaultsWithNoPath(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.K != 2 || cfg.ObjDepth != 2 {
		t.Fatalf("expected the built-in defaults, got %+v", cfg)
	}
}

func TestLoadConfigOverlaysYAMLOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("k: 1\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.K != 1 {
		t.Fatalf("expected k to be overridden to 1, got %d", cfg.K)
	}
	if cfg.ObjDepth != 2 {
		t.Fatalf("expected obj_depth to keep its default value, got %d", cfg.ObjDepth)
	}
}

func TestRunAnalyzePrintsSummary(t *testing.T) {
	path := writeFixture(t)
	outputJSON, analyzeQuiet, configFile = false, false, ""

	out, err := captureStdout(t, func() error {
		return runAnalyze(nil, []string{path})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snaps.MatchSnapshot(t, out)
}

func TestRunAnalyzeEmitsJSON(t *testing.T) {
	path := writeFixture(t)
	outputJSON, analyzeQuiet, configFile = true, false, ""
	defer func() { outputJSON = false }()

	out, err := captureStdout(t, func() error {
		return runAnalyze(nil, []string{path})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte(`"points_to"`)) {
		t.Fatalf("expected JSON output to include a points_to field, got %q", out)
	}
}

func TestRunAnalyzeReportsMissingFile(t *testing.T) {
	outputJSON, analyzeQuiet, configFile = false, false, ""
	err := runAnalyze(nil, []string{filepath.Join(t.TempDir(), "missing.json")})
	if err == nil {
		t.Fatalf("expected an error for a missing input file")
	}
}

func TestRunPlanPrintsEntryPoints(t *testing.T) {
	path := writeFixture(t)
	configFile = ""

	out, err := captureStdout(t, func() error {
		return runPlan(nil, []string{path})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("module")) {
		t.Fatalf("expected the module function to be listed as an entry point, got %q", out)
	}
}
