// Package diag formats and collects diagnostics: compile-style messages
// with source position and a caret, in the manner of the front end's own
// error formatter, plus the two diagnostic streams the engine produces
// (spec.md §7): a structured error log for the four error classes, and a
// separate advisory notice log for parked calls and heap widening.
package diag

import (
	"fmt"
	"strings"
	"sync"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
)

// Class is the error taxonomy of spec.md §7.
type Class string

const (
	// ClassConfiguration aborts planning/initialization.
	ClassConfiguration Class = "configuration"
	// ClassAdapter reports malformed or missing IR input. It aborts the
	// run; no per-function skipping takes place.
	ClassAdapter Class = "adapter"
	// ClassResource is a timeout or cancellation; the run finishes with
	// results.Partial set.
	ClassResource Class = "resource"
	// ClassInternal is a programmer-error assertion violation: fatal.
	ClassInternal Class = "internal"
)

// Diagnostic is one reported error or notice, with enough source context
// to render a caret under the offending position.
type Diagnostic struct {
	Class   Class
	Message string
	Source  string // the offending function/module source, if available
	Pos     domain.Pos
}

// Error implements the error interface so a Diagnostic can be returned
// directly from a fallible operation.
func (d *Diagnostic) Error() string { return d.Format(false) }

// Format renders the diagnostic with a file:line:col header and, when
// Source is available, the offending line with a caret under Pos.Col.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder
	if d.Pos.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", d.Class, d.Pos.File, d.Pos.Line, d.Pos.Col)
	} else {
		fmt.Fprintf(&sb, "%s\n", d.Class)
	}
	if line := sourceLine(d.Source, d.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+max(0, d.Pos.Col-1)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteByte('\n')
	}
	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}
	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Sink collects diagnostics and advisory notices during one engine run. It
// keeps two independent lists, matching spec.md §7's split between errors
// that affect soundness/completeness bookkeeping and notices that are
// purely informational (parked calls, widening).
type Sink struct {
	mu      sync.Mutex
	errors  []*Diagnostic
	notices []string
}

// NewSink creates an empty diagnostic sink.
func NewSink() *Sink { return &Sink{} }

// Report records a structured diagnostic.
func (s *Sink) Report(d *Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, d)
}

// Notice records a one-line advisory notice (parked call, widening
// trigger). Notices never fail the run.
func (s *Sink) Notice(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, fmt.Sprintf(format, args...))
}

// Errors returns the recorded diagnostics in report order.
func (s *Sink) Errors() []*Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Diagnostic, len(s.errors))
	copy(out, s.errors)
	return out
}

// Notices returns the recorded advisory notices in report order.
func (s *Sink) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.notices))
	copy(out, s.notices)
	return out
}

// HasClass reports whether any recorded diagnostic belongs to class c.
func (s *Sink) HasClass(c Class) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.errors {
		if d.Class == c {
			return true
		}
	}
	return false
}
