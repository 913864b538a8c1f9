package errors

import (
	"fmt"
	"sync"
	"testing"
)

func TestFastPathNoReporting(t *testing.T) {
	t.Parallel()

	// Create an error with no reporter registered - should use fast path
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown' in fast path, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' in fast path, got '%s'", ee.Category)
	}
}

func TestBuilderPreservesExplicitMetadata(t *testing.T) {
	t.Parallel()

	ee := Newf("interpreter invoke failed").
		Component("ricenet").
		Category(CategoryInference).
		Context("rice_type", "white").
		Build()

	if ee.GetComponent() != "ricenet" {
		t.Errorf("Expected component 'ricenet', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryInference {
		t.Errorf("Expected category '%s', got '%s'", CategoryInference, ee.Category)
	}

	ctx := ee.GetContext()
	if ctx["rice_type"] != "white" {
		t.Errorf("Expected rice_type context value 'white', got '%v'", ctx["rice_type"])
	}
}

func TestContextCopyIsolation(t *testing.T) {
	t.Parallel()

	ee := Newf("db error").Context("table", "scans").Build()

	ctx := ee.GetContext()
	ctx["table"] = "mutated"

	if ee.GetContext()["table"] != "scans" {
		t.Error("GetContext must return a copy, original context was mutated")
	}
}

func TestIsCategoryMatching(t *testing.T) {
	t.Parallel()

	ee := Newf("scan not found").Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("lookup failed: %w", ee)

	if !IsCategory(wrapped, CategoryNotFound) {
		t.Error("IsCategory should match through wrapping")
	}
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should match through wrapping")
	}
	if IsCategory(wrapped, CategoryDatabase) {
		t.Error("IsCategory should not match a different category")
	}
}

func TestUnwrapChain(t *testing.T) {
	t.Parallel()

	base := NewStd("base failure")
	ee := New(base).Category(CategoryDatabase).Build()

	if !Is(ee, base) {
		t.Error("Is should find the base error through EnhancedError")
	}
	if Unwrap(ee) != base {
		t.Error("Unwrap should return the wrapped error")
	}
}

func TestPriorityValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		priority string
		want     string
	}{
		{"valid high", PriorityHigh, PriorityHigh},
		{"valid critical", PriorityCritical, PriorityCritical},
		{"invalid falls back to medium", "urgent", PriorityMedium},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ee := Newf("x").Priority(tt.priority).Build()
			if got := ee.GetPriority(); got != tt.want {
				t.Errorf("Priority(%q) = %q, want %q", tt.priority, got, tt.want)
			}
		})
	}
}

// capturingReporter records reported errors for assertions.
type capturingReporter struct {
	mu     sync.Mutex
	errors []*EnhancedError
}

func (cr *capturingReporter) ReportError(ee *EnhancedError) {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	cr.errors = append(cr.errors, ee)
}

func (cr *capturingReporter) IsEnabled() bool { return true }

func (cr *capturingReporter) count() int {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return len(cr.errors)
}

func TestReporterReceivesBuiltErrors(t *testing.T) {
	// Not parallel: installs a global reporter.
	reporter := &capturingReporter{}
	SetReporter(reporter)
	defer SetReporter(nil)

	ee := Newf("export write failed").Category(CategoryExport).Build()

	if reporter.count() != 1 {
		t.Fatalf("Expected 1 reported error, got %d", reporter.count())
	}
	if !ee.IsReported() {
		t.Error("Built error should be marked reported")
	}
}

func TestCategoryDetectionHeuristics(t *testing.T) {
	// Not parallel: detection only runs with active reporting.
	SetReporter(&capturingReporter{})
	defer SetReporter(nil)

	tests := []struct {
		name string
		msg  string
		want ErrorCategory
	}{
		{"model load", "failed to load model from disk", CategoryModelLoad},
		{"image decode", "unable to decode sample jpeg", CategoryImageDecode},
		{"network", "connection refused by host", CategoryNetwork},
		{"validation", "validation failed for threshold set", CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ee := Newf("%s", tt.msg).Build()
			if ee.Category != tt.want {
				t.Errorf("detectCategory(%q) = %s, want %s", tt.msg, ee.Category, tt.want)
			}
		})
	}
}
