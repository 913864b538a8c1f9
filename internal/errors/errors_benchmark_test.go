package errors

import (
	"fmt"
	"testing"
)

// BenchmarkErrorCreationFastPath tests error creation performance when no reporter is active
func BenchmarkErrorCreationFastPath(b *testing.B) {
	SetReporter(nil)

	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		_ = New(err).
			Component("test").
			Category(CategoryGeneric).
			Build()
	}
}

// BenchmarkErrorCreationAutoDetect tests error creation with auto-detection when no reporter is active
func BenchmarkErrorCreationAutoDetect(b *testing.B) {
	SetReporter(nil)

	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		_ = New(err).Build() // Let it auto-detect component and category
	}
}

// BenchmarkErrorCreationWithContext tests error creation with context data attached
func BenchmarkErrorCreationWithContext(b *testing.B) {
	SetReporter(nil)

	b.ReportAllocs()

	for b.Loop() {
		err := fmt.Errorf("test error")
		_ = New(err).
			Component("test").
			Category(CategoryGeneric).
			Context("operation", "benchmark").
			Context("attempt", 1).
			Build()
	}
}

// BenchmarkIsCategory tests category checks through wrapped errors
func BenchmarkIsCategory(b *testing.B) {
	SetReporter(nil)

	ee := Newf("scan missing").Category(CategoryNotFound).Build()
	wrapped := fmt.Errorf("outer: %w", ee)

	b.ReportAllocs()

	for b.Loop() {
		_ = IsCategory(wrapped, CategoryNotFound)
	}
}
