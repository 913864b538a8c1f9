//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StringsLinesIteration detects manual line splitting used only for
// iteration and suggests strings.Lines (Go 1.23+), which avoids the
// intermediate slice and handles both \n and \r\n endings.
func StringsLinesIteration(m dsl.Matcher) {
	m.Match(
		`for $_, $line := range strings.Split($s, "\n") { $*body }`,
		`for $_, $line := range strings.Split($s, "\r\n") { $*body }`,
	).
		Report(`use for $line := range strings.Lines($s) instead of ranging over strings.Split (Go 1.23+)`)
}

// StringsSplitIteration detects strings.Split used only for iteration and
// suggests strings.SplitSeq (Go 1.23+). Keep Split when the slice itself is
// needed, for indexing or length checks.
func StringsSplitIteration(m dsl.Matcher) {
	// Newline separators should use Lines() instead
	m.Match(
		`for $_, $part := range strings.Split($s, $sep) { $*body }`,
	).
		Where(!m["sep"].Text.Matches(`^"\\n"$`) && !m["sep"].Text.Matches(`^"\\r\\n"$`)).
		Report("use for $part := range strings.SplitSeq($s, $sep) to avoid the intermediate slice allocation (Go 1.23+)")

	m.Match(
		`for $_, $field := range strings.Fields($s) { $*body }`,
	).
		Report("use for $field := range strings.FieldsSeq($s) to avoid the intermediate slice allocation (Go 1.23+)")
}
