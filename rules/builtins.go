//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// MinMaxBuiltin detects integer min/max built from math.Min/math.Max with
// float64 conversions and suggests the built-in min/max functions (Go 1.21+).
func MinMaxBuiltin(m dsl.Matcher) {
	m.Match(
		`int(math.Min(float64($a), float64($b)))`,
		`int64(math.Min(float64($a), float64($b)))`,
	).
		Report("use min($a, $b) instead of math.Min with float64 conversions (Go 1.21+)").
		Suggest("min($a, $b)")

	m.Match(
		`int(math.Max(float64($a), float64($b)))`,
		`int64(math.Max(float64($a), float64($b)))`,
	).
		Report("use max($a, $b) instead of math.Max with float64 conversions (Go 1.21+)").
		Suggest("max($a, $b)")
}

// ClearBuiltin detects loop-based map clearing and suggests the built-in
// clear() function (Go 1.21+).
func ClearBuiltin(m dsl.Matcher) {
	m.Match(
		`for $k := range $m { delete($m, $k) }`,
		`for $k, _ := range $m { delete($m, $k) }`,
	).
		Report("use clear($m) instead of loop-based map clearing (Go 1.21+)").
		Suggest("clear($m)")
}

// RangeOverInteger detects counting loops from zero and suggests the
// range-over-integer syntax (Go 1.22+). Loops with other starting values,
// comparisons or increments are intentionally not flagged.
func RangeOverInteger(m dsl.Matcher) {
	// Exclude benchmark loops over b.N, those should use b.Loop() instead
	m.Match(
		`for $i := 0; $i < $n; $i++ { $*body }`,
	).
		Where(
			!m["n"].Text.Matches(`.*\.N$`),
		).
		Report("use for $i := range $n instead of for $i := 0; $i < $n; $i++ (Go 1.22+)").
		Suggest("for $i := range $n { $body }")
}
