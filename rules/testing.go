//go:build ruleguard

package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// BenchmarkLoop detects the old benchmark iteration pattern and suggests
// b.Loop (Go 1.24+), which keeps setup out of the measured region and stops
// the compiler from optimizing the loop body away.
func BenchmarkLoop(m dsl.Matcher) {
	m.Match(
		`for $i := 0; $i < $b.N; $i++ { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for $i := 0; $i < $b.N; $i++ (Go 1.24+); if using $i in the body, declare it separately")

	m.Match(
		`for range $b.N { $*body }`,
	).
		Where(m["b"].Type.Is("*testing.B")).
		Report("use for $b.Loop() { ... } instead of for range $b.N (Go 1.24+)").
		Suggest("for $b.Loop() { $body }")
}

// TestingContext detects context.Background() in test files and suggests
// t.Context (Go 1.24+), which is canceled automatically when the test ends.
func TestingContext(m dsl.Matcher) {
	m.Match(
		`$ctx := context.Background()`,
		`$ctx = context.Background()`,
		`$ctx := context.TODO()`,
		`$ctx = context.TODO()`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of context.Background() for automatic cancellation on test completion (Go 1.24+)")

	m.Match(
		`$fn(context.Background(), $*args)`,
		`$fn(context.TODO(), $*args)`,
	).
		Where(m.File().Name.Matches(`_test\.go$`)).
		Report("in tests, use t.Context() instead of context.Background() (Go 1.24+)")
}
