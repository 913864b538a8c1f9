//go:build ruleguard

// Package gorules defines custom linter rules for Go modernization.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// WaitGroupGo detects the manual Add/Done pattern and suggests wg.Go (Go 1.25+).
//
// Old pattern:
//
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    doSomething()
//	}()
//
// New pattern:
//
//	wg.Go(func() {
//	    doSomething()
//	})
func WaitGroupGo(m dsl.Matcher) {
	m.Match(
		`$wg.Add(1); go func() { defer $wg.Done(); $*body }()`,
	).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { $body }) instead of manual Add/Done pattern (Go 1.25+)").
		Suggest("$wg.Go(func() { $body })")

	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of go func() { defer $wg.Done(); ... }() (Go 1.25+)")

	m.Match(`go func() { $*_; $wg.Done() }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup")).
		Report("use $wg.Go(func() { ... }) instead of a manual Done() call (Go 1.25+)")
}
