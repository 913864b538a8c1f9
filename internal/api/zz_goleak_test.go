package api

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain fails the suite when a test leaks goroutines. The summary cache
// janitor and the log rotator run for the life of the process, so they are
// expected residents.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}
