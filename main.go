package main

import (
	"fmt"
	"os"

	"github.com/graintec/ricenet-go/cmd"
	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/logging"
)

// version and buildDate are overridden by the linker at release build time
var version = "dev"
var buildDate = "unknown"

func main() {
	logging.Init()

	settings := conf.Setting()

	// Stamp build information so scans, backups and the API can report it
	settings.Version = version
	settings.BuildDate = buildDate

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
