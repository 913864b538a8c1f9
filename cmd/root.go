package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graintec/ricenet-go/cmd/backup"
	"github.com/graintec/ricenet-go/cmd/benchmark"
	"github.com/graintec/ricenet-go/cmd/directory"
	"github.com/graintec/ricenet-go/cmd/export"
	"github.com/graintec/ricenet-go/cmd/file"
	"github.com/graintec/ricenet-go/cmd/prune"
	"github.com/graintec/ricenet-go/cmd/serve"
	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/quality"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ricenet-go",
		Short:   "RiceNet-Go CLI",
		Long:    `RiceNet-Go analyzes rice sample photos for milling quality, grain shape, chalkiness and defects.`,
		Version: fmt.Sprintf("%s (built %s)", settings.Version, settings.BuildDate),
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, settings)

	// Add sub-commands to the root command.
	subcommands := []*cobra.Command{
		file.Command(settings),
		directory.Command(settings),
		serve.Command(settings),
		export.Command(settings),
		prune.Command(settings),
		backup.Command(settings),
		benchmark.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return initialize(settings)
	}

	return rootCmd
}

// initialize runs before any subcommand, after flags have been parsed into
// the settings struct. It normalizes and validates values every command
// depends on.
func initialize(settings *conf.Settings) error {
	riceType, err := quality.ParseRiceType(strings.ToLower(settings.RiceNet.RiceType))
	if err != nil {
		return fmt.Errorf("invalid rice type %q: must be paddy, brown or white", settings.RiceNet.RiceType)
	}
	settings.RiceNet.RiceType = string(riceType)

	return nil
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.RiceNet.RiceType, "ricetype", "t", viper.GetString("ricenet.ricetype"), "Rice type of the analyzed samples: paddy, brown or white")
	rootCmd.PersistentFlags().StringVar(&settings.RiceNet.ModelPath, "model", viper.GetString("ricenet.modelpath"), "Path to an external model file, empty for the embedded model")
	rootCmd.PersistentFlags().IntVar(&settings.RiceNet.Threads, "threads", viper.GetInt("ricenet.threads"), "Number of CPU threads used for inference, 0 for automatic")
	rootCmd.PersistentFlags().Float64Var(&settings.RiceNet.Latitude, "latitude", viper.GetFloat64("ricenet.latitude"), "Latitude of the sample capture location")
	rootCmd.PersistentFlags().Float64Var(&settings.RiceNet.Longitude, "longitude", viper.GetFloat64("ricenet.longitude"), "Longitude of the sample capture location")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
