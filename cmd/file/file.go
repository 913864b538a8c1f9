package file

import (
	"github.com/spf13/cobra"

	"github.com/graintec/ricenet-go/internal/analysis"
	"github.com/graintec/ricenet-go/internal/conf"
)

// Command creates a new file command for analyzing a single sample photo.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [photo.jpg]",
		Short: "Analyze a rice sample photo",
		Long:  `Analyze a single rice sample photo for grain counts, dimensions, color and quality grade.`,
		Args:  cobra.ExactArgs(1), // the command expects exactly one argument
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Input.Path = args[0]
			_, err := analysis.FileAnalysis(settings)
			return err
		},
	}

	// Set up flags specific to the 'file' command
	setupFlags(cmd, settings)

	return cmd
}

// setupFlags configures flags specific to the file command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", "", "Path to output directory")
	cmd.Flags().StringVarP(&settings.Output.File.Type, "format", "f", "", "Output format: table, csv")
}
