package directory

import (
	"github.com/spf13/cobra"

	"github.com/graintec/ricenet-go/internal/analysis"
	"github.com/graintec/ricenet-go/internal/conf"
)

// Command creates a new cobra.Command for directory analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Analyze all sample photos in a directory",
		Long:  "Provide a directory path to analyze all JPEG and PNG sample photos within it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// The directory to analyze is passed as the first argument
			settings.Input.Path = args[0]
			_, err := analysis.DirectoryAnalysis(settings)
			return err
		},
	}

	setupFlags(cmd, settings)

	return cmd
}

// setupFlags defines flags specific to the directory command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.Flags().BoolVarP(&settings.Input.Recursive, "recursive", "r", false, "Recursively analyze subdirectories")
	cmd.Flags().StringVarP(&settings.Output.File.Path, "output", "o", "", "Path to output directory")
	cmd.Flags().StringVarP(&settings.Output.File.Type, "format", "f", "", "Output format: table, csv")
}
