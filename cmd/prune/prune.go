// Package prune provides the prune command for applying the scan retention
// policy on demand.
package prune

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/datastore"
)

// Command creates and returns the prune command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove the oldest synced scans above the retention cap",
		Long:  `Prune deletes the oldest synced scans until the stored count is back within the configured retention cap. Scans that have not been synced yet are never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(settings)
		},
	}

	return cmd
}

func runPrune(settings *conf.Settings) error {
	if settings.Retention.MaxScans <= 0 {
		fmt.Println("ℹ️ Scan retention is disabled, nothing to prune")
		return nil
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output is enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer store.Close() //nolint:errcheck // prune is done, close error is moot

	removed, err := store.EnforceRetention()
	if err != nil {
		return fmt.Errorf("failed to enforce retention: %w", err)
	}

	remaining, err := store.CountScans()
	if err != nil {
		return fmt.Errorf("failed to count scans: %w", err)
	}

	if removed == 0 {
		fmt.Printf("✅ Scan count %d is within the retention cap of %d\n", remaining, settings.Retention.MaxScans)
		return nil
	}

	fmt.Printf("🧹 Removed %d synced scans, %d scans remain\n", removed, remaining)
	return nil
}
