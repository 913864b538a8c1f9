// Package export provides the export command for writing stored scans to CSV.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/export"
	"github.com/graintec/ricenet-go/internal/quality"
)

var (
	outputDir string
	startDate string
	endDate   string
	gradeCode string
)

// Command creates and returns the export command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored scans to a CSV file",
		Long:  `Export writes stored scan results as CSV, optionally filtered by capture date and milling grade.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(settings)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to write the CSV file to")
	cmd.Flags().StringVar(&startDate, "start", "", "Only export scans captured on or after this date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&endDate, "end", "", "Only export scans captured on or before this date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&gradeCode, "grade", "", "Only export scans with this milling grade code: P, 1, 2, 3 or BG")

	return cmd
}

func runExport(settings *conf.Settings) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output is enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer store.Close() //nolint:errcheck // read-only access, close error is moot

	filter := &datastore.ScanFilter{
		GradeCode: gradeCode,
		Ascending: true, // exports read naturally in capture order
	}
	var err error
	if filter.From, err = parseTimeFlag(startDate); err != nil {
		return fmt.Errorf("invalid start date %q: use YYYY-MM-DD or RFC 3339", startDate)
	}
	if filter.To, err = parseTimeFlag(endDate); err != nil {
		return fmt.Errorf("invalid end date %q: use YYYY-MM-DD or RFC 3339", endDate)
	}

	entities, _, err := store.SearchScans(filter)
	if err != nil {
		return fmt.Errorf("failed to list scans: %w", err)
	}
	if len(entities) == 0 {
		fmt.Println("No scans matched the filter, nothing to export")
		return nil
	}

	scans := make([]quality.Scan, 0, len(entities))
	for i := range entities {
		scan, err := entities[i].ToScan()
		if err != nil {
			return fmt.Errorf("failed to decode stored scan %s: %w", entities[i].ID, err)
		}
		scans = append(scans, scan)
	}

	path := filepath.Join(outputDir, export.Filename(settings.Export.Prefix, time.Now()))
	if err := export.WriteCSVFile(path, scans); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}

	fmt.Printf("✅ Exported %d scans to %s\n", len(scans), path)
	return nil
}

// parseTimeFlag parses a date flag, accepting RFC 3339 timestamps and plain
// dates. An empty value yields the zero time.
func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, value)
}
