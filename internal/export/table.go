package export

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/graintec/ricenet-go/internal/errors"
	"github.com/graintec/ricenet-go/internal/quality"
)

// WriteTable writes a compact tab-separated summary of the scans, one line
// per scan, for terminal output. If filename is an empty string the table
// goes to stdout.
func WriteTable(scans []quality.Scan, filename string) error {
	var w io.Writer
	if filename == "" {
		w = os.Stdout
	} else {
		if !strings.HasSuffix(filename, ".txt") {
			filename += ".txt"
		}
		file, err := os.Create(filename)
		if err != nil {
			return errors.New(err).
				Component("export").
				Category(errors.CategoryFileIO).
				Context("path", filename).
				Build()
		}
		defer file.Close() //nolint:errcheck // text output, best effort
		w = file
	}

	if err := writeTable(w, scans); err != nil {
		return err
	}
	if filename != "" {
		fmt.Println("Output written to", filename)
	}
	return nil
}

func writeTable(w io.Writer, scans []quality.Scan) error {
	header := "Captured\tRice Type\tCount\tBroken %\tGrade\tShape\tLength Class\tChalkiness\tWarnings\n"
	if _, err := w.Write([]byte(header)); err != nil {
		return errors.Newf("writing table header: %w", err).
			Component("export").
			Category(errors.CategoryExport).
			Build()
	}

	for i := range scans {
		s := &scans[i]
		line := fmt.Sprintf("%s\t%s\t%d\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
			s.CapturedAt.Format(timestampLayout),
			s.RiceType.Title(),
			s.Metrics.Count,
			s.Metrics.BrokenPercent(),
			s.Classifications.MillingGrade.Label,
			s.Classifications.GrainShape.Label,
			s.Classifications.LengthClass,
			s.Classifications.Chalkiness.Label,
			formatWarnings(s.Classifications.Warnings))
		if _, err := w.Write([]byte(line)); err != nil {
			return errors.Newf("writing table row: %w", err).
				Component("export").
				Category(errors.CategoryExport).
				Context("scan_id", s.ID).
				Build()
		}
	}
	return nil
}

// formatWarnings renders defect warnings as "black:high, red:low" or a dash
// when the scan is clean.
func formatWarnings(warnings []quality.DefectWarning) string {
	if len(warnings) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(warnings))
	for _, w := range warnings {
		parts = append(parts, fmt.Sprintf("%s:%s", w.Type, w.Severity))
	}
	return strings.Join(parts, ", ")
}
