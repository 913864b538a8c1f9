// Package export renders analyzed scans as CSV for files, downloads and
// sharing targets.
package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/graintec/ricenet-go/internal/errors"
	"github.com/graintec/ricenet-go/internal/quality"
)

const (
	// MIMEType is the content type for generated CSV exports.
	MIMEType = "text/csv"

	// DefaultPrefix names export files when the caller supplies no prefix.
	DefaultPrefix = "rice_quality_export"

	timestampLayout = "2006-01-02 15:04:05"
	filenameLayout  = "20060102_150405"
)

// header lists the export columns in their fixed order. Rows are written in
// the same order, so the two must stay in sync.
var header = []string{
	"scan_id",
	"captured_at",
	"rice_type",
	"count",
	"broken_count",
	"broken_percent",
	"long_count",
	"medium_count",
	"black_count",
	"chalky_count",
	"red_count",
	"yellow_count",
	"green_count",
	"length_avg",
	"width_avg",
	"lw_ratio_avg",
	"avg_l",
	"avg_a",
	"avg_b",
	"milling_grade",
	"grain_shape",
	"length_class",
	"inference_ms",
}

// Header returns the CSV column names in export order.
func Header() []string {
	columns := make([]string, len(header))
	copy(columns, header)
	return columns
}

// Row serializes one scan into its CSV fields. The broken percentage is
// recomputed from the counts rather than read from a stored column so the
// export never carries a stale value.
func Row(s *quality.Scan) []string {
	m := s.Metrics
	return []string{
		s.ID,
		s.CapturedAt.Format(timestampLayout),
		s.RiceType.String(),
		strconv.Itoa(m.Count),
		strconv.Itoa(m.BrokenCount),
		formatFloat(m.BrokenPercent()),
		strconv.Itoa(m.LongCount),
		strconv.Itoa(m.MediumCount),
		strconv.Itoa(m.BlackCount),
		strconv.Itoa(m.ChalkyCount),
		strconv.Itoa(m.RedCount),
		strconv.Itoa(m.YellowCount),
		strconv.Itoa(m.GreenCount),
		formatFloat(m.LengthAvg),
		formatFloat(m.WidthAvg),
		formatFloat(m.LWRatioAvg),
		formatFloat(m.AvgL),
		formatFloat(m.AvgA),
		formatFloat(m.AvgB),
		s.Classifications.MillingGrade.Label,
		s.Classifications.GrainShape.Label,
		string(s.Classifications.LengthClass),
		strconv.FormatInt(s.InferenceMs, 10),
	}
}

// formatFloat renders continuous values with exactly two decimals.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteCSV writes the header and one row per scan to w. Scans are written in
// input order, ordering and filtering are the caller's responsibility.
func WriteCSV(w io.Writer, scans []quality.Scan) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return errors.Newf("writing CSV header: %w", err).
			Component("export").
			Category(errors.CategoryExport).
			Build()
	}

	for i := range scans {
		if err := writer.Write(Row(&scans[i])); err != nil {
			return errors.Newf("writing CSV row: %w", err).
				Component("export").
				Category(errors.CategoryExport).
				Context("scan_id", scans[i].ID).
				Build()
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryExport).
			Build()
	}
	return nil
}

// RenderCSV returns the full CSV document for the scans as bytes, for
// handing to HTTP responses and sharing targets.
func RenderCSV(scans []quality.Scan) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, scans); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSVFile writes the scans to the named file, appending the .csv
// extension when missing.
func WriteCSVFile(filename string, scans []quality.Scan) error {
	if !strings.HasSuffix(filename, ".csv") {
		filename += ".csv"
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", filename).
			Build()
	}

	if err := WriteCSV(file, scans); err != nil {
		file.Close() //nolint:errcheck // the write error takes precedence
		return err
	}

	if err := file.Close(); err != nil {
		return errors.New(err).
			Component("export").
			Category(errors.CategoryFileIO).
			Context("path", filename).
			Build()
	}
	return nil
}

// Filename builds the conventional export file name, prefix_20060102_150405.csv.
// An empty prefix falls back to DefaultPrefix.
func Filename(prefix string, t time.Time) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "_" + t.Format(filenameLayout) + ".csv"
}
