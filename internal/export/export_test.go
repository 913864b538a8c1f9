package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintec/ricenet-go/internal/quality"
)

func exportScan(n int) quality.Scan {
	capturedAt := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute)
	m := quality.Metrics{
		Count:       300 + n,
		BrokenCount: 24,
		LongCount:   210,
		MediumCount: 90,
		BlackCount:  3,
		ChalkyCount: 12,
		RedCount:    1,
		YellowCount: 2,
		GreenCount:  0,
		LengthAvg:   6.43,
		WidthAvg:    2.21,
		LWRatioAvg:  2.81,
		AvgL:        66.12,
		AvgA:        -1.25,
		AvgB:        17.04,
	}
	c := quality.Classify(m, quality.DefaultThresholds())
	return quality.Scan{
		ID:              fmt.Sprintf("scan-%04d", n),
		Operator:        "Mill-7",
		RiceType:        quality.RiceWhite,
		ImagePath:       fmt.Sprintf("samples/%04d.jpg", n),
		CapturedAt:      capturedAt,
		Metrics:         m,
		Classifications: c,
		InferenceMs:     38,
	}
}

func TestHeaderAndRowStayAligned(t *testing.T) {
	t.Parallel()

	scan := exportScan(0)
	row := Row(&scan)

	assert.Len(t, Header(), 23)
	assert.Len(t, row, len(Header()))
}

func TestRowFormatting(t *testing.T) {
	t.Parallel()

	scan := exportScan(0)
	row := Row(&scan)

	assert.Equal(t, "scan-0000", row[0])
	assert.Equal(t, "2025-06-01 08:00:00", row[1])
	assert.Equal(t, "white", row[2])
	assert.Equal(t, "300", row[3])
	assert.Equal(t, "24", row[4])
	assert.Equal(t, "8.00", row[5], "broken percent is recomputed from counts")
	assert.Equal(t, "6.43", row[13])
	assert.Equal(t, "-1.25", row[17], "negative a* survives formatting")
	assert.Equal(t, "Grade 1", row[19])
	assert.Equal(t, "Medium", row[20])
	assert.Equal(t, "Mixed", row[21])
	assert.Equal(t, "38", row[22])
}

func TestRowEmptySampleBrokenPercent(t *testing.T) {
	t.Parallel()

	scan := exportScan(0)
	scan.Metrics = quality.Metrics{}
	scan.Classifications = quality.Classify(scan.Metrics, quality.DefaultThresholds())

	row := Row(&scan)
	assert.Equal(t, "0", row[3])
	assert.Equal(t, "0.00", row[5])
}

func TestRenderCSVRoundTrip(t *testing.T) {
	t.Parallel()

	scans := make([]quality.Scan, 0, 10)
	for i := range 10 {
		scans = append(scans, exportScan(i))
	}

	data, err := RenderCSV(scans)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11, "header plus one row per scan")
	assert.Equal(t, Header(), records[0])

	for i, scan := range scans {
		record := records[i+1]
		assert.Equal(t, scan.ID, record[0], "input order is preserved")
		assert.Equal(t, scan.CapturedAt.Format(time.DateTime), record[1])

		count, err := strconv.Atoi(record[3])
		require.NoError(t, err)
		assert.Equal(t, scan.Metrics.Count, count)

		brokenPercent, err := strconv.ParseFloat(record[5], 64)
		require.NoError(t, err)
		assert.InDelta(t, scan.Metrics.BrokenPercent(), brokenPercent, 0.005)

		lengthAvg, err := strconv.ParseFloat(record[13], 64)
		require.NoError(t, err)
		assert.InDelta(t, scan.Metrics.LengthAvg, lengthAvg, 0.005)

		assert.Equal(t, scan.Classifications.MillingGrade.Label, record[19])
		assert.Equal(t, string(scan.Classifications.LengthClass), record[21])
	}
}

func TestRenderCSVQuotesReservedCharacters(t *testing.T) {
	t.Parallel()

	scan := exportScan(0)
	scan.Classifications.MillingGrade.Label = `Grade "1", provisional`

	data, err := RenderCSV([]quality.Scan{scan})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Grade ""1"", provisional"`)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `Grade "1", provisional`, records[1][19])
}

func TestFilename(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 6, 1, 8, 30, 15, 0, time.UTC)
	assert.Equal(t, "mill7_20250601_083015.csv", Filename("mill7", at))
	assert.Equal(t, "rice_quality_export_20250601_083015.csv", Filename("", at))
}

func TestWriteCSVFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "scans")

	require.NoError(t, WriteCSVFile(target, []quality.Scan{exportScan(0)}))

	data, err := os.ReadFile(target + ".csv")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	scan := exportScan(0)
	scan.Metrics.BlackCount = 75
	scan.Metrics.Count = 250
	scan.Classifications = quality.Classify(scan.Metrics, quality.DefaultThresholds())

	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, []quality.Scan{scan}))

	out := buf.String()
	assert.Contains(t, out, "Rice Type")
	assert.Contains(t, out, "White")
	assert.Contains(t, out, "black:high")
}

func TestFormatWarnings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "-", formatWarnings(nil))

	warnings := []quality.DefectWarning{
		{Type: quality.DefectBlack, Severity: quality.SeverityHigh, Percentage: 30},
		{Type: quality.DefectRed, Severity: quality.SeverityLow, Percentage: 6},
	}
	assert.Equal(t, "black:high, red:low", formatWarnings(warnings))
}
