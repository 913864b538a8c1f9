package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/datastore"
	"github.com/graintec/ricenet-go/internal/export"
	"github.com/graintec/ricenet-go/internal/notify"
	"github.com/graintec/ricenet-go/internal/quality"
)

// FileAnalysis conducts an analysis of a single sample photo and outputs the
// results. It decodes the photo, runs the combined regression model on it and
// derives the quality assessment based on the provided configuration.
func FileAnalysis(settings *conf.Settings) (*quality.Scan, error) {
	// Initialize RiceNet interpreter
	if err := initializeRiceNet(settings); err != nil {
		return nil, err
	}

	if err := validateImageFile(settings.Input.Path); err != nil {
		return nil, err
	}

	startTime := time.Now()
	scan, err := analyzeImage(settings, settings.Input.Path)
	if err != nil {
		return nil, err
	}

	// Show total time taken for analysis
	fmt.Printf("\r\033[K\033[37m📄 %s\033[0m | \033[32m✅ Analysis completed in %s\033[0m\n",
		truncateFilename(settings.Input.Path),
		time.Since(startTime).Round(time.Millisecond))

	scans := []quality.Scan{*scan}
	if err := persistScans(settings, scans); err != nil {
		return nil, err
	}
	if err := writeResults(settings, scans); err != nil {
		return nil, err
	}
	notifyScans(settings, scans)

	return scan, nil
}

// analyzeImage runs the full pipeline on a single photo: inference on the
// decoded image, denormalization of the regression outputs and classification
// against the configured thresholds.
func analyzeImage(settings *conf.Settings, path string) (*quality.Scan, error) {
	riceType, err := quality.ParseRiceType(settings.RiceNet.RiceType)
	if err != nil {
		return nil, err
	}

	stats, err := quality.StatsFromSettings(settings)
	if err != nil {
		return nil, err
	}

	prediction, err := rn.PredictFile(path, riceType)
	if err != nil {
		return nil, fmt.Errorf("error analyzing photo %s: %w", filepath.Base(path), err)
	}

	metrics, err := quality.Denormalize(prediction.Raw, stats)
	if err != nil {
		return nil, fmt.Errorf("error denormalizing predictions for %s: %w", filepath.Base(path), err)
	}

	classifications := quality.Classify(metrics, quality.ThresholdsFromSettings(settings))

	scan := quality.NewScan(settings, riceType, path, captureTime(path), metrics, classifications, prediction.InferenceMs)

	GetLogger().Info("photo analyzed",
		"path", path,
		"rice_type", riceType.String(),
		"count", metrics.Count,
		"grade", classifications.MillingGrade.Code,
		"inference_ms", prediction.InferenceMs)

	return &scan, nil
}

// validateImageFile checks if the provided file path is a valid sample photo.
func validateImageFile(filePath string) error {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return fmt.Errorf("\033[31m❌ Error accessing file %s: %w\033[0m", filepath.Base(filePath), err)
	}

	// Check if it's a file (not a directory)
	if fileInfo.IsDir() {
		return fmt.Errorf("\033[31m❌ The path %s is a directory, not a file\033[0m", filepath.Base(filePath))
	}

	// Check if file size is 0
	if fileInfo.Size() == 0 {
		return fmt.Errorf("\033[31m❌ File %s is empty (0 bytes)\033[0m", filepath.Base(filePath))
	}

	if !isImageFile(filePath) {
		return fmt.Errorf("\033[31m❌ File %s is not a supported photo format (jpg, jpeg or png)\033[0m", filepath.Base(filePath))
	}

	return nil
}

// isImageFile reports whether the path has a supported photo extension.
func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// captureTime returns the sample capture time. Photos arrive from cameras
// and phones without a trustworthy clock of their own, so the file
// modification time stands in, falling back to the current time.
func captureTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Now()
	}
	return info.ModTime()
}

// truncateFilename truncates the filename to 30 characters if it's longer.
func truncateFilename(path string) string {
	filename := filepath.Base(path)
	if len(filename) > 30 {
		return filename[:27] + "..."
	}
	return filename
}

// persistScans stores analyzed scans when a database output is enabled.
func persistScans(settings *conf.Settings, scans []quality.Scan) error {
	store := datastore.New(settings)
	if store == nil {
		return nil // no database output configured
	}

	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer store.Close() //nolint:errcheck // read path is done, close error is moot

	for i := range scans {
		entity, err := datastore.FromScan(&scans[i])
		if err != nil {
			return err
		}
		if err := store.Save(&entity); err != nil {
			return fmt.Errorf("failed to save scan %s: %w", scans[i].ID, err)
		}
	}
	return nil
}

// writeResults writes the scans to the output file based on the configuration.
func writeResults(settings *conf.Settings, scans []quality.Scan) error {
	// Prepare the output file path if OutputDir is specified in the configuration.
	var outputFile string
	if settings.Output.File.Path != "" {
		// Safely concatenate file paths using filepath.Join to avoid cross-platform issues.
		outputFile = filepath.Join(settings.Output.File.Path, filepath.Base(settings.Input.Path))
	}

	// Output the scans based on the desired output type in the configuration.
	// If OutputType is not specified or if it's set to "table", output as a table format.
	if settings.Output.File.Type == "" || settings.Output.File.Type == "table" {
		if err := export.WriteTable(scans, outputFile); err != nil {
			return fmt.Errorf("failed to write results table: %w", err)
		}
	}
	// If OutputType is set to "csv", output as CSV format. Without an output
	// path the CSV goes to stdout.
	if settings.Output.File.Type == "csv" {
		if outputFile == "" {
			if err := export.WriteCSV(os.Stdout, scans); err != nil {
				return fmt.Errorf("failed to write results CSV: %w", err)
			}
		} else if err := export.WriteCSVFile(outputFile, scans); err != nil {
			return fmt.Errorf("failed to write results CSV: %w", err)
		}
	}
	return nil
}

// notifyScans sends alerts for scans that cross the notification thresholds.
// Alert delivery is best effort and never fails the analysis.
func notifyScans(settings *conf.Settings, scans []quality.Scan) {
	notifier, err := notify.New(settings)
	if err != nil {
		GetLogger().Error("failed to initialize notifier", "error", err)
		return
	}
	if !notifier.Enabled() {
		return
	}

	for i := range scans {
		if !notifier.ShouldAlert(&scans[i]) {
			continue
		}
		if err := notifier.ScanAlert(&scans[i]); err != nil {
			GetLogger().Error("failed to send scan alert", "scan_id", scans[i].ID, "error", err)
		}
	}
}
