package analysis

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/export"
	"github.com/graintec/ricenet-go/internal/quality"
)

// DirectoryAnalysis processes all supported photo files in the given
// directory as one batch, producing a single combined output.
func DirectoryAnalysis(settings *conf.Settings) ([]quality.Scan, error) {
	// Initialize RiceNet interpreter
	if err := initializeRiceNet(settings); err != nil {
		log.Printf("Failed to initialize RiceNet: %v", err)
		return nil, err
	}

	watchDir := settings.Input.Path
	log.Printf("Scanning directory: %s", watchDir)

	paths, err := collectImageFiles(watchDir, settings.Input.Recursive)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		log.Printf("Directory scan completed, no photos to analyze")
		return nil, nil
	}

	startTime := time.Now()
	scans := make([]quality.Scan, len(paths))

	// The interpreter serializes inference internally, so extra workers
	// overlap photo decoding and scaling with it.
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(analysisWorkers(settings))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scan, err := analyzeImage(settings, path)
			if err != nil {
				return fmt.Errorf("error analyzing file '%s': %w", path, err)
			}
			scans[i] = *scan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("Directory analysis completed, processed %d file(s) in %v",
		len(scans), time.Since(startTime).Round(time.Millisecond))

	// Ensure output directory exists if specified
	if settings.Output.File.Path != "" {
		if err := os.MkdirAll(settings.Output.File.Path, 0o755); err != nil {
			log.Printf("Failed to create output directory: %v", err)
			return nil, err
		}
	}

	if err := persistScans(settings, scans); err != nil {
		return nil, err
	}
	if err := writeDirectoryResults(settings, scans); err != nil {
		return nil, err
	}
	notifyScans(settings, scans)

	return scans, nil
}

// collectImageFiles walks the directory and returns the supported photo
// files it contains in lexical order.
func collectImageFiles(watchDir string, recursive bool) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(watchDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			// If recursion is not enabled and this is a subdirectory, skip it
			if !recursive && path != watchDir {
				return filepath.SkipDir
			}
			return nil
		}

		if isImageFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error scanning directory %s: %w", watchDir, err)
	}
	return paths, nil
}

// writeDirectoryResults writes the aggregate results for a directory run.
// Table output goes to stdout, CSV output to one timestamped file so a batch
// produces a single export.
func writeDirectoryResults(settings *conf.Settings, scans []quality.Scan) error {
	if settings.Output.File.Type == "" || settings.Output.File.Type == "table" {
		if err := export.WriteTable(scans, ""); err != nil {
			return fmt.Errorf("failed to write results table: %w", err)
		}
	}
	if settings.Output.File.Type == "csv" {
		outputFile := export.Filename(settings.Export.Prefix, time.Now())
		if settings.Output.File.Path != "" {
			outputFile = filepath.Join(settings.Output.File.Path, outputFile)
		}
		if err := export.WriteCSVFile(outputFile, scans); err != nil {
			return fmt.Errorf("failed to write results CSV: %w", err)
		}
		log.Printf("Results written to %s", outputFile)
	}
	return nil
}

// analysisWorkers determines the number of concurrent analysis workers
// (between 1 and 8).
func analysisWorkers(settings *conf.Settings) int {
	numWorkers := settings.RiceNet.Threads
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return clampInt(numWorkers, 1, 8)
}

// clampInt ensures a value is between min and max (inclusive)
func clampInt(value, minValue, maxValue int) int {
	if value < minValue {
		return minValue
	}
	if value > maxValue {
		return maxValue
	}
	return value
}
