package benchmark

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/graintec/ricenet-go/internal/conf"
	"github.com/graintec/ricenet-go/internal/quality"
	"github.com/graintec/ricenet-go/internal/ricenet"
)

// runSeconds holds the benchmark duration flag value
var runSeconds int

func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run RiceNet inference benchmark",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validate benchmark duration
			if runSeconds < 5 || runSeconds > 300 {
				return fmt.Errorf("benchmark duration must be between 5 and 300 seconds, got %d", runSeconds)
			}
			return runBenchmark(settings, runSeconds)
		},
	}

	cmd.Flags().IntVarP(&runSeconds, "time", "t", 30, "benchmark duration in seconds (5-300)")

	return cmd
}

func runBenchmark(settings *conf.Settings, seconds int) error {
	var xnnpackResults, standardResults benchmarkResults

	// First run with XNNPACK
	fmt.Println("🚀 Testing with XNNPACK delegate:")
	settings.RiceNet.UseXNNPACK = true
	if err := runInferenceBenchmark(settings, &xnnpackResults, seconds); err != nil {
		fmt.Printf("❌ XNNPACK benchmark failed: %v\n", err)
	}

	// Then run without XNNPACK
	fmt.Println("\n🐌 Testing standard CPU inference:")
	settings.RiceNet.UseXNNPACK = false
	if err := runInferenceBenchmark(settings, &standardResults, seconds); err != nil {
		return fmt.Errorf("❌ standard CPU inference benchmark failed: %w", err)
	}

	// Show detailed performance comparison
	fmt.Printf("\nResults:\n")
	fmt.Printf("Method         Inference Time   Throughput\n")
	fmt.Printf("─────────────  ───────────────  ──────────────────────\n")

	// Show Standard results if available
	if standardResults.totalInferences > 0 {
		fmt.Printf("Standard       %6.1f ms         %6.2f scans/sec\n",
			float64(standardResults.avgInferenceTime.Milliseconds()),
			standardResults.scansPerSecond)
	} else {
		fmt.Printf("Standard       ❌ Failed\n")
	}

	// Show XNNPACK results if available
	if xnnpackResults.totalInferences > 0 {
		fmt.Printf("XNNPACK        %6.1f ms         %6.2f scans/sec\n",
			float64(xnnpackResults.avgInferenceTime.Milliseconds()),
			xnnpackResults.scansPerSecond)
	} else {
		fmt.Printf("XNNPACK        ❌ Failed\n")
	}
	fmt.Printf("─────────────  ───────────────  ──────────────────────\n")

	// Only show comparison if both tests succeeded
	if xnnpackResults.totalInferences > 0 && standardResults.totalInferences > 0 {
		speedImprovement := (float64(standardResults.avgInferenceTime.Milliseconds()) -
			float64(xnnpackResults.avgInferenceTime.Milliseconds())) /
			float64(standardResults.avgInferenceTime.Milliseconds()) * 100

		fmt.Printf("\n🚀 Speed improvement with XNNPACK: %.1f%%\n", speedImprovement)

		rating, description := getPerformanceRating(float64(xnnpackResults.avgInferenceTime.Milliseconds()))
		fmt.Printf("System Rating: %s, %s\n", rating, description)
	}

	return nil
}

// benchmarkResults stores benchmark metrics
type benchmarkResults struct {
	totalInferences  int           // number of inference calls
	avgInferenceTime time.Duration // average time per inference call
	scansPerSecond   float64       // throughput in sample scans per second
}

func runInferenceBenchmark(settings *conf.Settings, results *benchmarkResults, seconds int) error {
	// Initialize RiceNet
	rn, err := ricenet.NewRiceNet(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize RiceNet: %w", err)
	}
	defer rn.Delete()

	riceType, err := quality.ParseRiceType(settings.RiceNet.RiceType)
	if err != nil {
		return err
	}

	// A zero tensor stands in for a sample photo, inference cost does not
	// depend on pixel content
	sample := make([]float32, ricenet.InputSize*ricenet.InputSize*3)

	duration := time.Duration(seconds) * time.Second
	startTime := time.Now()
	var totalInferences int
	var totalDuration time.Duration

	fmt.Printf("⏳ Running benchmark for %d seconds...\n", seconds)

	for time.Since(startTime) < duration {
		inferenceStart := time.Now()

		if _, err := rn.Predict(sample, riceType); err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}

		totalDuration += time.Since(inferenceStart)
		totalInferences++

		// Update progress display
		if totalInferences%10 == 0 {
			avgTime := totalDuration / time.Duration(totalInferences)
			fmt.Printf("\r🔄 Inferences: \033[1;36m%d\033[0m, Average time: \033[1;33m%dms\033[0m",
				totalInferences, avgTime.Milliseconds())
		}
	}
	fmt.Println() // Add newline after progress display

	if totalInferences == 0 {
		return fmt.Errorf("no inference completed within %d seconds", seconds)
	}

	// Calculate and store results
	results.totalInferences = totalInferences
	results.avgInferenceTime = totalDuration / time.Duration(totalInferences)
	results.scansPerSecond = float64(totalInferences) / duration.Seconds()

	return nil
}

func getPerformanceRating(inferenceTime float64) (rating, description string) {
	switch {
	case inferenceTime > 3000:
		return "❌ Failed", "System is too slow for on-device sample analysis"
	case inferenceTime > 2000:
		return "❌ Very Poor", "Operators will wait noticeably on every sample"
	case inferenceTime > 1000:
		return "⚠️ Poor", "System may struggle with batch intake days"
	case inferenceTime > 500:
		return "👍 Decent", "System should handle routine sample intake"
	case inferenceTime > 200:
		return "✨ Good", "System will perform well"
	case inferenceTime > 100:
		return "🌟 Very Good", "System will perform very well"
	case inferenceTime > 20:
		return "🏆 Excellent", "System will perform excellently"
	default:
		return "🚀 Superb", "System will perform exceptionally well"
	}
}
