// Package cpuspec detects processor capabilities so inference thread counts
// can be tuned to performance cores on hybrid architectures.
package cpuspec

import (
	"regexp"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// CPUSpec contains information about CPU specifications
type CPUSpec struct {
	BrandName        string
	PerformanceCores int
	EfficiencyCores  int
}

// GetCPUSpec returns CPU specifications including the number of performance cores
func GetCPUSpec() CPUSpec {
	brandName := cpuid.CPU.BrandName

	return CPUSpec{
		BrandName:        brandName,
		PerformanceCores: determinePerformanceCores(brandName),
	}
}

// GetOptimalThreadCount returns the recommended number of threads for model
// inference. On hybrid architectures only performance cores are counted,
// efficiency cores are left to the rest of the system.
func (c CPUSpec) GetOptimalThreadCount() int {
	// Get actual available CPU count (important for VMs)
	availableCPUs := runtime.NumCPU()

	if c.PerformanceCores > 0 {
		if c.PerformanceCores > availableCPUs {
			return availableCPUs
		}
		return c.PerformanceCores
	}

	// Fallback to using all logical cores if we can't determine P-cores
	return cpuid.CPU.LogicalCores
}

// intelPCores maps hybrid Intel Core i-series models to their performance
// core count, 12th through 14th gen.
var intelPCores = map[string]int{
	"12900": 8,
	"12700": 8,
	"12600": 6,
	"12400": 6,
	"12100": 4,
	"13900": 8,
	"13700": 8,
	"13600": 6,
	"13500": 6,
	"13400": 6,
	"13100": 4,
	"14900": 8,
	"14700": 8,
	"14600": 6,
	"14400": 6,
	"14100": 4,
}

// intelUltraPCores maps Intel Core Ultra models to their performance core
// count. Model numbers are unique across the 5/7/9 series.
var intelUltraPCores = map[string]int{
	"285": 8,
	"265": 8,
	"255": 8,
	"235": 6,
	"225": 4,
}

// applePCores maps Apple Silicon chips to their performance core count.
var applePCores = map[string]int{
	"m1":       4,
	"m1 pro":   8,
	"m1 max":   8,
	"m1 ultra": 16,
	"m2":       4,
	"m2 pro":   8,
	"m2 max":   12,
	"m2 ultra": 24,
	"m3":       4,
	"m3 pro":   8,
	"m3 max":   12,
	"m3 ultra": 24,
	"m4":       6,
	"m4 pro":   8,
	"m4 max":   12,
}

var (
	intelCoreRegex = regexp.MustCompile(`intel.*(?:core.*i[357,9]-(\d{5})|core.*ultra\s+([579])\s+(?:processor\s+)?(\d{3}))`)
	appleRegex     = regexp.MustCompile(`(?i)apple\s+(m[123,4]\s*(pro|max|ultra)?)\s*`)
)

func determinePerformanceCores(brandName string) int {
	brandName = strings.ToLower(brandName)

	if matches := intelCoreRegex.FindStringSubmatch(brandName); len(matches) > 1 {
		switch {
		case matches[1] != "": // Legacy Core i series
			if cores, ok := intelPCores[matches[1]]; ok {
				return cores
			}
		case matches[3] != "": // Core Ultra series
			if cores, ok := intelUltraPCores[matches[3]]; ok {
				return cores
			}
		}
	}

	if matches := appleRegex.FindStringSubmatch(brandName); len(matches) > 1 {
		chip := strings.ToLower(strings.TrimSpace(matches[1]))
		if cores, ok := applePCores[chip]; ok {
			return cores
		}
	}

	// Unknown or non-hybrid processor
	return 0
}
