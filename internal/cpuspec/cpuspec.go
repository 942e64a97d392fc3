// Package cpuspec picks backbone interpreter thread counts from the host CPU.
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
	LogicalCores     int
	PhysicalCores    int
	PerformanceCores int // 0 unless the CPU is a known hybrid design
}

// GetCPUSpec returns the specification of the host CPU.
func GetCPUSpec() CPUSpec {
	return CPUSpec{
		BrandName:        cpuid.CPU.BrandName,
		LogicalCores:     cpuid.CPU.LogicalCores,
		PhysicalCores:    cpuid.CPU.PhysicalCores,
		PerformanceCores: performanceCores(cpuid.CPU.BrandName),
	}
}

// GetOptimalThreadCount returns the thread count for backbone inference:
// performance cores on hybrid CPUs, physical cores otherwise, never more
// than the CPUs available to the process.
func (c CPUSpec) GetOptimalThreadCount() int {
	available := runtime.NumCPU()

	threads := c.PerformanceCores
	if threads <= 0 {
		threads = c.PhysicalCores
	}
	if threads <= 0 {
		threads = c.LogicalCores
	}
	if threads <= 0 || threads > available {
		return available
	}
	return threads
}

// ThreadCount returns configured when positive, otherwise the optimal count
// for the host.
func ThreadCount(configured int) int {
	if configured > 0 {
		return min(configured, runtime.NumCPU())
	}
	return GetCPUSpec().GetOptimalThreadCount()
}

var (
	intelCoreRe  = regexp.MustCompile(`intel.*core.*i[3579]-(1[234])(\d)00`)
	intelUltraRe = regexp.MustCompile(`intel.*core.*ultra\s+([579])\s+(?:processor\s+)?(\d{3})`)
	appleRe      = regexp.MustCompile(`apple\s+(m[1-4])(?:\s+(pro|max|ultra))?`)
)

// Intel 12th to 14th generation desktop parts, keyed by the tier digit of
// the model number (12900 -> 9).
var intelHybridTiers = map[string]int{
	"9": 8,
	"7": 8,
	"6": 6,
	"5": 6,
	"4": 6,
	"1": 4,
}

var intelUltra = map[string]int{
	"285": 8,
	"265": 8,
	"255": 8,
	"245": 6,
	"235": 6,
	"225": 4,
}

var appleSilicon = map[string]int{
	"m1": 4, "m1 pro": 8, "m1 max": 8, "m1 ultra": 16,
	"m2": 4, "m2 pro": 8, "m2 max": 12, "m2 ultra": 24,
	"m3": 4, "m3 pro": 6, "m3 max": 12, "m3 ultra": 24,
	"m4": 4, "m4 pro": 10, "m4 max": 12,
}

// performanceCores maps known hybrid CPU brand names to their P-core count.
func performanceCores(brandName string) int {
	brand := strings.ToLower(brandName)

	if m := intelUltraRe.FindStringSubmatch(brand); m != nil {
		return intelUltra[m[2]]
	}
	if m := intelCoreRe.FindStringSubmatch(brand); m != nil {
		return intelHybridTiers[m[2]]
	}
	if m := appleRe.FindStringSubmatch(brand); m != nil {
		chip := m[1]
		if m[2] != "" {
			chip += " " + m[2]
		}
		return appleSilicon[chip]
	}
	return 0
}
