package cpuspec

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerformanceCores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		brand string
		want  int
	}{
		{"12th Gen Intel(R) Core(TM) i7-12700K", 8},
		{"13th Gen Intel(R) Core(TM) i5-13600KF", 6},
		{"12th Gen Intel(R) Core(TM) i3-12100", 4},
		{"Intel(R) Core(TM) Ultra 7 265K", 8},
		{"Intel(R) Core(TM) Ultra 5 225", 4},
		{"Apple M1", 4},
		{"Apple M2 Max", 12},
		{"Apple M4 Pro", 10},
		{"Intel(R) Core(TM) i7-8700K CPU @ 3.70GHz", 0},
		{"AMD Ryzen 7 5800X 8-Core Processor", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.brand, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, performanceCores(tt.brand))
		})
	}
}

func TestGetOptimalThreadCount(t *testing.T) {
	t.Parallel()
	cpus := runtime.NumCPU()

	tests := []struct {
		name string
		spec CPUSpec
		want int
	}{
		{"performance cores win", CPUSpec{PerformanceCores: 1, PhysicalCores: 2, LogicalCores: 4}, 1},
		{"physical cores", CPUSpec{PhysicalCores: 1, LogicalCores: 2}, 1},
		{"logical cores", CPUSpec{LogicalCores: 1}, 1},
		{"unknown", CPUSpec{}, cpus},
		{"clamped", CPUSpec{PhysicalCores: cpus + 8}, cpus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.spec.GetOptimalThreadCount())
		})
	}
}

func TestThreadCount(t *testing.T) {
	t.Parallel()
	cpus := runtime.NumCPU()

	assert.Equal(t, 1, ThreadCount(1))
	assert.Equal(t, cpus, ThreadCount(cpus+10))
	auto := ThreadCount(0)
	assert.GreaterOrEqual(t, auto, 1)
	assert.LessOrEqual(t, auto, cpus)
}
