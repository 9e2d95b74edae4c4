package workers

import (
	"runtime"
	"testing"
)

func TestCount(t *testing.T) {
	availableCPU := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		minExpect  int
		maxExpect  int
	}{
		{
			name:       "CPU-bound task (1.0x multiplier)",
			multiplier: 1.0,
			minExpect:  1,
			maxExpect:  availableCPU,
		},
		{
			name:       "I/O-bound task (2.0x multiplier)",
			multiplier: 2.0,
			minExpect:  1,
			maxExpect:  availableCPU * 2,
		},
		{
			name:       "With limit lower than calculated",
			multiplier: 2.0,
			limit:      1,
			minExpect:  1,
			maxExpect:  1,
		},
		{
			name:       "Tiny multiplier still yields one worker",
			multiplier: 0.001,
			minExpect:  1,
			maxExpect:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Count(tt.multiplier, tt.limit)
			if got < tt.minExpect || got > tt.maxExpect {
				t.Errorf("Count(%v, %d) = %d, want between %d and %d",
					tt.multiplier, tt.limit, got, tt.minExpect, tt.maxExpect)
			}
		})
	}
}

func TestForCPUAndIO(t *testing.T) {
	if got := ForCPU(0); got != max(runtime.GOMAXPROCS(0), 1) {
		t.Errorf("ForCPU(0) = %d, want GOMAXPROCS", got)
	}
	if ForIO(0) < ForCPU(0) {
		t.Error("expected ForIO to be at least ForCPU")
	}
}

func TestPreload(t *testing.T) {
	tests := []struct {
		name       string
		configured int
		min, max   int
	}{
		{"explicit value wins", 3, 3, 3},
		{"explicit value above cap", 20, 20, 20},
		{"auto sized", 0, 1, DefaultPreloadLimit},
		{"negative is auto sized", -1, 1, DefaultPreloadLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preload(tt.configured)
			if got < tt.min || got > tt.max {
				t.Errorf("Preload(%d) = %d, want between %d and %d", tt.configured, got, tt.min, tt.max)
			}
		})
	}
}
