package memory

import (
	"runtime/debug"
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	m := NewMonitor(Config{
		LimitBytes:    limit,
		HighWaterMark: 0.8,
		LowWaterMark:  0.6,
		CheckInterval: time.Hour,
	})
	m.readAlloc = func() uint64 { return *alloc }
	return m
}

// =============================================================================
// Monitor
// =============================================================================

func TestMonitorReleasesUnderPressure(t *testing.T) {
	alloc := uint64(50)
	m := newTestMonitor(100, &alloc)

	calls := 0
	m.Register("cache", func() int64 {
		calls++
		return 10
	})

	m.check()
	if m.UnderPressure() || calls != 0 {
		t.Fatalf("pressure = %v, calls = %d, want false and 0", m.UnderPressure(), calls)
	}

	alloc = 85
	m.check()
	if !m.UnderPressure() || calls != 1 {
		t.Fatalf("pressure = %v, calls = %d, want true and 1", m.UnderPressure(), calls)
	}

	// Between the marks the previous state holds.
	alloc = 70
	m.check()
	if !m.UnderPressure() || calls != 2 {
		t.Errorf("pressure = %v, calls = %d, want true and 2", m.UnderPressure(), calls)
	}

	alloc = 40
	m.check()
	if m.UnderPressure() || calls != 2 {
		t.Errorf("pressure = %v, calls = %d, want false and 2", m.UnderPressure(), calls)
	}
}

func TestMonitorUsage(t *testing.T) {
	alloc := uint64(25)
	m := newTestMonitor(100, &alloc)
	m.check()

	if got := m.Usage(); got != 0.25 {
		t.Errorf("Usage() = %v, want 0.25", got)
	}
	if m.Limit() != 100 {
		t.Errorf("Limit() = %d, want 100", m.Limit())
	}
}

func TestMonitorStopTwice(_ *testing.T) {
	alloc := uint64(0)
	m := newTestMonitor(100, &alloc)
	m.Start()
	m.Stop()
	m.Stop()
}

// =============================================================================
// Configure
// =============================================================================

func debugLimit() int64 {
	return debug.SetMemoryLimit(-1)
}

func restoreLimit(limit int64) {
	debug.SetMemoryLimit(limit)
}

func envOf(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestConfigure(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		wantSource string
		wantLimit  int64
	}{
		{
			name:       "nothing set",
			env:        map[string]string{},
			wantSource: "none",
		},
		{
			name:       "invalid MEMORY_LIMIT",
			env:        map[string]string{"MEMORY_LIMIT": "lots"},
			wantSource: "none",
		},
		{
			name:       "negative MEMORY_LIMIT",
			env:        map[string]string{"MEMORY_LIMIT": "-5"},
			wantSource: "none",
		},
		{
			name:       "MEMORY_LIMIT with default ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  900000000,
		},
		{
			name:       "MEMORY_LIMIT with custom ratio",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "0.5"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  500000000,
		},
		{
			name:       "out of range ratio falls back",
			env:        map[string]string{"MEMORY_LIMIT": "1000000000", "MEMORY_RATIO": "1.5"},
			wantSource: "MEMORY_LIMIT",
			wantLimit:  900000000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous := debugLimit()
			defer restoreLimit(previous)

			got := Configure(envOf(tt.env))
			if got.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", got.Source, tt.wantSource)
			}
			if got.GoMemLimit != tt.wantLimit {
				t.Errorf("GoMemLimit = %d, want %d", got.GoMemLimit, tt.wantLimit)
			}
			if got.Configured() != (tt.wantLimit > 0) {
				t.Errorf("Configured() = %v", got.Configured())
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{1024 * 1024, "1.0 MiB"},
		{5 * 1024 * 1024 * 1024, "5.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
