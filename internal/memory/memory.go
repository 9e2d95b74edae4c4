package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/metrics"
)

// Config holds memory monitoring configuration
type Config struct {
	// LimitBytes is the soft memory limit (0 = use GOMEMLIMIT).
	LimitBytes int64

	// HighWaterMark is the fraction of the limit at which releasers run (0.0-1.0).
	HighWaterMark float64

	// LowWaterMark is the fraction below which pressure is considered over.
	LowWaterMark float64

	// CheckInterval is how often to sample the heap.
	CheckInterval time.Duration
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		HighWaterMark: 0.8,
		LowWaterMark:  0.6,
		CheckInterval: 5 * time.Second,
	}
}

// Releaser frees memory on demand and returns the bytes it released.
type Releaser func() int64

// Monitor samples heap usage and runs releasers when it crosses the high
// water mark.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	mu        sync.RWMutex
	current   uint64
	pressure  bool
	releasers map[string]Releaser

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewMonitor creates a monitor. Without a limit it never reports pressure.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if current := debug.SetMemoryLimit(-1); current > 0 && current < 1<<62 {
			limit = current
		}
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		releasers: make(map[string]Releaser),
		stopChan:  make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Register adds a named releaser.
func (m *Monitor) Register(name string, r Releaser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releasers[name] = r
}

// Limit returns the limit the monitor compares against.
func (m *Monitor) Limit() int64 {
	return m.limit
}

// Start begins sampling. It does nothing without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		logging.Debug("Memory monitor disabled: no memory limit configured")
		return
	}
	go m.loop()
}

// Stop stops sampling. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

// check samples the heap once and releases memory when over the high water
// mark. Releasers run on every sample while the pressure lasts.
func (m *Monitor) check() {
	if m.limit == 0 {
		return
	}

	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	m.current = alloc
	was := m.pressure
	switch {
	case usage >= m.config.HighWaterMark:
		m.pressure = true
	case usage < m.config.LowWaterMark:
		m.pressure = false
	}
	under := m.pressure
	releasers := make(map[string]Releaser, len(m.releasers))
	for name, r := range m.releasers {
		releasers[name] = r
	}
	m.mu.Unlock()

	if under != was {
		if under {
			logging.Warn("Memory pressure (%.1f%% of limit), releasing caches", usage*100)
			metrics.MemoryPressure.Set(1)
		} else {
			logging.Info("Memory recovered (%.1f%% of limit)", usage*100)
			metrics.MemoryPressure.Set(0)
		}
	}
	if !under {
		return
	}

	var released int64
	for name, r := range releasers {
		n := r()
		if n > 0 {
			logging.Debug("Released %s from %s", formatBytes(n), name)
			released += n
		}
	}
	if released > 0 {
		metrics.MemoryReleasedBytes.Add(float64(released))
		runtime.GC()
	}
}

// UnderPressure reports whether the last sample was over the high water mark.
func (m *Monitor) UnderPressure() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pressure
}

// Usage returns the last sampled heap as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
