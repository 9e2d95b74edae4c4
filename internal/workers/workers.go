package workers

import (
	"runtime"
)

// DefaultPreloadLimit caps automatically sized preload pools.
const DefaultPreloadLimit = 8

// Count returns a worker count scaled from GOMAXPROCS, which follows the
// container CPU limit.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//
// limit caps the result; 0 means no cap. The result is at least 1.
func Count(multiplier float64, limit int) int {
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns worker count for CPU-bound tasks such as decoding.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks such as API requests.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// Preload returns the metadata preload concurrency. A positive configured
// value (PRELOAD_WORKERS) is used as is; otherwise the pool is sized for I/O
// and capped at DefaultPreloadLimit.
func Preload(configured int) int {
	if configured > 0 {
		return configured
	}
	return ForIO(DefaultPreloadLimit)
}
