package memory

import (
	"math"
	"runtime/debug"
	"strconv"

	"media-lightbox/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go heap.
// Decoded images and the rendition cache live on the heap, so little is
// reserved for anything else.
const DefaultMemoryRatio = 0.9

// Limit describes how GOMEMLIMIT was configured.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a soft memory limit is in effect.
func (l Limit) Configured() bool {
	return l.GoMemLimit > 0
}

// Configure sets GOMEMLIMIT from a container limit. getenv is usually
// os.Getenv. An explicit GOMEMLIMIT wins over MEMORY_LIMIT; MEMORY_RATIO
// tunes the heap share. Call it before significant allocations.
func Configure(getenv func(string) string) Limit {
	if getenv("GOMEMLIMIT") != "" {
		limit := Limit{Source: "GOMEMLIMIT"}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			limit.GoMemLimit = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", formatBytes(limit.GoMemLimit))
		return limit
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		return Limit{Source: "none"}
	}

	containerLimit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || containerLimit <= 0 {
		logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
		return Limit{Source: "none"}
	}

	ratio := parseRatio(getenv("MEMORY_RATIO"))
	goMemLimit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(containerLimit))

	return Limit{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}
}

func parseRatio(raw string) float64 {
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
