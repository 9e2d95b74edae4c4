package metrics

import (
	"time"

	"media-lightbox/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	CacheEntries        int
	CacheExpiredEntries int
	ImageCacheBytes     int64
	GalleryItems        int
	ViewerOpen          bool
}

// StatsFunc adapts a function to StatsProvider.
type StatsFunc func() Stats

// GetStats calls f.
func (f StatsFunc) GetStats() Stats {
	return f()
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	APICacheEntries.Set(float64(stats.CacheEntries))
	APICacheExpiredEntries.Set(float64(stats.CacheExpiredEntries))
	ImageCacheBytes.Set(float64(stats.ImageCacheBytes))
	ViewerGalleryItems.Set(float64(stats.GalleryItems))
	if stats.ViewerOpen {
		ViewerOpen.Set(1)
	} else {
		ViewerOpen.Set(0)
	}

	logging.Debug("Metrics collected: cache_entries=%d, expired=%d, image_cache_bytes=%d, gallery_items=%d",
		stats.CacheEntries, stats.CacheExpiredEntries, stats.ImageCacheBytes, stats.GalleryItems)
}
