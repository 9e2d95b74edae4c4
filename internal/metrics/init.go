package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	// --- API modules ---
	for _, module := range []string{"imageinfo", "filerepoinfo", "thumbnailinfo", "imageusage", "globalusage", "userinfo"} {
		APIRequestsTotal.WithLabelValues(module, "success")
		APIRequestsTotal.WithLabelValues(module, "error")
		APIRequestDuration.WithLabelValues(module)
		APIRetryAttempts.WithLabelValues(module)
	}

	for _, backend := range []string{"sqlite", "redis", "none"} {
		APICacheHits.WithLabelValues(backend)
		APICacheMisses.WithLabelValues(backend)
	}

	// --- Renditions ---
	for _, outcome := range []string{"hit", "rejected", "fetch_failed"} {
		ThumbnailGuessesTotal.WithLabelValues(outcome)
	}
	for _, path := range []string{"guessed", "authoritative"} {
		RenditionResolutionsTotal.WithLabelValues(path, "success")
		RenditionResolutionsTotal.WithLabelValues(path, "error")
	}
	for _, status := range []string{"success", "error", "cached"} {
		ImageFetchesTotal.WithLabelValues(status)
	}
	for _, format := range []string{"jpeg", "png", "gif", "webp", "svg", "unknown"} {
		ImageDecodeByFormat.WithLabelValues(format)
	}

	// --- Preloading ---
	for _, axis := range []string{"metadata", "thumbnail"} {
		PreloadQueuesScheduled.WithLabelValues(axis)
		PreloadQueuesCancelled.WithLabelValues(axis)
		PreloadTasksTotal.WithLabelValues(axis, "success")
		PreloadTasksTotal.WithLabelValues(axis, "error")
	}

	// --- Viewer ---
	for _, kind := range []string{"open", "next", "prev", "route", "close", "resize"} {
		ViewerNavigationsTotal.WithLabelValues(kind)
	}
	for _, pipeline := range []string{"rendition", "metadata", "placeholder"} {
		ViewerStaleResultsDiscarded.WithLabelValues(pipeline)
		ViewerPipelineErrors.WithLabelValues(pipeline)
	}

	// --- DB query operations ---
	for _, op := range []string{"initialize_schema", "cache_get", "cache_set", "cache_clean",
		"cache_purge", "cache_stats", "preference_get", "preference_set", "preference_delete", "vacuum"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	// --- Filesystem ---
	for _, op := range []string{"read", "open"} {
		FilesystemRetries.WithLabelValues(op, "success")
		FilesystemRetries.WithLabelValues(op, "failure")
		FilesystemStaleErrors.WithLabelValues(op)
		FilesystemRetryDuration.WithLabelValues(op)
	}
}
