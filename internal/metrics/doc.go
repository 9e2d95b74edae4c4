// Package metrics provides Prometheus instrumentation for the lightbox service.
//
// All metrics are prefixed with "media_lightbox_" to avoid naming collisions
// with other applications.
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of total requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
//   - DBQueryTotal: Counter of queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBConnectionsOpen: Gauge of open database connections
//
// ## API Client Metrics
//
//   - APIRequestsTotal / APIRequestDuration: per API module (imageinfo, globalusage, ...)
//   - APIRetryAttempts: retries after transient failures
//   - APICacheHits / APICacheMisses: response cache lookups by backend
//   - APICacheEntries / APICacheExpiredEntries: persistent cache size
//
// ## Rendition Metrics
//
//   - ThumbnailGuessesTotal: speculative URL outcomes (hit, rejected, fetch_failed)
//   - RenditionResolutionsTotal: resolutions by path and status
//   - ImageFetchesTotal / ImageFetchDuration / ImageFetchBytes: byte fetches
//   - ImageCacheBytes: in-memory rendition cache size
//
// ## Preload Metrics
//
//   - PreloadQueuesScheduled / PreloadQueuesCancelled: by axis (metadata, thumbnail)
//   - PreloadTasksTotal: task outcomes by axis
//   - TaskQueueFailures: isolated task failures
//
// ## Viewer Metrics
//
//   - ViewerNavigationsTotal: by kind (open, next, prev, route, close, resize)
//   - ViewerStaleResultsDiscarded: results dropped because a newer navigation won
//   - ViewerPipelineErrors: failures shown to the user
//   - ClickToFirstImage / ClickToFirstMetadata: open-to-first-result durations
//   - ActionsTotal: sampled user actions
//
// # Collector
//
// [Collector] periodically gathers a [Stats] snapshot from a [StatsProvider]
// and updates the corresponding gauges:
//
//	collector := metrics.NewCollector(provider, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Guess hit rate:
//
//	rate(media_lightbox_thumbnail_guesses_total{outcome="hit"}[5m]) /
//	sum(rate(media_lightbox_thumbnail_guesses_total[5m]))
//
// Stale results per navigation:
//
//	sum(rate(media_lightbox_viewer_stale_results_discarded_total[5m])) /
//	sum(rate(media_lightbox_viewer_navigations_total[5m]))
//
// P95 click to first image:
//
//	histogram_quantile(0.95, sum(rate(media_lightbox_click_to_first_image_seconds_bucket[5m])) by (le))
package metrics
