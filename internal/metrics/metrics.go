package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// API client metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_api_requests_total",
			Help: "Total number of API requests by module and status",
		},
		[]string{"module", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"module"},
	)

	APIRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_api_retry_attempts_total",
			Help: "Total number of API request retries by module",
		},
		[]string{"module"},
	)

	APICacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_api_cache_hits_total",
			Help: "Total number of API response cache hits by backend",
		},
		[]string{"backend"},
	)

	APICacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_api_cache_misses_total",
			Help: "Total number of API response cache misses by backend",
		},
		[]string{"backend"},
	)

	APICacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_api_cache_entries",
			Help: "Number of entries in the persistent API cache",
		},
	)

	APICacheExpiredEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_api_cache_expired_entries",
			Help: "Number of expired entries waiting for cleanup in the persistent API cache",
		},
	)
)

// Rendition metrics
var (
	ThumbnailGuessesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_thumbnail_guesses_total",
			Help: "Speculative thumbnail URL outcomes (hit, rejected, fetch_failed)",
		},
		[]string{"outcome"},
	)

	RenditionResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_rendition_resolutions_total",
			Help: "Rendition resolutions by path (guessed, authoritative) and status",
		},
		[]string{"path", "status"},
	)

	ImageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_image_fetches_total",
			Help: "Image byte fetches by status (success, error, cached)",
		},
		[]string{"status"},
	)

	ImageFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_image_fetch_duration_seconds",
			Help:    "Image byte fetch duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ImageFetchBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_lightbox_image_fetch_bytes_total",
			Help: "Total bytes downloaded for renditions",
		},
	)

	ImageCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_image_cache_bytes",
			Help: "Bytes held in the in-memory rendition cache",
		},
	)

	ImageDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_image_decode_by_format_total",
			Help: "Fetched renditions by decoded image format",
		},
		[]string{"format"},
	)
)

// Preload metrics
var (
	PreloadQueuesScheduled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_preload_queues_scheduled_total",
			Help: "Preload queues scheduled by axis",
		},
		[]string{"axis"},
	)

	PreloadQueuesCancelled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_preload_queues_cancelled_total",
			Help: "Preload queues cancelled by axis",
		},
		[]string{"axis"},
	)

	PreloadTasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_preload_tasks_total",
			Help: "Preload task outcomes by axis and status",
		},
		[]string{"axis", "status"},
	)

	TaskQueueFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_lightbox_task_queue_failures_total",
			Help: "Tasks that returned an error or panicked inside a task queue",
		},
	)
)

// Viewer metrics
var (
	ViewerNavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_viewer_navigations_total",
			Help: "Viewer navigations by kind (open, next, prev, route, close, resize)",
		},
		[]string{"kind"},
	)

	ViewerStaleResultsDiscarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_viewer_stale_results_discarded_total",
			Help: "Pipeline results dropped because a newer navigation superseded them",
		},
		[]string{"pipeline"},
	)

	ViewerPipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_viewer_pipeline_errors_total",
			Help: "Pipeline failures shown to the user by pipeline",
		},
		[]string{"pipeline"},
	)

	ViewerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_viewer_open",
			Help: "Whether the viewer is open (1 = open, 0 = closed)",
		},
	)

	ViewerGalleryItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_viewer_gallery_items",
			Help: "Number of media items in the current gallery",
		},
	)

	ClickToFirstImage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_click_to_first_image_seconds",
			Help:    "Time from opening the viewer to the first sharp image",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)

	ClickToFirstMetadata = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_click_to_first_metadata_seconds",
			Help:    "Time from opening the viewer to the first metadata panel",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)

	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_actions_total",
			Help: "Sampled user actions by action name",
		},
		[]string{"action"},
	)
)

// Filesystem metrics
var (
	FilesystemRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_filesystem_retries_total",
			Help: "File operations that needed retries, by final outcome",
		},
		[]string{"operation", "outcome"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_lightbox_filesystem_stale_errors_total",
			Help: "Stale file handle errors seen by file operations",
		},
		[]string{"operation"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_lightbox_filesystem_operation_duration_seconds",
			Help:    "Duration of file operations including retries",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2},
		},
		[]string{"operation"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPressure = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_lightbox_memory_pressure",
			Help: "Whether memory is above the high water mark (1 = yes, 0 = no)",
		},
	)

	MemoryReleasedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_lightbox_memory_released_bytes_total",
			Help: "Bytes released from in-memory caches under memory pressure",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_lightbox_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)
