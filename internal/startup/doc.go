// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] builds the configuration from, in increasing precedence:
//
//  1. built-in defaults ([DefaultConfig])
//  2. a YAML file named by CONFIG_FILE
//  3. environment variables, including those loaded from a .env file
//     (ENV_FILE, default ".env"); a .env file never overrides variables
//     that are already set
//
// The result is validated with struct tags and every invalid field is
// reported at once. Supported variables:
//
//   - PORT, METRICS_PORT, METRICS_ENABLED: HTTP listeners (8080, 9090, true)
//   - API_URL: api.php endpoint of the wiki (Wikimedia Commons)
//   - PAGE_URL or PAGE_FILE: document scanned for thumbnails at startup
//   - LANGUAGE, USER_AGENT: API request settings
//   - CACHE_DIR: directory of the sqlite cache (/cache)
//   - CACHE_BACKEND: sqlite, redis or none (sqlite)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: redis cache backend
//   - API_CACHE_MAX_AGE: seconds or Go duration (86400)
//   - CACHE_CLEAN_INTERVAL: expired cache entry cleanup (1h)
//   - IMAGE_CACHE_BYTES: in-memory rendition cache budget (64 MiB)
//   - PRELOAD_DISTANCE, PRELOAD_WORKERS: preload window and concurrency (1, auto)
//   - USE_THUMBNAIL_GUESSING, NEED_GENDER, GLOBAL_USAGE_AVAILABLE: feature flags (true)
//   - THUMB_IGNORE: comma-separated glob patterns of file names to skip
//   - VIEWER_ENABLED, VIEWER_ENABLED_BY_DEFAULT: open-on-click switches (true)
//   - ACTION_SAMPLING_FILE: YAML map of action sampling factors
//   - LOG_LEVEL, LOG_HEALTH_CHECKS: logging
//   - GOMEMLIMIT, or MEMORY_LIMIT with MEMORY_RATIO: soft memory limit
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogCacheInit(config.CacheBackend, config.DatabasePath, time.Since(start))
//	startup.LogGalleryLoaded(config.PageURL, len(items), scanDuration)
//	startup.LogServerStarted(startup.ServerConfig{...})
//	// On shutdown...
//	startup.LogShutdownInitiated("SIGTERM")
//	startup.LogShutdownComplete()
package startup
