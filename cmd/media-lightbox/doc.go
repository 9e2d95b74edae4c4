// Package main provides the entry point for the media lightbox service.
//
// The service scans a wiki page for linked file thumbnails and runs a headless
// lightbox over them: it resolves the best rendition for the viewport, joins
// file metadata from the MediaWiki API, preloads neighbours and keeps the
// route of the current item. The display state is exposed over HTTP so a
// thin client can render it.
//
// # Application Lifecycle
//
//  1. Memory Configuration: applies GOMEMLIMIT or MEMORY_LIMIT x MEMORY_RATIO
//  2. Configuration Loading: defaults, then CONFIG_FILE, then the environment
//  3. API Cache: sqlite (also holding preferences), redis or none
//  4. Component Initialization:
//     - MediaWiki API client and providers
//     - Rendition resolver with its in-memory image cache
//     - Metadata aggregator and action logger
//     - Viewer orchestrator driving the display recorder
//     - Memory monitor and metrics collector
//  5. Initial gallery load from PAGE_URL or PAGE_FILE (in the background)
//  6. HTTP Server Setup and graceful shutdown on SIGINT/SIGTERM
//
// # HTTP Server
//
// The main server (default port 8080) serves the health endpoints, the
// gallery and viewer control API under /api, and preferences. When
// METRICS_ENABLED is set a second server (default port 9090) serves
// /metrics and /health.
//
// # Environment Variables
//
//   - API_URL: api.php endpoint of the wiki (required)
//   - PAGE_URL / PAGE_FILE: document scanned at startup
//   - CACHE_BACKEND: sqlite, redis or none (default: sqlite)
//   - CACHE_DIR: directory of the sqlite database
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB: redis connection
//   - PRELOAD_DISTANCE: neighbours preloaded in each direction (default: 1)
//   - PRELOAD_WORKERS: metadata preload concurrency, 0 for auto
//   - USE_THUMBNAIL_GUESSING: build thumbnail URLs without asking the API
//   - LOG_LEVEL: debug, info, warn or error
//
// See [media-lightbox/internal/startup] for the complete list.
package main
