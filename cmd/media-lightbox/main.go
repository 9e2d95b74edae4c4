package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-lightbox/internal/cache"
	"media-lightbox/internal/database"
	"media-lightbox/internal/display"
	"media-lightbox/internal/handlers"
	"media-lightbox/internal/logging"
	"media-lightbox/internal/media"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/memory"
	"media-lightbox/internal/metadata"
	"media-lightbox/internal/metrics"
	"media-lightbox/internal/middleware"
	"media-lightbox/internal/mwapi"
	"media-lightbox/internal/page"
	"media-lightbox/internal/preferences"
	"media-lightbox/internal/rendition"
	"media-lightbox/internal/routing"
	"media-lightbox/internal/startup"
	"media-lightbox/internal/viewer"
	"media-lightbox/internal/workers"
)

const (
	metricsCollectInterval = time.Minute
	shutdownTimeout        = 30 * time.Second
	// imageCacheTrimFraction is what the rendition cache keeps under memory pressure.
	imageCacheTrimFraction = 0.25
)

// apiCache is the API cache backend with the maintenance calls main needs.
type apiCache interface {
	cache.Store
	Ping(ctx context.Context) error
	Close() error
}

// redisCache adapts RedisStore to the stats shape of the collector.
type redisCache struct {
	*cache.RedisStore
}

func (r redisCache) GetStats(ctx context.Context) (cache.Stats, error) {
	return r.Stats(ctx)
}

type cacheStatsProvider interface {
	GetStats(ctx context.Context) (cache.Stats, error)
}

type galleryState interface {
	Items() []*mediatypes.MediaItem
	IsOpen() bool
}

// statsAdapter feeds the metrics collector.
type statsAdapter struct {
	cache   cacheStatsProvider
	fetcher *media.Fetcher
	viewer  galleryState
}

// GetStats implements metrics.StatsProvider
func (a *statsAdapter) GetStats() metrics.Stats {
	stats := metrics.Stats{
		ImageCacheBytes: a.fetcher.CacheBytes(),
		GalleryItems:    len(a.viewer.Items()),
		ViewerOpen:      a.viewer.IsOpen(),
	}
	if a.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cs, err := a.cache.GetStats(ctx); err == nil {
			stats.CacheEntries = int(cs.Entries)
			stats.CacheExpiredEntries = int(cs.ExpiredEntries)
		} else {
			logging.Debug("failed to read cache stats: %v", err)
		}
	}
	return stats
}

func main() {
	startTime := time.Now()

	memory.Configure(os.Getenv)

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	buildInfo := startup.GetBuildInfo()
	metrics.AppInfo.WithLabelValues(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion).Set(1)

	ctx := context.Background()

	// Initialize the API cache
	var (
		store     apiCache
		db        *database.Database
		statsFrom cacheStatsProvider
	)
	cacheStart := time.Now()
	switch config.CacheBackend {
	case "sqlite":
		db, err = database.New(ctx, config.DatabasePath)
		if err != nil {
			startup.LogFatal("Failed to initialize database: %v", err)
		}
		startup.LogDatabaseInit(time.Since(cacheStart))
		store, statsFrom = db, db
		startup.LogCacheInit("sqlite", config.DatabasePath, time.Since(cacheStart))
	case "redis":
		rs, err := cache.NewRedisStore(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB)
		if err != nil {
			startup.LogFatal("Failed to connect to redis: %v", err)
		}
		store, statsFrom = rs, redisCache{rs}
		startup.LogCacheInit("redis", config.RedisAddr, time.Since(cacheStart))
	default:
		startup.LogCacheInit("none", "", time.Since(cacheStart))
	}

	// Remove expired cache entries periodically
	stopCleanup := make(chan struct{})
	if db != nil && config.CacheCleanInterval > 0 {
		go cleanCache(db, config.CacheCleanInterval, stopCleanup)
	}

	// API providers
	clientOpts := []mwapi.Option{mwapi.WithUserAgent(config.UserAgent)}
	if store != nil {
		clientOpts = append(clientOpts, mwapi.WithCache(store, config.APICacheMaxAge))
	}
	client := mwapi.NewClient(config.APIURL, clientOpts...)
	imageInfo := mwapi.NewImageInfo(client, config.Language)

	fetcher := media.NewFetcher(
		media.WithCacheBytes(config.ImageCacheBytes),
		media.WithFetchUserAgent(config.UserAgent),
	)
	resolver := rendition.NewResolver(fetcher, mwapi.NewThumbnailInfo(client),
		rendition.WithGuesser(mwapi.NewGuessedThumbnailInfo()),
		rendition.WithGuessing(config.UseThumbnailGuessing),
	)
	aggregator := metadata.NewAggregator(metadata.Providers{
		ImageInfo:   imageInfo,
		RepoInfo:    mwapi.NewFileRepoInfo(client),
		LocalUsage:  mwapi.NewImageUsage(client, mwapi.DefaultUsageLimit),
		GlobalUsage: mwapi.NewGlobalUsage(client, mwapi.DefaultUsageLimit, config.GlobalUsageAvailable),
		UserInfo:    mwapi.NewUserInfo(client, config.NeedGender),
	}, config.NeedGender)

	actions, err := logging.LoadActionLogger(config.ActionSamplingFile)
	if err != nil {
		startup.LogFatal("Failed to load action sampling: %v", err)
	}

	// Viewer
	recorder := display.NewRecorder()
	widths := media.NewWidthCalculator(media.DefaultViewport, nil)
	orchestrator := viewer.New(viewer.Deps{
		Sink:       recorder,
		Routes:     recorder,
		Codec:      routing.NewRouter(),
		Widths:     widths,
		Renditions: resolver,
		Metadata:   aggregator,
		Dimensions: imageInfo,
		Actions:    actions,
	}, viewer.Config{
		PreloadDistance:            config.PreloadDistance,
		MetadataPreloadConcurrency: workers.Preload(config.PreloadWorkers),
	})

	scanner, err := page.NewScanner(config.ThumbIgnore)
	if err != nil {
		startup.LogFatal("Invalid THUMB_IGNORE: %v", err)
	}

	var prefStore preferences.Store
	if db != nil {
		prefStore = db
	}
	prefs := preferences.NewService(prefStore, preferences.Config{
		Enabled:          config.ViewerEnabled,
		EnabledByDefault: config.ViewerEnabledByDefault,
	})

	checks := map[string]func(context.Context) error{}
	if store != nil {
		checks["cache"] = store.Ping
	}

	// Initialize handlers
	h := handlers.New(handlers.Deps{
		Viewer:      orchestrator,
		Display:     recorder,
		Scanner:     scanner,
		Widths:      widths,
		Images:      fetcher,
		Preferences: prefs,
		Checks:      checks,
	})

	// Release the rendition cache under memory pressure
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Register("renditions", func() int64 { return fetcher.TrimCache(imageCacheTrimFraction) })
	monitor.Start()

	// Start metrics collector
	collector := metrics.NewCollector(&statsAdapter{cache: statsFrom, fetcher: fetcher, viewer: orchestrator}, metricsCollectInterval)
	collector.Start()

	// Load the initial document in the background
	go loadInitialGallery(config, scanner, h)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.RequestID(middleware.Compression(compressionConfig)(loggedHandler))

	// Create server
	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Event long-polls hold the response for up to a minute.
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	shutdownDone := make(chan struct{})
	go handleShutdown(shutdownDone, srv, metricsSrv, func() {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		monitor.Stop()
		close(stopCleanup)
		startup.LogShutdownStepComplete("Background workers stopped")

		startup.LogShutdownStep("Stopping viewer")
		orchestrator.Shutdown()
		startup.LogShutdownStepComplete("Viewer stopped")
	}, func() {
		if store == nil {
			return
		}
		startup.LogShutdownStep("Closing API cache")
		if err := store.Close(); err != nil {
			logging.Warn("API cache close error: %v", err)
		} else {
			startup.LogShutdownStepComplete("API cache closed")
		}
	})

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	<-shutdownDone
}

// handleShutdown waits for SIGINT or SIGTERM, stops the background workers,
// drains the servers and closes the API cache. done is closed at the end.
func handleShutdown(done chan<- struct{}, srv, metricsSrv *http.Server, stopWorkers, closeStore func()) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopWorkers()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	closeStore()

	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.Register(r)
	return r
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	return &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}
}

// loadInitialGallery scans PAGE_URL or PAGE_FILE and marks the service ready.
func loadInitialGallery(config *startup.Config, scanner *page.Scanner, h *handlers.Handlers) {
	start := time.Now()

	var (
		items  []*mediatypes.MediaItem
		source string
		err    error
	)
	switch {
	case config.PageURL != "":
		source = config.PageURL
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		items, err = scanner.LoadURL(ctx, &http.Client{Timeout: 30 * time.Second}, config.PageURL)
	case config.PageFile != "":
		source = config.PageFile
		items, err = scanner.LoadFile(config.PageFile, config.APIURL)
	}

	if err != nil {
		logging.Error("Failed to load %s: %v", source, err)
		h.MarkReady(err)
		return
	}
	if source != "" {
		h.LoadGallery(source, items)
	}
	startup.LogGalleryLoaded(source, len(items), time.Since(start))
	h.MarkReady(nil)
}

func cleanCache(db *database.Database, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := db.CleanExpiredEntries(ctx)
			cancel()
			if err != nil {
				logging.Warn("Failed to clean API cache: %v", err)
				continue
			}
			if n > 0 {
				logging.Debug("Removed %d expired API cache entries", n)
			}
			db.UpdateDBMetrics()
		case <-stop:
			return
		}
	}
}
