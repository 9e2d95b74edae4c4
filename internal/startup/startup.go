package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"media-lightbox/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is served by /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

const rule = "------------------------------------------------------------"

// section starts a titled block of startup output.
func section(title string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title, args...)
	logging.Info(rule)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs how long opening the sqlite database took
func LogDatabaseInit(duration time.Duration) {
	section("DATABASE")
	logging.Info("  [OK] Schema ready in %v", duration)
}

// LogCacheInit logs the API cache backend
func LogCacheInit(backend, location string, duration time.Duration) {
	section("API CACHE")
	switch {
	case backend == "none":
		logging.Info("  API responses are not cached")
	case location != "":
		logging.Info("  [OK] %s cache at %s ready in %v", backend, location, duration)
	default:
		logging.Info("  [OK] %s cache ready in %v", backend, duration)
	}
}

// LogGalleryLoaded logs the thumbnails found in the initial document
func LogGalleryLoaded(source string, items int, duration time.Duration) {
	section("GALLERY")
	if source == "" {
		logging.Info("  No initial document (POST /api/gallery to load one)")
		return
	}
	logging.Info("  Source:      %s", source)
	logging.Info("  Thumbnails:  %d (scanned in %v)", items, duration)
	if items == 0 {
		logging.Warn("  The document has no file thumbnails; check THUMB_IGNORE")
	}
}

// ServerConfig is what LogServerStarted reports.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs the listening addresses
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Control API:     http://0.0.0.0:%s/api", config.Port)
	logging.Info("  Health:          http://0.0.0.0:%s/health", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info(rule)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section("SHUTDOWN INITIATED (received %s)", signal)
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(`
` + rule + `
   __  ___       ___          __   _      __    __  __
  /  |/  /__ ___/ (_)__ _    / /  (_)__ _/ /  / /_/ /  ___ __ __
 / /|_/ / -_) _  / / _ '/   / /__/ / _ '/ _ \/ __/ _ \/ _ \\ \ /
/_/  /_/\__/\_,_/_/\_,_/   /____/_/\_, /_//_/\__/_.__/\___/_\_\
                                  /___/
` + rule)
	logging.Info("  Version:    %s (%s)", Version, Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM")
	logging.Info("  Go:          %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:        %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	if hostname, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname:    %s", hostname)
	}
}

// ensureDirectory creates path if it is missing.
func ensureDirectory(path, name string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", name, err)
		}
		logging.Debug("  Created %s directory %s", name, path)
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat %s directory: %w", name, err)
	case !info.IsDir():
		return fmt.Errorf("%s path %s is not a directory", name, path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	f, err := os.CreateTemp(dir, ".write-test-*")
	if err != nil {
		return err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Remove(name); err != nil {
		logging.Warn("failed to remove write test file %s: %v", filepath.Base(name), err)
	}
	return nil
}
