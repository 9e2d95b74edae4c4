package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"media-lightbox/internal/filesystem"
	"media-lightbox/internal/logging"
)

// Config holds all application configuration
type Config struct {
	Port        string `yaml:"port" validate:"required,numeric"`
	MetricsPort string `yaml:"metricsPort" validate:"required,numeric,nefield=Port"`

	// APIURL is the api.php endpoint of the wiki the page belongs to.
	APIURL   string `yaml:"apiUrl" validate:"required,url"`
	PageURL  string `yaml:"pageUrl" validate:"omitempty,url"`
	PageFile string `yaml:"pageFile"`
	Language string `yaml:"language" validate:"required"`

	UserAgent string `yaml:"userAgent" validate:"required"`

	CacheDir      string `yaml:"cacheDir" validate:"required"`
	CacheBackend  string `yaml:"cacheBackend" validate:"oneof=sqlite redis none"`
	RedisAddr     string `yaml:"redisAddr" validate:"required_if=CacheBackend redis"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDb" validate:"gte=0"`

	APICacheMaxAge     time.Duration `yaml:"apiCacheMaxAge" validate:"gte=0"`
	CacheCleanInterval time.Duration `yaml:"cacheCleanInterval" validate:"gte=0"`
	ImageCacheBytes    int64         `yaml:"imageCacheBytes" validate:"gte=0"`

	PreloadDistance      int      `yaml:"preloadDistance" validate:"gte=0,lte=10"`
	PreloadWorkers       int      `yaml:"preloadWorkers" validate:"gte=0"`
	UseThumbnailGuessing bool     `yaml:"useThumbnailGuessing"`
	NeedGender           bool     `yaml:"needGender"`
	GlobalUsageAvailable bool     `yaml:"globalUsageAvailable"`
	ThumbIgnore          []string `yaml:"thumbIgnore"`

	ViewerEnabled          bool `yaml:"viewerEnabled"`
	ViewerEnabledByDefault bool `yaml:"viewerEnabledByDefault"`

	ActionSamplingFile string `yaml:"actionSamplingFile"`
	LogHealthChecks    bool   `yaml:"logHealthChecks"`
	MetricsEnabled     bool   `yaml:"metricsEnabled"`

	// LogLevel applies only when neither LOG_LEVEL nor DEBUG is set.
	LogLevel string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn warning error"`

	// Derived paths
	DatabasePath string `yaml:"-"`
}

// DatabaseFile is the name of the sqlite database inside CACHE_DIR.
const DatabaseFile = "lightbox.db"

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Port:                   "8080",
		MetricsPort:            "9090",
		APIURL:                 "https://commons.wikimedia.org/w/api.php",
		Language:               "en",
		UserAgent:              "media-lightbox/" + Version,
		CacheDir:               "/cache",
		CacheBackend:           "sqlite",
		APICacheMaxAge:         24 * time.Hour,
		CacheCleanInterval:     time.Hour,
		ImageCacheBytes:        64 << 20,
		PreloadDistance:        1,
		UseThumbnailGuessing:   true,
		NeedGender:             true,
		GlobalUsageAvailable:   true,
		ViewerEnabled:          true,
		ViewerEnabledByDefault: true,
		LogHealthChecks:        true,
		MetricsEnabled:         true,
	}
}

// LoadConfig loads and validates configuration. Values come from, in
// increasing precedence: defaults, the YAML file named by CONFIG_FILE, and
// the environment (including a .env file, see ENV_FILE).
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	if err := loadEnvFile(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	config := DefaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
		logging.Info("  CONFIG_FILE:            %s", path)
	}

	config.applyEnv()

	if err := config.finish(); err != nil {
		return nil, err
	}

	config.log()
	return config, nil
}

// loadEnvFile loads a .env file into the process environment without
// overriding variables that are already set. A missing file is fine.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	logging.Info("  Loaded environment from %s", path)
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := filesystem.ReadFile(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.APIURL = getEnv("API_URL", c.APIURL)
	c.PageURL = getEnv("PAGE_URL", c.PageURL)
	c.PageFile = getEnv("PAGE_FILE", c.PageFile)
	c.Language = getEnv("LANGUAGE", c.Language)
	c.UserAgent = getEnv("USER_AGENT", c.UserAgent)

	c.CacheDir = getEnv("CACHE_DIR", c.CacheDir)
	c.CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", c.CacheBackend))
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)

	c.APICacheMaxAge = getEnvSeconds("API_CACHE_MAX_AGE", c.APICacheMaxAge)
	c.CacheCleanInterval = getEnvDuration("CACHE_CLEAN_INTERVAL", c.CacheCleanInterval)
	c.ImageCacheBytes = int64(getEnvInt("IMAGE_CACHE_BYTES", int(c.ImageCacheBytes)))

	c.PreloadDistance = getEnvInt("PRELOAD_DISTANCE", c.PreloadDistance)
	c.PreloadWorkers = getEnvInt("PRELOAD_WORKERS", c.PreloadWorkers)
	c.UseThumbnailGuessing = getEnvBool("USE_THUMBNAIL_GUESSING", c.UseThumbnailGuessing)
	c.NeedGender = getEnvBool("NEED_GENDER", c.NeedGender)
	c.GlobalUsageAvailable = getEnvBool("GLOBAL_USAGE_AVAILABLE", c.GlobalUsageAvailable)
	c.ThumbIgnore = getEnvList("THUMB_IGNORE", c.ThumbIgnore)

	c.ViewerEnabled = getEnvBool("VIEWER_ENABLED", c.ViewerEnabled)
	c.ViewerEnabledByDefault = getEnvBool("VIEWER_ENABLED_BY_DEFAULT", c.ViewerEnabledByDefault)

	c.ActionSamplingFile = getEnv("ACTION_SAMPLING_FILE", c.ActionSamplingFile)
	c.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", c.LogHealthChecks)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
}

// finish validates the configuration and resolves derived paths.
func (c *Config) finish() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.LogLevel != "" && os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
		logging.SetLevel(logging.ParseLevel(c.LogLevel))
	}

	cacheDir, err := filepath.Abs(c.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	c.CacheDir = cacheDir

	if c.CacheBackend == "sqlite" {
		if err := ensureDirectory(c.CacheDir, "cache"); err != nil {
			return fmt.Errorf("cache directory error: %w", err)
		}
		if err := testWriteAccess(c.CacheDir); err != nil {
			return fmt.Errorf("cache directory is not writable (required for the sqlite cache): %w", err)
		}
		c.DatabasePath = filepath.Join(c.CacheDir, DatabaseFile)
	}
	return nil
}

var validate = validator.New()

// Validate checks the configuration and reports every invalid field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if c.PageURL != "" && c.PageFile != "" {
			return errors.New("invalid configuration: PAGE_URL and PAGE_FILE are mutually exclusive")
		}
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			problems = append(problems, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

func (c *Config) log() {
	logging.Info("  PORT:                   %s", c.Port)
	logging.Info("  METRICS_PORT:           %s", c.MetricsPort)
	logging.Info("  METRICS_ENABLED:        %v", c.MetricsEnabled)
	logging.Info("  API_URL:                %s", c.APIURL)
	if c.PageURL != "" {
		logging.Info("  PAGE_URL:               %s", c.PageURL)
	}
	if c.PageFile != "" {
		logging.Info("  PAGE_FILE:              %s", c.PageFile)
	}
	logging.Info("  LANGUAGE:               %s", c.Language)
	logging.Info("  CACHE_DIR:              %s", c.CacheDir)
	logging.Info("  CACHE_BACKEND:          %s", c.CacheBackend)
	if c.CacheBackend == "redis" {
		logging.Info("  REDIS_ADDR:             %s (db %d)", c.RedisAddr, c.RedisDB)
	}
	logging.Info("  API_CACHE_MAX_AGE:      %v", c.APICacheMaxAge)
	logging.Info("  CACHE_CLEAN_INTERVAL:   %v", c.CacheCleanInterval)
	logging.Info("  IMAGE_CACHE_BYTES:      %s", formatBytes(c.ImageCacheBytes))
	logging.Info("  PRELOAD_DISTANCE:       %d", c.PreloadDistance)
	if c.PreloadWorkers > 0 {
		logging.Info("  PRELOAD_WORKERS:        %d", c.PreloadWorkers)
	} else {
		logging.Info("  PRELOAD_WORKERS:        auto")
	}
	logging.Info("  USE_THUMBNAIL_GUESSING: %v", c.UseThumbnailGuessing)
	logging.Info("  NEED_GENDER:            %v", c.NeedGender)
	logging.Info("  GLOBAL_USAGE_AVAILABLE: %v", c.GlobalUsageAvailable)
	if len(c.ThumbIgnore) > 0 {
		logging.Info("  THUMB_IGNORE:           %s", strings.Join(c.ThumbIgnore, ", "))
	}
	logging.Info("  VIEWER_ENABLED:         %v (default on click: %v)", c.ViewerEnabled, c.ViewerEnabledByDefault)
	if c.ActionSamplingFile != "" {
		logging.Info("  ACTION_SAMPLING_FILE:   %s", c.ActionSamplingFile)
	}
	logging.Info("  LOG_HEALTH_CHECKS:      %v", c.LogHealthChecks)
	logging.Info("  LOG_LEVEL:              %s", logging.GetLevel())

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    API cache:   %s", c.CacheBackend)
	logging.Info("    Guessing:    %s", enabledString(c.UseThumbnailGuessing))
	logging.Info("    Metrics:     %s", enabledString(c.MetricsEnabled))
}
