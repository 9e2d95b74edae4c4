package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"media-lightbox/internal/display"
	"media-lightbox/internal/embed"
	"media-lightbox/internal/logging"
	"media-lightbox/internal/media"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/page"
	"media-lightbox/internal/preferences"
)

var logger = logging.For("handlers")

// Viewer is the part of the viewer orchestrator driven over HTTP.
type Viewer interface {
	Init(items []*mediatypes.MediaItem)
	Items() []*mediatypes.MediaItem
	IsOpen() bool
	Open(index int)
	Next()
	Prev()
	Close()
	HandleRoute(location string)
	Resize()
	RequestThumbnail(ctx context.Context, width int) (*mediatypes.Thumbnail, error)
}

// ImageSource fetches image bytes. It is used for the placeholder.
type ImageSource interface {
	Fetch(ctx context.Context, url string, progress func(float64)) (*mediatypes.ImageHandle, error)
}

// Deps are the collaborators of the handlers.
type Deps struct {
	Viewer      Viewer
	Display     *display.Recorder
	Scanner     *page.Scanner
	Widths      *media.WidthCalculator
	Images      ImageSource
	Preferences *preferences.Service
	Embed       *embed.Formatter
	// PageClient downloads documents posted by URL.
	PageClient *http.Client
	// Checks report the state of backing services for /health.
	Checks map[string]func(ctx context.Context) error
}

// Handlers serves the control API of the viewer.
type Handlers struct {
	viewer   Viewer
	display  *display.Recorder
	scanner  *page.Scanner
	widths   *media.WidthCalculator
	images   ImageSource
	prefs    *preferences.Service
	embed    *embed.Formatter
	client   *http.Client
	checks   map[string]func(ctx context.Context) error
	validate *validator.Validate

	startTime time.Time

	mu        sync.RWMutex
	ready     bool
	loadError string
	gallery   galleryInfo
}

type galleryInfo struct {
	Source   string    `json:"source,omitempty"`
	Items    int       `json:"items"`
	LoadedAt time.Time `json:"loadedAt,omitempty"`
}

// New creates the handlers.
func New(deps Deps) *Handlers {
	if deps.Embed == nil {
		deps.Embed = embed.NewFormatter()
	}
	if deps.PageClient == nil {
		deps.PageClient = &http.Client{Timeout: 30 * time.Second}
	}
	if deps.Preferences == nil {
		deps.Preferences = preferences.NewService(nil, preferences.Config{Enabled: true, EnabledByDefault: true})
	}
	return &Handlers{
		viewer:    deps.Viewer,
		display:   deps.Display,
		scanner:   deps.Scanner,
		widths:    deps.Widths,
		images:    deps.Images,
		prefs:     deps.Preferences,
		embed:     deps.Embed,
		client:    deps.PageClient,
		checks:    deps.Checks,
		validate:  validator.New(),
		startTime: time.Now(),
	}
}

// MarkReady records the outcome of the initial gallery load. A failed load
// still makes the service ready, but reports it as degraded.
func (h *Handlers) MarkReady(loadErr error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ready = true
	if loadErr != nil {
		h.loadError = loadErr.Error()
	}
}

// IsReady reports whether startup has finished.
func (h *Handlers) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

func (h *Handlers) setGallery(source string, items int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.gallery = galleryInfo{Source: source, Items: items, LoadedAt: time.Now()}
	h.loadError = ""
}

// LoadGallery replaces the gallery with items and records where they came
// from. It is used at startup and by the gallery endpoint.
func (h *Handlers) LoadGallery(source string, items []*mediatypes.MediaItem) {
	h.viewer.Init(items)
	h.setGallery(source, len(items))
	logger.Info("gallery loaded from %s: %d items", source, len(items))
}
