package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-lightbox/internal/logging"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metadata"
	"media-lightbox/internal/metrics"
	"media-lightbox/internal/preload"
	"media-lightbox/internal/rendition"
	"media-lightbox/internal/taskqueue"
)

var logger = logging.For("viewer")

// ErrNoCurrentFile is returned by RequestThumbnail before any file was loaded.
var ErrNoCurrentFile = errors.New("no current file")

// DefaultCacheHitThreshold is the load time under which a rendition is
// considered cached and the unblur transition is skipped.
const DefaultCacheHitThreshold = 10 * time.Millisecond

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Sink       Sink
	Routes     RouteWriter
	Codec      RouteCodec
	Widths     WidthSource
	Renditions RenditionSource
	Metadata   MetadataSource
	// Dimensions looks up original sizes missing from the page markup.
	Dimensions metadata.ImageInfoProvider
	Actions    ActionLogger
}

// Config tunes an Orchestrator.
type Config struct {
	PreloadDistance int
	// MetadataPreloadConcurrency bounds metadata preload requests; 0 is unbounded.
	MetadataPreloadConcurrency int
	CacheHitThreshold          time.Duration
}

// loadToken identifies one load. Results carrying an outdated token are
// dropped. generation changes on every navigation and close; rendition also
// changes on resize.
type loadToken struct {
	generation uint64
	rendition  uint64
	index      int
}

// Orchestrator coordinates navigation, rendition and metadata loading, and
// preloading. It is the only writer of display state.
type Orchestrator struct {
	mu  sync.Mutex
	wg  sync.WaitGroup
	ctx context.Context

	cancel context.CancelFunc

	deps    Deps
	cfg     Config
	nav     *Navigator
	preload *preload.Scheduler

	items []*mediatypes.MediaItem

	generation   uint64
	renditionSeq uint64
	currentTitle string
	sessionID    string

	realShown        bool
	placeholderShown bool

	openedAt          time.Time
	loadStart         time.Time
	firstImagePending bool
	firstMetaPending  bool
}

// New creates a closed orchestrator with no items.
func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.CacheHitThreshold <= 0 {
		cfg.CacheHitThreshold = DefaultCacheHitThreshold
	}
	if deps.Actions == nil {
		deps.Actions = nopActions{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		ctx:    ctx,
		cancel: cancel,
		deps:   deps,
		cfg:    cfg,
		nav:    newNavigator(deps.Codec, deps.Routes),
		preload: preload.NewScheduler(cfg.PreloadDistance,
			preload.WithConcurrency(preload.AxisMetadata, cfg.MetadataPreloadConcurrency),
			preload.WithContext(ctx),
		),
	}
}

// Init replaces the item collection. An open viewer is closed first.
func (o *Orchestrator) Init(items []*mediatypes.MediaItem) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.closeLocked(false)
	o.items = items
	o.currentTitle = ""
	o.generation++
	metrics.ViewerGalleryItems.Set(float64(len(items)))
	logger.Info("gallery initialized with %d items", len(items))
}

// Items returns the item collection.
func (o *Orchestrator) Items() []*mediatypes.MediaItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.items
}

// State returns the navigation state.
func (o *Orchestrator) State() NavigationState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nav.State()
}

// IsOpen reports whether the viewer is open.
func (o *Orchestrator) IsOpen() bool {
	return o.State().IsOpen
}

// SessionID identifies the current open/close cycle.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

// Current returns the current item, or nil when closed.
func (o *Orchestrator) Current() *mediatypes.MediaItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.currentLocked()
}

func (o *Orchestrator) currentLocked() *mediatypes.MediaItem {
	state := o.nav.State()
	if !state.IsOpen || !inRange(state.CurrentIndex, len(o.items)) {
		return nil
	}
	return o.items[state.CurrentIndex]
}

// Open opens the viewer at index, as a click on a thumbnail does.
func (o *Orchestrator) Open(index int) {
	o.deps.Actions.Log(logging.ActionThumbnailClick)
	o.LoadIndex(index)
}

// LoadIndex shows the item at index. Out-of-range indices are ignored.
func (o *Orchestrator) LoadIndex(index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadLocked(index, false)
}

// Next shows the following item.
func (o *Orchestrator) Next() {
	o.deps.Actions.Log(logging.ActionNextImage)
	metrics.ViewerNavigationsTotal.WithLabelValues("next").Inc()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadLocked(o.nav.State().CurrentIndex+1, false)
}

// Prev shows the preceding item.
func (o *Orchestrator) Prev() {
	o.deps.Actions.Log(logging.ActionPrevImage)
	metrics.ViewerNavigationsTotal.WithLabelValues("prev").Inc()

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loadLocked(o.nav.State().CurrentIndex-1, false)
}

// HandleRoute reacts to an external route change. A file route loads that
// file without writing the route back; any other location closes an open
// viewer.
func (o *Orchestrator) HandleRoute(location string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	metrics.ViewerNavigationsTotal.WithLabelValues("route").Inc()

	route, ok := o.nav.parse(location)
	if ok && route.FileTitle != "" {
		o.deps.Actions.Log(logging.ActionFileRoute)
		for i, item := range o.items {
			if item.FileTitle == route.FileTitle {
				o.loadLocked(i, true)
				return
			}
		}
		logger.Debug("route names unknown file %q", route.FileTitle)
		return
	}

	if o.nav.State().IsOpen {
		o.deps.Actions.Log(logging.ActionHistoryNavigation)
		o.closeLocked(true)
	}
}

// Close closes the viewer.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closeLocked(false) {
		o.deps.Actions.Log(logging.ActionClose)
	}
}

func (o *Orchestrator) closeLocked(fromHistory bool) bool {
	if !o.nav.close(fromHistory) {
		return false
	}

	// Anything still in flight belongs to a load that no longer exists.
	o.generation++
	o.renditionSeq++
	o.preload.CancelAll()
	o.resetFlagsLocked()
	o.firstImagePending = false
	o.firstMetaPending = false

	metrics.ViewerNavigationsTotal.WithLabelValues("close").Inc()
	metrics.ViewerOpen.Set(0)
	logger.Debug("viewer closed (session %s, fromHistory=%v)", o.sessionID, fromHistory)

	o.deps.Sink.ShowClose()
	return true
}

// Resize re-measures the current item and reloads its rendition at the new
// width. The current index does not change.
func (o *Orchestrator) Resize() {
	o.mu.Lock()
	defer o.mu.Unlock()

	item := o.currentLocked()
	if item == nil {
		return
	}
	o.deps.Actions.Log(logging.ActionResize)
	metrics.ViewerNavigationsTotal.WithLabelValues("resize").Inc()

	o.scheduleThumbnailPreloadLocked()

	widths := o.deps.Widths.Widths(item)
	o.renditionSeq++
	tok := loadToken{generation: o.generation, rendition: o.renditionSeq, index: item.Index}

	// The superseded pipeline is now stale, so a load that has not shown its
	// image yet completes through this one.
	initial := !o.realShown
	start := time.Now()
	if initial {
		start = o.loadStart
	}

	o.startRenditionLocked(tok, item, widths, start, initial)
	o.showControlsLocked()
}

// RequestThumbnail returns the authoritative rendition of the current file at width.
func (o *Orchestrator) RequestThumbnail(ctx context.Context, width int) (*mediatypes.Thumbnail, error) {
	o.mu.Lock()
	title := o.currentTitle
	o.mu.Unlock()

	if title == "" {
		return nil, ErrNoCurrentFile
	}
	return o.deps.Renditions.ThumbnailInfo(ctx, title, width)
}

// Wait blocks until every started pipeline has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// Shutdown cancels background work and waits for pipelines to return.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	o.preload.CancelAll()
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
}

// PreloadState exposes the scheduling state of a preload axis.
func (o *Orchestrator) PreloadState(axis preload.Axis) preload.State {
	return o.preload.State(axis)
}

func (o *Orchestrator) loadLocked(index int, fromHistory bool) {
	if !inRange(index, len(o.items)) {
		return
	}
	item := o.items[index]

	o.generation++
	o.renditionSeq++
	tok := loadToken{generation: o.generation, rendition: o.renditionSeq, index: index}

	if o.nav.open(index, fromHistory) {
		o.sessionID = uuid.NewString()
		o.openedAt = time.Now()
		o.firstImagePending = true
		o.firstMetaPending = true
		metrics.ViewerNavigationsTotal.WithLabelValues("open").Inc()
		metrics.ViewerOpen.Set(1)
		logger.Debug("viewer opened (session %s)", o.sessionID)
		o.deps.Sink.ShowOpen()
	}
	o.currentTitle = item.FileTitle
	o.nav.writeRoute(item.FileTitle)

	o.scheduleMetadataPreloadLocked()
	o.scheduleThumbnailPreloadLocked()

	widths := o.deps.Widths.Widths(item)
	o.resetFlagsLocked()
	start := time.Now()
	o.loadStart = start

	o.startRenditionLocked(tok, item, widths, start, true)
	o.showPlaceholderLocked(tok, item, widths, 1)

	// The pipelines above block on the lock for their first callback, so
	// these two are always the first progress values of this load.
	o.deps.Sink.ShowProgress(item, 0)
	o.deps.Sink.ShowProgress(item, 5)

	o.startMetadataLocked(tok, item)

	o.nav.settle()
}

func (o *Orchestrator) resetFlagsLocked() {
	o.realShown = false
	o.placeholderShown = false
}

// isCurrent reports whether results of a load may still be shown.
func (o *Orchestrator) isCurrent(tok loadToken) bool {
	return o.nav.State().IsOpen && o.generation == tok.generation && o.nav.State().CurrentIndex == tok.index
}

// isRenditionCurrent additionally rejects renditions superseded by a resize.
func (o *Orchestrator) isRenditionCurrent(tok loadToken) bool {
	return o.isCurrent(tok) && o.renditionSeq == tok.rendition
}

func (o *Orchestrator) showControlsLocked() {
	state := o.nav.State()
	o.deps.Sink.ShowControls(state.CurrentIndex < len(o.items)-1, state.CurrentIndex > 0)
}

func (o *Orchestrator) scheduleMetadataPreloadLocked() {
	items := o.items
	o.preload.Schedule(preload.AxisMetadata, o.nav.State().CurrentIndex, len(items), func(index int) taskqueue.Task {
		item := items[index]
		return func(ctx context.Context) error {
			_, err := o.deps.Metadata.Fetch(ctx, item.FileTitle)
			return err
		}
	})
}

func (o *Orchestrator) scheduleThumbnailPreloadLocked() {
	items := o.items
	o.preload.Schedule(preload.AxisThumbnail, o.nav.State().CurrentIndex, len(items), func(index int) taskqueue.Task {
		item := items[index]
		return func(ctx context.Context) error {
			// Widths need a live layout.
			if !o.IsOpen() {
				return nil
			}
			widths := o.deps.Widths.Widths(item)
			_, err := o.deps.Renditions.Resolve(ctx, renditionRequest(item, widths), nil)
			return err
		}
	})
}

func renditionRequest(item *mediatypes.MediaItem, widths mediatypes.ThumbnailWidth) rendition.Request {
	w, h := item.Dimensions()
	return rendition.Request{
		FileTitle:      item.FileTitle,
		TargetWidth:    widths.Real,
		SampleURL:      item.ThumbURL,
		OriginalWidth:  w,
		OriginalHeight: h,
	}
}
