package media

import (
	"math"
	"sync"

	"media-lightbox/internal/mediatypes"
)

// DefaultWidthBuckets are the rendition widths requested from the server.
// Rounding up to a bucket keeps the number of distinct renditions small.
var DefaultWidthBuckets = []int{320, 640, 800, 1024, 1280, 1920, 2560, 2880}

// Viewport is the area available to the image on the client.
type Viewport struct {
	Width            int     `json:"width" validate:"gte=0"`
	Height           int     `json:"height" validate:"gte=0"`
	DevicePixelRatio float64 `json:"devicePixelRatio" validate:"gte=0"`
}

// DefaultViewport is used until a client reports its size.
var DefaultViewport = Viewport{Width: 1280, Height: 720, DevicePixelRatio: 1}

// WidthCalculator derives display widths for items from the current viewport.
type WidthCalculator struct {
	mu       sync.RWMutex
	viewport Viewport
	buckets  []int
}

// NewWidthCalculator creates a calculator. Empty buckets use DefaultWidthBuckets.
func NewWidthCalculator(viewport Viewport, buckets []int) *WidthCalculator {
	if len(buckets) == 0 {
		buckets = DefaultWidthBuckets
	}
	w := &WidthCalculator{buckets: buckets}
	w.SetViewport(viewport)
	return w
}

// SetViewport replaces the viewport. Missing values keep their defaults.
func (w *WidthCalculator) SetViewport(v Viewport) {
	if v.Width <= 0 {
		v.Width = DefaultViewport.Width
	}
	if v.Height <= 0 {
		v.Height = DefaultViewport.Height
	}
	if v.DevicePixelRatio <= 0 {
		v.DevicePixelRatio = 1
	}

	w.mu.Lock()
	w.viewport = v
	w.mu.Unlock()
}

// Viewport returns the current viewport.
func (w *WidthCalculator) Viewport() Viewport {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.viewport
}

// Widths returns the widths item is displayed at. The aspect ratio comes
// from the original size, else from the page thumbnail, else the image is
// assumed to fill the viewport.
func (w *WidthCalculator) Widths(item *mediatypes.MediaItem) mediatypes.ThumbnailWidth {
	v := w.Viewport()

	sampleWidth, sampleHeight := item.Dimensions()
	if sampleWidth <= 0 || sampleHeight <= 0 {
		sampleWidth, sampleHeight = item.ThumbWidth, item.ThumbHeight
	}
	if sampleWidth <= 0 || sampleHeight <= 0 {
		sampleWidth, sampleHeight = v.Width, v.Height
	}

	return w.calculate(v, sampleWidth, sampleHeight)
}

func (w *WidthCalculator) calculate(v Viewport, sampleWidth, sampleHeight int) mediatypes.ThumbnailWidth {
	cssWidth := fittingWidth(v.Width, v.Height, sampleWidth, sampleHeight)
	cssHeight := int(math.Round(float64(cssWidth) * float64(sampleHeight) / float64(sampleWidth)))
	screen := int(math.Round(float64(cssWidth) * v.DevicePixelRatio))

	return mediatypes.ThumbnailWidth{
		CSS:       cssWidth,
		CSSHeight: cssHeight,
		Screen:    screen,
		Real:      nextBucket(w.buckets, screen),
	}
}

// fittingWidth is the width of a sampleWidth x sampleHeight image scaled to
// fit the bounding box.
func fittingWidth(boundWidth, boundHeight, sampleWidth, sampleHeight int) int {
	if float64(boundWidth)/float64(boundHeight) > float64(sampleWidth)/float64(sampleHeight) {
		// Height-limited.
		return int(math.Round(float64(boundHeight) * float64(sampleWidth) / float64(sampleHeight)))
	}
	return boundWidth
}

// nextBucket returns the smallest bucket not below target, or the largest bucket.
func nextBucket(buckets []int, target int) int {
	for _, b := range buckets {
		if b >= target {
			return b
		}
	}
	return buckets[len(buckets)-1]
}
