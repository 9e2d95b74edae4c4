package display

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/metadata"
	"media-lightbox/internal/rendition"
)

// DefaultEventCapacity is the number of events kept by a Recorder.
const DefaultEventCapacity = 256

// Event kinds.
const (
	EventOpen          = "open"
	EventPlaceholder   = "placeholder"
	EventProgress      = "progress"
	EventRendition     = "rendition"
	EventImageError    = "image-error"
	EventMetadata      = "metadata"
	EventMetadataError = "metadata-error"
	EventControls      = "controls"
	EventClose         = "close"
	EventRoute         = "route"
)

// Event is one recorded display side effect.
type Event struct {
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"time"`
	Kind      string    `json:"kind"`
	FileTitle string    `json:"fileTitle,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// Placeholder is the blurred stand-in shown while the rendition loads.
type Placeholder struct {
	FileTitle string                    `json:"fileTitle"`
	ThumbURL  string                    `json:"thumbUrl"`
	Widths    mediatypes.ThumbnailWidth `json:"widths"`
}

// Rendition is the image currently on display.
type Rendition struct {
	FileTitle   string                    `json:"fileTitle"`
	Thumbnail   mediatypes.Thumbnail      `json:"thumbnail"`
	ContentType string                    `json:"contentType,omitempty"`
	Format      string                    `json:"format,omitempty"`
	Size        int                       `json:"size"`
	Guessed     bool                      `json:"guessed"`
	Widths      mediatypes.ThumbnailWidth `json:"widths"`
	Unblurred   bool                      `json:"unblurred"`
}

// State is a snapshot of the display.
type State struct {
	// ViewID changes every time the viewer opens.
	ViewID        string              `json:"viewId,omitempty"`
	Open          bool                `json:"open"`
	Route         string              `json:"route"`
	FileTitle     string              `json:"fileTitle,omitempty"`
	Index         int                 `json:"index"`
	Progress      int                 `json:"progress"`
	Placeholder   *Placeholder        `json:"placeholder,omitempty"`
	Rendition     *Rendition          `json:"rendition,omitempty"`
	ImageError    string              `json:"imageError,omitempty"`
	Metadata      *metadata.Aggregate `json:"metadata,omitempty"`
	MetadataError string              `json:"metadataError,omitempty"`
	HasNext       bool                `json:"hasNext"`
	HasPrev       bool                `json:"hasPrev"`
	Seq           uint64              `json:"seq"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// Recorder keeps the display state for the control API.
type Recorder struct {
	mu          sync.RWMutex
	state       State
	item        *mediatypes.MediaItem
	image       *mediatypes.ImageHandle
	events      []Event
	capacity    int
	changed     chan struct{}
	now         func() time.Time
	placeholder func(item *mediatypes.MediaItem) bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithEventCapacity sets how many events are kept.
func WithEventCapacity(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithPlaceholderCheck decides whether a placeholder can be shown for an
// item. By default an item needs a page thumbnail.
func WithPlaceholderCheck(fn func(item *mediatypes.MediaItem) bool) Option {
	return func(r *Recorder) {
		r.placeholder = fn
	}
}

// NewRecorder creates a recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		capacity: DefaultEventCapacity,
		changed:  make(chan struct{}),
		now:      time.Now,
		placeholder: func(item *mediatypes.MediaItem) bool {
			return item.ThumbURL != ""
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.state.Index = -1
	return r
}

// record appends an event and wakes up waiters. Callers hold r.mu.
func (r *Recorder) record(kind, fileTitle, detail string) {
	r.state.Seq++
	r.state.UpdatedAt = r.now()

	r.events = append(r.events, Event{
		Seq:       r.state.Seq,
		Time:      r.state.UpdatedAt,
		Kind:      kind,
		FileTitle: fileTitle,
		Detail:    detail,
	})
	if over := len(r.events) - r.capacity; over > 0 {
		r.events = append(r.events[:0], r.events[over:]...)
	}

	close(r.changed)
	r.changed = make(chan struct{})
}

// setItem switches the display to item, dropping what belonged to the
// previous one. Callers hold r.mu.
func (r *Recorder) setItem(item *mediatypes.MediaItem) {
	if r.item == item {
		return
	}
	r.item = item
	r.image = nil
	r.state.FileTitle = item.FileTitle
	r.state.Index = item.Index
	r.state.Progress = 0
	r.state.Placeholder = nil
	r.state.Rendition = nil
	r.state.ImageError = ""
	r.state.Metadata = nil
	r.state.MetadataError = ""
}

// ShowOpen starts a new view.
func (r *Recorder) ShowOpen() {
	r.mu.Lock()
	defer r.mu.Unlock()

	route := r.state.Route
	r.state = State{
		ViewID: uuid.NewString(),
		Open:   true,
		Route:  route,
		Index:  -1,
		Seq:    r.state.Seq,
	}
	r.item = nil
	r.image = nil
	r.record(EventOpen, "", r.state.ViewID)
}

// ShowPlaceholder records the placeholder for item if one can be shown.
func (r *Recorder) ShowPlaceholder(item *mediatypes.MediaItem, widths mediatypes.ThumbnailWidth) bool {
	if !r.placeholder(item) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.setItem(item)
	r.state.Placeholder = &Placeholder{FileTitle: item.FileTitle, ThumbURL: item.ThumbURL, Widths: widths}
	r.record(EventPlaceholder, item.FileTitle, "")
	return true
}

// ShowProgress records the loading progress in percent.
func (r *Recorder) ShowProgress(item *mediatypes.MediaItem, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setItem(item)
	r.state.Progress = percent
	r.record(EventProgress, item.FileTitle, strconv.Itoa(percent))
}

// ShowRendition records the loaded image.
func (r *Recorder) ShowRendition(item *mediatypes.MediaItem, resolved *rendition.Resolved, widths mediatypes.ThumbnailWidth, unblur bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setItem(item)
	view := &Rendition{
		FileTitle: item.FileTitle,
		Thumbnail: resolved.Thumbnail,
		Guessed:   resolved.Guessed,
		Widths:    widths,
		Unblurred: unblur,
	}
	if img := resolved.Image; img != nil {
		view.ContentType = img.ContentType
		view.Format = img.Format
		view.Size = img.Size
	}
	r.image = resolved.Image
	r.state.Rendition = view
	r.state.ImageError = ""
	r.record(EventRendition, item.FileTitle, resolved.Thumbnail.URL)
}

// ShowImageError records a failed rendition.
func (r *Recorder) ShowImageError(item *mediatypes.MediaItem, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setItem(item)
	r.state.ImageError = err.Error()
	r.record(EventImageError, item.FileTitle, err.Error())
}

// ShowMetadata records the metadata panel.
func (r *Recorder) ShowMetadata(item *mediatypes.MediaItem, aggregate *metadata.Aggregate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setItem(item)
	r.state.Metadata = aggregate
	r.state.MetadataError = ""
	r.record(EventMetadata, item.FileTitle, "")
}

// ShowMetadataError records a failed metadata join.
func (r *Recorder) ShowMetadataError(item *mediatypes.MediaItem, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setItem(item)
	r.state.MetadataError = err.Error()
	r.record(EventMetadataError, item.FileTitle, err.Error())
}

// ShowControls records next/prev availability.
func (r *Recorder) ShowControls(hasNext, hasPrev bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.HasNext = hasNext
	r.state.HasPrev = hasPrev
	r.record(EventControls, r.state.FileTitle, "")
}

// ShowClose clears the view.
func (r *Recorder) ShowClose() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = State{Route: r.state.Route, Index: -1, Seq: r.state.Seq}
	r.item = nil
	r.image = nil
	r.record(EventClose, "", "")
}

// SetRoute records the route of the current state.
func (r *Recorder) SetRoute(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Route = hash
	r.record(EventRoute, "", hash)
}

// Snapshot returns a copy of the current state.
func (r *Recorder) Snapshot() State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.state
	if s.Placeholder != nil {
		p := *s.Placeholder
		s.Placeholder = &p
	}
	if s.Rendition != nil {
		v := *s.Rendition
		s.Rendition = &v
	}
	return s
}

// Item returns the item on display, or nil.
func (r *Recorder) Item() *mediatypes.MediaItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.item
}

// Image returns the bytes of the rendition on display, or nil.
func (r *Recorder) Image() *mediatypes.ImageHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.image
}

// Events returns the kept events with a sequence number above since.
func (r *Recorder) Events(since uint64) []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Event{}
	for _, e := range r.events {
		if e.Seq > since {
			out = append(out, e)
		}
	}
	return out
}

// Changed returns a channel that is closed on the next event.
func (r *Recorder) Changed() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changed
}
