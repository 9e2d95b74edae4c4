package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"media-lightbox/internal/display"
	"media-lightbox/internal/media"
	"media-lightbox/internal/viewer"
)

const (
	maxEventWait     = 60 * time.Second
	maxThumbnailSize = 10000
)

// routeRequest is a location handed to the router, e.g. a changed hash.
type routeRequest struct {
	Location string `json:"location" validate:"max=2048"`
}

// EventsResponse is the answer to an events poll.
type EventsResponse struct {
	Events []display.Event `json:"events"`
	Seq    uint64          `json:"seq"`
}

// writeState answers a navigation call with the display state it produced.
func (h *Handlers) writeState(w http.ResponseWriter) {
	writeJSONData(w, h.display.Snapshot())
}

// OpenItem opens the viewer on the item at the index in the path.
func (h *Handlers) OpenItem(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSONError(w, "invalid index", http.StatusBadRequest)
		return
	}
	if index < 0 || index >= len(h.viewer.Items()) {
		writeJSONError(w, "no item at index "+strconv.Itoa(index), http.StatusNotFound)
		return
	}

	h.viewer.Open(index)
	h.writeState(w)
}

// NextItem moves to the next item, wrapping around.
func (h *Handlers) NextItem(w http.ResponseWriter, _ *http.Request) {
	if !h.viewer.IsOpen() {
		writeJSONError(w, "viewer is closed", http.StatusConflict)
		return
	}
	h.viewer.Next()
	h.writeState(w)
}

// PrevItem moves to the previous item, wrapping around.
func (h *Handlers) PrevItem(w http.ResponseWriter, _ *http.Request) {
	if !h.viewer.IsOpen() {
		writeJSONError(w, "viewer is closed", http.StatusConflict)
		return
	}
	h.viewer.Prev()
	h.writeState(w)
}

// CloseViewer closes the viewer. Closing a closed viewer is a no-op.
func (h *Handlers) CloseViewer(w http.ResponseWriter, _ *http.Request) {
	h.viewer.Close()
	h.writeState(w)
}

// Resize records the client viewport and reloads the rendition when a
// larger one is needed.
func (h *Handlers) Resize(w http.ResponseWriter, r *http.Request) {
	var vp media.Viewport
	if err := h.decodeJSON(w, r, &vp); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.widths.SetViewport(vp)
	h.viewer.Resize()

	writeJSONData(w, map[string]interface{}{
		"viewport": h.widths.Viewport(),
		"state":    h.display.Snapshot(),
	})
}

// Route hands a location (usually a changed hash) to the router. Unknown
// routes are ignored.
func (h *Handlers) Route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.viewer.HandleRoute(req.Location)
	h.writeState(w)
}

// GetState returns the display state.
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	h.writeState(w)
}

// GetEvents returns display events newer than "since". With "wait" set it
// blocks until an event arrives or the wait elapses.
func (h *Handlers) GetEvents(w http.ResponseWriter, r *http.Request) {
	since, err := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)
	if err != nil && r.URL.Query().Get("since") != "" {
		writeJSONError(w, "invalid since", http.StatusBadRequest)
		return
	}

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		wait, err = time.ParseDuration(raw)
		if err != nil || wait < 0 {
			writeJSONError(w, "invalid wait", http.StatusBadRequest)
			return
		}
		wait = min(wait, maxEventWait)
	}

	// Take the channel before reading so an event in between is not missed.
	changed := h.display.Changed()
	events := h.display.Events(since)

	if len(events) == 0 && wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-changed:
			events = h.display.Events(since)
		case <-timer.C:
		case <-r.Context().Done():
			return
		}
	}

	writeJSONData(w, EventsResponse{Events: events, Seq: h.display.Snapshot().Seq})
}

// GetImage serves the bytes of the rendition on display.
func (h *Handlers) GetImage(w http.ResponseWriter, _ *http.Request) {
	img := h.display.Image()
	if img == nil {
		writeJSONError(w, "no image on display", http.StatusNotFound)
		return
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(img.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(img.Data); err != nil {
		logger.Debug("failed to write image: %v", err)
	}
}

// GetPlaceholder serves the blurred page thumbnail scaled to the display
// size, while the placeholder is on display.
func (h *Handlers) GetPlaceholder(w http.ResponseWriter, r *http.Request) {
	state := h.display.Snapshot()
	if state.Placeholder == nil {
		writeJSONError(w, "no placeholder on display", http.StatusNotFound)
		return
	}

	p := state.Placeholder
	width, height := p.Widths.CSS, p.Widths.CSSHeight
	if item := h.display.Item(); item != nil && (width <= 0 || height <= 0) {
		width, height = item.ThumbWidth, item.ThumbHeight
	}

	img, err := h.images.Fetch(r.Context(), p.ThumbURL, nil)
	if err != nil {
		logger.Warn("failed to fetch thumbnail for placeholder %s: %v", p.ThumbURL, err)
		writeJSONError(w, "failed to fetch thumbnail", http.StatusBadGateway)
		return
	}

	data, err := media.RenderPlaceholder(img.Data, width, height, media.DefaultBlurSigma)
	if err != nil {
		logger.Warn("failed to render placeholder for %s: %v", p.FileTitle, err)
		writeJSONError(w, "failed to render placeholder", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(data); err != nil {
		logger.Debug("failed to write placeholder: %v", err)
	}
}

// GetThumbnail resolves a rendition URL of the current file at the width
// in the query.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "width", 0)
	if err != nil || width <= 0 || width > maxThumbnailSize {
		writeJSONError(w, "width must be between 1 and "+strconv.Itoa(maxThumbnailSize), http.StatusBadRequest)
		return
	}

	thumb, err := h.viewer.RequestThumbnail(r.Context(), width)
	if err != nil {
		if errors.Is(err, viewer.ErrNoCurrentFile) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Warn("failed to resolve thumbnail at %dpx: %v", width, err)
		writeJSONError(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSONData(w, thumb)
}
