package handlers

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"media-lightbox/internal/mediatypes"
)

const maxDocumentBytes = 20 << 20

// galleryRequest loads a document by URL instead of a posted body.
type galleryRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

// GalleryItem is one item as listed by the API.
type GalleryItem struct {
	*mediatypes.MediaItem
	OriginalWidth  int `json:"originalWidth,omitempty"`
	OriginalHeight int `json:"originalHeight,omitempty"`
}

// GalleryResponse lists the current gallery.
type GalleryResponse struct {
	Source   string        `json:"source,omitempty"`
	LoadedAt time.Time     `json:"loadedAt,omitempty"`
	Items    []GalleryItem `json:"items"`
}

// GetGallery lists the items of the current gallery.
func (h *Handlers) GetGallery(w http.ResponseWriter, _ *http.Request) {
	items := h.viewer.Items()

	h.mu.RLock()
	info := h.gallery
	h.mu.RUnlock()

	response := GalleryResponse{
		Source:   info.Source,
		LoadedAt: info.LoadedAt,
		Items:    make([]GalleryItem, 0, len(items)),
	}
	for _, item := range items {
		width, height := item.Dimensions()
		response.Items = append(response.Items, GalleryItem{
			MediaItem:      item,
			OriginalWidth:  width,
			OriginalHeight: height,
		})
	}

	writeJSONData(w, response)
}

// PostGallery replaces the gallery. The body is either an HTML document
// (base URL in the "base" query parameter) or a JSON object naming a
// document URL to download. An open viewer is closed.
func (h *Handlers) PostGallery(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var (
		items  []*mediatypes.MediaItem
		source string
		err    error
	)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req galleryRequest
		if err := h.decodeJSON(w, r, &req); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		source = req.URL
		items, err = h.scanner.LoadURL(r.Context(), h.client, req.URL)
		if err != nil {
			logger.Warn("failed to load document %s: %v", req.URL, err)
			writeJSONError(w, err.Error(), http.StatusBadGateway)
			return
		}
	} else {
		source = "request body"
		base := r.URL.Query().Get("base")
		items, err = h.scanner.Scan(http.MaxBytesReader(w, r.Body, maxDocumentBytes), base)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, "document too large", http.StatusRequestEntityTooLarge)
				return
			}
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	h.LoadGallery(source, items)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]interface{}{
		"items":    len(items),
		"source":   source,
		"duration": time.Since(start).Round(time.Millisecond).String(),
	})
}
