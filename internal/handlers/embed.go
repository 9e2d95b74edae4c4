package handlers

import (
	"errors"
	"net/http"

	"media-lightbox/internal/embed"
	"media-lightbox/internal/mediatypes"
	"media-lightbox/internal/viewer"
)

// defaultEmbedWidth is used when neither a width nor a displayed
// rendition is available.
const defaultEmbedWidth = 640

// GetEmbed returns embed snippets for the current file. Without a width the
// rendition on display is used.
func (h *Handlers) GetEmbed(w http.ResponseWriter, r *http.Request) {
	width, err := queryInt(r, "width", 0)
	if err != nil || width < 0 || width > maxThumbnailSize {
		writeJSONError(w, "invalid width", http.StatusBadRequest)
		return
	}

	state := h.display.Snapshot()
	if !state.Open {
		writeJSONError(w, viewer.ErrNoCurrentFile.Error(), http.StatusConflict)
		return
	}
	if state.Metadata == nil || state.Metadata.ImageInfo == nil {
		writeJSONError(w, "metadata not loaded", http.StatusConflict)
		return
	}

	var thumb *mediatypes.Thumbnail
	if width == 0 && state.Rendition != nil {
		thumb = &state.Rendition.Thumbnail
	} else {
		if width == 0 {
			width = defaultEmbedWidth
		}
		thumb, err = h.viewer.RequestThumbnail(r.Context(), width)
		if err != nil {
			if errors.Is(err, viewer.ErrNoCurrentFile) {
				writeJSONError(w, err.Error(), http.StatusConflict)
				return
			}
			writeJSONError(w, err.Error(), http.StatusBadGateway)
			return
		}
	}

	info := embed.FileInfo{
		ImageInfo: state.Metadata.ImageInfo,
		Repo:      state.Metadata.Repo,
	}
	if item := h.display.Item(); item != nil {
		info.Caption = item.Caption
	}

	writeJSONData(w, h.embed.Snippets(info, *thumb))
}
