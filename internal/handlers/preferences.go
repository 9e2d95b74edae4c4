package handlers

import (
	"errors"
	"net/http"

	"media-lightbox/internal/preferences"
)

type preferencesRequest struct {
	EnabledOnClick *bool `json:"enabledOnClick" validate:"required"`
}

// GetPreferences returns the viewer preferences.
func (h *Handlers) GetPreferences(w http.ResponseWriter, r *http.Request) {
	status, err := h.prefs.Status(r.Context())
	if err != nil {
		logger.Error("failed to read preferences: %v", err)
		writeJSONError(w, "failed to read preferences", http.StatusInternalServerError)
		return
	}
	writeJSONData(w, status)
}

// SetPreferences stores whether clicking a thumbnail opens the viewer.
func (h *Handlers) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.prefs.SetEnabledOnClick(r.Context(), *req.EnabledOnClick); err != nil {
		if errors.Is(err, preferences.ErrReadOnly) {
			writeJSONError(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Error("failed to store preferences: %v", err)
		writeJSONError(w, "failed to store preferences", http.StatusInternalServerError)
		return
	}

	h.GetPreferences(w, r)
}

// DismissStatusInfo hides the notice about the disabled viewer.
func (h *Handlers) DismissStatusInfo(w http.ResponseWriter, r *http.Request) {
	if err := h.prefs.DisableStatusInfo(r.Context()); err != nil {
		logger.Error("failed to dismiss status info: %v", err)
		writeJSONError(w, "failed to store preferences", http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "ok")
}
