package handlers

import (
	"github.com/gorilla/mux"
)

// Register adds the control API routes to r.
func (h *Handlers) Register(r *mux.Router) {
	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Gallery
	api.HandleFunc("/gallery", h.GetGallery).Methods("GET")
	api.HandleFunc("/gallery", h.PostGallery).Methods("POST")

	// Viewer
	v := api.PathPrefix("/viewer").Subrouter()
	v.HandleFunc("/open/{index:[0-9]+}", h.OpenItem).Methods("POST")
	v.HandleFunc("/next", h.NextItem).Methods("POST")
	v.HandleFunc("/prev", h.PrevItem).Methods("POST")
	v.HandleFunc("/resize", h.Resize).Methods("POST")
	v.HandleFunc("/close", h.CloseViewer).Methods("POST")
	v.HandleFunc("/route", h.Route).Methods("POST")
	v.HandleFunc("/state", h.GetState).Methods("GET")
	v.HandleFunc("/events", h.GetEvents).Methods("GET")
	v.HandleFunc("/image", h.GetImage).Methods("GET")
	v.HandleFunc("/placeholder", h.GetPlaceholder).Methods("GET")
	v.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	v.HandleFunc("/embed", h.GetEmbed).Methods("GET")

	// Preferences
	api.HandleFunc("/preferences", h.GetPreferences).Methods("GET")
	api.HandleFunc("/preferences", h.SetPreferences).Methods("PUT")
	api.HandleFunc("/preferences/status-info/dismiss", h.DismissStatusInfo).Methods("POST")
}
