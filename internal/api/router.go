package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// WebSocket notification feed
	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = "/notifications"
	}
	r.Get(wsPath, s.handleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Device registry and control
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleRegisterDevice)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Delete("/", s.handleUnregisterDevice)

				r.Post("/volume", s.handleSetVolume)
				r.Post("/bass", s.handleSetBass)
				r.Post("/balance", s.handleSetBalance)
				r.Post("/name", s.handleSetName)
				r.Post("/key", s.handleKey)
				r.Post("/select", s.handleSelect)
				r.Post("/standby", s.handleStandby)
				r.Get("/now_playing", s.handleNowPlaying)

				r.Route("/presets", func(r chi.Router) {
					r.Get("/", s.handleListPresets)
					r.Delete("/", s.handleRemoveAllPresets)
					r.Post("/sync", s.handleSyncPresets)
					r.Put("/{slot}", s.handleStorePreset)
					r.Delete("/{slot}", s.handleRemovePreset)
				})

				r.Get("/recents", s.handleListRecents)
				r.Post("/recents/sync", s.handleSyncRecents)
				r.Get("/sources", s.handleListSources)
				r.Post("/sources/sync", s.handleSyncSources)

				r.Get("/zone", s.handleZoneForDevice)
			})
		})

		// Multiroom zones
		r.Route("/zones", func(r chi.Router) {
			r.Get("/", s.handleListZones)
			r.Post("/", s.handleCreateZone)

			r.Route("/{master}", func(r chi.Router) {
				r.Get("/", s.handleGetZone)
				r.Delete("/", s.handleRemoveZone)
				r.Post("/slaves", s.handleAddSlave)
				r.Delete("/slaves/{slave}", s.handleRemoveSlave)
			})
		})

		// Radio directory passthrough
		r.Route("/directory", func(r chi.Router) {
			r.Get("/search", s.handleDirectorySearch)
			r.Get("/browse", s.handleDirectoryBrowse)
			r.Get("/stations/{id}", s.handleDirectoryStation)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
