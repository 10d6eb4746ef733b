package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wavetable-labs/soundbridge/internal/device"
)

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.Presets(r.Context(), s.accountID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (s *Server) handleStorePreset(w http.ResponseWriter, r *http.Request) {
	var item device.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	presets, err := s.presets.StorePreset(r.Context(), s.accountID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "slot"), item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (s *Server) handleRemovePreset(w http.ResponseWriter, r *http.Request) {
	presets, err := s.presets.RemovePreset(r.Context(), s.accountID(r),
		chi.URLParam(r, "id"), chi.URLParam(r, "slot"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (s *Server) handleRemoveAllPresets(w http.ResponseWriter, r *http.Request) {
	if err := s.presets.RemoveAllPresets(r.Context(), s.accountID(r), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// handleSyncPresets replaces the stored preset set wholesale. Speakers
// push their local state through this after operating offline.
func (s *Server) handleSyncPresets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Presets []device.Preset `json:"presets"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	presets, err := s.presets.SyncPresets(r.Context(), s.accountID(r), chi.URLParam(r, "id"), req.Presets)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (s *Server) handleListRecents(w http.ResponseWriter, r *http.Request) {
	recents, err := s.presets.Recents(r.Context(), s.accountID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recents": recents})
}

func (s *Server) handleSyncRecents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Recents []device.Recent `json:"recents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.presets.SaveRecents(r.Context(), s.accountID(r), id, req.Recents); err != nil {
		writeDomainError(w, err)
		return
	}
	// Keep the in-memory device view aligned with the durable copy
	if _, err := s.registry.UpdateRecents(r.Context(), id, req.Recents); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.presets.Sources(r.Context(), s.accountID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func (s *Server) handleSyncSources(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sources []device.Source `json:"sources"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.presets.SyncSources(r.Context(), s.accountID(r), chi.URLParam(r, "id"), req.Sources); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
