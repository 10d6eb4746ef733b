package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wavetable-labs/soundbridge/internal/zone"
)

type createZoneRequest struct {
	Master string   `json:"master"`
	Slaves []string `json:"slaves"`
}

func (s *Server) handleListZones(w http.ResponseWriter, r *http.Request) {
	zones := s.zones.List(r.Context())
	views := make([]zone.View, 0, len(zones))
	for i := range zones {
		views = append(views, s.zones.Resolve(r.Context(), &zones[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": views})
}

func (s *Server) handleCreateZone(w http.ResponseWriter, r *http.Request) {
	var req createZoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Master == "" {
		writeBadRequest(w, "zone master is required")
		return
	}

	z, err := s.zones.CreateZone(r.Context(), req.Master, req.Slaves)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.zones.Resolve(r.Context(), z))
}

func (s *Server) handleGetZone(w http.ResponseWriter, r *http.Request) {
	z, err := s.zones.Zone(r.Context(), chi.URLParam(r, "master"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.zones.Resolve(r.Context(), z))
}

func (s *Server) handleRemoveZone(w http.ResponseWriter, r *http.Request) {
	if err := s.zones.RemoveZone(r.Context(), chi.URLParam(r, "master")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dissolved"})
}

func (s *Server) handleAddSlave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Slave string `json:"slave"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Slave == "" {
		writeBadRequest(w, "slave device id is required")
		return
	}

	z, err := s.zones.AddSlave(r.Context(), chi.URLParam(r, "master"), req.Slave)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.zones.Resolve(r.Context(), z))
}

func (s *Server) handleRemoveSlave(w http.ResponseWriter, r *http.Request) {
	z, err := s.zones.RemoveSlave(r.Context(), chi.URLParam(r, "master"), chi.URLParam(r, "slave"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.zones.Resolve(r.Context(), z))
}

// handleZoneForDevice reports the zone a device belongs to, whether
// it leads the zone or follows in it.
func (s *Server) handleZoneForDevice(w http.ResponseWriter, r *http.Request) {
	z, err := s.zones.ZoneFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, zone.ErrZoneNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{"zone": nil})
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"zone": s.zones.Resolve(r.Context(), z)})
}
