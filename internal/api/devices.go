package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/playback"
)

// registerRequest is the device registration payload. Speakers send
// this on first contact; the control app uses it for manual adds.
type registerRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": s.registry.List(r.Context()),
	})
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ID == "" {
		writeBadRequest(w, "device id is required")
		return
	}
	if req.Host == "" {
		// Auto-registration: fall back to the caller's address
		req.Host = remoteHost(r)
	}

	d, err := s.registry.Register(r.Context(), device.Device{
		ID:        req.ID,
		Name:      req.Name,
		Type:      req.Type,
		Host:      req.Host,
		Port:      req.Port,
		AccountID: s.accountID(r),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.registry.Unregister(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	// Zones the device participated in must not dangle
	s.zones.HandleDeviceUnregistered(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]string{"status": "unregistered"})
}

// levelRequest carries a single integer control value.
type levelRequest struct {
	Value int `json:"value"`
}

// levelSetter is any registry mutation taking one integer value.
type levelSetter func(ctx context.Context, id string, value int) (*device.Device, error)

func (s *Server) handleSetVolume(w http.ResponseWriter, r *http.Request) {
	s.handleLevel(w, r, s.registry.SetVolume)
}

func (s *Server) handleSetBass(w http.ResponseWriter, r *http.Request) {
	s.handleLevel(w, r, s.registry.SetBass)
}

func (s *Server) handleSetBalance(w http.ResponseWriter, r *http.Request) {
	s.handleLevel(w, r, s.registry.SetBalance)
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request, set levelSetter) {
	var req levelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := set(r.Context(), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSetName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.registry.SetName(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	key, err := playback.ParseKey(req.Key)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	d, err := s.playback.HandleKey(r.Context(), s.accountID(r), chi.URLParam(r, "id"), key)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var item device.ContentItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	d, err := s.playback.SelectContent(r.Context(), s.accountID(r), chi.URLParam(r, "id"), item)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleStandby(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Standby(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	d, err := s.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       d.State(),
		"now_playing": d.NowPlaying,
	})
}

// remoteHost extracts the caller's IP for auto-registration.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
