package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Directory endpoints proxy the upstream radio catalogue. Responses
// come back in the upstream's own text format, passed through as-is.

func (s *Server) handleDirectorySearch(w http.ResponseWriter, r *http.Request) {
	if s.directory == nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "radio directory is not configured")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeBadRequest(w, "query parameter q is required")
		return
	}

	body, err := s.directory.Search(r.Context(), query)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeText(w, body)
}

func (s *Server) handleDirectoryBrowse(w http.ResponseWriter, r *http.Request) {
	if s.directory == nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "radio directory is not configured")
		return
	}

	body, err := s.directory.Browse(r.Context(), r.URL.Query().Get("c"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeText(w, body)
}

func (s *Server) handleDirectoryStation(w http.ResponseWriter, r *http.Request) {
	if s.directory == nil {
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, "radio directory is not configured")
		return
	}

	body, err := s.directory.LookupStation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeText(w, body)
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // nothing useful to do when the client is gone
	w.Write([]byte(body))
}
