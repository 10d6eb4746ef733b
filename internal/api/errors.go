package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wavetable-labs/soundbridge/internal/device"
	"github.com/wavetable-labs/soundbridge/internal/directory"
	"github.com/wavetable-labs/soundbridge/internal/playback"
	"github.com/wavetable-labs/soundbridge/internal/store"
	"github.com/wavetable-labs/soundbridge/internal/zone"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeUnresolvable = "unresolvable"
	ErrCodeUpstream     = "upstream_error"
	ErrCodeInternal     = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps core sentinel errors onto HTTP responses.
// Caller errors map to 4xx, upstream directory trouble to 502, and
// anything unrecognized to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound),
		errors.Is(err, zone.ErrZoneNotFound),
		errors.Is(err, store.ErrRecordNotFound):
		writeNotFound(w, err.Error())

	case errors.Is(err, device.ErrInvalidSlot),
		errors.Is(err, device.ErrMalformedContent),
		errors.Is(err, device.ErrInvalidName),
		errors.Is(err, zone.ErrZoneInvalid),
		errors.Is(err, playback.ErrUnknownKey):
		writeBadRequest(w, err.Error())

	case errors.Is(err, zone.ErrSlaveInZone):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, directory.ErrUnresolvableReference):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnresolvable, err.Error())

	case errors.Is(err, directory.ErrResolutionFailed),
		errors.Is(err, directory.ErrResolutionIncomplete),
		errors.Is(err, directory.ErrLookupFailed):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())

	case errors.Is(err, store.ErrPersistenceFailed):
		writeInternalError(w, err.Error())

	default:
		writeInternalError(w, "internal server error")
	}
}
