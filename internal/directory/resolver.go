package directory

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wavetable-labs/soundbridge/internal/device"
)

// Logger defines the logging interface used by the Resolver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Lookup is the external collaborator the resolver consults for station
// ids. Satisfied by *Client.
type Lookup interface {
	LookupStation(ctx context.Context, stationID string) (string, error)
}

var (
	// stationPathPattern extracts a directory station id embedded in a
	// location path, e.g. /v1/station/s12345 or station/s12345/listen.
	stationPathPattern = regexp.MustCompile(`(?:^|/)(s\d+)(?:/|$|\?)`)

	// urlAttrPattern matches a URL-bearing attribute in a structured
	// directory response.
	urlAttrPattern = regexp.MustCompile(`(?i)url\s*=\s*"(https?://[^"]+)"`)

	// guideIDPattern recognises an identifier-only directory answer.
	guideIDPattern = regexp.MustCompile(`(?i)guide[ _]?id`)
)

// Resolver turns an abstract content reference into one with a playable
// stream location, following a fixed precedence of strategies. Display
// fields are preserved across resolution; only the location and station
// id are replaced.
type Resolver struct {
	lookup Lookup
	logger Logger
}

// NewResolver creates a resolver over the directory collaborator.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup, logger: noopLogger{}}
}

// SetLogger sets the logger for the resolver.
func (r *Resolver) SetLogger(logger Logger) {
	r.logger = logger
}

// Resolve materializes a playable location for the reference.
//
// Precedence:
//  1. Non-radio sources pass through unchanged, no network call.
//  2. A radio reference without a station id but with one embedded in
//     its location path gets the id extracted.
//  3. A station id triggers one directory lookup; the response is
//     parsed for a bare URL line, then a url="..." attribute. An
//     identifier-only answer fails with ErrResolutionIncomplete rather
//     than looping on further round trips.
//  4. Without a station id, a location that is already a concrete URI
//     passes through.
//  5. Anything else fails with ErrUnresolvableReference.
func (r *Resolver) Resolve(ctx context.Context, item device.ContentItem) (device.ContentItem, error) {
	if item.Source != device.SourceInternetRadio {
		return item, nil
	}

	stationID := item.StationID
	if stationID == "" {
		if m := stationPathPattern.FindStringSubmatch(item.Location); m != nil {
			stationID = m[1]
			r.logger.Debug("extracted station id from location", "station_id", stationID)
		}
	}

	if stationID != "" {
		body, err := r.lookup.LookupStation(ctx, stationID)
		if err != nil {
			return item, fmt.Errorf("%w: station %s: %w", ErrResolutionFailed, stationID, err)
		}

		streamURL, err := parseStreamURL(body)
		if err != nil {
			return item, fmt.Errorf("station %s: %w", stationID, err)
		}

		resolved := item
		resolved.StationID = stationID
		resolved.Location = streamURL
		return resolved, nil
	}

	if isConcreteURI(item.Location) {
		return item, nil
	}

	return item, fmt.Errorf("%w: no station id or playable location", ErrUnresolvableReference)
}

// parseStreamURL extracts a playable URL from a directory tune
// response, trying strategies in order.
func parseStreamURL(body string) (string, error) {
	// (a) first well-formed http/https URL as a bare line
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			return line, nil
		}
	}

	// (b) URL-bearing attribute in a structured response
	if m := urlAttrPattern.FindStringSubmatch(body); m != nil {
		return m[1], nil
	}

	// (c) identifier-only answer needs a second round trip we refuse
	if guideIDPattern.MatchString(body) {
		return "", fmt.Errorf("%w: directory answered with another identifier", ErrResolutionIncomplete)
	}

	return "", fmt.Errorf("%w: no stream URL in directory response", ErrUnresolvableReference)
}

// isConcreteURI reports whether the location already names a playable
// target: an http(s) URL or any schemed URI.
func isConcreteURI(location string) bool {
	if location == "" {
		return false
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return true
	}
	return strings.Contains(location, "://")
}

// IsTransient reports whether a resolution error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrResolutionFailed)
}
