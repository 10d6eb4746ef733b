package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/wavetable-labs/soundbridge/internal/device"
)

// fakeLookup returns a canned directory response or error.
type fakeLookup struct {
	body  string
	err   error
	calls int
}

func (f *fakeLookup) LookupStation(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

func TestResolve_PassThroughNonRadio(t *testing.T) {
	lookup := &fakeLookup{}
	r := NewResolver(lookup)

	item := device.ContentItem{
		Source:   device.SourceSpotify,
		Location: "spotify:track:4uLU6hMCjMI75M1A2tKUQC",
		Name:     "Track",
	}

	resolved, err := r.Resolve(context.Background(), item)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved != item {
		t.Errorf("Resolve() = %+v, want unchanged", resolved)
	}
	if lookup.calls != 0 {
		t.Errorf("lookup calls = %d, want 0", lookup.calls)
	}
}

func TestResolve_BareURLLine(t *testing.T) {
	lookup := &fakeLookup{body: "# comment\nhttps://stream.example/live.mp3\n"}
	r := NewResolver(lookup)

	item := device.ContentItem{
		Source:    device.SourceInternetRadio,
		StationID: "s123",
		Name:      "Jazz FM",
		Art:       "http://art.example/jazz.png",
	}

	resolved, err := r.Resolve(context.Background(), item)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Location != "https://stream.example/live.mp3" {
		t.Errorf("Location = %q", resolved.Location)
	}
	// Display fields survive resolution
	if resolved.Name != "Jazz FM" || resolved.Art != "http://art.example/jazz.png" {
		t.Errorf("display fields lost: %+v", resolved)
	}
}

func TestResolve_URLAttribute(t *testing.T) {
	lookup := &fakeLookup{body: `<outline type="audio" URL="http://stream.example/live" bitrate="128"/>`}
	r := NewResolver(lookup)

	resolved, err := r.Resolve(context.Background(), device.ContentItem{
		Source:    device.SourceInternetRadio,
		StationID: "s123",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Location != "http://stream.example/live" {
		t.Errorf("Location = %q", resolved.Location)
	}
}

func TestResolve_GuideIDIncomplete(t *testing.T) {
	lookup := &fakeLookup{body: `guide_id="p987654"`}
	r := NewResolver(lookup)

	_, err := r.Resolve(context.Background(), device.ContentItem{
		Source:    device.SourceInternetRadio,
		StationID: "s123",
	})
	if !errors.Is(err, ErrResolutionIncomplete) {
		t.Errorf("Resolve() error = %v, want ErrResolutionIncomplete", err)
	}
}

func TestResolve_LookupFailure(t *testing.T) {
	lookup := &fakeLookup{err: ErrLookupFailed}
	r := NewResolver(lookup)

	_, err := r.Resolve(context.Background(), device.ContentItem{
		Source:    device.SourceInternetRadio,
		StationID: "s123",
	})
	if !errors.Is(err, ErrResolutionFailed) {
		t.Errorf("Resolve() error = %v, want ErrResolutionFailed", err)
	}
	if !IsTransient(err) {
		t.Error("lookup failure should be transient")
	}
}

func TestResolve_ExtractsStationIDFromPath(t *testing.T) {
	lookup := &fakeLookup{body: "https://stream.example/live\n"}
	r := NewResolver(lookup)

	resolved, err := r.Resolve(context.Background(), device.ContentItem{
		Source:   device.SourceInternetRadio,
		Location: "/v1/radio/station/s4567",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.StationID != "s4567" {
		t.Errorf("StationID = %q, want s4567", resolved.StationID)
	}
	if resolved.Location != "https://stream.example/live" {
		t.Errorf("Location = %q", resolved.Location)
	}
	if lookup.calls != 1 {
		t.Errorf("lookup calls = %d, want 1", lookup.calls)
	}
}

func TestResolve_ConcreteURIPassThrough(t *testing.T) {
	lookup := &fakeLookup{}
	r := NewResolver(lookup)

	resolved, err := r.Resolve(context.Background(), device.ContentItem{
		Source:   device.SourceInternetRadio,
		Location: "http://stream.example/direct.mp3",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Location != "http://stream.example/direct.mp3" {
		t.Errorf("Location = %q", resolved.Location)
	}
	if lookup.calls != 0 {
		t.Errorf("lookup calls = %d, want 0", lookup.calls)
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	r := NewResolver(&fakeLookup{})

	_, err := r.Resolve(context.Background(), device.ContentItem{
		Source:   device.SourceInternetRadio,
		Location: "not-a-uri",
	})
	if !errors.Is(err, ErrUnresolvableReference) {
		t.Errorf("Resolve() error = %v, want ErrUnresolvableReference", err)
	}
}

func TestParseStreamURL_NoURL(t *testing.T) {
	_, err := parseStreamURL("<opml><body/></opml>")
	if !errors.Is(err, ErrUnresolvableReference) {
		t.Errorf("parseStreamURL() error = %v, want ErrUnresolvableReference", err)
	}
}
