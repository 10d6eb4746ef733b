package device

import "time"

// Source identifiers understood by the control plane. Anything outside
// this list is treated as an opaque pass-through source.
const (
	SourceInternetRadio = "INTERNET_RADIO"
	SourceSpotify       = "SPOTIFY"
	SourceStoredMusic   = "STORED_MUSIC"
	SourceBluetooth     = "BLUETOOTH"
	SourceAux           = "AUX"
)

// Play status values carried in NowPlaying.
const (
	PlayStatePlaying = "PLAY_STATE"
	PlayStatePaused  = "PAUSE_STATE"
	PlayStateStopped = "STOP_STATE"
)

// Capacity limits for per-device collections.
const (
	// MaxPresets is the number of preset slots a device exposes.
	MaxPresets = 6

	// MaxRecents caps the recently-played history.
	MaxRecents = 20
)

// Control attribute bounds. Values outside these ranges are clamped,
// matching speaker firmware behaviour.
const (
	MinVolume  = 0
	MaxVolume  = 100
	MinBass    = -9
	MaxBass    = 0
	MinBalance = -10
	MaxBalance = 10

	// DefaultVolume is applied to newly registered devices that did not
	// report a volume of their own.
	DefaultVolume = 30

	// DefaultPort is the speaker's local control port.
	DefaultPort = 8090
)

// Device represents a registered speaker and its mutable control state.
// Devices are exclusively owned by the Registry; every read hands out a
// deep copy and every mutation goes through a Registry method.
type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type,omitempty"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	AccountID string `json:"account_id"`

	Volume  int `json:"volume"`
	Bass    int `json:"bass"`
	Balance int `json:"balance"`

	Presets    []Preset    `json:"presets"`
	Recents    []Recent    `json:"recents"`
	NowPlaying *NowPlaying `json:"now_playing,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContentItem is the abstract reference to something playable: a source,
// an optional location, and an optional directory-issued station id.
type ContentItem struct {
	Source        string `json:"source"`
	SourceAccount string `json:"source_account,omitempty"`
	Type          string `json:"type,omitempty"`
	Location      string `json:"location,omitempty"`
	StationID     string `json:"station_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Art           string `json:"art,omitempty"`
}

// Preset is a numbered shortcut to a content reference. Slot ids are the
// strings "1" through "6"; timestamps are unix milliseconds to match the
// shape speakers expect.
type Preset struct {
	SlotID        string `json:"slot_id"`
	Name          string `json:"name"`
	Source        string `json:"source"`
	SourceAccount string `json:"source_account,omitempty"`
	Type          string `json:"type,omitempty"`
	Location      string `json:"location,omitempty"`
	StationID     string `json:"station_id,omitempty"`
	Art           string `json:"art,omitempty"`
	CreatedOn     int64  `json:"created_on"`
	UpdatedOn     int64  `json:"updated_on"`
}

// ContentItem extracts the playable reference from a preset.
func (p Preset) ContentItem() ContentItem {
	return ContentItem{
		Source:        p.Source,
		SourceAccount: p.SourceAccount,
		Type:          p.Type,
		Location:      p.Location,
		StationID:     p.StationID,
		Name:          p.Name,
		Art:           p.Art,
	}
}

// Recent is a content snapshot captured when playback moved to it.
// Append-only with eviction, never updated in place.
type Recent struct {
	ContentItem
	UTCTime int64 `json:"utc_time"`
}

// NowPlaying describes the device's current content and play status.
// A nil NowPlaying on a Device means standby.
type NowPlaying struct {
	Source        string `json:"source"`
	SourceAccount string `json:"source_account,omitempty"`
	Type          string `json:"type,omitempty"`
	Location      string `json:"location,omitempty"`
	StationID     string `json:"station_id,omitempty"`
	Name          string `json:"name,omitempty"`
	Track         string `json:"track,omitempty"`
	Artist        string `json:"artist,omitempty"`
	Album         string `json:"album,omitempty"`
	Art           string `json:"art,omitempty"`
	StationName   string `json:"station_name,omitempty"`
	PlayStatus    string `json:"play_status"`
}

// ContentItem extracts the playable reference from the current content.
func (np *NowPlaying) ContentItem() ContentItem {
	return ContentItem{
		Source:        np.Source,
		SourceAccount: np.SourceAccount,
		Type:          np.Type,
		Location:      np.Location,
		StationID:     np.StationID,
		Name:          np.Name,
		Art:           np.Art,
	}
}

// Source describes one entry in a device's source catalogue.
type Source struct {
	Name          string `json:"name"`
	SourceAccount string `json:"source_account,omitempty"`
	Status        string `json:"status,omitempty"`
	Local         bool   `json:"local,omitempty"`
}

// DefaultSources is the catalogue reported for devices that never pushed
// their own.
func DefaultSources() []Source {
	return []Source{
		{Name: SourceInternetRadio, Status: "READY"},
		{Name: SourceSpotify, Status: "UNAVAILABLE"},
		{Name: SourceStoredMusic, Status: "READY", Local: true},
		{Name: SourceBluetooth, Status: "READY", Local: true},
		{Name: SourceAux, Status: "READY", Local: true},
	}
}

// DeepCopy creates a complete copy of the device.
// Used by the Registry so cached state never escapes by reference.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	clone := *d

	if d.Presets != nil {
		clone.Presets = make([]Preset, len(d.Presets))
		copy(clone.Presets, d.Presets)
	}
	if d.Recents != nil {
		clone.Recents = make([]Recent, len(d.Recents))
		copy(clone.Recents, d.Recents)
	}
	if d.NowPlaying != nil {
		np := *d.NowPlaying
		clone.NowPlaying = &np
	}

	return &clone
}

// State reports the playback state derived from NowPlaying:
// "STANDBY" when nil, otherwise mapped from the play status.
func (d *Device) State() string {
	if d.NowPlaying == nil {
		return "STANDBY"
	}
	switch d.NowPlaying.PlayStatus {
	case PlayStatePlaying:
		return "PLAYING"
	case PlayStatePaused:
		return "PAUSED"
	case PlayStateStopped:
		return "STOPPED"
	default:
		return "STANDBY"
	}
}
