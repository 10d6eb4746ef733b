package preset

import "github.com/wavetable-labs/soundbridge/internal/device"

// DefaultPresets returns the starter presets seeded onto devices that
// come from the config file with no stored presets. All timestamps are
// set to the given unix-millisecond instant.
func DefaultPresets(nowMillis int64) []device.Preset {
	stations := []struct {
		slot, name, stationID string
	}{
		{"1", "BBC Radio 1", "s24939"},
		{"2", "BBC Radio 4", "s25419"},
		{"3", "Classic FM", "s8439"},
	}

	presets := make([]device.Preset, 0, len(stations))
	for _, st := range stations {
		presets = append(presets, device.Preset{
			SlotID:    st.slot,
			Name:      st.name,
			Source:    device.SourceInternetRadio,
			Type:      "stationurl",
			StationID: st.stationID,
			CreatedOn: nowMillis,
			UpdatedOn: nowMillis,
		})
	}
	return presets
}
