package device

import (
	"fmt"
	"strconv"
	"strings"
)

// maxNameLength bounds device names; control apps render them in fixed
// width lists.
const maxNameLength = 64

// ClampVolume constrains a volume value to [0,100].
func ClampVolume(v int) int {
	return clamp(v, MinVolume, MaxVolume)
}

// ClampBass constrains a bass value to [-9,0].
func ClampBass(v int) int {
	return clamp(v, MinBass, MaxBass)
}

// ClampBalance constrains a balance value to [-10,10].
func ClampBalance(v int) int {
	return clamp(v, MinBalance, MaxBalance)
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// ParseSlot validates a preset slot id and returns its numeric value.
// Returns ErrInvalidSlot for anything outside "1".."6".
func ParseSlot(slotID string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(slotID))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlot, slotID)
	}
	if n < 1 || n > MaxPresets {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlot, n)
	}
	return n, nil
}

// ValidateName checks a device name for emptiness and length.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(trimmed) > maxNameLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateContentItem checks a content reference for the minimum
// structure required to store or play it. A reference needs a source,
// and at least one of location or station id.
func ValidateContentItem(item ContentItem) error {
	if strings.TrimSpace(item.Source) == "" {
		return fmt.Errorf("%w: missing source", ErrMalformedContent)
	}
	if strings.TrimSpace(item.Location) == "" && strings.TrimSpace(item.StationID) == "" {
		return fmt.Errorf("%w: needs a location or station id", ErrMalformedContent)
	}
	return nil
}
