package protocol

import (
	"encoding/json"
	"fmt"
)

// Dimensions is the wire shape of engine metadata.
type Dimensions struct {
	Width  int `json:"imageWidth"`
	Height int `json:"imageHeight"`
}

// EncodeDimensions renders metadata the way an engine reports it.
func EncodeDimensions(width, height int) string {
	b, _ := json.Marshal(Dimensions{Width: width, Height: height})
	return string(b)
}

// DecodeDimensions parses engine metadata. Both keys are required.
func DecodeDimensions(data string) (Dimensions, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return Dimensions{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	var d Dimensions
	for key, dst := range map[string]*int{KeyImageWidth: &d.Width, KeyImageHeight: &d.Height} {
		v, ok := raw[key]
		if !ok {
			return Dimensions{}, fmt.Errorf("metadata missing %q", key)
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return Dimensions{}, fmt.Errorf("metadata %q: %w", key, err)
		}
	}
	if d.Width < 0 || d.Height < 0 {
		return Dimensions{}, fmt.Errorf("metadata has negative size %dx%d", d.Width, d.Height)
	}
	return d, nil
}
