package admission

import (
	"fmt"
	"sort"
)

// GiB is 1024^3 bytes.
const GiB = int64(1) << 30

// Tier caps the usage ratio for devices whose total memory is at most
// UpToBytes. An UpToBytes of zero matches every device.
type Tier struct {
	UpToBytes int64   `yaml:"up_to_bytes" json:"upToBytes"`
	MaxRatio   float64 `yaml:"max_ratio" json:"maxRatio"`
}

// DefaultTiers returns the standard 0.5 / 0.7 / 0.85 tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{UpToBytes: GiB, MaxRatio: 0.5},
		{UpToBytes: 2 * GiB, MaxRatio: 0.7},
		{UpToBytes: 0, MaxRatio: 0.85},
	}
}

// DefaultFallbackTotal replaces an unknown device total.
const DefaultFallbackTotal = GiB

// ValidateTiers checks that ratios lie in (0, 1] and exactly one catch-all
// tier exists.
func ValidateTiers(tiers []Tier) error {
	catchAll := 0
	for i, t := range tiers {
		if t.MaxRatio <= 0 || t.MaxRatio > 1 {
			return fmt.Errorf("tier %d: max ratio %v must be in (0, 1]", i, t.MaxRatio)
		}
		if t.UpToBytes < 0 {
			return fmt.Errorf("tier %d: up_to_bytes %d must not be negative", i, t.UpToBytes)
		}
		if t.UpToBytes == 0 {
			catchAll++
		}
	}
	if catchAll != 1 {
		return fmt.Errorf("exactly one tier must have up_to_bytes 0, found %d", catchAll)
	}
	return nil
}

// sortTiers orders bounded tiers ascending with the catch-all last.
func sortTiers(tiers []Tier) []Tier {
	out := append([]Tier(nil), tiers...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].UpToBytes, out[j].UpToBytes
		if a == 0 {
			return false
		}
		if b == 0 {
			return true
		}
		return a < b
	})
	return out
}

// maxRatio returns the cap for a device with total bytes. tiers must be sorted.
func maxRatio(tiers []Tier, total int64) float64 {
	for _, t := range tiers {
		if t.UpToBytes == 0 || total <= t.UpToBytes {
			return t.MaxRatio
		}
	}
	return 0
}
