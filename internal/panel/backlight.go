package panel

import (
	"fmt"
	"strings"
)

// Backlight switches the illumination source.
type Backlight interface {
	Enable() error
	Disable() error
}

// BacklightPolicy decides what Enable does when the backlight cannot be lit.
type BacklightPolicy int

const (
	// BacklightOptional: an absent backlight is skipped and a failing one is
	// logged; the panel still becomes Enabled.
	BacklightOptional BacklightPolicy = iota
	// BacklightRequired: a backlight must be bound at construction and Enable
	// fails with BacklightFailure if it cannot be switched on.
	BacklightRequired
)

func (bp BacklightPolicy) String() string {
	if bp == BacklightRequired {
		return "required"
	}
	return "optional"
}

// ParseBacklightPolicy accepts "optional", "required" or "" (optional).
func ParseBacklightPolicy(s string) (BacklightPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optional":
		return BacklightOptional, nil
	case "required":
		return BacklightRequired, nil
	default:
		return BacklightOptional, fmt.Errorf("panel: unknown backlight policy %q", s)
	}
}
