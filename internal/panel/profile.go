package panel

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Profile is the static description of one panel model: what to switch, in
// which order, how long to wait and what to send. One Profile value may back
// any number of Panels.
type Profile struct {
	Name       string
	Compatible string

	// Rails in strict enable order.
	Rails []Rail

	// Reset is replayed after the rails settle. ResetIdleHigh is the level
	// the line is returned to on rollback and unprepare.
	Reset         Pattern
	ResetIdleHigh bool

	// Init is sent after reset; Sleep before the rails are cut.
	Init  Script
	Sleep Script

	// BootSettle is waited in Enable before the backlight comes on.
	BootSettle time.Duration
	// SleepSettle is waited in Unprepare after the sleep script.
	SleepSettle time.Duration

	Mode Mode
	Link Link
}

// Clone returns a deep copy. Payload bytes are copied too.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Rails = slices.Clone(p.Rails)
	c.Reset = slices.Clone(p.Reset)
	c.Init = p.Init.clone()
	c.Sleep = p.Sleep.clone()
	c.Link.Flags = slices.Clone(p.Link.Flags)
	return &c
}

// Validate reports structural problems in the profile itself.
func (p *Profile) Validate() error {
	if p == nil {
		return errors.New("panel: nil profile")
	}
	if p.Name == "" {
		return errors.New("panel: profile has no name")
	}
	seen := make(map[string]bool, len(p.Rails))
	for _, r := range p.Rails {
		if r.Name == "" {
			return fmt.Errorf("panel: profile %s: rail with empty name", p.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("panel: profile %s: rail %q declared twice", p.Name, r.Name)
		}
		if r.Settle < 0 {
			return fmt.Errorf("panel: profile %s: rail %q has negative settle time", p.Name, r.Name)
		}
		seen[r.Name] = true
	}
	for i, s := range p.Reset {
		if s.Hold < 0 {
			return fmt.Errorf("panel: profile %s: reset step %d has negative hold", p.Name, i+1)
		}
	}
	if err := p.Mode.Validate(); err != nil {
		return fmt.Errorf("panel: profile %s: %w", p.Name, err)
	}
	return nil
}

// Resources is the hardware bound to one panel instance.
type Resources struct {
	// Supplies maps Rail.Name to the supply switching it.
	Supplies map[string]Supply
	// Reset may be nil only when the profile declares no reset pattern.
	Reset   ResetLine
	Channel CommandChannel
	// Backlight may be nil; see BacklightPolicy.
	Backlight Backlight
}
