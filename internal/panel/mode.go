package panel

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Mode is the fixed timing record of a panel. It is read by the display
// pipeline during mode negotiation and never modified by the lifecycle.
type Mode struct {
	Clock physic.Frequency

	HDisplay   int
	HSyncStart int
	HSyncEnd   int
	HTotal     int

	VDisplay   int
	VSyncStart int
	VSyncEnd   int
	VTotal     int

	// VRefresh is the nominal refresh rate in Hz.
	VRefresh int

	WidthMM  int
	HeightMM int
}

// Name returns the conventional "<h>x<v>" mode name.
func (m Mode) Name() string {
	return fmt.Sprintf("%dx%d", m.HDisplay, m.VDisplay)
}

// Validate checks that the sync intervals are ordered.
func (m Mode) Validate() error {
	if m.Clock <= 0 {
		return fmt.Errorf("mode %s: pixel clock must be positive", m.Name())
	}
	if !(m.HDisplay > 0 && m.HDisplay <= m.HSyncStart && m.HSyncStart <= m.HSyncEnd && m.HSyncEnd <= m.HTotal) {
		return fmt.Errorf("mode %s: horizontal timings out of order", m.Name())
	}
	if !(m.VDisplay > 0 && m.VDisplay <= m.VSyncStart && m.VSyncStart <= m.VSyncEnd && m.VSyncEnd <= m.VTotal) {
		return fmt.Errorf("mode %s: vertical timings out of order", m.Name())
	}
	return nil
}

// ModeType flags, matching the driver/preferred bits a display pipeline uses.
const (
	ModeTypeDriver    = 1 << 0
	ModeTypePreferred = 1 << 1
)

// ModeInfo is one entry of the mode list offered to the pipeline.
type ModeInfo struct {
	Mode
	Name string
	Type int
}

// Preferred reports whether the pipeline should pick this mode by default.
func (mi ModeInfo) Preferred() bool { return mi.Type&ModeTypePreferred != 0 }

// Link describes the serial display link settings the host must apply.
type Link struct {
	Lanes  int
	Format string
	Flags  []string
}
