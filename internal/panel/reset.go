package panel

import "time"

// ResetLine drives the panel controller reset pin. Setting a level is a best
// effort hardware signal and reports nothing back.
type ResetLine interface {
	SetLevel(high bool)
}

// Step holds the line at one level for Hold.
type Step struct {
	High bool
	Hold time.Duration
}

// Pattern is a reset pulse train replayed verbatim, each step held for
// exactly its Hold. Any further settling belongs to the init script delays
// or to BootSettle.
type Pattern []Step

// Total returns the sum of all holds.
func (p Pattern) Total() time.Duration {
	var d time.Duration
	for _, s := range p {
		d += s.Hold
	}
	return d
}

func (p Pattern) replay(line ResetLine, clk Clock) {
	for _, s := range p {
		line.SetLevel(s.High)
		wait(clk, s.Hold)
	}
}
