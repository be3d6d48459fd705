package hw

import appLog "panelseq/internal/log"

// GPIOResetLine drives the panel reset input. Level errors are logged, not
// returned: a reset pulse is best effort.
type GPIOResetLine struct {
	line Line
	name string
}

func NewGPIOResetLine(line Line, name string) *GPIOResetLine {
	return &GPIOResetLine{line: line, name: name}
}

func (r *GPIOResetLine) SetLevel(high bool) {
	if err := r.line.Set(high); err != nil {
		appLog.Error("reset line set failed", err, "pin", r.name, "high", high)
	}
}
