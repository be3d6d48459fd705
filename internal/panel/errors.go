package panel

import (
	"errors"
	"fmt"
)

// Code is a stable error identifier. It implements error so callers can
// match with errors.Is(err, panel.InitFailure).
type Code string

func (c Code) Error() string { return string(c) }

const (
	// PowerFailure: a rail failed to enable.
	PowerFailure Code = "power_failure"
	// InitFailure: a command failed while replaying the init script.
	InitFailure Code = "init_failure"
	// ResourceMissing: a required binding was never configured.
	ResourceMissing Code = "resource_missing"
	// TransmissionError: the command channel could not deliver a command.
	TransmissionError Code = "transmission_error"
	// BacklightFailure: the backlight refused to turn on under the
	// BacklightRequired policy.
	BacklightFailure Code = "backlight_failure"
)

// Error carries a Code plus where it happened.
//
// Subject names the failing resource (rail name, "reset", "channel",
// "backlight"). Index is the 1-based init script entry for InitFailure and
// zero otherwise.
type Error struct {
	Code    Code
	Op      Op
	Subject string
	Index   int
	Err     error
}

func (e *Error) Error() string {
	msg := "panel: "
	if e.Op != "" {
		msg += string(e.Op) + ": "
	}
	msg += string(e.Code)
	switch {
	case e.Index > 0:
		msg += fmt.Sprintf(" at entry %d", e.Index)
		if e.Subject != "" {
			msg += " (" + e.Subject + ")"
		}
	case e.Subject != "":
		msg += " (" + e.Subject + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error's Code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// CodeOf extracts the Code from err, or "" if err carries none.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return ""
}

// Transmission wraps a channel failure for command cmd.
func Transmission(cmd byte, err error) error {
	return &Error{Code: TransmissionError, Subject: fmt.Sprintf("cmd 0x%02X", cmd), Err: err}
}
