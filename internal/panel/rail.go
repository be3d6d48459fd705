package panel

import (
	"errors"
	"time"
)

// Rail declares one supply the panel needs. Order within Profile.Rails is the
// strict enable order; disable always runs in reverse.
type Rail struct {
	Name string
	// Settle is the wait after enabling before the next step may run.
	Settle time.Duration
}

// Supply switches one voltage rail.
type Supply interface {
	Enable() error
	Disable() error
}

// boundRail pairs the declared rail with the supply wired to it.
type boundRail struct {
	Rail
	supply Supply
}

// railSet is the ordered, bound set of rails for one panel. enabled counts how
// many rails from the front of the list are currently on.
type railSet struct {
	rails   []boundRail
	enabled int
}

// up enables rails in declared order. On failure it returns the failing rail
// name; rails enabled so far stay on for the caller to roll back with down.
func (s *railSet) up(clk Clock, lg Logger) (string, error) {
	for i, r := range s.rails {
		if err := r.supply.Enable(); err != nil {
			lg.Error("rail enable failed", err, "rail", r.Name)
			return r.Name, err
		}
		s.enabled = i + 1
		lg.Debug("rail enabled", "rail", r.Name, "settle", r.Settle)
		wait(clk, r.Settle)
	}
	return "", nil
}

// down disables enabled rails in reverse enable order. Every rail is attempted
// even if an earlier one fails.
func (s *railSet) down(lg Logger) error {
	var errs []error
	for i := s.enabled - 1; i >= 0; i-- {
		r := s.rails[i]
		if err := r.supply.Disable(); err != nil {
			lg.Error("rail disable failed", err, "rail", r.Name)
			errs = append(errs, &Error{Code: PowerFailure, Subject: r.Name, Err: err})
			continue
		}
		lg.Debug("rail disabled", "rail", r.Name)
	}
	s.enabled = 0
	return errors.Join(errs...)
}
