// Package panel sequences power, reset, init commands and backlight for one
// display panel on a serial display link.
//
// A Panel moves through Off → Prepared → Enabled and back:
//
//	Prepare    Off      → Prepared  rails up, reset pulse, init script
//	Enable     Prepared → Enabled   boot settle, backlight on
//	Disable    Enabled  → Prepared  backlight off
//	Unprepare  Prepared → Off       sleep script, rails down, reset idle
//
// Calling an operation from any other state is a no-op that returns nil, so a
// prepared panel is never pulsed or re-initialised twice. Prepare is
// all-or-nothing: on failure every rail it enabled is switched off again in
// reverse order and the reset line is returned to idle. Disable and Unprepare
// never fail; teardown problems are kept for Diagnostics.
//
// A Panel is not safe for concurrent use. The caller serialises lifecycle
// calls for one panel; distinct panels share nothing.
package panel

import (
	"errors"
	"fmt"
)

// Opts tunes a Panel. A nil *Opts uses the real clock, BacklightOptional and
// no logging.
type Opts struct {
	Clock           Clock
	BacklightPolicy BacklightPolicy
	Logger          Logger
	// Observer is called after every lifecycle call that was not a no-op.
	Observer func(Transition)
}

// Panel is the lifecycle of one physical panel.
type Panel struct {
	profile *Profile

	rails     railSet
	reset     ResetLine
	ch        CommandChannel
	backlight Backlight

	policy  BacklightPolicy
	clk     Clock
	log     Logger
	observe func(Transition)

	state State
	diag  error
}

// New binds profile to hardware. A declared rail without a supply, a reset
// pattern without a reset line, a missing command channel or, under
// BacklightRequired, a missing backlight fails with ResourceMissing.
func New(profile *Profile, res Resources, opts *Opts) (*Panel, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Opts{}
	}
	// The panel owns its copy; later edits to the caller's value do not apply.
	profile = profile.Clone()

	p := &Panel{
		profile:   profile,
		reset:     res.Reset,
		ch:        res.Channel,
		backlight: res.Backlight,
		policy:    opts.BacklightPolicy,
		clk:       opts.Clock,
		log:       opts.Logger,
		observe:   opts.Observer,
		state:     Off,
	}
	if p.clk == nil {
		p.clk = RealClock
	}
	if p.log == nil {
		p.log = nopLogger{}
	}

	missing := func(subject string) error {
		return &Error{Code: ResourceMissing, Subject: subject, Err: fmt.Errorf("profile %s", profile.Name)}
	}

	for _, r := range profile.Rails {
		s := res.Supplies[r.Name]
		if s == nil {
			return nil, missing(r.Name)
		}
		p.rails.rails = append(p.rails.rails, boundRail{Rail: r, supply: s})
	}
	if len(profile.Reset) > 0 && p.reset == nil {
		return nil, missing("reset")
	}
	if p.ch == nil {
		return nil, missing("channel")
	}
	if p.policy == BacklightRequired && p.backlight == nil {
		return nil, missing("backlight")
	}
	return p, nil
}

// State returns the current lifecycle state.
func (p *Panel) State() State { return p.state }

// Profile returns a copy of the model description the panel was built from.
func (p *Panel) Profile() *Profile { return p.profile.Clone() }

// Mode returns the panel's only timing mode.
func (p *Panel) Mode() Mode { return p.profile.Mode }

// Modes returns the mode list for negotiation: exactly one entry, preferred.
func (p *Panel) Modes() []ModeInfo {
	m := p.profile.Mode
	return []ModeInfo{{Mode: m, Name: m.Name(), Type: ModeTypeDriver | ModeTypePreferred}}
}

// Diagnostics returns the errors recorded by the last rollback or best-effort
// teardown, or nil.
func (p *Panel) Diagnostics() error { return p.diag }

// Prepare powers the panel, pulses reset and sends the init script.
func (p *Panel) Prepare() error {
	if p.state != Off {
		return nil
	}
	p.diag = nil
	p.log.Info("preparing panel", "rails", len(p.rails.rails), "reset_total", p.profile.Reset.Total(), "init_entries", len(p.profile.Init))

	if rail, err := p.rails.up(p.clk, p.log); err != nil {
		p.diag = p.rails.down(p.log)
		p.idleReset()
		return p.finish(OpPrepare, Off, &Error{Code: PowerFailure, Op: OpPrepare, Subject: rail, Err: err})
	}

	if p.reset != nil {
		p.profile.Reset.replay(p.reset, p.clk)
	}

	if idx, err := p.profile.Init.run(p.ch, p.clk); err != nil {
		p.log.Error("init script failed", err, "entry", idx, "cmd", p.profile.Init[idx-1].String())
		p.diag = p.rails.down(p.log)
		p.idleReset()
		return p.finish(OpPrepare, Off, &Error{
			Code:    InitFailure,
			Op:      OpPrepare,
			Subject: p.profile.Init[idx-1].String(),
			Index:   idx,
			Err:     err,
		})
	}

	p.logPowerMode()
	return p.finish(OpPrepare, Prepared, nil)
}

// Enable waits for the controller to boot and lights the backlight.
func (p *Panel) Enable() error {
	if p.state != Prepared {
		return nil
	}
	p.diag = nil
	wait(p.clk, p.profile.BootSettle)

	if p.backlight == nil {
		p.log.Debug("no backlight bound, skipping")
		return p.finish(OpEnable, Enabled, nil)
	}
	if err := p.backlight.Enable(); err != nil {
		if p.policy == BacklightRequired {
			return p.finish(OpEnable, Prepared, &Error{Code: BacklightFailure, Op: OpEnable, Subject: "backlight", Err: err})
		}
		p.log.Warn("backlight enable failed, continuing", "err", err)
		p.diag = &Error{Code: BacklightFailure, Op: OpEnable, Subject: "backlight", Err: err}
	}
	return p.finish(OpEnable, Enabled, nil)
}

// Disable turns the backlight off. It always ends in Prepared.
func (p *Panel) Disable() error {
	if p.state != Enabled {
		return nil
	}
	p.diag = nil
	if p.backlight != nil {
		if err := p.backlight.Disable(); err != nil {
			p.log.Error("backlight disable failed", err)
			p.diag = &Error{Code: BacklightFailure, Op: OpDisable, Subject: "backlight", Err: err}
		}
	}
	return p.finish(OpDisable, Prepared, nil)
}

// Unprepare puts the controller to sleep and removes power. It always ends
// in Off.
func (p *Panel) Unprepare() error {
	if p.state != Prepared {
		return nil
	}
	var errs []error
	for i, c := range p.profile.Sleep {
		if err := p.ch.Send(c.Cmd, c.Payload); err != nil {
			p.log.Error("sleep command failed", err, "entry", i+1, "cmd", c.String())
			errs = append(errs, &Error{Code: TransmissionError, Op: OpUnprepare, Subject: c.String(), Index: i + 1, Err: err})
			continue
		}
		wait(p.clk, c.Delay)
	}
	wait(p.clk, p.profile.SleepSettle)

	if err := p.rails.down(p.log); err != nil {
		errs = append(errs, err)
	}
	p.idleReset()

	p.diag = errors.Join(errs...)
	return p.finish(OpUnprepare, Off, nil)
}

// Shutdown brings the panel to Off from any state, for device detach. The
// returned error is informational; the panel is Off regardless.
func (p *Panel) Shutdown() error {
	var errs []error
	if p.state == Enabled {
		_ = p.Disable()
		errs = append(errs, p.diag)
	}
	if p.state == Prepared {
		_ = p.Unprepare()
		errs = append(errs, p.diag)
	}
	return errors.Join(errs...)
}

func (p *Panel) idleReset() {
	if p.reset != nil {
		p.reset.SetLevel(p.profile.ResetIdleHigh)
	}
}

// logPowerMode reads the DCS power mode back when the channel supports it.
// It is diagnostic only.
func (p *Panel) logPowerMode() {
	sr, ok := p.ch.(StatusReader)
	if !ok {
		return
	}
	buf := make([]byte, 1)
	if err := sr.Read(DCSGetPowerMode, buf); err != nil {
		p.log.Debug("power mode read failed", "err", err)
		return
	}
	p.log.Debug("power mode", "mode", fmt.Sprintf("0x%02X", buf[0]))
}

func (p *Panel) finish(op Op, to State, err error) error {
	t := Transition{Op: op, From: p.state, To: to, Err: err}
	if err == nil {
		t.Err = p.diag
	}
	p.state = to
	if err != nil {
		p.log.Error("panel transition failed", err, "op", op, "state", to)
	} else {
		p.log.Info("panel transition", "op", op, "from", t.From, "to", to)
	}
	if p.observe != nil {
		p.observe(t)
	}
	return err
}
