package hw

import (
	"fmt"

	appLog "panelseq/internal/log"
	"panelseq/internal/panel"
)

// The Sim* types stand in for hardware on development machines. They only
// log what real hardware would have been asked to do.

// SimSupply is a logging rail.
type SimSupply struct {
	Name string
	On   bool
}

func (s *SimSupply) Enable() error {
	s.On = true
	appLog.Debug("sim: rail on", "rail", s.Name)
	return nil
}

func (s *SimSupply) Disable() error {
	s.On = false
	appLog.Debug("sim: rail off", "rail", s.Name)
	return nil
}

// SimReset is a logging reset line.
type SimReset struct {
	High bool
}

func (r *SimReset) SetLevel(high bool) {
	r.High = high
	appLog.Debug("sim: reset", "high", high)
}

// SimChannel logs commands and answers reads with a sleeping-out,
// display-on power mode.
type SimChannel struct {
	Sent []panel.Command
}

func (c *SimChannel) Send(cmd byte, payload []byte) error {
	c.Sent = append(c.Sent, panel.Command{Cmd: cmd, Payload: append([]byte(nil), payload...)})
	appLog.Debug("sim: command", "cmd", fmt.Sprintf("0x%02X", cmd), "len", len(payload))
	return nil
}

// powerModeAwake has the sleep-out and display-on bits set.
const powerModeAwake = 0x9C

func (c *SimChannel) Read(cmd byte, buf []byte) error {
	for i := range buf {
		buf[i] = 0
	}
	if cmd == panel.DCSGetPowerMode && len(buf) > 0 {
		buf[0] = powerModeAwake
	}
	return nil
}

// SimBacklight is a logging backlight.
type SimBacklight struct {
	On bool
}

func (b *SimBacklight) Enable() error {
	b.On = true
	appLog.Debug("sim: backlight on")
	return nil
}

func (b *SimBacklight) Disable() error {
	b.On = false
	appLog.Debug("sim: backlight off")
	return nil
}

// Simulated returns resources for p where nothing touches hardware.
func Simulated(p *panel.Profile) panel.Resources {
	res := panel.Resources{
		Supplies:  make(map[string]panel.Supply, len(p.Rails)),
		Reset:     &SimReset{High: p.ResetIdleHigh},
		Channel:   &SimChannel{},
		Backlight: &SimBacklight{},
	}
	for _, r := range p.Rails {
		res.Supplies[r.Name] = &SimSupply{Name: r.Name}
	}
	return res
}
