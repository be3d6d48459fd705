package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"panelseq/internal/panel"
	"panelseq/internal/profiles"

	"periph.io/x/conn/v3/physic"
)

// RailConfig is one rail in enable order.
type RailConfig struct {
	Name   string        `yaml:"name" json:"name"`
	Settle time.Duration `yaml:"settle,omitempty" json:"settle,omitempty"`
}

// StepConfig is one reset pulse step. Level is "high" or "low".
type StepConfig struct {
	Level string        `yaml:"level" json:"level"`
	Hold  time.Duration `yaml:"hold" json:"hold"`
}

// CommandConfig is one script entry. Cmd is a byte ("0x11" or "17"), Data is
// a hex string with optional spaces ("58" or "01 02 03").
type CommandConfig struct {
	Cmd   string        `yaml:"cmd" json:"cmd"`
	Data  string        `yaml:"data,omitempty" json:"data,omitempty"`
	Delay time.Duration `yaml:"delay,omitempty" json:"delay,omitempty"`
}

// ModeConfig mirrors panel.Mode with the pixel clock in kHz.
type ModeConfig struct {
	ClockKHz   int64 `yaml:"clock_khz" json:"clock_khz"`
	HDisplay   int   `yaml:"hdisplay" json:"hdisplay"`
	HSyncStart int   `yaml:"hsync_start" json:"hsync_start"`
	HSyncEnd   int   `yaml:"hsync_end" json:"hsync_end"`
	HTotal     int   `yaml:"htotal" json:"htotal"`
	VDisplay   int   `yaml:"vdisplay" json:"vdisplay"`
	VSyncStart int   `yaml:"vsync_start" json:"vsync_start"`
	VSyncEnd   int   `yaml:"vsync_end" json:"vsync_end"`
	VTotal     int   `yaml:"vtotal" json:"vtotal"`
	VRefresh   int   `yaml:"vrefresh" json:"vrefresh"`
	WidthMM    int   `yaml:"width_mm" json:"width_mm"`
	HeightMM   int   `yaml:"height_mm" json:"height_mm"`
}

// LinkConfig mirrors panel.Link.
type LinkConfig struct {
	Lanes  int      `yaml:"lanes" json:"lanes"`
	Format string   `yaml:"format" json:"format"`
	Flags  []string `yaml:"flags,omitempty" json:"flags,omitempty"`
}

// ProfileConfig describes a panel model in YAML so new panels need no code.
type ProfileConfig struct {
	Name       string          `yaml:"name" json:"name"`
	Compatible string          `yaml:"compatible" json:"compatible"`
	Rails      []RailConfig    `yaml:"rails" json:"rails"`
	Reset      []StepConfig    `yaml:"reset,omitempty" json:"reset,omitempty"`
	ResetIdle  string          `yaml:"reset_idle,omitempty" json:"reset_idle,omitempty"`
	Init       []CommandConfig `yaml:"init" json:"init"`
	Sleep      []CommandConfig `yaml:"sleep,omitempty" json:"sleep,omitempty"`
	BootSettle time.Duration   `yaml:"boot_settle,omitempty" json:"boot_settle,omitempty"`
	// SleepSettle is waited after the sleep script, before power is cut.
	SleepSettle time.Duration `yaml:"sleep_settle,omitempty" json:"sleep_settle,omitempty"`
	Mode        ModeConfig    `yaml:"mode" json:"mode"`
	Link        LinkConfig    `yaml:"link" json:"link"`
}

// Build converts the YAML description into a validated panel.Profile.
func (pc *ProfileConfig) Build() (*panel.Profile, error) {
	if pc == nil {
		return nil, errors.New("config: profile is nil")
	}
	p := &panel.Profile{
		Name:        pc.Name,
		Compatible:  pc.Compatible,
		BootSettle:  pc.BootSettle,
		SleepSettle: pc.SleepSettle,
		Mode: panel.Mode{
			Clock:      physic.Frequency(pc.Mode.ClockKHz) * physic.KiloHertz,
			HDisplay:   pc.Mode.HDisplay,
			HSyncStart: pc.Mode.HSyncStart,
			HSyncEnd:   pc.Mode.HSyncEnd,
			HTotal:     pc.Mode.HTotal,
			VDisplay:   pc.Mode.VDisplay,
			VSyncStart: pc.Mode.VSyncStart,
			VSyncEnd:   pc.Mode.VSyncEnd,
			VTotal:     pc.Mode.VTotal,
			VRefresh:   pc.Mode.VRefresh,
			WidthMM:    pc.Mode.WidthMM,
			HeightMM:   pc.Mode.HeightMM,
		},
		Link: panel.Link{Lanes: pc.Link.Lanes, Format: pc.Link.Format, Flags: pc.Link.Flags},
	}

	for _, r := range pc.Rails {
		p.Rails = append(p.Rails, panel.Rail{Name: r.Name, Settle: r.Settle})
	}

	for i, s := range pc.Reset {
		high, err := parseLevel(s.Level)
		if err != nil {
			return nil, fmt.Errorf("config: profile %s: reset step %d: %w", pc.Name, i+1, err)
		}
		p.Reset = append(p.Reset, panel.Step{High: high, Hold: s.Hold})
	}
	if pc.ResetIdle != "" {
		high, err := parseLevel(pc.ResetIdle)
		if err != nil {
			return nil, fmt.Errorf("config: profile %s: reset_idle: %w", pc.Name, err)
		}
		p.ResetIdleHigh = high
	}

	var err error
	if p.Init, err = buildScript(pc.Init); err != nil {
		return nil, fmt.Errorf("config: profile %s: init %w", pc.Name, err)
	}
	if p.Sleep, err = buildScript(pc.Sleep); err != nil {
		return nil, fmt.Errorf("config: profile %s: sleep %w", pc.Name, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// PanelProfile resolves the inline profile if present, else the built-in one
// named by Compatible.
func (c *Config) PanelProfile() (*panel.Profile, error) {
	if c.Profile != nil {
		return c.Profile.Build()
	}
	return profiles.Lookup(c.Compatible)
}

func buildScript(cmds []CommandConfig) (panel.Script, error) {
	var s panel.Script
	for i, cc := range cmds {
		cmd, err := strconv.ParseUint(strings.TrimSpace(cc.Cmd), 0, 8)
		if err != nil {
			return nil, fmt.Errorf("entry %d: bad cmd %q: %w", i+1, cc.Cmd, err)
		}
		var payload []byte
		if d := strings.ReplaceAll(cc.Data, " ", ""); d != "" {
			if payload, err = hex.DecodeString(d); err != nil {
				return nil, fmt.Errorf("entry %d: bad data %q: %w", i+1, cc.Data, err)
			}
		}
		s = append(s, panel.Command{Cmd: byte(cmd), Payload: payload, Delay: cc.Delay})
	}
	return s, nil
}

func parseLevel(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1":
		return true, nil
	case "low", "0":
		return false, nil
	default:
		return false, fmt.Errorf("unknown level %q", s)
	}
}
