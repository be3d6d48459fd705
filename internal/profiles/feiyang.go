package profiles

import (
	"time"

	"panelseq/internal/panel"

	"periph.io/x/conn/v3/physic"
)

// Feiyang returns the FY07024DI26A30D 7" 1024x600 MIPI-DSI panel. Each call
// builds a new value.
func Feiyang() *panel.Profile {
	return &panel.Profile{
		Name:       "fy07024di26a30d",
		Compatible: "feiyang,fy07024di26a30d",
		Rails: []panel.Rail{
			{Name: "dvdd", Settle: 100 * time.Millisecond},
			{Name: "avdd"},
		},
		Reset: panel.Pattern{
			{High: true, Hold: 50 * time.Millisecond},
			{High: false, Hold: 20 * time.Millisecond},
			{High: true, Hold: 200 * time.Millisecond},
		},
		Init: panel.Script{
			{Cmd: 0x80, Payload: []byte{0x58}},
			{Cmd: 0x81, Payload: []byte{0x47}},
			{Cmd: 0x82, Payload: []byte{0xD4}},
			{Cmd: 0x83, Payload: []byte{0x88}},
			{Cmd: 0x84, Payload: []byte{0xA9}},
			{Cmd: 0x85, Payload: []byte{0xC3}},
			{Cmd: 0x86, Payload: []byte{0x82}},
		},
		BootSettle: 120 * time.Millisecond,
		Mode: panel.Mode{
			Clock:      55 * physic.MegaHertz,
			HDisplay:   1024,
			HSyncStart: 1024 + 396,
			HSyncEnd:   1024 + 396 + 20,
			HTotal:     1024 + 396 + 20 + 100,
			VDisplay:   600,
			VSyncStart: 600 + 12,
			VSyncEnd:   600 + 12 + 2,
			VTotal:     600 + 12 + 2 + 21,
			VRefresh:   60,
			WidthMM:    62,
			HeightMM:   110,
		},
		Link: panel.Link{
			Lanes:  4,
			Format: "rgb888",
			Flags:  []string{"video_burst"},
		},
	}
}
