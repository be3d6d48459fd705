package profiles

import (
	"time"

	"panelseq/internal/panel"

	"periph.io/x/conn/v3/physic"
)

// Sharp returns the LS050T1SX01 5" 1080x1920 MIPI-DSI panel. Its enable GPIO
// is modelled as a second rail after the avdd regulator.
func Sharp() *panel.Profile {
	return &panel.Profile{
		Name:       "ls050t1sx01",
		Compatible: "sharp,ls050t1sx01",
		Rails: []panel.Rail{
			{Name: "avdd", Settle: 20 * time.Millisecond},
			{Name: "enable", Settle: 100 * time.Millisecond},
		},
		Reset: panel.Pattern{
			{High: false, Hold: 20 * time.Millisecond},
			{High: true, Hold: 50 * time.Millisecond},
			{High: false, Hold: 10 * time.Millisecond},
		},
		Init: panel.Script{
			{Cmd: panel.DCSExitSleep, Delay: 120 * time.Millisecond},
			// six frames before continuing
			{Cmd: panel.DCSSetDisplayOn, Delay: 120 * time.Millisecond},
		},
		Sleep: panel.Script{
			{Cmd: panel.DCSSetDisplayOff},
			{Cmd: panel.DCSEnterSleep},
		},
		SleepSettle: 120 * time.Millisecond,
		Mode: panel.Mode{
			Clock:      144 * physic.MegaHertz,
			HDisplay:   1080,
			HSyncStart: 1080 + 50,
			HSyncEnd:   1080 + 50 + 8,
			HTotal:     1080 + 50 + 8 + 62,
			VDisplay:   1920,
			VSyncStart: 1920 + 73,
			VSyncEnd:   1920 + 73 + 2,
			VTotal:     1920 + 73 + 2 + 5,
			VRefresh:   60,
			WidthMM:    54,
			HeightMM:   95,
		},
		Link: panel.Link{
			Lanes:  4,
			Format: "rgb888",
			Flags:  []string{"video", "video_hse", "clock_non_continuous", "eot_packet"},
		},
	}
}
