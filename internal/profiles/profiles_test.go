package profiles

import (
	"testing"
	"time"

	"panelseq/internal/panel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestBuiltinProfilesValidate(t *testing.T) {
	for _, c := range Compatibles() {
		p, err := Lookup(c)
		require.NoError(t, err, c)
		assert.NoError(t, p.Validate(), c)
		assert.Equal(t, c, p.Compatible)
	}
}

func TestLookup(t *testing.T) {
	p, err := Lookup("feiyang,fy07024di26a30d")
	require.NoError(t, err)
	assert.Equal(t, Feiyang(), p)

	p, err = Lookup("ls050t1sx01")
	require.NoError(t, err)
	assert.Equal(t, Sharp(), p)

	_, err = Lookup("acme,unknown")
	assert.ErrorContains(t, err, "unknown panel")
}

func TestLookupReturnsIndependentCopies(t *testing.T) {
	p, err := Lookup("feiyang,fy07024di26a30d")
	require.NoError(t, err)
	p.Init[0].Payload[0] = 0xFF
	p.Rails[0].Settle = 0
	p.Reset[2].Hold = 0

	again, err := Lookup("feiyang,fy07024di26a30d")
	require.NoError(t, err)
	assert.NotSame(t, p, again)
	assert.Equal(t, []byte{0x58}, again.Init[0].Payload)
	assert.Equal(t, 100*time.Millisecond, again.Rails[0].Settle)
	assert.Equal(t, 270*time.Millisecond, again.Reset.Total())
	assert.Equal(t, Feiyang(), again)
}

// Edits through a bound panel must not leak into later lookups.
func TestPanelProfileDoesNotAliasBuiltin(t *testing.T) {
	prof, err := Lookup("sharp,ls050t1sx01")
	require.NoError(t, err)
	res := panel.Resources{
		Supplies: map[string]panel.Supply{"avdd": supply{"avdd", func(string) {}}, "enable": supply{"enable", func(string) {}}},
		Reset:    resetFunc(func(bool) {}),
		Channel:  channelFunc(func(byte, []byte) error { return nil }),
	}
	p, err := panel.New(prof, res, nil)
	require.NoError(t, err)

	p.Profile().Init[0].Delay = 0
	p.Profile().Rails[1].Settle = 0

	again, err := Lookup("sharp,ls050t1sx01")
	require.NoError(t, err)
	assert.Equal(t, 120*time.Millisecond, again.Init[0].Delay)
	assert.Equal(t, 100*time.Millisecond, again.Rails[1].Settle)
}

func TestCompatiblesSorted(t *testing.T) {
	assert.Equal(t, []string{"feiyang,fy07024di26a30d", "sharp,ls050t1sx01"}, Compatibles())
}

func TestFeiyangTimings(t *testing.T) {
	p := Feiyang()
	assert.Equal(t, 270*time.Millisecond, p.Reset.Total())
	assert.Len(t, p.Init, 7)
	assert.Equal(t, byte(0x80), p.Init[0].Cmd)
	assert.Equal(t, []byte{0x82}, p.Init[6].Payload)
	assert.Equal(t, 120*time.Millisecond, p.BootSettle)
	assert.Empty(t, p.Sleep)

	m := p.Mode
	assert.Equal(t, "1024x600", m.Name())
	assert.Equal(t, 55*physic.MegaHertz, m.Clock)
	assert.Equal(t, 1540, m.HTotal)
	assert.Equal(t, 635, m.VTotal)
}

func TestSharpTimings(t *testing.T) {
	p := Sharp()
	assert.Equal(t, []string{"avdd", "enable"}, []string{p.Rails[0].Name, p.Rails[1].Name})
	assert.Equal(t, 80*time.Millisecond, p.Reset.Total())
	assert.False(t, p.ResetIdleHigh)
	assert.Equal(t, []byte{panel.DCSExitSleep, panel.DCSSetDisplayOn}, []byte{p.Init[0].Cmd, p.Init[1].Cmd})
	assert.Equal(t, 120*time.Millisecond, p.Init[0].Delay)
	assert.Equal(t, []byte{panel.DCSSetDisplayOff, panel.DCSEnterSleep}, []byte{p.Sleep[0].Cmd, p.Sleep[1].Cmd})

	m := p.Mode
	assert.Equal(t, "1080x1920", m.Name())
	assert.Equal(t, 1200, m.HTotal)
	assert.Equal(t, 2000, m.VTotal)
	assert.Equal(t, 54, m.WidthMM)
}

// A full cycle over the Sharp profile with recording fakes.
func TestSharpLifecycle(t *testing.T) {
	var events []string
	rec := func(s string) { events = append(events, s) }

	res := panel.Resources{
		Supplies: map[string]panel.Supply{
			"avdd":   supply{"avdd", rec},
			"enable": supply{"enable", rec},
		},
		Reset:   resetFunc(func(high bool) { rec(map[bool]string{true: "reset high", false: "reset low"}[high]) }),
		Channel: channelFunc(func(cmd byte, _ []byte) error { rec(cmdName(cmd)); return nil }),
	}
	var slept time.Duration
	p, err := panel.New(Sharp(), res, &panel.Opts{Clock: clockFunc(func(d time.Duration) { slept += d })})
	require.NoError(t, err)

	require.NoError(t, p.Prepare())
	require.NoError(t, p.Enable())
	require.NoError(t, p.Disable())
	require.NoError(t, p.Unprepare())
	assert.Equal(t, panel.Off, p.State())

	assert.Equal(t, []string{
		"on avdd", "on enable",
		"reset low", "reset high", "reset low",
		"exit_sleep", "display_on",
		"display_off", "enter_sleep",
		"off enable", "off avdd",
		"reset low",
	}, events)
	// 20+100 rails, 80 reset, 240 init, 120 sleep settle
	assert.Equal(t, 560*time.Millisecond, slept)
}

type supply struct {
	name string
	rec  func(string)
}

func (s supply) Enable() error  { s.rec("on " + s.name); return nil }
func (s supply) Disable() error { s.rec("off " + s.name); return nil }

type resetFunc func(bool)

func (f resetFunc) SetLevel(high bool) { f(high) }

type channelFunc func(byte, []byte) error

func (f channelFunc) Send(cmd byte, payload []byte) error { return f(cmd, payload) }

type clockFunc func(time.Duration)

func (f clockFunc) Sleep(d time.Duration) { f(d) }

func cmdName(cmd byte) string {
	switch cmd {
	case panel.DCSExitSleep:
		return "exit_sleep"
	case panel.DCSEnterSleep:
		return "enter_sleep"
	case panel.DCSSetDisplayOn:
		return "display_on"
	case panel.DCSSetDisplayOff:
		return "display_off"
	}
	return "unknown"
}
