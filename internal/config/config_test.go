package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"panelseq/internal/panel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: chatty\nbacklight_policy: maybe\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "optional", cfg.BacklightPolicy)
	assert.Equal(t, defaultCompatible, cfg.Compatible)
	assert.EqualValues(t, defaultSPIHz, cfg.Wiring.SPI.MaxHz)
	assert.NotNil(t, cfg.Wiring.Rails)
}

func TestNormalizeLogLevelIgnoresCase(t *testing.T) {
	for in, want := range map[string]string{
		"DEBUG":   "debug",
		" Warn ":  "warn",
		"WARNING": "warn",
		"Error":   "error",
		"verbose": "info",
	} {
		cfg := &Config{LogLevel: in}
		cfg.Normalize()
		assert.Equal(t, want, cfg.LogLevel, in)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTripsWiring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Wiring.Rails["avdd"] = SupplyConfig{I2C: &I2CSupplyConfig{Addr: 0x34, Reg: 0x12, Bit: 3}}
	cfg.Schedule = ScheduleConfig{Sleep: "0 23 * * *", Wake: "0 7 * * *"}
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

const customProfile = `
compatible: ""
profile:
  name: custom
  compatible: acme,p1
  rails:
    - name: vci
      settle: 10ms
    - name: iovcc
  reset:
    - {level: low, hold: 5ms}
    - {level: high, hold: 120ms}
  reset_idle: high
  init:
    - {cmd: "0x11", delay: 120ms}
    - {cmd: "0xB0", data: "04"}
    - {cmd: "0xB3", data: "14 00 00"}
    - {cmd: "41"}
  sleep:
    - {cmd: "0x28"}
    - {cmd: "0x10", delay: 80ms}
  boot_settle: 30ms
  sleep_settle: 10ms
  mode:
    clock_khz: 25000
    hdisplay: 480
    hsync_start: 490
    hsync_end: 492
    htotal: 500
    vdisplay: 800
    vsync_start: 810
    vsync_end: 812
    vtotal: 820
    vrefresh: 60
    width_mm: 50
    height_mm: 90
  link:
    lanes: 2
    format: rgb888
`

func TestInlineProfileBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(customProfile), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Compatible, "inline profile suppresses the default model")

	p, err := cfg.PanelProfile()
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
	assert.Equal(t, []panel.Rail{{Name: "vci", Settle: 10 * time.Millisecond}, {Name: "iovcc"}}, p.Rails)
	assert.Equal(t, panel.Pattern{{High: false, Hold: 5 * time.Millisecond}, {High: true, Hold: 120 * time.Millisecond}}, p.Reset)
	assert.True(t, p.ResetIdleHigh)
	assert.Equal(t, panel.Script{
		{Cmd: 0x11, Delay: 120 * time.Millisecond},
		{Cmd: 0xB0, Payload: []byte{0x04}},
		{Cmd: 0xB3, Payload: []byte{0x14, 0x00, 0x00}},
		{Cmd: 41},
	}, p.Init)
	assert.Len(t, p.Sleep, 2)
	assert.Equal(t, 30*time.Millisecond, p.BootSettle)
	assert.Equal(t, 25*physic.MegaHertz, p.Mode.Clock)
	assert.Equal(t, "480x800", p.Mode.Name())
	assert.Equal(t, 2, p.Link.Lanes)
}

func TestProfileBuildErrors(t *testing.T) {
	base := func() *ProfileConfig {
		return &ProfileConfig{
			Name:  "x",
			Rails: []RailConfig{{Name: "vdd"}},
			Init:  []CommandConfig{{Cmd: "0x29"}},
			Mode:  ModeConfig{ClockKHz: 1000, HDisplay: 1, HSyncStart: 1, HSyncEnd: 1, HTotal: 1, VDisplay: 1, VSyncStart: 1, VSyncEnd: 1, VTotal: 1},
		}
	}
	_, err := base().Build()
	require.NoError(t, err)

	tests := map[string]func(*ProfileConfig){
		"bad level":  func(pc *ProfileConfig) { pc.Reset = []StepConfig{{Level: "mid"}} },
		"bad idle":   func(pc *ProfileConfig) { pc.ResetIdle = "floating" },
		"bad cmd":    func(pc *ProfileConfig) { pc.Init[0].Cmd = "0x1FF" },
		"bad data":   func(pc *ProfileConfig) { pc.Init[0].Data = "zz" },
		"dup rail":   func(pc *ProfileConfig) { pc.Rails = append(pc.Rails, RailConfig{Name: "vdd"}) },
		"no clock":   func(pc *ProfileConfig) { pc.Mode.ClockKHz = 0 },
		"bad sleep":  func(pc *ProfileConfig) { pc.Sleep = []CommandConfig{{Cmd: "off"}} },
		"empty name": func(pc *ProfileConfig) { pc.Name = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			pc := base()
			mutate(pc)
			_, err := pc.Build()
			assert.Error(t, err)
		})
	}

	var nilProfile *ProfileConfig
	_, err = nilProfile.Build()
	assert.Error(t, err)
}

func TestPanelProfileBuiltin(t *testing.T) {
	cfg := DefaultConfig()
	p, err := cfg.PanelProfile()
	require.NoError(t, err)
	assert.Equal(t, "feiyang,fy07024di26a30d", p.Compatible)

	cfg.Compatible = "acme,none"
	_, err = cfg.PanelProfile()
	assert.Error(t, err)
}
