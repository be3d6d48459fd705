package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. The panel model description lives in profile.go.

// BasicAuthConfig holds HTTP Basic Auth credentials for the control API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
	// PasswordHash is a bcrypt hash; when set it is used instead of Password.
	PasswordHash string `yaml:"password_hash,omitempty" json:"password_hash,omitempty"`
}

// SupplyConfig wires one profile rail to hardware. Exactly one of Pin or I2C
// should be set.
type SupplyConfig struct {
	// Pin is a periph GPIO name ("GPIO17") or a character device line
	// ("gpiochip0:17") driving a load switch.
	Pin string `yaml:"pin,omitempty" json:"pin,omitempty"`
	// ActiveLow inverts the pin: the rail is on when the pin is low.
	ActiveLow bool `yaml:"active_low,omitempty" json:"active_low,omitempty"`
	// I2C selects a regulator enable bit on a PMIC.
	I2C *I2CSupplyConfig `yaml:"i2c,omitempty" json:"i2c,omitempty"`
}

// I2CSupplyConfig addresses a regulator enable bit inside a PMIC register.
type I2CSupplyConfig struct {
	// Bus is the periph I2C bus name ("" for the default bus).
	Bus  string `yaml:"bus" json:"bus"`
	Addr uint16 `yaml:"addr" json:"addr"`
	Reg  uint8  `yaml:"reg" json:"reg"`
	Bit  uint8  `yaml:"bit" json:"bit"`
}

// SPIConfig describes the command channel.
type SPIConfig struct {
	// Port is the periph SPI port name ("" for the default, /dev/spidev0.0).
	Port string `yaml:"port" json:"port"`
	// DC is the data/command select pin.
	DC string `yaml:"dc" json:"dc"`
	// MaxHz is the SPI clock ceiling.
	MaxHz int64 `yaml:"max_hz" json:"max_hz"`
}

// BacklightConfig selects the backlight driver. Sysfs wins over Pin. With
// neither set the panel runs without a backlight.
type BacklightConfig struct {
	// Sysfs is a device name under /sys/class/backlight (e.g. "lcd_backlight").
	Sysfs string `yaml:"sysfs,omitempty" json:"sysfs,omitempty"`
	// SysfsRoot overrides /sys/class/backlight, mainly for testing.
	SysfsRoot string `yaml:"sysfs_root,omitempty" json:"sysfs_root,omitempty"`
	// Pin is a GPIO switching the backlight enable input.
	Pin string `yaml:"pin,omitempty" json:"pin,omitempty"`
}

// WiringConfig binds the profile's abstract resources to concrete hardware.
type WiringConfig struct {
	// Rails maps profile rail names ("dvdd", "avdd", ...) to supplies.
	Rails     map[string]SupplyConfig `yaml:"rails" json:"rails"`
	Reset     string                  `yaml:"reset" json:"reset"`
	SPI       SPIConfig               `yaml:"spi" json:"spi"`
	Backlight BacklightConfig         `yaml:"backlight" json:"backlight"`
}

// ScheduleConfig holds optional cron expressions for blanking the panel.
type ScheduleConfig struct {
	// Sleep runs Disable+Unprepare (e.g. "0 23 * * *").
	Sleep string `yaml:"sleep,omitempty" json:"sleep,omitempty"`
	// Wake runs Prepare+Enable (e.g. "0 7 * * *").
	Wake string `yaml:"wake,omitempty" json:"wake,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the control API.
	Listen string `yaml:"listen" json:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Compatible selects a built-in panel model, e.g.
	// "feiyang,fy07024di26a30d". Ignored when Profile is set.
	Compatible string `yaml:"compatible" json:"compatible"`

	// Profile describes a custom panel model inline.
	Profile *ProfileConfig `yaml:"profile,omitempty" json:"profile,omitempty"`

	// BacklightPolicy is "optional" (default) or "required".
	BacklightPolicy string `yaml:"backlight_policy" json:"backlight_policy"`

	Wiring   WiringConfig   `yaml:"wiring" json:"wiring"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen     = "127.0.0.1:8080"
	defaultCompatible = "feiyang,fy07024di26a30d"
	defaultSPIHz      = 10_000_000
)

// DefaultConfig returns an in-memory default configuration: the Feiyang
// panel wired the way it sits on a Raspberry Pi carrier board.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		LogLevel:        "info",
		Compatible:      defaultCompatible,
		BacklightPolicy: "optional",
		Wiring: WiringConfig{
			Rails: map[string]SupplyConfig{
				"dvdd": {Pin: "GPIO5"},
				"avdd": {Pin: "GPIO6"},
			},
			Reset: "GPIO23",
			SPI: SPIConfig{
				DC:    "GPIO25",
				MaxHz: defaultSPIHz,
			},
			Backlight: BacklightConfig{Pin: "GPIO18"},
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	case "warning":
		c.LogLevel = "warn"
	default:
		c.LogLevel = "info"
	}
	if c.Compatible == "" && c.Profile == nil {
		c.Compatible = defaultCompatible
	}
	switch c.BacklightPolicy {
	case "optional", "required":
	default:
		// Unknown value; the lenient policy keeps the panel usable.
		c.BacklightPolicy = "optional"
	}
	if c.Wiring.Rails == nil {
		c.Wiring.Rails = map[string]SupplyConfig{}
	}
	if c.Wiring.SPI.MaxHz <= 0 {
		c.Wiring.SPI.MaxHz = defaultSPIHz
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".panelctl-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
