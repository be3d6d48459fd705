package hw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultBacklightRoot is where the kernel exposes backlight devices.
const DefaultBacklightRoot = "/sys/class/backlight"

// SysfsBacklight drives a kernel backlight class device. Enable unblanks it
// and restores full brightness; Disable powers it down.
type SysfsBacklight struct {
	dir string
}

// NewSysfsBacklight opens root/name. An empty root means DefaultBacklightRoot.
func NewSysfsBacklight(root, name string) (*SysfsBacklight, error) {
	if root == "" {
		root = DefaultBacklightRoot
	}
	dir := filepath.Join(root, name)
	if _, err := os.Stat(filepath.Join(dir, "bl_power")); err != nil {
		return nil, fmt.Errorf("hw: backlight %s: %w", name, err)
	}
	return &SysfsBacklight{dir: dir}, nil
}

// bl_power uses the framebuffer blank values: 0 unblank, 4 powerdown.
const (
	blUnblank   = "0"
	blPowerdown = "4"
)

func (b *SysfsBacklight) Enable() error {
	full, err := b.readInt("max_brightness")
	if err != nil {
		return err
	}
	if err := b.write("brightness", strconv.Itoa(full)); err != nil {
		return err
	}
	return b.write("bl_power", blUnblank)
}

func (b *SysfsBacklight) Disable() error {
	return b.write("bl_power", blPowerdown)
}

func (b *SysfsBacklight) readInt(attr string) (int, error) {
	data, err := os.ReadFile(filepath.Join(b.dir, attr))
	if err != nil {
		return 0, fmt.Errorf("hw: backlight read %s: %w", attr, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("hw: backlight %s: %w", attr, err)
	}
	return n, nil
}

func (b *SysfsBacklight) write(attr, v string) error {
	if err := os.WriteFile(filepath.Join(b.dir, attr), []byte(v), 0o644); err != nil {
		return fmt.Errorf("hw: backlight write %s: %w", attr, err)
	}
	return nil
}

// GPIOBacklight switches a backlight driver's enable input.
type GPIOBacklight struct {
	line Line
}

func NewGPIOBacklight(line Line) *GPIOBacklight {
	return &GPIOBacklight{line: line}
}

func (b *GPIOBacklight) Enable() error  { return b.line.Set(true) }
func (b *GPIOBacklight) Disable() error { return b.line.Set(false) }
