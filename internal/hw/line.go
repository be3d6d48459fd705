// Package hw binds the abstract panel resources to real hardware: GPIO lines
// through periph.io or the Linux GPIO character device, PMIC regulators over
// I2C, DCS commands over SPI and the kernel backlight class.
package hw

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// consumer is the label the kernel shows for lines we hold.
const consumer = "panelctl"

// Line is a single output line, whichever driver backs it.
type Line interface {
	Set(high bool) error
	Close() error
}

// pinLine drives a periph pin.
type pinLine struct {
	pin gpio.PinOut
}

// NewPinLine wraps a periph output pin.
func NewPinLine(p gpio.PinOut) Line {
	return &pinLine{pin: p}
}

func (l *pinLine) Set(high bool) error {
	if high {
		return l.pin.Out(gpio.High)
	}
	return l.pin.Out(gpio.Low)
}

func (l *pinLine) Close() error { return nil }

func (l *pinLine) String() string { return l.pin.String() }

// cdevLine drives a line requested from /dev/gpiochipN.
type cdevLine struct {
	name string
	line *gpiocdev.Line
}

func (l *cdevLine) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return l.line.SetValue(v)
}

func (l *cdevLine) Close() error { return l.line.Close() }

func (l *cdevLine) String() string { return l.name }

var (
	hostOnce sync.Once
	hostErr  error
)

// initHost loads the periph host drivers once per process.
func initHost() error {
	hostOnce.Do(func() {
		if _, err := host.Init(); err != nil {
			hostErr = fmt.Errorf("hw: periph host init failed: %w", err)
		}
	})
	return hostErr
}

// OpenPin resolves name to an output line driven low. "gpiochipN:offset"
// requests the line from the character device; anything else ("GPIO17",
// "P1_11") is looked up in the periph registry.
func OpenPin(name string) (Line, error) {
	if chip, offset, ok := parseCdevName(name); ok {
		return openCdev(name, chip, offset)
	}

	if err := initHost(); err != nil {
		return nil, err
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("hw: gpio %s not found", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("hw: gpio %s Out failed: %w", name, err)
	}
	return &pinLine{pin: p}, nil
}

func openCdev(name, chipName string, offset int) (Line, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("hw: open %s: %w", chipName, err)
	}
	// Requested lines keep their own file descriptor.
	defer chip.Close()

	line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("hw: request %s: %w", name, err)
	}
	return &cdevLine{name: name, line: line}, nil
}

func parseCdevName(name string) (string, int, bool) {
	chip, off, found := strings.Cut(name, ":")
	if !found || !strings.HasPrefix(chip, "gpiochip") {
		return "", 0, false
	}
	n, err := strconv.Atoi(off)
	if err != nil || n < 0 {
		return "", 0, false
	}
	return chip, n, true
}
