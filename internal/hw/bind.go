package hw

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"panelseq/internal/config"
	"panelseq/internal/panel"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// closers releases everything Bind opened, last opened first.
type closers []io.Closer

func (cs closers) Close() error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Bind opens the hardware named in w for profile p. Rails the profile does not
// declare are ignored; rails it declares but w does not wire are left out so
// panel.New reports them as missing. On error everything opened so far is
// released.
func Bind(w config.WiringConfig, p *panel.Profile) (res panel.Resources, closer io.Closer, err error) {
	var opened closers
	defer func() {
		if err != nil {
			_ = opened.Close()
		}
	}()

	res.Supplies = make(map[string]panel.Supply, len(p.Rails))
	for _, r := range p.Rails {
		sc, ok := w.Rails[r.Name]
		if !ok {
			continue
		}
		s, c, err := openSupply(r.Name, sc)
		if err != nil {
			return panel.Resources{}, nil, err
		}
		opened = append(opened, c)
		res.Supplies[r.Name] = s
	}

	if w.Reset != "" {
		line, err := OpenPin(w.Reset)
		if err != nil {
			return panel.Resources{}, nil, fmt.Errorf("hw: reset: %w", err)
		}
		opened = append(opened, line)
		res.Reset = NewGPIOResetLine(line, w.Reset)
	}

	ch, c, err := openSPI(w.SPI)
	if err != nil {
		return panel.Resources{}, nil, err
	}
	opened = append(opened, c...)
	res.Channel = ch

	switch {
	case w.Backlight.Sysfs != "":
		bl, err := NewSysfsBacklight(w.Backlight.SysfsRoot, w.Backlight.Sysfs)
		if err != nil {
			return panel.Resources{}, nil, err
		}
		res.Backlight = bl
	case w.Backlight.Pin != "":
		line, err := OpenPin(w.Backlight.Pin)
		if err != nil {
			return panel.Resources{}, nil, fmt.Errorf("hw: backlight: %w", err)
		}
		opened = append(opened, line)
		res.Backlight = NewGPIOBacklight(line)
	}

	return res, opened, nil
}

func openSupply(name string, sc config.SupplyConfig) (panel.Supply, io.Closer, error) {
	switch {
	case sc.I2C != nil:
		if err := initHost(); err != nil {
			return nil, nil, err
		}
		bus, err := i2creg.Open(sc.I2C.Bus)
		if err != nil {
			return nil, nil, fmt.Errorf("hw: rail %s: open i2c %q: %w", name, sc.I2C.Bus, err)
		}
		s, err := NewI2CSupply(bus, sc.I2C.Addr, sc.I2C.Reg, sc.I2C.Bit)
		if err != nil {
			bus.Close()
			return nil, nil, fmt.Errorf("hw: rail %s: %w", name, err)
		}
		return s, bus, nil
	case sc.Pin != "":
		line, err := OpenPin(sc.Pin)
		if err != nil {
			return nil, nil, fmt.Errorf("hw: rail %s: %w", name, err)
		}
		return NewGPIOSupply(line, sc.ActiveLow), line, nil
	default:
		return nil, nil, fmt.Errorf("hw: rail %s: neither pin nor i2c set", name)
	}
}

func openSPI(sc config.SPIConfig) (*SPIChannel, []io.Closer, error) {
	if sc.DC == "" {
		return nil, nil, errors.New("hw: spi: dc pin not set")
	}
	if err := initHost(); err != nil {
		return nil, nil, err
	}
	port, err := spireg.Open(sc.Port)
	if err != nil {
		return nil, nil, fmt.Errorf("hw: spi: open %q: %w", sc.Port, err)
	}
	c, err := port.Connect(physic.Frequency(sc.MaxHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("hw: spi: connect: %w", err)
	}
	dc, err := OpenPin(sc.DC)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("hw: spi dc: %w", err)
	}
	return NewSPIChannel(c, dc), []io.Closer{port, dc}, nil
}

// Unwired lists profile rails that w leaves unconnected, sorted.
func Unwired(w config.WiringConfig, p *panel.Profile) []string {
	var out []string
	for _, r := range p.Rails {
		if _, ok := w.Rails[r.Name]; !ok {
			out = append(out, r.Name)
		}
	}
	sort.Strings(out)
	return out
}
