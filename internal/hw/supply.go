package hw

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// GPIOSupply switches a rail through a load switch enable pin.
type GPIOSupply struct {
	line      Line
	activeLow bool
}

// NewGPIOSupply returns a supply that drives line high to enable, or low when
// activeLow is set.
func NewGPIOSupply(line Line, activeLow bool) *GPIOSupply {
	return &GPIOSupply{line: line, activeLow: activeLow}
}

func (s *GPIOSupply) Enable() error  { return s.set(true) }
func (s *GPIOSupply) Disable() error { return s.set(false) }

func (s *GPIOSupply) set(on bool) error {
	if err := s.line.Set(on != s.activeLow); err != nil {
		return fmt.Errorf("hw: gpio supply: %w", err)
	}
	return nil
}

// I2CSupply switches a PMIC regulator by setting or clearing one enable bit
// with a read-modify-write of its control register.
type I2CSupply struct {
	dev *i2c.Dev
	reg byte
	bit uint8
}

// NewI2CSupply addresses bit of reg on the device at addr.
func NewI2CSupply(bus i2c.Bus, addr uint16, reg byte, bit uint8) (*I2CSupply, error) {
	if bit > 7 {
		return nil, fmt.Errorf("hw: i2c supply: bit %d out of range", bit)
	}
	return &I2CSupply{dev: &i2c.Dev{Bus: bus, Addr: addr}, reg: reg, bit: bit}, nil
}

func (s *I2CSupply) Enable() error  { return s.update(true) }
func (s *I2CSupply) Disable() error { return s.update(false) }

func (s *I2CSupply) update(on bool) error {
	v, err := s.readReg()
	if err != nil {
		return fmt.Errorf("hw: i2c supply 0x%02x reg 0x%02x read: %w", s.dev.Addr, s.reg, err)
	}
	mask := byte(1) << s.bit
	if on {
		v |= mask
	} else {
		v &^= mask
	}
	if err := s.dev.Tx([]byte{s.reg, v}, nil); err != nil {
		return fmt.Errorf("hw: i2c supply 0x%02x reg 0x%02x write: %w", s.dev.Addr, s.reg, err)
	}
	return nil
}

func (s *I2CSupply) readReg() (byte, error) {
	buf := []byte{0}
	if err := s.dev.Tx([]byte{s.reg}, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}
