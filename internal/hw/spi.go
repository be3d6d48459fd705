package hw

import (
	"fmt"

	"panelseq/internal/panel"

	"periph.io/x/conn/v3"
)

// SPIChannel sends DCS commands over a 4-wire serial bus: the command byte is
// clocked out with D/C low, the parameters with D/C high. Each Send is one
// chip-select framed transaction per phase.
type SPIChannel struct {
	conn conn.Conn
	dc   Line
}

func NewSPIChannel(c conn.Conn, dc Line) *SPIChannel {
	return &SPIChannel{conn: c, dc: dc}
}

// Send implements panel.CommandChannel. D/C must change level between the
// command byte and its parameters, so a command with a payload takes two
// transfers. If the payload transfer fails the command byte has already gone
// out; the error is still a transmission error for cmd.
func (s *SPIChannel) Send(cmd byte, payload []byte) error {
	if err := s.command(cmd); err != nil {
		return panel.Transmission(cmd, err)
	}
	if len(payload) == 0 {
		return nil
	}
	if err := s.dc.Set(true); err != nil {
		return panel.Transmission(cmd, fmt.Errorf("dc high: %w", err))
	}
	if err := s.conn.Tx(payload, nil); err != nil {
		return panel.Transmission(cmd, err)
	}
	return nil
}

// Read implements panel.StatusReader: cmd is sent, then len(buf) bytes are
// clocked in with D/C high.
func (s *SPIChannel) Read(cmd byte, buf []byte) error {
	if err := s.command(cmd); err != nil {
		return panel.Transmission(cmd, err)
	}
	if err := s.dc.Set(true); err != nil {
		return panel.Transmission(cmd, fmt.Errorf("dc high: %w", err))
	}
	if err := s.conn.Tx(make([]byte, len(buf)), buf); err != nil {
		return panel.Transmission(cmd, err)
	}
	return nil
}

func (s *SPIChannel) command(cmd byte) error {
	if err := s.dc.Set(false); err != nil {
		return fmt.Errorf("dc low: %w", err)
	}
	return s.conn.Tx([]byte{cmd}, nil)
}
