package panel

import (
	"fmt"
	"slices"
	"time"
)

// CommandChannel delivers DCS commands to the panel controller. Send is
// synchronous and each call is one atomic transmission.
type CommandChannel interface {
	Send(cmd byte, payload []byte) error
}

// StatusReader is implemented by channels that can read registers back.
type StatusReader interface {
	Read(cmd byte, buf []byte) error
}

// Standard MIPI DCS commands used by the built-in profiles.
const (
	DCSGetPowerMode  byte = 0x0A
	DCSEnterSleep    byte = 0x10
	DCSExitSleep     byte = 0x11
	DCSSetDisplayOff byte = 0x28
	DCSSetDisplayOn  byte = 0x29
)

// Command is one script entry. Delay is waited after a successful send.
type Command struct {
	Cmd     byte
	Payload []byte
	Delay   time.Duration
}

func (c Command) String() string {
	if len(c.Payload) == 0 {
		return fmt.Sprintf("0x%02X", c.Cmd)
	}
	return fmt.Sprintf("0x%02X % X", c.Cmd, c.Payload)
}

// Script is an ordered command list. Entries are sent in order, once each;
// duplicates are legitimate and are not collapsed.
type Script []Command

func (s Script) clone() Script {
	if s == nil {
		return nil
	}
	out := make(Script, len(s))
	for i, c := range s {
		c.Payload = slices.Clone(c.Payload)
		out[i] = c
	}
	return out
}

// run sends every entry in order and stops at the first failure, returning its
// 1-based index. Already sent entries are not reverted.
func (s Script) run(ch CommandChannel, clk Clock) (int, error) {
	for i, c := range s {
		if err := ch.Send(c.Cmd, c.Payload); err != nil {
			return i + 1, err
		}
		wait(clk, c.Delay)
	}
	return 0, nil
}
