package panel

import "time"

// Clock suspends the calling goroutine. Every datasheet wait in the lifecycle
// goes through it so tests can account for waits without sleeping.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

// RealClock blocks with time.Sleep.
var RealClock Clock = realClock{}

// wait skips zero waits so only real datasheet delays reach the clock.
func wait(clk Clock, d time.Duration) {
	if d > 0 {
		clk.Sleep(d)
	}
}
