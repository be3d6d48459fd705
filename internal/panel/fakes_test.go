package panel

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// trace records every hardware-visible action in order.
type trace struct {
	events []string
	slept  []time.Duration
}

func (t *trace) add(format string, a ...any) {
	t.events = append(t.events, fmt.Sprintf(format, a...))
}

func (t *trace) Sleep(d time.Duration) {
	t.slept = append(t.slept, d)
	t.add("sleep %s", d)
}

func (t *trace) totalSleep() time.Duration {
	var d time.Duration
	for _, s := range t.slept {
		d += s
	}
	return d
}

type fakeSupply struct {
	name       string
	tr         *trace
	failEnable error
	on         bool
}

func (s *fakeSupply) Enable() error {
	if s.failEnable != nil {
		s.tr.add("enable %s failed", s.name)
		return s.failEnable
	}
	s.on = true
	s.tr.add("enable %s", s.name)
	return nil
}

func (s *fakeSupply) Disable() error {
	s.on = false
	s.tr.add("disable %s", s.name)
	return nil
}

type fakeReset struct {
	tr   *trace
	high bool
}

func (r *fakeReset) SetLevel(high bool) {
	r.high = high
	if high {
		r.tr.add("reset high")
	} else {
		r.tr.add("reset low")
	}
}

type fakeChannel struct {
	tr     *trace
	sent   []byte
	failAt int // 1-based Send call that fails; 0 never
	calls  int
}

func (c *fakeChannel) Send(cmd byte, payload []byte) error {
	c.calls++
	if c.failAt != 0 && c.calls == c.failAt {
		c.tr.add("send 0x%02X failed", cmd)
		return errors.New("nack")
	}
	c.sent = append(c.sent, cmd)
	c.tr.add("send 0x%02X", cmd)
	return nil
}

type readingChannel struct {
	fakeChannel
	reads int
}

func (c *readingChannel) Read(cmd byte, buf []byte) error {
	c.reads++
	buf[0] = 0x9C
	return nil
}

type fakeBacklight struct {
	tr      *trace
	failOn  error
	failOff error
	on      bool
}

func (b *fakeBacklight) Enable() error {
	if b.failOn != nil {
		b.tr.add("backlight on failed")
		return b.failOn
	}
	b.on = true
	b.tr.add("backlight on")
	return nil
}

func (b *fakeBacklight) Disable() error {
	b.on = false
	b.tr.add("backlight off")
	return b.failOff
}

// testProfile mirrors the Feiyang wiring with a 7 entry init script.
func testProfile() *Profile {
	script := make(Script, 0, 7)
	for i := 0; i < 7; i++ {
		script = append(script, Command{Cmd: byte(0x80 + i), Payload: []byte{byte(i)}})
	}
	return &Profile{
		Name:       "test",
		Compatible: "test,panel",
		Rails: []Rail{
			{Name: "dvdd", Settle: 100 * time.Millisecond},
			{Name: "avdd", Settle: 0},
		},
		Reset: Pattern{
			{High: true, Hold: 50 * time.Millisecond},
			{High: false, Hold: 20 * time.Millisecond},
			{High: true, Hold: 200 * time.Millisecond},
		},
		Init:       script,
		BootSettle: 120 * time.Millisecond,
		Mode: Mode{
			Clock:    55 * physic.MegaHertz,
			HDisplay: 1024, HSyncStart: 1420, HSyncEnd: 1440, HTotal: 1540,
			VDisplay: 600, VSyncStart: 612, VSyncEnd: 614, VTotal: 635,
			VRefresh: 60, WidthMM: 62, HeightMM: 110,
		},
	}
}

type rig struct {
	tr        *trace
	dvdd      *fakeSupply
	avdd      *fakeSupply
	reset     *fakeReset
	ch        *fakeChannel
	backlight *fakeBacklight
	seen      []Transition
}

func newRig() *rig {
	tr := &trace{}
	return &rig{
		tr:        tr,
		dvdd:      &fakeSupply{name: "dvdd", tr: tr},
		avdd:      &fakeSupply{name: "avdd", tr: tr},
		reset:     &fakeReset{tr: tr},
		ch:        &fakeChannel{tr: tr},
		backlight: &fakeBacklight{tr: tr},
	}
}

func (r *rig) resources() Resources {
	return Resources{
		Supplies:  map[string]Supply{"dvdd": r.dvdd, "avdd": r.avdd},
		Reset:     r.reset,
		Channel:   r.ch,
		Backlight: r.backlight,
	}
}

func (r *rig) opts() *Opts {
	return &Opts{Clock: r.tr, Observer: func(t Transition) { r.seen = append(r.seen, t) }}
}
