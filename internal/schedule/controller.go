// Package schedule serialises lifecycle calls on one panel and drives them
// from cron expressions.
package schedule

import (
	"fmt"
	"sync"

	"panelseq/internal/panel"
)

// Controller is the single entry point for lifecycle calls on one panel. A
// panel.Panel is not safe for concurrent use; the web API, the cron jobs and
// signal handling all go through the same Controller.
type Controller struct {
	mu sync.Mutex
	p  *panel.Panel
}

func NewController(p *panel.Panel) *Controller {
	return &Controller{p: p}
}

// Do runs one lifecycle operation.
func (c *Controller) Do(op panel.Op) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.do(op)
}

func (c *Controller) do(op panel.Op) error {
	switch op {
	case panel.OpPrepare:
		return c.p.Prepare()
	case panel.OpEnable:
		return c.p.Enable()
	case panel.OpDisable:
		return c.p.Disable()
	case panel.OpUnprepare:
		return c.p.Unprepare()
	default:
		return fmt.Errorf("schedule: unknown op %q", op)
	}
}

// Wake prepares and enables the panel.
func (c *Controller) Wake() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.p.Prepare(); err != nil {
		return err
	}
	return c.p.Enable()
}

// Sleep disables and unprepares the panel. It always ends in Off; the
// returned error carries what the teardown recorded.
func (c *Controller) Sleep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.p.Shutdown()
}

// Status is a consistent snapshot of the panel.
type Status struct {
	State       panel.State
	Profile     *panel.Profile
	Modes       []panel.ModeInfo
	Diagnostics error
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		State:       c.p.State(),
		Profile:     c.p.Profile(),
		Modes:       c.p.Modes(),
		Diagnostics: c.p.Diagnostics(),
	}
}
