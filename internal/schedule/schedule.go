package schedule

import (
	"context"
	"fmt"
	"time"

	"panelseq/internal/config"
	"panelseq/internal/events"
	appLog "panelseq/internal/log"

	"github.com/robfig/cron/v3"
)

// Scheduler blanks and wakes the panel on cron expressions.
type Scheduler struct {
	cron *cron.Cron
	ctl  *Controller
	bus  *events.Bus
	now  func() time.Time
}

// New registers the sleep and wake jobs from cfg. Empty expressions are
// skipped. bus may be nil.
func New(cfg config.ScheduleConfig, ctl *Controller, bus *events.Bus) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		ctl:  ctl,
		bus:  bus,
		now:  time.Now,
	}
	if cfg.Sleep != "" {
		if _, err := s.cron.AddFunc(cfg.Sleep, s.sleep); err != nil {
			return nil, fmt.Errorf("schedule: sleep %q: %w", cfg.Sleep, err)
		}
	}
	if cfg.Wake != "" {
		if _, err := s.cron.AddFunc(cfg.Wake, s.wake); err != nil {
			return nil, fmt.Errorf("schedule: wake %q: %w", cfg.Wake, err)
		}
	}
	return s, nil
}

// Jobs returns how many jobs are registered.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	if s.Jobs() == 0 {
		return
	}
	appLog.Info("panel schedule started", "jobs", s.Jobs())
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) sleep() {
	appLog.Info("scheduled sleep")
	s.report("sleep", s.ctl.Sleep())
}

func (s *Scheduler) wake() {
	appLog.Info("scheduled wake")
	s.report("wake", s.ctl.Wake())
}

func (s *Scheduler) report(action string, err error) {
	ev := events.NewScheduleEvent(action, err, s.now())
	if err != nil {
		appLog.Error("scheduled "+action+" failed", err, "event", ev.ID)
	}
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}
