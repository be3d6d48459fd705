package main

import (
	"context"
	"os/signal"
	"reflect"
	"sync"
	"syscall"

	"panelseq/internal/config"
	"panelseq/internal/events"
	appLog "panelseq/internal/log"
	"panelseq/internal/panel"
	"panelseq/internal/schedule"
	"panelseq/internal/web"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Wake the panel and serve the control API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *flags)
		},
	}
}

func serve(parent context.Context, flags flagConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	if appLog.UseJournal() {
		appLog.Info("logging to the systemd journal")
	}
	appLog.Info("panelctl starting", "version", version)

	a, err := setup(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ctl.Wake(); err != nil {
		// Stay up: the API can retry once the fault is cleared.
		appLog.Error("initial wake failed", err, "code", panel.CodeOf(err))
	}

	live := newLiveSchedule(a.ctl, a.bus)
	if err := live.Apply(a.conf.Schedule); err != nil {
		return err
	}
	defer live.Stop()

	watcher := config.NewWatcher(flags.configPath, 0)
	watcher.OnReload(func(c *config.Config) {
		notify(daemon.SdNotifyReloading)
		defer notify(daemon.SdNotifyReady)
		applyReload(a, flags, c, live)
	})
	if err := watcher.Start(); err != nil {
		appLog.Warn("config reload disabled", "err", err)
	}
	defer func() {
		if err := watcher.Stop(); err != nil {
			appLog.Warn("config watcher stop failed", "err", err)
		}
	}()

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notify(daemon.SdNotifyReady)
	err = web.NewServer(a.conf, a.ctl).Run(ctx)
	notify(daemon.SdNotifyStopping)
	appLog.Info("shutting down")
	return err
}

// applyReload takes over what can change while running. Flag overrides keep
// precedence over the file.
func applyReload(a *app, flags flagConfig, c *config.Config, live *liveSchedule) {
	if flags.logLevel == "" {
		if level, err := appLog.ParseLevel(c.LogLevel); err == nil {
			appLog.SetLevel(level)
		}
	}
	if err := live.Apply(c.Schedule); err != nil {
		appLog.Error("keeping previous schedule", err)
	}
	if c.Compatible != a.conf.Compatible ||
		!reflect.DeepEqual(c.Profile, a.conf.Profile) ||
		!reflect.DeepEqual(c.Wiring, a.conf.Wiring) {
		appLog.Warn("panel model or wiring changed; restart panelctl to apply")
	}
}

func notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		appLog.Warn("sd_notify failed", "state", state, "err", err)
	}
}

// liveSchedule owns the running scheduler and swaps it when the
// configured expressions change.
type liveSchedule struct {
	mu   sync.Mutex
	ctl  *schedule.Controller
	bus  *events.Bus
	cur  *schedule.Scheduler
	want config.ScheduleConfig
}

func newLiveSchedule(ctl *schedule.Controller, bus *events.Bus) *liveSchedule {
	return &liveSchedule{ctl: ctl, bus: bus}
}

// Apply replaces the running scheduler with one built from sc. An invalid
// sc leaves the current scheduler running.
func (l *liveSchedule) Apply(sc config.ScheduleConfig) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur != nil && sc == l.want {
		return nil
	}
	next, err := schedule.New(sc, l.ctl, l.bus)
	if err != nil {
		return err
	}
	if l.cur != nil {
		<-l.cur.Stop().Done()
	}
	l.cur, l.want = next, sc
	next.Start()
	return nil
}

// Jobs reports the job count of the running scheduler.
func (l *liveSchedule) Jobs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == nil {
		return 0
	}
	return l.cur.Jobs()
}

func (l *liveSchedule) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur != nil {
		<-l.cur.Stop().Done()
		l.cur = nil
	}
}
