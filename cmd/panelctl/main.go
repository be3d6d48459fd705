package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"panelseq/internal/config"
	"panelseq/internal/events"
	"panelseq/internal/hw"
	appLog "panelseq/internal/log"
	"panelseq/internal/metrics"
	"panelseq/internal/panel"
	"panelseq/internal/schedule"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	version           = "0.1.0"
	defaultConfigPath = "/etc/panelctl/config.yaml"
)

// flagConfig holds CLI flag values shared by all subcommands.
type flagConfig struct {
	configPath string
	listen     string
	logLevel   string
	sim        bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("panelctl failed", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &flagConfig{}

	root := &cobra.Command{
		Use:           "panelctl",
		Short:         "Power, reset and initialise a DSI panel and keep it on a schedule",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *flags)
		},
	}
	addCommonFlags(root.PersistentFlags(), flags)

	root.AddCommand(
		newServeCmd(flags),
		newOnceCmd(flags),
		newCheckCmd(flags),
		newProfilesCmd(),
		newConsoleCmd(flags),
	)
	return root
}

func addCommonFlags(fs *pflag.FlagSet, flags *flagConfig) {
	fs.StringVarP(&flags.configPath, "config", "c", defaultConfigPath, "Path to config file")
	fs.StringVar(&flags.listen, "listen", "", "HTTP listen address (overrides config if set)")
	fs.StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error (overrides config if set)")
	fs.BoolVar(&flags.sim, "sim", false, "Simulate the panel hardware; nothing is driven")
}

// loadConfig reads the config file and applies flag overrides and the log
// level.
func loadConfig(flags flagConfig) (*config.Config, error) {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", flags.configPath, err)
	}

	// CLI flags override the config file when set.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	level, err := appLog.ParseLevel(conf.LogLevel)
	if err != nil {
		return nil, err
	}
	appLog.SetLevel(level)
	return conf, nil
}

// app is one bound panel with its event plumbing.
type app struct {
	conf    *config.Config
	profile *panel.Profile
	bus     *events.Bus
	ctl     *schedule.Controller

	closer io.Closer
	detach func()
}

func setup(flags flagConfig) (*app, error) {
	conf, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	profile, err := conf.PanelProfile()
	if err != nil {
		return nil, fmt.Errorf("resolve panel profile %q: %w", conf.Compatible, err)
	}
	policy, err := panel.ParseBacklightPolicy(conf.BacklightPolicy)
	if err != nil {
		return nil, err
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"panel", profile.Name,
		"compatible", profile.Compatible,
		"mode", profile.Mode.Name(),
		"backlight_policy", policy,
		"sleep", conf.Schedule.Sleep,
		"wake", conf.Schedule.Wake,
		"sim", flags.sim,
	)

	res, closer, err := bindResources(conf, profile, flags.sim)
	if err != nil {
		return nil, fmt.Errorf("bind panel hardware: %w", err)
	}

	bus := events.New()
	detach := metrics.Attach(bus)

	p, err := panel.New(profile, res, &panel.Opts{
		BacklightPolicy: policy,
		Logger:          appLog.With("panel", profile.Name),
		Observer: func(t panel.Transition) {
			bus.Publish(events.NewTransitionEvent(profile.Name, t, time.Now()))
		},
	})
	if err != nil {
		detach()
		_ = closer.Close()
		return nil, fmt.Errorf("create panel: %w", err)
	}

	return &app{
		conf:    conf,
		profile: profile,
		bus:     bus,
		ctl:     schedule.NewController(p),
		closer:  closer,
		detach:  detach,
	}, nil
}

// Close puts the panel to sleep, drops its metric series and releases the
// hardware.
func (a *app) Close() {
	if err := a.ctl.Sleep(); err != nil {
		appLog.Warn("panel teardown reported errors", "err", err)
	}
	a.detach()
	metrics.DeletePanel(a.profile.Name)
	if err := a.closer.Close(); err != nil {
		appLog.Error("failed to release hardware", err)
	}
	appLog.Info("panel released", "state", a.ctl.Status().State)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func bindResources(conf *config.Config, profile *panel.Profile, sim bool) (panel.Resources, io.Closer, error) {
	if sim {
		return hw.Simulated(profile), nopCloser{}, nil
	}
	if missing := hw.Unwired(conf.Wiring, profile); len(missing) > 0 {
		appLog.Warn("profile rails without wiring", "rails", missing)
	}
	return hw.Bind(conf.Wiring, profile)
}
