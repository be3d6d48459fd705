package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"panelseq/internal/config"
	"panelseq/internal/hw"
	appLog "panelseq/internal/log"
	"panelseq/internal/panel"
	"panelseq/internal/profiles"

	"github.com/spf13/cobra"
)

func newOnceCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run one prepare/enable/disable/unprepare cycle and exit",
		Long: `Runs the full power-on sequence, then the full power-off sequence.
Useful for bringing up new wiring; combine with --sim to dry-run a profile.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runOnce(*flags)
		},
	}
}

// runOnce runs one full lifecycle and fails unless it was clean.
func runOnce(flags flagConfig) error {
	a, err := setup(flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ctl.Wake(); err != nil {
		return fmt.Errorf("wake (%s): %w", panel.CodeOf(err), err)
	}
	if err := a.ctl.Sleep(); err != nil {
		return fmt.Errorf("teardown reported errors: %w", err)
	}
	appLog.Info("cycle complete", "panel", a.profile.Name)
	return nil
}

func newCheckCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config and wiring without touching hardware",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig(*flags)
			if err != nil {
				return err
			}
			p, err := conf.PanelProfile()
			if err != nil {
				return err
			}
			if _, err := panel.ParseBacklightPolicy(conf.BacklightPolicy); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "panel\t%s (%s)\n", p.Name, p.Compatible)
			fmt.Fprintf(tw, "mode\t%s@%d\n", p.Mode.Name(), p.Mode.VRefresh)
			for _, r := range p.Rails {
				fmt.Fprintf(tw, "rail %s\t%s\n", r.Name, describeSupply(conf.Wiring.Rails[r.Name]))
			}
			fmt.Fprintf(tw, "reset\t%s\n", orNone(conf.Wiring.Reset))
			fmt.Fprintf(tw, "spi\t%s dc=%s\n", orDefault(conf.Wiring.SPI.Port), orNone(conf.Wiring.SPI.DC))
			fmt.Fprintf(tw, "backlight\t%s\n", orNone(conf.Wiring.Backlight.Sysfs+conf.Wiring.Backlight.Pin))
			if err := tw.Flush(); err != nil {
				return err
			}

			if missing := hw.Unwired(conf.Wiring, p); len(missing) > 0 {
				return errors.New("rails without wiring: " + strings.Join(missing, ", "))
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
}

func describeSupply(sc config.SupplyConfig) string {
	switch {
	case sc.I2C != nil:
		return fmt.Sprintf("i2c %s 0x%02x reg 0x%02x bit %d", orDefault(sc.I2C.Bus), sc.I2C.Addr, sc.I2C.Reg, sc.I2C.Bit)
	case sc.Pin != "" && sc.ActiveLow:
		return sc.Pin + " (active low)"
	case sc.Pin != "":
		return sc.Pin
	default:
		return "-"
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orDefault(s string) string {
	if s == "" {
		return "default"
	}
	return s
}

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in panel models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "COMPATIBLE\tNAME\tMODE\tLANES\tRAILS")
			for _, c := range profiles.Compatibles() {
				p, err := profiles.Lookup(c)
				if err != nil {
					return err
				}
				rails := make([]string, 0, len(p.Rails))
				for _, r := range p.Rails {
					rails = append(rails, r.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s@%d\t%d\t%s\n",
					p.Compatible, p.Name, p.Mode.Name(), p.Mode.VRefresh, p.Link.Lanes, strings.Join(rails, ","))
			}
			return tw.Flush()
		},
	}
}
