package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"panelseq/internal/events"
	appLog "panelseq/internal/log"
	"panelseq/internal/panel"
	"panelseq/internal/schedule"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func newConsoleCmd(flags *flagConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Step the panel lifecycle by hand from an interactive prompt",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := setup(*flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return runConsole(a)
		},
	}
}

func runConsole(a *app) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "panel> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("status"),
			readline.PcItem("modes"),
			readline.PcItem("prepare"),
			readline.PcItem("enable"),
			readline.PcItem("disable"),
			readline.PcItem("unprepare"),
			readline.PcItem("wake"),
			readline.PcItem("sleep"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Keep log lines from tearing the prompt.
	appLog.SetOutput(rl.Stderr())

	c := &console{ctl: a.ctl, out: rl.Stdout()}
	defer a.bus.Subscribe(c.printTransition)()

	c.printHelp()
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			// EOF
			return nil
		}
		if c.exec(line) {
			return nil
		}
	}
}

// console interprets one command line at a time against a Controller.
type console struct {
	ctl *schedule.Controller
	out io.Writer
}

// exec runs one line and reports whether the console should exit.
func (c *console) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "help", "?":
		c.printHelp()
	case "status", "s":
		c.printStatus()
	case "modes", "m":
		c.printModes()
	case "prepare", "enable", "disable", "unprepare":
		c.report(cmd, c.ctl.Do(panel.Op(cmd)))
	case "wake", "w":
		c.report("wake", c.ctl.Wake())
	case "sleep":
		c.report("sleep", c.ctl.Sleep())
	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *console) report(what string, err error) {
	st := c.ctl.Status().State
	if err != nil {
		fmt.Fprintf(c.out, "%s: %v [%s] (state %s)\n", what, err, panel.CodeOf(err), st)
		return
	}
	fmt.Fprintf(c.out, "%s: ok (state %s)\n", what, st)
}

func (c *console) printStatus() {
	st := c.ctl.Status()
	fmt.Fprintf(c.out, "panel:  %s (%s)\n", st.Profile.Name, st.Profile.Compatible)
	fmt.Fprintf(c.out, "state:  %s\n", st.State)
	if st.Diagnostics != nil {
		fmt.Fprintf(c.out, "diag:   %v\n", st.Diagnostics)
	}
}

func (c *console) printModes() {
	for _, m := range c.ctl.Status().Modes {
		pref := ""
		if m.Preferred() {
			pref = " preferred"
		}
		fmt.Fprintf(c.out, "%s@%d %v %dx%dmm%s\n", m.Name, m.VRefresh, m.Clock, m.WidthMM, m.HeightMM, pref)
	}
}

func (c *console) printTransition(e events.TransitionEvent) {
	id := e.ID
	if len(id) > 8 {
		id = id[:8]
	}
	fmt.Fprintf(c.out, "[%s] %s %s -> %s %s\n", id, e.Op, e.From, e.To, e.Result())
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, `
Panel Commands:
  status             - Show panel state and recorded diagnostics
  modes              - List display modes
  prepare            - Power rails, reset and run the init script
  enable             - Turn the backlight on
  disable            - Turn the backlight off
  unprepare          - Run the sleep script and cut power
  wake               - prepare + enable
  sleep              - disable + unprepare
  help               - Show this help
  quit               - Put the panel to sleep and exit`)
}
