package cli

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/olliecrow/kodiak_dashboard/internal/tui"
)

type tuiFlags struct {
	interval    time.Duration
	timeout     time.Duration
	noColor     bool
	noAltScreen bool
}

func (f *tuiFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.interval, "interval", 0, "auto-refresh interval (0 disables polling; default from config)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "per-request timeout (default from config)")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable color styling")
	cmd.Flags().BoolVar(&f.noAltScreen, "no-alt-screen", false, "disable alternate screen mode")
}

func newTUICmd(a *app) *cobra.Command {
	flags := &tuiFlags{}
	cmd := &cobra.Command{
		Use:         "tui",
		Short:       "Run the interactive dashboard (default)",
		Args:        noArgs,
		Annotations: map[string]string{quietConsoleAnnotation: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, a, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runTUI(cmd *cobra.Command, a *app, flags *tuiFlags) error {
	if flags.interval < 0 {
		return usageErrorf("--interval must be >= 0")
	}
	if cmd.Flags().Changed("timeout") && flags.timeout <= 0 {
		return usageErrorf("--timeout must be > 0")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("interactive TUI requires a TTY")
	}

	interval := a.cfg.TUI.Interval
	if cmd.Flags().Changed("interval") {
		interval = flags.interval
	}
	timeout := a.cfg.API.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = flags.timeout
	}

	client, err := a.client()
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		API:       client,
		TeamID:    a.cfg.TeamID,
		Interval:  interval,
		Timeout:   timeout,
		NoColor:   a.cfg.TUI.NoColor || flags.noColor,
		AltScreen: a.cfg.TUI.AltScreen && !flags.noAltScreen,
		Logger:    a.logger,
	})
}
