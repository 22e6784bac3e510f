// Package cli wires the dashboard commands: the interactive TUI plus one-shot
// commands for each Account API operation.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
	"github.com/olliecrow/kodiak_dashboard/internal/config"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks errors caused by how the command was invoked. They exit
// with code 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		if cmd.HasSubCommands() {
			return usageErrorf("unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return usageErrorf("%q accepts no arguments, got %q", cmd.CommandPath(), args[0])
	}
	return nil
}

// app holds what every command needs once flags and config are resolved.
type app struct {
	configPath string
	apiURL     string
	teamID     string
	debug      bool

	cfg    config.Config
	logger zerolog.Logger
	closer io.Closer
}

// quietConsoleAnnotation marks commands that own the terminal, so logs must
// not be written to it.
const quietConsoleAnnotation = "quiet-console"

// Execute runs the root command with args and returns the process exit code.
func Execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(version)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		return exitUsage
	}
	return exitError
}

// NewRootCmd builds the command tree. Running it without a subcommand starts
// the dashboard.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}
	rootTUI := &tuiFlags{}

	cmd := &cobra.Command{
		Use:   "kodiak-dashboard",
		Short: "Kodiak account and billing dashboard",
		Long: `Kodiak account and billing dashboard.

Shows pull request activity, usage, billing and subscription status for the
Kodiak accounts your session can see, either as an interactive terminal user
interface (TUI) or as one-shot commands.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Annotations:   map[string]string{quietConsoleAnnotation: "true"},
		Args:          noArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, a, rootTUI)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/kodiak-dashboard/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Kodiak API base URL")
	cmd.PersistentFlags().StringVar(&a.teamID, "team", "", "team (account) id to show")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	rootTUI.register(cmd)

	cmd.AddCommand(
		newTUICmd(a),
		newAccountsCmd(a),
		newCurrentCmd(a),
		newActivityCmd(a),
		newBillingCmd(a),
		newSubscriptionCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newSyncCmd(a),
		newTrialCmd(a),
		newCheckoutCmd(a),
		newCustomerCmd(a),
		newDoctorCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if v := strings.TrimSpace(a.apiURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(a.teamID); v != "" {
		cfg.TeamID = v
	}
	if a.debug {
		cfg.Logging.Level = zerolog.LevelDebugValue
	}
	if err := cfg.Validate(); err != nil {
		return &usageError{err: fmt.Errorf("invalid configuration: %w", err)}
	}
	a.cfg = cfg

	var console io.Writer = cmd.ErrOrStderr()
	if cmd.Annotations[quietConsoleAnnotation] == "true" {
		console = io.Discard
	}
	logger, closer, err := config.NewLogger(cfg.Logging, console)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logger = logger
	a.closer = closer
	a.logger.Debug().Str("config", cfg.Path()).Str("api_url", cfg.API.BaseURL).Msg("configuration loaded")
	return nil
}

func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

func (a *app) client() (*api.Client, error) {
	return api.NewClient(api.ClientOptions{
		BaseURL: a.cfg.API.BaseURL,
		Session: a.cfg.API.Session,
		Timeout: a.cfg.API.Timeout,
		Logger:  a.logger,
	})
}

func (a *app) requireTeam() (string, error) {
	if a.cfg.TeamID == "" {
		return "", usageErrorf("no team selected (use --team, team_id in config, or KODIAK_TEAM_ID)")
	}
	return a.cfg.TeamID, nil
}

// outputWidth is the terminal width when w is a terminal, else a fixed width.
func outputWidth(w io.Writer) (int, bool) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width, true
		}
		return 100, true
	}
	return 100, false
}
