package cli

import (
	"errors"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
	"github.com/olliecrow/kodiak_dashboard/internal/config"
)

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with GitHub",
		Long: `Sign in with GitHub in two steps.

  kodiak-dashboard login url
      prints the GitHub authorize URL and the client state to keep.
  kodiak-dashboard login complete --code ... --server-state ... --client-state ...
      exchanges the code from the redirect and saves the session cookie to
      the config file.`,
		Args: noArgs,
	}
	cmd.AddCommand(newLoginURLCmd(a), newLoginCompleteCmd(a))
	return cmd
}

func newLoginURLCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the GitHub authorize URL",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(a.cfg.OAuth.ClientID) == "" {
				return usageErrorf("oauth client id is not configured (set oauth.client_id or KODIAK_OAUTH_CLIENT_ID)")
			}
			req, err := api.NewLoginRequest(a.cfg.OAuth.ClientID, a.cfg.OAuth.RedirectURL)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), req)
			}
			cmd.Printf("open: %s\n", req.URL)
			cmd.Printf("client state: %s\n", req.ClientState)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newLoginCompleteCmd(a *app) *cobra.Command {
	var args api.LoginArgs
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Exchange the OAuth code for a session",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var missing []string
			for name, v := range map[string]string{
				"--code":         args.Code,
				"--server-state": args.ServerState,
				"--client-state": args.ClientState,
			} {
				if strings.TrimSpace(v) == "" {
					missing = append(missing, name)
				}
			}
			if len(missing) > 0 {
				slices.Sort(missing)
				return usageErrorf("missing required flags: %s", strings.Join(missing, ", "))
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			if err := client.LoginUser(cmd.Context(), args); err != nil {
				return err
			}
			session := client.Session()
			if session == "" {
				return errors.New("login succeeded but no session cookie was issued")
			}
			if printOnly {
				cmd.Println(session)
				return nil
			}
			if err := saveSession(a.cfg.Path(), session); err != nil {
				return err
			}
			cmd.Printf("logged in; session saved to %s\n", a.cfg.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&args.Code, "code", "", "code from the GitHub redirect")
	cmd.Flags().StringVar(&args.ServerState, "server-state", "", "state from the GitHub redirect")
	cmd.Flags().StringVar(&args.ClientState, "client-state", "", "client state printed by `login url`")
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the session instead of saving it")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove it from the config file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			if err := client.LogoutUser(cmd.Context()); err != nil {
				return err
			}
			if err := saveSession(a.cfg.Path(), ""); err != nil {
				return err
			}
			cmd.Println("logged out")
			return nil
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the account list from GitHub",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			if err := client.SyncAccounts(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("accounts synced")
			return nil
		},
	}
}

// saveSession updates only the session in the config file so environment
// overrides never end up persisted.
func saveSession(path, session string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if cfg.API.Session == session {
		return nil
	}
	cfg.API.Session = session
	return cfg.Save()
}
