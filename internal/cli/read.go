package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
	"github.com/olliecrow/kodiak_dashboard/internal/remotedata"
	"github.com/olliecrow/kodiak_dashboard/internal/tui"
)

func newAccountsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the accounts (teams) the session can access",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.client()
			if err != nil {
				return err
			}
			accounts, err := client.GetAccounts(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), accounts)
			}
			if len(accounts) == 0 {
				cmd.Println("no accounts installed (run `kodiak-dashboard sync` to refresh from GitHub)")
				return nil
			}
			for _, acct := range accounts {
				marker := " "
				if acct.ID == a.cfg.TeamID {
					marker = "*"
				}
				cmd.Printf("%s %-24s %s\n", marker, acct.Name, acct.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newCurrentCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "current",
		Short: "Show the selected account and the signed-in user",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			teamID, err := a.requireTeam()
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			current, err := client.GetCurrentAccount(cmd.Context(), teamID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), current)
			}
			cmd.Printf("org:  %s (%s)\n", current.Org.Name, current.Org.ID)
			cmd.Printf("user: %s (%s)\n", current.User.Name, current.User.ID)
			if len(current.Accounts) > 0 {
				cmd.Println("accounts:")
				for _, acct := range current.Accounts {
					cmd.Printf("  %s (%s)\n", acct.Name, acct.ID)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

// teamView is a one-shot render of a team-scoped page: fetch once, then print
// either JSON or the same view the dashboard shows.
type teamView[T any] struct {
	use     string
	short   string
	fetch   func(api.API) func(context.Context, string) (T, error)
	render  func(remotedata.Data[T], tui.RenderOptions) string
	marshal func(T) ([]byte, error)
}

func (v teamView[T]) command(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   v.use,
		Short: v.short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			teamID, err := a.requireTeam()
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			fetch := v.fetch(client)
			handle := remotedata.Of(cmd.Context(), teamID, func(ctx context.Context) (T, error) {
				return fetch(ctx, teamID)
			})
			data, err := handle.Wait(cmd.Context())
			if err != nil {
				return err
			}

			value, ok := data.Value()
			if asJSON {
				if !ok {
					return data.Err()
				}
				if v.marshal == nil {
					return writeJSON(cmd.OutOrStdout(), value)
				}
				raw, err := v.marshal(value)
				if err != nil {
					return err
				}
				return writeRawJSON(cmd.OutOrStdout(), raw)
			}

			width, isTerminal := outputWidth(cmd.OutOrStdout())
			cmd.Println(v.render(data, tui.RenderOptions{
				Width:   width,
				NoColor: a.cfg.TUI.NoColor || !isTerminal,
			}))
			return data.Err()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newActivityCmd(a *app) *cobra.Command {
	return teamView[api.Activity]{
		use:    "activity",
		short:  "Show pull request and Kodiak activity charts",
		fetch:  func(c api.API) func(context.Context, string) (api.Activity, error) { return c.GetActivity },
		render: tui.RenderActivity,
	}.command(a)
}

func newBillingCmd(a *app) *cobra.Command {
	return teamView[api.UsageBilling]{
		use:    "billing",
		short:  "Show usage and billing",
		fetch:  func(c api.API) func(context.Context, string) (api.UsageBilling, error) { return c.GetUsageBilling },
		render: tui.RenderBilling,
	}.command(a)
}

func newSubscriptionCmd(a *app) *cobra.Command {
	return teamView[api.SubscriptionInfo]{
		use:     "subscription",
		short:   "Show subscription status",
		fetch:   func(c api.API) func(context.Context, string) (api.SubscriptionInfo, error) { return c.GetSubscriptionInfo },
		render:  tui.RenderSubscription,
		marshal: api.MarshalSubscriptionInfo,
	}.command(a)
}
