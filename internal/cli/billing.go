package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
)

func newTrialCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Manage the free trial",
		Args:  noArgs,
	}

	var email string
	var asJSON bool
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a trial for the selected account",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(email) == "" {
				return usageErrorf("--email is required")
			}
			teamID, err := a.requireTeam()
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			raw, err := client.StartTrial(cmd.Context(), api.StartTrialArgs{TeamID: teamID, BillingEmail: strings.TrimSpace(email)})
			if err != nil {
				return err
			}
			if asJSON {
				return writeRawJSON(cmd.OutOrStdout(), raw)
			}
			cmd.Printf("trial started for %s\n", teamID)
			return nil
		},
	}
	start.Flags().StringVar(&email, "email", "", "billing email for the trial")
	start.Flags().BoolVar(&asJSON, "json", false, "print the raw response as JSON")
	cmd.AddCommand(start)
	return cmd
}

func newCheckoutCmd(a *app) *cobra.Command {
	var seats int
	var period string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Create a checkout session for a subscription",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if seats <= 0 {
				return usageErrorf("--seats must be > 0")
			}
			planPeriod, err := api.ParsePlanPeriod(strings.TrimSpace(period))
			if err != nil {
				return &usageError{err: err}
			}
			teamID, err := a.requireTeam()
			if err != nil {
				return err
			}
			client, err := a.client()
			if err != nil {
				return err
			}
			session, err := client.StartCheckout(cmd.Context(), api.StartCheckoutArgs{
				TeamID:     teamID,
				SeatCount:  seats,
				PlanPeriod: planPeriod,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), session)
			}
			cmd.Printf("checkout session: %s\n", session.StripeCheckoutSessionID)
			cmd.Printf("publishable key:  %s\n", session.StripePublishableAPIKey)
			return nil
		},
	}
	cmd.Flags().IntVar(&seats, "seats", 1, "number of seat licenses")
	cmd.Flags().StringVar(&period, "period", string(api.PlanMonth), "billing period (month or year)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

type customerFlags struct {
	email, name                             string
	line1, line2, city, state, postal, ctry string
	limitToOwners                           bool
	contactEmails                           string
	asJSON                                  bool
}

var addressFlagNames = []string{"line1", "line2", "city", "state", "postal-code", "country"}

func newCustomerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage billing customer details",
		Args:  noArgs,
	}

	var f customerFlags
	update := &cobra.Command{
		Use:   "update",
		Short: "Update billing customer details; only flags given are sent",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := f.args(cmd)
			if err != nil {
				return err
			}
			teamID, err := a.requireTeam()
			if err != nil {
				return err
			}
			args.TeamID = teamID
			client, err := a.client()
			if err != nil {
				return err
			}
			raw, err := client.UpdateStripeCustomerInfo(cmd.Context(), args)
			if err != nil {
				return err
			}
			if f.asJSON {
				return writeRawJSON(cmd.OutOrStdout(), raw)
			}
			cmd.Println("customer info updated")
			return nil
		},
	}
	update.Flags().StringVar(&f.email, "email", "", "billing email")
	update.Flags().StringVar(&f.name, "name", "", "customer name")
	update.Flags().StringVar(&f.line1, "line1", "", "address line 1")
	update.Flags().StringVar(&f.line2, "line2", "", "address line 2")
	update.Flags().StringVar(&f.city, "city", "", "address city")
	update.Flags().StringVar(&f.state, "state", "", "address state or region")
	update.Flags().StringVar(&f.postal, "postal-code", "", "address postal code")
	update.Flags().StringVar(&f.ctry, "country", "", "address country")
	update.Flags().BoolVar(&f.limitToOwners, "limit-billing-access-to-owners", false, "only organization owners may manage billing")
	update.Flags().StringVar(&f.contactEmails, "contact-emails", "", "comma separated billing contact emails")
	update.Flags().BoolVar(&f.asJSON, "json", false, "print the raw response as JSON")
	cmd.AddCommand(update)
	return cmd
}

// args builds the update from the flags that were set explicitly.
func (f *customerFlags) args(cmd *cobra.Command) (api.UpdateCustomerInfoArgs, error) {
	var out api.UpdateCustomerInfoArgs
	changed := cmd.Flags().Changed
	str := func(name, v string) *string {
		if !changed(name) {
			return nil
		}
		v = strings.TrimSpace(v)
		return &v
	}

	out.Email = str("email", f.email)
	out.Name = str("name", f.name)
	out.ContactEmails = str("contact-emails", f.contactEmails)
	if changed("limit-billing-access-to-owners") {
		v := f.limitToOwners
		out.LimitBillingAccessToOwners = &v
	}
	for _, name := range addressFlagNames {
		if changed(name) {
			out.Address = &api.Address{
				Line1:      strings.TrimSpace(f.line1),
				Line2:      strings.TrimSpace(f.line2),
				City:       strings.TrimSpace(f.city),
				State:      strings.TrimSpace(f.state),
				PostalCode: strings.TrimSpace(f.postal),
				Country:    strings.TrimSpace(f.ctry),
			}
			break
		}
	}

	if out.Email == nil && out.Name == nil && out.ContactEmails == nil &&
		out.LimitBillingAccessToOwners == nil && out.Address == nil {
		return out, usageErrorf("nothing to update; pass at least one field flag")
	}
	return out, nil
}
