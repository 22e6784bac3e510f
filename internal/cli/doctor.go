package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
)

var errUnhealthy = errors.New("doctor found problems")

func newDoctorCmd(a *app) *cobra.Command {
	var asJSON bool
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, session and API reachability",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if timeout <= 0 {
				return usageErrorf("--timeout must be > 0")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report := api.DoctorReport{}
			report.Checks = append(report.Checks, configCheck(a))
			client, err := a.client()
			if err != nil {
				report.Checks = append(report.Checks, api.DoctorCheck{Name: "client", Details: err.Error()})
			} else {
				remote := api.RunDoctor(ctx, client, a.cfg.TeamID, a.cfg.API.Timeout)
				report.Checks = append(report.Checks, remote.Checks...)
			}

			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
					return err
				}
			} else {
				printDoctorHuman(cmd, report)
			}
			if !report.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output doctor report as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "doctor timeout")
	return cmd
}

func configCheck(a *app) api.DoctorCheck {
	details := "api=" + a.cfg.API.BaseURL + " config=" + a.cfg.Path()
	if a.cfg.API.Session == "" {
		return api.DoctorCheck{Name: "session", OK: false, Details: "no session configured (run `kodiak-dashboard login url`); " + details}
	}
	return api.DoctorCheck{Name: "session", OK: true, Details: "session configured; " + details}
}

func printDoctorHuman(cmd *cobra.Command, report api.DoctorReport) {
	cmd.Println("kodiak dashboard doctor")
	cmd.Println()
	for _, c := range report.Checks {
		state := "FAIL"
		if c.OK {
			state = "PASS"
		}
		cmd.Printf("[%s] %s\n", state, c.Name)
		cmd.Printf("  %s\n", c.Details)
	}
}
