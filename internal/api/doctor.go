package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

type DoctorReport struct {
	Checks []DoctorCheck `json:"checks"`
}

// RunDoctor checks that the API is reachable with the configured session and,
// when teamID is set, that the session can see that team. Checks run
// concurrently and each gets its own timeout.
func RunDoctor(ctx context.Context, client API, teamID string, timeout time.Duration) DoctorReport {
	checks := []func(context.Context) DoctorCheck{
		func(ctx context.Context) DoctorCheck { return checkAccounts(ctx, client) },
	}
	if strings.TrimSpace(teamID) != "" {
		checks = append(checks,
			func(ctx context.Context) DoctorCheck { return checkCurrentAccount(ctx, client, teamID) },
			func(ctx context.Context) DoctorCheck { return checkSubscription(ctx, client, teamID) },
		)
	} else {
		checks = append(checks, func(context.Context) DoctorCheck {
			return DoctorCheck{Name: "team", OK: false, Details: "no team id configured (set team_id or --team)"}
		})
	}

	results := make([]DoctorCheck, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()
			results[i] = check(cctx)
			return nil
		})
	}
	_ = g.Wait()
	return DoctorReport{Checks: results}
}

func (r DoctorReport) Healthy() bool {
	if len(r.Checks) == 0 {
		return false
	}
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func checkAccounts(ctx context.Context, client API) DoctorCheck {
	accounts, err := client.GetAccounts(ctx)
	if err != nil {
		return DoctorCheck{Name: "accounts", OK: false, Details: err.Error()}
	}
	names := make([]string, 0, len(accounts))
	for _, a := range accounts {
		names = append(names, a.Name)
	}
	return DoctorCheck{
		Name:    "accounts",
		OK:      true,
		Details: fmt.Sprintf("%d accessible [%s]", len(accounts), strings.Join(names, ", ")),
	}
}

func checkCurrentAccount(ctx context.Context, client API, teamID string) DoctorCheck {
	current, err := client.GetCurrentAccount(ctx, teamID)
	if err != nil {
		return DoctorCheck{Name: "current account", OK: false, Details: err.Error()}
	}
	return DoctorCheck{
		Name:    "current account",
		OK:      true,
		Details: fmt.Sprintf("org=%s user=%s", current.Org.Name, current.User.Name),
	}
}

func checkSubscription(ctx context.Context, client API, teamID string) DoctorCheck {
	info, err := client.GetSubscriptionInfo(ctx, teamID)
	if err != nil {
		return DoctorCheck{Name: "subscription", OK: false, Details: err.Error()}
	}
	return DoctorCheck{Name: "subscription", OK: true, Details: info.SubscriptionType()}
}
