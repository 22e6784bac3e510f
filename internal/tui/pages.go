package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
	"github.com/olliecrow/kodiak_dashboard/internal/remotedata"
)

// renderer turns container state into text. Every method is a pure function
// of its Data argument and renders exactly one of the loading, failure and
// success branches. Raw errors are never shown; they are logged by the model.
type renderer struct {
	styles  styles
	width   int
	spinner string
}

func (r renderer) page(title, body string) string {
	content := lipgloss.JoinVertical(lipgloss.Left, r.styles.accent.Render(title), "", body)
	return r.styles.panel.Width(r.width).Render(content)
}

func (r renderer) loading(text string) string {
	if r.spinner == "" {
		return r.styles.loading.Render(text)
	}
	return r.spinner + " " + r.styles.loading.Render(text)
}

func (r renderer) failure(text string) string {
	return r.styles.error.Render(text)
}

func (r renderer) innerWidth() int {
	return max(8, r.width-horizontalPadding)
}

// horizontalPadding is the panel's left+right padding.
const horizontalPadding = 2

func (r renderer) activityPage(d remotedata.Data[api.Activity]) string {
	body := remotedata.Match(d, remotedata.Cases[api.Activity, string]{
		Loading: func() string { return r.loading("loading activity data...") },
		Failure: func(error) string { return r.failure("failed to load activity data") },
		Success: func(a api.Activity) string {
			width := r.innerWidth()
			return lipgloss.JoinVertical(lipgloss.Left,
				r.styles.accent.Render("Pull Request Activity"),
				chartFromActivity(a.PullRequestActivity).render(r.styles, width),
				"",
				r.styles.accent.Render("Kodiak Activity"),
				chartFromActivity(a.KodiakActivity).render(r.styles, width),
			)
		},
	})
	return r.page("Activity", body)
}

func (r renderer) billingPage(d remotedata.Data[api.UsageBilling]) string {
	body := remotedata.Match(d, remotedata.Cases[api.UsageBilling, string]{
		Loading: func() string { return r.loading("loading usage & billing data...") },
		Failure: func(error) string { return r.failure("failed to load usage & billing data") },
		Success: r.billingBody,
	})
	return r.page("Usage & Billing", body)
}

func (r renderer) billingBody(b api.UsageBilling) string {
	var sections []string
	switch {
	case b.Subscription != nil:
		sections = append(sections, r.subscriptionSection(*b.Subscription))
	case b.Trial != nil:
		sections = append(sections, r.trialSection(*b.Trial))
	default:
		line := r.styles.label.Render("subscription: ") + r.styles.value.Render("none")
		if b.AccountCanSubscribe {
			line += r.styles.dim.Render(" (start a trial or subscribe to enable Kodiak for private repositories)")
		}
		sections = append(sections, line)
	}
	if b.Subscription != nil && b.Trial != nil {
		sections = append(sections, r.trialSection(*b.Trial))
	}
	if b.SubscriptionExemption != nil {
		msg := "this account is exempt from subscription requirements"
		if b.SubscriptionExemption.Message != nil && strings.TrimSpace(*b.SubscriptionExemption.Message) != "" {
			msg = strings.TrimSpace(*b.SubscriptionExemption.Message)
		}
		sections = append(sections, r.styles.label.Render("exemption: ")+r.styles.value.Render(msg))
	}
	sections = append(sections, r.activeUsersSection(b.ActiveUsers))

	for i := range sections {
		lines := strings.Split(sections[i], "\n")
		for j := range lines {
			lines[j] = ansi.Truncate(lines[j], r.innerWidth(), "...")
		}
		sections[i] = strings.Join(lines, "\n")
	}
	return strings.Join(sections, "\n\n")
}

func (r renderer) kv(label, value string) string {
	return r.styles.label.Render(label+": ") + r.styles.value.Render(value)
}

func (r renderer) subscriptionSection(s api.Subscription) string {
	status := r.styles.ok.Render("active")
	switch {
	case s.Expired:
		status = r.styles.bad.Render("expired")
	case s.CancelAt != "":
		status = r.styles.warn.Render("cancels " + s.CancelAt)
	}
	lines := []string{
		r.styles.accent.Render("subscription") + " " + status,
		r.kv("plan", fmt.Sprintf("%s (billed %s)", s.Cost.PlanProductName, intervalText(s.Cost.PlanInterval))),
		r.kv("seats", fmt.Sprint(s.Seats)),
		r.kv("cost", fmt.Sprintf("%s per seat x %d = %s", formatCents(s.Cost.PerSeatCents), s.Seats, formatCents(s.Cost.SubTotalCents))),
	}
	if d := s.Cost.Discount; d != nil {
		lines = append(lines, r.kv("discount", fmt.Sprintf("%s (%s)", formatCents(-d.DiscountCents), d.Name)))
	}
	lines = append(lines,
		r.kv("total", formatCents(s.Cost.TotalCents)+" / "+string(s.Cost.PlanInterval)),
		r.kv("next billing date", s.NextBillingDate),
	)
	if s.CanceledAt != "" {
		lines = append(lines, r.kv("canceled at", s.CanceledAt))
	}
	lines = append(lines, r.kv("billing email", s.BillingEmail))
	if s.CustomerName != "" {
		lines = append(lines, r.kv("customer", s.CustomerName))
	}
	if addr := formatAddress(s.CustomerAddress); addr != "" {
		lines = append(lines, r.kv("address", addr))
	}
	if s.LimitBillingAccessToOwners {
		lines = append(lines, r.kv("billing access", "organization owners only"))
	}
	return strings.Join(lines, "\n")
}

func (r renderer) trialSection(t api.Trial) string {
	status := r.styles.ok.Render("active")
	if t.Expired {
		status = r.styles.bad.Render("expired")
	}
	return strings.Join([]string{
		r.styles.accent.Render("trial") + " " + status,
		r.kv("period", t.StartDate+" to "+t.EndDate),
		r.kv("started by", t.StartedBy.Name),
	}, "\n")
}

func (r renderer) activeUsersSection(users []api.ActiveUser) string {
	title := r.styles.accent.Render(fmt.Sprintf("active users (%d)", len(users)))
	if len(users) == 0 {
		return title + "\n" + r.styles.dim.Render("no active users in the last 30 days")
	}
	nameWidth := len("user")
	for _, u := range users {
		nameWidth = max(nameWidth, len(u.Name))
	}
	lines := []string{
		title,
		r.styles.label.Render(fmt.Sprintf("%-*s  %12s  %-12s  %s", nameWidth, "user", "interactions", "last active", "seat")),
	}
	for _, u := range users {
		seat := "-"
		if u.HasSeatLicense != nil {
			seat = "no"
			if *u.HasSeatLicense {
				seat = "yes"
			}
		}
		lines = append(lines, r.styles.value.Render(fmt.Sprintf("%-*s  %12d  %-12s  %s", nameWidth, u.Name, u.Interactions, u.LastActiveDate, seat)))
	}
	return strings.Join(lines, "\n")
}

// subscriptionBanner is empty for a valid subscription so the banner only
// takes space when something needs attention.
func (r renderer) subscriptionBanner(d remotedata.Data[api.SubscriptionInfo]) string {
	return remotedata.Match(d, remotedata.Cases[api.SubscriptionInfo, string]{
		Loading: func() string { return r.loading("checking subscription...") },
		Failure: func(error) string { return r.failure("failed to load subscription status") },
		Success: func(info api.SubscriptionInfo) string {
			switch v := info.(type) {
			case api.TrialExpired:
				return r.styles.warn.Render("trial expired: subscribe to continue using Kodiak on private repositories")
			case api.SubscriptionExpired:
				return r.styles.bad.Render("subscription expired: renew to continue using Kodiak on private repositories")
			case api.SubscriptionOverage:
				return r.styles.warn.Render(fmt.Sprintf("seat overage: %d active users, %d seat licenses", v.ActiveUserCount, v.LicenseCount))
			default:
				return ""
			}
		},
	})
}

func (r renderer) accountLine(teamID string, d remotedata.Data[api.CurrentAccount]) string {
	if teamID == "" {
		return r.styles.label.Render("account: ") + r.styles.dim.Render("none selected")
	}
	return remotedata.Match(d, remotedata.Cases[api.CurrentAccount, string]{
		Loading: func() string { return r.styles.label.Render("account: ") + r.styles.loading.Render(teamID) },
		Failure: func(error) string { return r.styles.label.Render("account: ") + r.styles.bad.Render(teamID+" (unavailable)") },
		Success: func(c api.CurrentAccount) string {
			return r.styles.label.Render("account: ") + r.styles.value.Render(c.Org.Name) +
				r.styles.dim.Render(" as "+c.User.Name)
		},
	})
}

func (r renderer) accountPicker(d remotedata.Data[[]api.Account]) string {
	body := remotedata.Match(d, remotedata.Cases[[]api.Account, string]{
		Loading: func() string { return r.loading("loading accounts...") },
		Failure: func(error) string { return r.failure("failed to load accounts") },
		Success: func(accounts []api.Account) string {
			if len(accounts) == 0 {
				return r.styles.dim.Render("no accounts installed; press s to sync accounts from GitHub")
			}
			lines := make([]string, 0, len(accounts))
			for _, a := range accounts {
				lines = append(lines, r.styles.value.Render(a.Name)+r.styles.dim.Render(" ("+a.ID+")"))
			}
			return strings.Join(lines, "\n")
		},
	})
	return r.page("Accounts", body)
}

func intervalText(p api.PlanPeriod) string {
	switch p {
	case api.PlanYear:
		return "yearly"
	case api.PlanMonth:
		return "monthly"
	default:
		return string(p)
	}
}

func formatAddress(a *api.Address) string {
	if a == nil {
		return ""
	}
	parts := []string{}
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
