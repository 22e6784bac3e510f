package tui

import (
	"github.com/olliecrow/kodiak_dashboard/internal/api"
	"github.com/olliecrow/kodiak_dashboard/internal/remotedata"
)

// RenderOptions configures the one-shot renderers used outside the
// interactive dashboard.
type RenderOptions struct {
	Width   int
	NoColor bool
}

func (o RenderOptions) renderer() renderer {
	width := o.Width
	if width <= 0 {
		width = 100
	}
	return renderer{styles: defaultStyles(o.NoColor), width: max(20, width-4)}
}

func RenderActivity(d remotedata.Data[api.Activity], opts RenderOptions) string {
	return opts.renderer().activityPage(d)
}

func RenderBilling(d remotedata.Data[api.UsageBilling], opts RenderOptions) string {
	return opts.renderer().billingPage(d)
}

func RenderSubscription(d remotedata.Data[api.SubscriptionInfo], opts RenderOptions) string {
	out := opts.renderer().subscriptionBanner(d)
	if out == "" {
		return "subscription: valid"
	}
	return out
}
