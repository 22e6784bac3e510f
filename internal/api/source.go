package api

import (
	"context"
	"encoding/json"
)

// API is the account boundary the dashboard talks to. Every method is a
// single request/response with no retries.
type API interface {
	LoginUser(ctx context.Context, args LoginArgs) error
	LogoutUser(ctx context.Context) error
	SyncAccounts(ctx context.Context) error
	GetUsageBilling(ctx context.Context, teamID string) (UsageBilling, error)
	GetActivity(ctx context.Context, teamID string) (Activity, error)
	GetAccounts(ctx context.Context) ([]Account, error)
	GetCurrentAccount(ctx context.Context, teamID string) (CurrentAccount, error)
	StartTrial(ctx context.Context, args StartTrialArgs) (json.RawMessage, error)
	StartCheckout(ctx context.Context, args StartCheckoutArgs) (CheckoutSession, error)
	GetSubscriptionInfo(ctx context.Context, teamID string) (SubscriptionInfo, error)
	UpdateStripeCustomerInfo(ctx context.Context, args UpdateCustomerInfoArgs) (json.RawMessage, error)
}
