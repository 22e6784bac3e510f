package api

import (
	"encoding/json"
	"fmt"
)

const (
	subscriptionValid    = "VALID_SUBSCRIPTION"
	subscriptionTrialExp = "TRIAL_EXPIRED"
	subscriptionExpired  = "SUBSCRIPTION_EXPIRED"
	subscriptionOverage  = "SUBSCRIPTION_OVERAGE"
)

// SubscriptionInfo is one of ValidSubscription, TrialExpired,
// SubscriptionExpired or SubscriptionOverage.
type SubscriptionInfo interface {
	SubscriptionType() string
	isSubscriptionInfo()
}

// ValidSubscription covers personal accounts, paid subscriptions and active
// trials.
type ValidSubscription struct{}

type TrialExpired struct{}

type SubscriptionExpired struct{}

type SubscriptionOverage struct {
	ActiveUserCount int `json:"activeUserCount"`
	LicenseCount    int `json:"licenseCount"`
}

func (ValidSubscription) SubscriptionType() string   { return subscriptionValid }
func (TrialExpired) SubscriptionType() string        { return subscriptionTrialExp }
func (SubscriptionExpired) SubscriptionType() string { return subscriptionExpired }
func (SubscriptionOverage) SubscriptionType() string { return subscriptionOverage }

func (ValidSubscription) isSubscriptionInfo()   {}
func (TrialExpired) isSubscriptionInfo()        {}
func (SubscriptionExpired) isSubscriptionInfo() {}
func (SubscriptionOverage) isSubscriptionInfo() {}

type subscriptionInfoRaw struct {
	Type            string `json:"type"`
	ActiveUserCount *int   `json:"activeUserCount"`
	LicenseCount    *int   `json:"licenseCount"`
}

func decodeSubscriptionInfo(body []byte) (SubscriptionInfo, error) {
	var raw subscriptionInfoRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	switch raw.Type {
	case subscriptionValid:
		return ValidSubscription{}, nil
	case subscriptionTrialExp:
		return TrialExpired{}, nil
	case subscriptionExpired:
		return SubscriptionExpired{}, nil
	case subscriptionOverage:
		if raw.ActiveUserCount == nil || raw.LicenseCount == nil {
			return nil, fmt.Errorf("%s missing activeUserCount or licenseCount", subscriptionOverage)
		}
		return SubscriptionOverage{
			ActiveUserCount: *raw.ActiveUserCount,
			LicenseCount:    *raw.LicenseCount,
		}, nil
	default:
		return nil, fmt.Errorf("unknown subscription info type %q", raw.Type)
	}
}

// MarshalSubscriptionInfo renders info in the wire shape, for JSON output.
func MarshalSubscriptionInfo(info SubscriptionInfo) ([]byte, error) {
	out := map[string]any{"type": info.SubscriptionType()}
	if overage, ok := info.(SubscriptionOverage); ok {
		out["activeUserCount"] = overage.ActiveUserCount
		out["licenseCount"] = overage.LicenseCount
	}
	return json.Marshal(out)
}
