package api

import (
	"encoding/json"
	"fmt"
)

type Account struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ProfileImgURL string `json:"profileImgUrl"`
}

type CurrentAccount struct {
	Org      Account   `json:"org"`
	User     Account   `json:"user"`
	Accounts []Account `json:"accounts"`
}

type LoginArgs struct {
	Code        string `json:"code"`
	ServerState string `json:"serverState"`
	ClientState string `json:"clientState"`
}

// PlanPeriod is the billing interval of a plan.
type PlanPeriod string

const (
	PlanMonth PlanPeriod = "month"
	PlanYear  PlanPeriod = "year"
)

func ParsePlanPeriod(s string) (PlanPeriod, error) {
	switch PlanPeriod(s) {
	case PlanMonth, PlanYear:
		return PlanPeriod(s), nil
	default:
		return "", fmt.Errorf("invalid plan period %q (expected month or year)", s)
	}
}

func (p *PlanPeriod) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParsePlanPeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

type UsageBilling struct {
	AccountCanSubscribe   bool                   `json:"accountCanSubscribe"`
	Subscription          *Subscription          `json:"subscription"`
	Trial                 *Trial                 `json:"trial"`
	ActiveUsers           []ActiveUser           `json:"activeUsers"`
	SubscriptionExemption *SubscriptionExemption `json:"subscriptionExemption"`
}

type Subscription struct {
	Seats                      int      `json:"seats"`
	NextBillingDate            string   `json:"nextBillingDate"`
	Expired                    bool     `json:"expired"`
	CancelAt                   string   `json:"cancelAt,omitempty"`
	CanceledAt                 string   `json:"canceledAt,omitempty"`
	Cost                       Cost     `json:"cost"`
	BillingEmail               string   `json:"billingEmail"`
	CustomerName               string   `json:"customerName,omitempty"`
	CustomerAddress            *Address `json:"customerAddress,omitempty"`
	ViewerIsOrgOwner           bool     `json:"viewerIsOrgOwner"`
	ViewerCanModify            bool     `json:"viewerCanModify"`
	LimitBillingAccessToOwners bool     `json:"limitBillingAccessToOwners"`
}

type Cost struct {
	TotalCents      int        `json:"totalCents"`
	SubTotalCents   int        `json:"subTotalCents"`
	PerSeatCents    int        `json:"perSeatCents"`
	PlanProductName string     `json:"planProductName"`
	PlanInterval    PlanPeriod `json:"planInterval"`
	Discount        *Discount  `json:"discount,omitempty"`
}

type Discount struct {
	Name          string `json:"name"`
	DiscountCents int    `json:"discountCents"`
}

type Address struct {
	Line1      string `json:"line1,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Line2      string `json:"line2,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	State      string `json:"state,omitempty"`
}

type Trial struct {
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Expired   bool    `json:"expired"`
	StartedBy Account `json:"startedBy"`
}

type ActiveUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProfileImgURL   string `json:"profileImgUrl"`
	Interactions    int    `json:"interactions"`
	LastActiveDate  string `json:"lastActiveDate"`
	FirstActiveDate string `json:"firstActiveDate,omitempty"`
	HasSeatLicense  *bool  `json:"hasSeatLicense,omitempty"`
}

type SubscriptionExemption struct {
	Message *string `json:"message"`
}

type StartTrialArgs struct {
	TeamID       string `json:"-"`
	BillingEmail string `json:"billingEmail"`
}

type StartCheckoutArgs struct {
	TeamID     string     `json:"-"`
	SeatCount  int        `json:"seatCount"`
	PlanPeriod PlanPeriod `json:"planPeriod"`
}

type CheckoutSession struct {
	StripeCheckoutSessionID string `json:"stripeCheckoutSessionId"`
	StripePublishableAPIKey string `json:"stripePublishableApiKey"`
}

// UpdateCustomerInfoArgs only sends the fields that are set.
type UpdateCustomerInfoArgs struct {
	TeamID                     string   `json:"-"`
	Email                      *string  `json:"email,omitempty"`
	Name                       *string  `json:"name,omitempty"`
	Address                    *Address `json:"address,omitempty"`
	LimitBillingAccessToOwners *bool    `json:"limitBillingAccessToOwners,omitempty"`
	ContactEmails              *string  `json:"contactEmails,omitempty"`
}

// DoctorCheck is one line of the doctor report.
type DoctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details"`
}
