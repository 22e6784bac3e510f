package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionCookieName = "session"
	requestIDHeader   = "X-Request-ID"
	userAgent         = "kodiak-dashboard/0.1"
	maxResponseBytes  = 1_000_000
	defaultTimeout    = 10 * time.Second

	// maxSummaryWidth bounds error body summaries, ellipsis included.
	maxSummaryWidth = 183
)

var errMissingTeam = errors.New("team id is required")

type ClientOptions struct {
	BaseURL   string
	Session   string
	Timeout   time.Duration
	Logger    zerolog.Logger
	Transport http.RoundTripper
}

// Client talks to the Kodiak web API over HTTP. Authentication rides on the
// session cookie, which the cookie jar also picks up from a successful login.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ API = (*Client)(nil)

func NewClient(opts ClientOptions) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("api base url is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q must use http or https", raw)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("api base url %q has no host", raw)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if session := strings.TrimSpace(opts.Session); session != "" {
		jar.SetCookies(base, []*http.Cookie{{Name: sessionCookieName, Value: session, Path: "/"}})
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		logger: opts.Logger.With().Str("component", "api").Logger(),
	}, nil
}

// Session returns the current session cookie value, if any.
func (c *Client) Session() string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == sessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) LoginUser(ctx context.Context, args LoginArgs) error {
	return c.callOK(ctx, "loginUser", http.MethodPost, c.endpoint("oauth_complete"), args)
}

func (c *Client) LogoutUser(ctx context.Context) error {
	return c.callOK(ctx, "logoutUser", http.MethodPost, c.endpoint("logout"), nil)
}

func (c *Client) SyncAccounts(ctx context.Context) error {
	return c.callOK(ctx, "syncAccounts", http.MethodPost, c.endpoint("sync_accounts"), nil)
}

func (c *Client) GetAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	err := c.call(ctx, "getAccounts", http.MethodGet, c.endpoint("accounts"), nil, func(body []byte) error {
		return json.Unmarshal(body, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUsageBilling(ctx context.Context, teamID string) (UsageBilling, error) {
	var out UsageBilling
	endpoint, err := c.teamEndpoint(teamID, "usage_billing")
	if err != nil {
		return out, err
	}
	err = c.call(ctx, "getUsageBilling", http.MethodGet, endpoint, nil, func(body []byte) error {
		return json.Unmarshal(body, &out)
	})
	return out, err
}

func (c *Client) GetActivity(ctx context.Context, teamID string) (Activity, error) {
	var out Activity
	endpoint, err := c.teamEndpoint(teamID, "activity")
	if err != nil {
		return out, err
	}
	err = c.call(ctx, "getActivity", http.MethodGet, endpoint, nil, func(body []byte) error {
		if err := json.Unmarshal(body, &out); err != nil {
			return err
		}
		return out.validate()
	})
	return out, err
}

func (c *Client) GetCurrentAccount(ctx context.Context, teamID string) (CurrentAccount, error) {
	var out CurrentAccount
	endpoint, err := c.teamEndpoint(teamID, "current_account")
	if err != nil {
		return out, err
	}
	err = c.call(ctx, "getCurrentAccount", http.MethodGet, endpoint, nil, func(body []byte) error {
		return json.Unmarshal(body, &out)
	})
	return out, err
}

func (c *Client) StartTrial(ctx context.Context, args StartTrialArgs) (json.RawMessage, error) {
	if strings.TrimSpace(args.BillingEmail) == "" {
		return nil, errors.New("billing email is required")
	}
	endpoint, err := c.teamEndpoint(args.TeamID, "start_trial")
	if err != nil {
		return nil, err
	}
	return c.callRaw(ctx, "startTrial", endpoint, args)
}

func (c *Client) StartCheckout(ctx context.Context, args StartCheckoutArgs) (CheckoutSession, error) {
	var out CheckoutSession
	if args.SeatCount <= 0 {
		return out, fmt.Errorf("seat count must be > 0, got %d", args.SeatCount)
	}
	if _, err := ParsePlanPeriod(string(args.PlanPeriod)); err != nil {
		return out, err
	}
	endpoint, err := c.teamEndpoint(args.TeamID, "start_checkout")
	if err != nil {
		return out, err
	}
	err = c.call(ctx, "startCheckout", http.MethodPost, endpoint, args, func(body []byte) error {
		if err := json.Unmarshal(body, &out); err != nil {
			return err
		}
		if out.StripeCheckoutSessionID == "" {
			return errors.New("missing stripeCheckoutSessionId")
		}
		return nil
	})
	return out, err
}

func (c *Client) GetSubscriptionInfo(ctx context.Context, teamID string) (SubscriptionInfo, error) {
	var out SubscriptionInfo
	endpoint, err := c.teamEndpoint(teamID, "subscription_info")
	if err != nil {
		return nil, err
	}
	err = c.call(ctx, "getSubscriptionInfo", http.MethodGet, endpoint, nil, func(body []byte) error {
		info, err := decodeSubscriptionInfo(body)
		out = info
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateStripeCustomerInfo(ctx context.Context, args UpdateCustomerInfoArgs) (json.RawMessage, error) {
	endpoint, err := c.teamEndpoint(args.TeamID, "update_stripe_customer_info")
	if err != nil {
		return nil, err
	}
	return c.callRaw(ctx, "updateStripeCustomerInfo", endpoint, args)
}

func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.JoinPath(append([]string{"v1"}, elem...)...).String()
}

func (c *Client) teamEndpoint(teamID, action string) (string, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return "", errMissingTeam
	}
	if teamID == "." || teamID == ".." || strings.ContainsAny(teamID, `/\`) {
		return "", fmt.Errorf("invalid team id %q", teamID)
	}
	return c.endpoint("t", teamID, action), nil
}

// call performs a request and hands a 2xx body to decode. Non-2xx answers
// are transport errors and decode failures are DecodeErrors.
func (c *Client) call(ctx context.Context, op, method, endpoint string, in any, decode func([]byte) error) error {
	status, body, err := c.roundTrip(ctx, op, method, endpoint, in)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &TransportError{Op: op, StatusCode: status, Body: summarizeBody(body)}
	}
	if decode == nil {
		return nil
	}
	if err := decode(body); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}

// callOK handles the ok:true/ok:false operations. An ok:false body is a
// rejection even when it arrives with an error status.
func (c *Client) callOK(ctx context.Context, op, method, endpoint string, in any) error {
	status, body, err := c.roundTrip(ctx, op, method, endpoint, in)
	if err != nil {
		return err
	}
	resp, decodeErr := decodeOKResponse(body)
	if status < 200 || status > 299 {
		if decodeErr == nil && !resp.OK {
			return resp.Err(op)
		}
		return &TransportError{Op: op, StatusCode: status, Body: summarizeBody(body)}
	}
	if decodeErr != nil {
		return &DecodeError{Op: op, Err: decodeErr}
	}
	return resp.Err(op)
}

func (c *Client) callRaw(ctx context.Context, op, endpoint string, in any) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.call(ctx, op, http.MethodPost, endpoint, in, func(body []byte) error {
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) == 0 {
			return nil
		}
		if !json.Valid(trimmed) {
			return errors.New("response is not valid JSON")
		}
		out = json.RawMessage(trimmed)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, endpoint string, in any) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Str("request_id", requestID).Msg("api request failed")
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res.StatusCode, nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug().
		Str("op", op).
		Str("request_id", requestID).
		Str("method", method).
		Int("status", res.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("api request")
	return res.StatusCode, body, nil
}

func summarizeBody(b []byte) string {
	return ansi.Truncate(strings.TrimSpace(string(b)), maxSummaryWidth, "...")
}
