package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olliecrow/kodiak_dashboard/internal/config"
)

type route struct {
	status int
	body   string
}

// fakeKodiak serves canned responses per path and records request bodies.
type fakeKodiak struct {
	t      *testing.T
	srv    *httptest.Server
	routes map[string]route

	mu     sync.Mutex
	bodies map[string][]byte
}

func newFakeKodiak(t *testing.T, routes map[string]route) *fakeKodiak {
	t.Helper()
	f := &fakeKodiak{t: t, routes: routes, bodies: map[string][]byte{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeKodiak) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.bodies[r.URL.Path] = body
	f.mu.Unlock()

	rt, ok := f.routes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.URL.Path == "/v1/oauth_complete" && rt.status == http.StatusOK {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "issued-session", Path: "/"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body)
}

func (f *fakeKodiak) requestBody(path string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out map[string]any
	require.NoError(f.t, json.Unmarshal(f.bodies[path], &out))
	return out
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("KODIAK_DASHBOARD_CONFIG", path)
	for _, key := range []string{"KODIAK_API_URL", "KODIAK_SESSION", "KODIAK_TEAM_ID", "KODIAK_OAUTH_CLIENT_ID", "KODIAK_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), "test", args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const activityBody = `{
	"kodiakActivity": {"labels": ["2026-10-01","2026-10-02"], "datasets": {"approved": [1,2], "merged": [3,5], "updated": [0,1]}},
	"pullRequestActivity": {"labels": ["2026-10-01","2026-10-02"], "datasets": {"opened": [3,5], "merged": [2,2], "closed": [0,1]}}
}`

const billingBody = `{
	"accountCanSubscribe": true,
	"subscription": {
		"seats": 3, "nextBillingDate": "2026-11-01", "expired": false,
		"cost": {"totalCents": 4500, "subTotalCents": 4500, "perSeatCents": 1500, "planProductName": "Kodiak Seat License", "planInterval": "month"},
		"billingEmail": "billing@acme.test", "viewerIsOrgOwner": true, "viewerCanModify": true, "limitBillingAccessToOwners": false
	},
	"trial": null,
	"activeUsers": [{"id": "1", "name": "alice", "profileImgUrl": "", "interactions": 12, "lastActiveDate": "2026-10-10"}],
	"subscriptionExemption": null
}`

func TestAccountsCommand(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/accounts": {http.StatusOK, `[{"id":"T1","name":"acme","profileImgUrl":""},{"id":"T2","name":"globex","profileImgUrl":""}]`},
	})

	code, stdout, stderr := runCLI(t, "accounts", "--api-url", f.srv.URL, "--team", "T2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "acme")
	assert.Contains(t, stdout, "* globex")

	code, stdout, _ = runCLI(t, "accounts", "--api-url", f.srv.URL, "--json")
	require.Equal(t, 0, code)
	var accounts []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &accounts))
	assert.Len(t, accounts, 2)
}

func TestCurrentCommand(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/t/T1/current_account": {http.StatusOK, `{"org":{"id":"T1","name":"acme","profileImgUrl":""},"user":{"id":"u1","name":"alice","profileImgUrl":""},"accounts":[]}`},
	})
	code, stdout, stderr := runCLI(t, "current", "--api-url", f.srv.URL, "--team", "T1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "org:  acme (T1)")
	assert.Contains(t, stdout, "user: alice (u1)")
}

func TestTeamCommandsRequireTeam(t *testing.T) {
	isolateEnv(t)
	for _, name := range []string{"current", "activity", "billing", "subscription"} {
		t.Run(name, func(t *testing.T) {
			code, _, stderr := runCLI(t, name, "--api-url", "http://127.0.0.1:1")
			assert.Equal(t, 2, code)
			assert.Contains(t, stderr, "no team selected")
		})
	}
}

func TestActivityCommandRendersCharts(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{"/v1/t/T1/activity": {http.StatusOK, activityBody}})

	code, stdout, stderr := runCLI(t, "activity", "--api-url", f.srv.URL, "--team", "T1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Pull Request Activity")
	assert.Contains(t, stdout, "Kodiak Activity")
	assert.Contains(t, stdout, "2026-10-02")
}

func TestBillingCommandFailureShowsGenericMessage(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{"/v1/t/T1/usage_billing": {http.StatusInternalServerError, `{"detail":"boom"}`}})

	code, stdout, stderr := runCLI(t, "billing", "--api-url", f.srv.URL, "--team", "T1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "failed to load usage & billing data")
	assert.NotContains(t, stdout, "boom")
	assert.Contains(t, stderr, "error:")
}

func TestBillingCommandJSON(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{"/v1/t/T1/usage_billing": {http.StatusOK, billingBody}})

	code, stdout, stderr := runCLI(t, "billing", "--api-url", f.srv.URL, "--team", "T1", "--json")
	require.Equal(t, 0, code, stderr)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, true, got["accountCanSubscribe"])
}

func TestSubscriptionCommandOverage(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/t/T1/subscription_info": {http.StatusOK, `{"type":"SUBSCRIPTION_OVERAGE","activeUserCount":12,"licenseCount":10}`},
	})

	code, stdout, stderr := runCLI(t, "subscription", "--api-url", f.srv.URL, "--team", "T1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "12 active users, 10 seat licenses")

	code, stdout, _ = runCLI(t, "subscription", "--api-url", f.srv.URL, "--team", "T1", "--json")
	require.Equal(t, 0, code)
	assert.JSONEq(t, `{"type":"SUBSCRIPTION_OVERAGE","activeUserCount":12,"licenseCount":10}`, stdout)
}

func TestCheckoutCommand(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/t/T1/start_checkout": {http.StatusOK, `{"stripeCheckoutSessionId":"cs_1","stripePublishableApiKey":"pk_1"}`},
	})

	code, _, stderr := runCLI(t, "checkout", "--api-url", f.srv.URL, "--team", "T1", "--period", "week")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "invalid plan period")

	code, stdout, stderr := runCLI(t, "checkout", "--api-url", f.srv.URL, "--team", "T1", "--seats", "5", "--period", "year")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "cs_1")
	assert.Contains(t, stdout, "pk_1")
	body := f.requestBody("/v1/t/T1/start_checkout")
	assert.Equal(t, float64(5), body["seatCount"])
	assert.Equal(t, "year", body["planPeriod"])
}

func TestTrialStartCommand(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{"/v1/t/T1/start_trial": {http.StatusOK, ``}})

	code, _, _ := runCLI(t, "trial", "start", "--api-url", f.srv.URL, "--team", "T1")
	assert.Equal(t, 2, code)

	code, stdout, stderr := runCLI(t, "trial", "start", "--api-url", f.srv.URL, "--team", "T1", "--email", "b@acme.test")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "trial started for T1")
	assert.Equal(t, "b@acme.test", f.requestBody("/v1/t/T1/start_trial")["billingEmail"])
}

func TestCustomerUpdateSendsOnlyGivenFields(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{"/v1/t/T1/update_stripe_customer_info": {http.StatusOK, `{}`}})

	code, _, stderr := runCLI(t, "customer", "update", "--api-url", f.srv.URL, "--team", "T1")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "nothing to update")

	code, stdout, stderr := runCLI(t, "customer", "update", "--api-url", f.srv.URL, "--team", "T1",
		"--email", "b@acme.test", "--limit-billing-access-to-owners", "--city", "Springfield")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "customer info updated")

	body := f.requestBody("/v1/t/T1/update_stripe_customer_info")
	assert.Equal(t, "b@acme.test", body["email"])
	assert.Equal(t, true, body["limitBillingAccessToOwners"])
	assert.Equal(t, map[string]any{"city": "Springfield"}, body["address"])
	assert.NotContains(t, body, "name")
	assert.NotContains(t, body, "contactEmails")
}

func TestLoginCompleteSavesSession(t *testing.T) {
	path := isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{"/v1/oauth_complete": {http.StatusOK, `{"ok":true}`}})

	code, _, stderr := runCLI(t, "login", "complete", "--api-url", f.srv.URL, "--code", "abc")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "--client-state, --server-state")

	code, stdout, stderr := runCLI(t, "login", "complete", "--api-url", f.srv.URL,
		"--code", "abc", "--server-state", "srv", "--client-state", "cli")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "session saved")

	body := f.requestBody("/v1/oauth_complete")
	assert.Equal(t, "abc", body["code"])
	assert.Equal(t, "srv", body["serverState"])
	assert.Equal(t, "cli", body["clientState"])

	saved, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "issued-session", saved.API.Session)
	assert.NotEqual(t, f.srv.URL, saved.API.BaseURL, "flag overrides are not persisted")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoginCompleteRejected(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/oauth_complete": {http.StatusBadRequest, `{"ok":false,"error":"bad_state","error_description":"state mismatch"}`},
	})
	code, _, stderr := runCLI(t, "login", "complete", "--api-url", f.srv.URL,
		"--code", "abc", "--server-state", "srv", "--client-state", "cli")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "state mismatch")
}

func TestLoginURL(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCLI(t, "login", "url")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "client id")

	t.Setenv("KODIAK_OAUTH_CLIENT_ID", "client-123")
	code, stdout, stderr := runCLI(t, "login", "url", "--json")
	require.Equal(t, 0, code, stderr)
	var req map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &req))
	assert.Contains(t, req["url"], "https://github.com/login/oauth/authorize")
	assert.Contains(t, req["url"], "client_id=client-123")
	assert.NotEmpty(t, req["client_state"])
}

func TestLogoutAndSync(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/logout":        {http.StatusOK, `{"ok":false}`},
		"/v1/sync_accounts": {http.StatusOK, `{"ok":true}`},
	})

	code, _, stderr := runCLI(t, "logout", "--api-url", f.srv.URL)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "error:")

	code, stdout, stderr := runCLI(t, "sync", "--api-url", f.srv.URL)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "accounts synced")
}

func TestDoctorCommand(t *testing.T) {
	isolateEnv(t)
	f := newFakeKodiak(t, map[string]route{
		"/v1/accounts":               {http.StatusOK, `[{"id":"T1","name":"acme","profileImgUrl":""}]`},
		"/v1/t/T1/current_account":   {http.StatusOK, `{"org":{"id":"T1","name":"acme","profileImgUrl":""},"user":{"id":"u1","name":"alice","profileImgUrl":""},"accounts":[]}`},
		"/v1/t/T1/subscription_info": {http.StatusOK, `{"type":"VALID_SUBSCRIPTION"}`},
	})
	t.Setenv("KODIAK_SESSION", "sess")

	code, stdout, stderr := runCLI(t, "doctor", "--api-url", f.srv.URL, "--team", "T1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "[PASS] session")
	assert.Contains(t, stdout, "[PASS] accounts")
	assert.Contains(t, stdout, "[PASS] subscription")

	code, stdout, _ = runCLI(t, "doctor", "--api-url", f.srv.URL, "--json")
	assert.Equal(t, 1, code, "no team configured")
	var report struct {
		Checks []struct {
			Name string `json:"name"`
			OK   bool   `json:"ok"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	require.NotEmpty(t, report.Checks)
}

func TestCompletionZsh(t *testing.T) {
	isolateEnv(t)
	code, stdout, stderr := runCLI(t, "completion", "zsh")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "#compdef kodiak-dashboard")
}

func TestUsageErrors(t *testing.T) {
	isolateEnv(t)
	cases := [][]string{
		{"bogus"},
		{"accounts", "--no-such-flag"},
		{"accounts", "extra"},
		{"accounts", "--api-url", "ftp://example.com"},
	}
	for _, args := range cases {
		code, _, stderr := runCLI(t, args...)
		assert.Equal(t, 2, code, "%v: %s", args, stderr)
	}
}

func TestTUIRequiresTTY(t *testing.T) {
	isolateEnv(t)
	code, _, stderr := runCLI(t, "tui", "--api-url", "http://127.0.0.1:1")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "requires a TTY")
}
