package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/olliecrow/kodiak_dashboard/internal/api"
	"github.com/olliecrow/kodiak_dashboard/internal/remotedata"
)

// Options is the explicit context handed to the dashboard: which API to use
// and which team the views are scoped to.
type Options struct {
	API       api.API
	TeamID    string
	Interval  time.Duration
	Timeout   time.Duration
	NoColor   bool
	AltScreen bool
	Logger    zerolog.Logger
}

type page int

const (
	pageActivity page = iota
	pageBilling
	pageCount
)

// accountsKey scopes the account list, which does not depend on the team.
const accountsKey = "accounts"

type Model struct {
	client   api.API
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	width  int
	height int

	now         time.Time
	nextFetchAt time.Time

	teamID string
	page   page

	accounts     *remotedata.Container[[]api.Account]
	current      *remotedata.Container[api.CurrentAccount]
	subscription *remotedata.Container[api.SubscriptionInfo]
	activity     *remotedata.Container[api.Activity]
	billing      *remotedata.Container[api.UsageBilling]
	sync         *remotedata.Container[struct{}]

	spinner spinner.Model
	styles  styles
}

type styles struct {
	title     lipgloss.Style
	dim       lipgloss.Style
	panel     lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	ok        lipgloss.Style
	warn      lipgloss.Style
	bad       lipgloss.Style
	accent    lipgloss.Style
	error     lipgloss.Style
	help      lipgloss.Style
	loading   lipgloss.Style
	tab       lipgloss.Style
	tabActive lipgloss.Style
	bar       lipgloss.Style
}

type pollTickMsg struct {
	at time.Time
}

type clockTickMsg struct {
	at time.Time
}

// fetchResultMsg carries the outcome of one fetch attempt back to Update,
// tagged with the ticket it was started under.
type fetchResultMsg[T any] struct {
	ticket   remotedata.Ticket
	duration time.Duration
	value    T
	err      error
}

const (
	defaultTimeout = 10 * time.Second
)

func NewModel(opts Options) Model {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	interval := opts.Interval
	if interval < 0 {
		interval = 0
	}
	client := opts.API
	if client == nil {
		client = missingAPI{}
	}
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	st := defaultStyles(opts.NoColor)
	spin.Style = st.loading

	now := time.Now().UTC()
	m := Model{
		client:       client,
		interval:     interval,
		timeout:      timeout,
		logger:       opts.Logger.With().Str("component", "tui").Logger(),
		now:          now,
		teamID:       strings.TrimSpace(opts.TeamID),
		accounts:     remotedata.NewContainer[[]api.Account](),
		current:      remotedata.NewContainer[api.CurrentAccount](),
		subscription: remotedata.NewContainer[api.SubscriptionInfo](),
		activity:     remotedata.NewContainer[api.Activity](),
		billing:      remotedata.NewContainer[api.UsageBilling](),
		sync:         remotedata.NewContainer[struct{}](),
		spinner:      spin,
		styles:       st,
	}
	if interval > 0 {
		m.nextFetchAt = now.Add(interval)
	}
	return m
}

func defaultStyles(noColor bool) styles {
	basePanel := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	if noColor {
		return styles{
			title:     lipgloss.NewStyle().Bold(true),
			dim:       lipgloss.NewStyle(),
			panel:     basePanel,
			label:     lipgloss.NewStyle().Bold(true),
			value:     lipgloss.NewStyle(),
			ok:        lipgloss.NewStyle().Bold(true),
			warn:      lipgloss.NewStyle().Bold(true),
			bad:       lipgloss.NewStyle().Bold(true),
			accent:    lipgloss.NewStyle().Bold(true),
			error:     lipgloss.NewStyle().Bold(true),
			help:      lipgloss.NewStyle(),
			loading:   lipgloss.NewStyle(),
			tab:       lipgloss.NewStyle(),
			tabActive: lipgloss.NewStyle().Bold(true).Underline(true),
			bar:       lipgloss.NewStyle(),
		}
	}
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("24")).Padding(0, 1),
		dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		panel:     basePanel.BorderForeground(lipgloss.Color("61")),
		label:     lipgloss.NewStyle().Foreground(lipgloss.Color("109")),
		value:     lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		ok:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		bad:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		accent:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		error:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		loading:   lipgloss.NewStyle().Foreground(lipgloss.Color("117")),
		tab:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		tabActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Underline(true),
		bar:       lipgloss.NewStyle().Foreground(lipgloss.Color("61")),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		clockCmd(),
		m.loadAccounts(),
	}
	if m.teamID != "" {
		cmds = append(cmds, m.loadTeam())
	}
	if m.interval > 0 {
		cmds = append(cmds, pollCmd(m.interval))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(v)
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(v)
		return m, cmd
	case clockTickMsg:
		m.now = v.at.UTC()
		return m, clockCmd()
	case pollTickMsg:
		m.nextFetchAt = v.at.UTC().Add(m.interval)
		cmds := []tea.Cmd{pollCmd(m.interval)}
		if m.teamID != "" && !m.teamFetchInFlight() {
			cmds = append(cmds, m.loadTeam())
		}
		return m, tea.Batch(cmds...)
	case fetchResultMsg[[]api.Account]:
		if settle(m, m.accounts, v, "getAccounts") && m.teamID == "" {
			if accounts, ok := m.accounts.Data().Value(); ok && len(accounts) > 0 {
				m.teamID = accounts[0].ID
				return m, m.loadTeam()
			}
		}
	case fetchResultMsg[api.CurrentAccount]:
		settle(m, m.current, v, "getCurrentAccount")
	case fetchResultMsg[api.SubscriptionInfo]:
		settle(m, m.subscription, v, "getSubscriptionInfo")
	case fetchResultMsg[api.Activity]:
		settle(m, m.activity, v, "getActivity")
	case fetchResultMsg[api.UsageBilling]:
		settle(m, m.billing, v, "getUsageBilling")
	case fetchResultMsg[struct{}]:
		if settle(m, m.sync, v, "syncAccounts") && v.err == nil {
			return m, m.loadAccounts()
		}
	}
	return m, nil
}

func (m Model) handleKey(v tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch v.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		m.page = (m.page + 1) % pageCount
	case "shift+tab":
		m.page = (m.page + pageCount - 1) % pageCount
	case "1":
		m.page = pageActivity
	case "2":
		m.page = pageBilling
	case "r":
		if m.teamID != "" {
			return m, m.loadTeam()
		}
		return m, m.loadAccounts()
	case "s":
		if m.sync.Data().State() != remotedata.Loading {
			return m, fetchCmd(m.sync.Begin(accountsKey), m.timeout, func(ctx context.Context, _ string) (struct{}, error) {
				return struct{}{}, m.client.SyncAccounts(ctx)
			})
		}
	case "]":
		return m.cycleTeam(1)
	case "[":
		return m.cycleTeam(-1)
	}
	return m, nil
}

// SwitchTeam moves every team-scoped view to teamID. Switching to the team
// already shown is a no-op so that no fetch is repeated for the same key.
func (m Model) SwitchTeam(teamID string) (Model, tea.Cmd) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" || teamID == m.teamID {
		return m, nil
	}
	m.teamID = teamID
	m.logger.Debug().Str("team_id", teamID).Msg("switching team")
	return m, m.loadTeam()
}

func (m Model) cycleTeam(step int) (tea.Model, tea.Cmd) {
	accounts, ok := m.accounts.Data().Value()
	if !ok || len(accounts) == 0 {
		return m, nil
	}
	idx := -1
	for i, a := range accounts {
		if a.ID == m.teamID {
			idx = i
			break
		}
	}
	next := (idx + step + len(accounts)) % len(accounts)
	if idx < 0 && step < 0 {
		next = len(accounts) - 1
	}
	return m.SwitchTeam(accounts[next].ID)
}

func (m Model) loadAccounts() tea.Cmd {
	return fetchCmd(m.accounts.Begin(accountsKey), m.timeout, func(ctx context.Context, _ string) ([]api.Account, error) {
		return m.client.GetAccounts(ctx)
	})
}

// loadTeam starts one attempt per team-scoped container. Each container is
// Loading once this returns.
func (m Model) loadTeam() tea.Cmd {
	key := m.teamID
	return tea.Batch(
		fetchCmd(m.current.Begin(key), m.timeout, m.client.GetCurrentAccount),
		fetchCmd(m.subscription.Begin(key), m.timeout, m.client.GetSubscriptionInfo),
		fetchCmd(m.activity.Begin(key), m.timeout, m.client.GetActivity),
		fetchCmd(m.billing.Begin(key), m.timeout, m.client.GetUsageBilling),
	)
}

func (m Model) teamFetchInFlight() bool {
	return m.current.Data().State() == remotedata.Loading ||
		m.subscription.Data().State() == remotedata.Loading ||
		m.activity.Data().State() == remotedata.Loading ||
		m.billing.Data().State() == remotedata.Loading
}

func settle[T any](m Model, c *remotedata.Container[T], msg fetchResultMsg[T], op string) bool {
	if !c.Settle(msg.ticket, msg.value, msg.err) {
		m.logger.Debug().
			Str("op", op).
			Str("scope", msg.ticket.Key).
			Uint64("seq", msg.ticket.Seq).
			Msg("dropped stale result")
		return false
	}
	if msg.err != nil {
		m.logger.Warn().Err(msg.err).Str("op", op).Str("scope", msg.ticket.Key).Msg("fetch failed")
		return true
	}
	m.logger.Debug().Str("op", op).Str("scope", msg.ticket.Key).Dur("duration", msg.duration).Msg("fetch settled")
	return true
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "initializing..."
	}

	header := m.renderHeader()
	tabs := m.renderTabs()
	body := m.renderBody()
	footer := m.styles.dim.Render("tab switch page · [ ] switch account · r refresh · s sync · q quit")

	parts := []string{header, tabs}
	if banner := m.renderer().subscriptionBanner(m.subscription.Data()); banner != "" && m.teamID != "" {
		parts = append(parts, banner)
	}
	parts = append(parts, body, "")
	top := lipgloss.JoinVertical(lipgloss.Left, parts...)
	combined := pinFooterToBottom(top, footer, m.height)
	return clipToViewport(combined, m.width, m.height)
}

func (m Model) renderer() renderer {
	return renderer{
		styles:  m.styles,
		width:   max(20, m.width-4),
		spinner: m.spinner.View(),
	}
}

func (m Model) renderHeader() string {
	title := m.styles.title.Render(" kodiak dashboard ")

	stateText := "idle"
	stateStyle := m.styles.dim
	switch {
	case m.teamID == "" && m.accounts.Data().IsLoading():
		stateText = "loading"
		stateStyle = m.styles.loading
	case m.teamID != "" && m.teamFetchInFlight():
		stateText = "refreshing"
		stateStyle = m.styles.loading
	case m.anyFailure():
		stateText = "error"
		stateStyle = m.styles.bad
	case m.teamID != "":
		stateText = "ready"
		stateStyle = m.styles.ok
	}

	left := title + "  " + m.renderer().accountLine(m.teamID, m.current.Data()) +
		"  " + m.styles.label.Render("state: ") + stateStyle.Render(stateText)
	if m.sync.Data().State() == remotedata.Loading {
		left += " " + m.styles.loading.Render("[syncing accounts]")
	}
	if !m.nextFetchAt.IsZero() {
		left += " " + m.styles.dim.Render("[next refresh in "+humanDuration(m.nextFetchAt.Sub(m.now))+"]")
	}
	right := m.styles.dim.Render("utc " + m.now.Format("2006-01-02 15:04:05"))
	return joinWithPaddingKeepRight(left, right, m.width)
}

func (m Model) anyFailure() bool {
	return m.accounts.Data().State() == remotedata.Failure ||
		m.current.Data().State() == remotedata.Failure ||
		m.subscription.Data().State() == remotedata.Failure ||
		m.activity.Data().State() == remotedata.Failure ||
		m.billing.Data().State() == remotedata.Failure
}

func (m Model) renderTabs() string {
	names := []string{"1 activity", "2 usage & billing"}
	out := make([]string, 0, len(names))
	for i, name := range names {
		if page(i) == m.page {
			out = append(out, m.styles.tabActive.Render(name))
		} else {
			out = append(out, m.styles.tab.Render(name))
		}
	}
	return ansi.Truncate(strings.Join(out, "   "), max(4, m.width), "...")
}

func (m Model) renderBody() string {
	r := m.renderer()
	if m.teamID == "" {
		return r.accountPicker(m.accounts.Data())
	}
	switch m.page {
	case pageBilling:
		return r.billingPage(m.billing.Data())
	default:
		return r.activityPage(m.activity.Data())
	}
}

func pollCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return pollTickMsg{at: t}
	})
}

func clockCmd() tea.Cmd {
	return tea.Tick(1*time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg{at: t}
	})
}

func fetchCmd[T any](ticket remotedata.Ticket, timeout time.Duration, fetch func(context.Context, string) (T, error)) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		value, err := fetch(ctx, ticket.Key)
		return fetchResultMsg[T]{
			ticket:   ticket,
			duration: time.Since(start),
			value:    value,
			err:      err,
		}
	}
}

func Run(opts Options) error {
	model := NewModel(opts)
	progOpts := []tea.ProgramOption{}
	if opts.AltScreen {
		progOpts = append(progOpts, tea.WithAltScreen())
	}
	prog := tea.NewProgram(model, progOpts...)
	_, err := prog.Run()
	return err
}

// missingAPI stands in when no client was configured so every view lands in
// its failure branch instead of panicking.
type missingAPI struct{}

var errMissingAPI = errors.New("missing api client")

func (missingAPI) LoginUser(context.Context, api.LoginArgs) error { return errMissingAPI }
func (missingAPI) LogoutUser(context.Context) error                { return errMissingAPI }
func (missingAPI) SyncAccounts(context.Context) error              { return errMissingAPI }
func (missingAPI) GetUsageBilling(context.Context, string) (api.UsageBilling, error) {
	return api.UsageBilling{}, errMissingAPI
}
func (missingAPI) GetActivity(context.Context, string) (api.Activity, error) {
	return api.Activity{}, errMissingAPI
}
func (missingAPI) GetAccounts(context.Context) ([]api.Account, error) { return nil, errMissingAPI }
func (missingAPI) GetCurrentAccount(context.Context, string) (api.CurrentAccount, error) {
	return api.CurrentAccount{}, errMissingAPI
}
func (missingAPI) StartTrial(context.Context, api.StartTrialArgs) (json.RawMessage, error) {
	return nil, errMissingAPI
}
func (missingAPI) StartCheckout(context.Context, api.StartCheckoutArgs) (api.CheckoutSession, error) {
	return api.CheckoutSession{}, errMissingAPI
}
func (missingAPI) GetSubscriptionInfo(context.Context, string) (api.SubscriptionInfo, error) {
	return nil, errMissingAPI
}
func (missingAPI) UpdateStripeCustomerInfo(context.Context, api.UpdateCustomerInfoArgs) (json.RawMessage, error) {
	return nil, errMissingAPI
}
