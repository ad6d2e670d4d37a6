// Package tui is the terminal dashboard: a login screen in front of a
// Historical and a Live tab.
package tui

import (
	"context"
	"fmt"
	"time"

	"cryptopulse/internal/auth"
	"cryptopulse/internal/domain"
	"cryptopulse/internal/historical"
	"cryptopulse/internal/live"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Services is everything the dashboard talks to.
type Services struct {
	Source    historical.DataSource
	MaxSpan   time.Duration
	FeedURL   string
	Dial      live.DialFunc
	BufferCap int
	// Auth is nil when sign-in is not configured.
	Auth *auth.Widget
	// Context bounds the session. When it is done the live socket and any
	// pending sign-in are torn down even if the program never saw a quit
	// key. Nil means context.Background().
	Context context.Context
}

type tab int

const (
	tabHistorical tab = iota
	tabLive
)

var tabNames = []string{"Historical", "Live"}

type AppModel struct {
	svc     Services
	width   int
	height  int
	spinner spinner.Model
	help    help.Model

	login   *loginScreen
	session *domain.UserSession

	active tab
	hist   *historyTab
	live   *liveTab
}

func NewAppModel(svc Services) *AppModel {
	parent := svc.Context
	if parent == nil {
		parent = context.Background()
	}
	return &AppModel{
		svc:     svc,
		width:   100,
		height:  30,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		login:   newLoginScreen(parent, svc.Auth),
		hist:    newHistoryTab(svc.Source, svc.MaxSpan),
		live:    newLiveTab(parent, svc.FeedURL, svc.Dial, svc.BufferCap),
	}
}

func (m *AppModel) SetSize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.login.init())
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case fetchDoneMsg, clearNoticeMsg:
		return m, m.hist.update(msg)
	case liveTickMsg, liveDoneMsg:
		return m, m.live.update(msg)
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.Close()
			return m, tea.Quit
		}
	}

	if m.session == nil {
		session, cmd := m.login.update(msg)
		if session != nil {
			m.session = session
			m.active = tabHistorical
		}
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, keys.NextTab):
		if m.sessionRevoked() {
			m.expire()
			return m, nil
		}
		return m, m.switchTab((m.active + 1) % tab(len(tabNames)))
	case key.Matches(keyMsg, keys.SignOut):
		return m, m.signOut()
	}
	if m.active == tabLive {
		return m, m.live.update(keyMsg)
	}
	return m, m.hist.update(keyMsg)
}

// Close unmounts the live tab and abandons any pending sign-in. Call it
// once the program has stopped.
func (m *AppModel) Close() {
	m.live.unmount()
	m.login.reset()
}

// switchTab keeps only the active tab mounted.
func (m *AppModel) switchTab(to tab) tea.Cmd {
	if to == m.active {
		return nil
	}
	m.active = to
	if to == tabLive {
		return m.live.mount()
	}
	m.live.unmount()
	return nil
}

func (m *AppModel) signOut() tea.Cmd {
	m.live.unmount()
	m.active = tabHistorical
	m.session = nil
	if m.svc.Auth != nil {
		if err := m.svc.Auth.SignOut(); err != nil {
			return tea.Println(fmt.Sprintf("sign out: %v", err))
		}
	}
	return nil
}

// sessionRevoked reports whether a token-backed session has lost its token
// outside the dashboard.
func (m *AppModel) sessionRevoked() bool {
	if m.svc.Auth == nil || m.session == nil || m.session.Token == "" {
		return false
	}
	_, ok := m.svc.Auth.Session()
	return !ok
}

// expire returns to the login screen without touching the token store.
func (m *AppModel) expire() {
	m.live.unmount()
	m.login.reset()
	m.active = tabHistorical
	m.session = nil
}

func (m *AppModel) chartSize() (int, int) {
	w := m.width - 4
	h := m.height - 16
	if h > 20 {
		h = 20
	}
	return w, h
}

func (m *AppModel) View() string {
	spin := m.spinner.View()
	if m.session == nil {
		return lipgloss.NewStyle().Margin(1, 2).Render(m.login.view(spin))
	}

	header := titleStyle.Render("CryptoPulse")
	if m.session.Name != "" {
		header += "  " + userStyle.Render("hey "+m.session.Name+"!")
	}

	var tabs []string
	for i, name := range tabNames {
		if tab(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, tabStyle.Render(name))
		}
	}

	w, h := m.chartSize()
	var body string
	bindings := []key.Binding{keys.NextTab, keys.Left, keys.Toggle, keys.All}
	if m.active == tabLive {
		body = m.live.view(w, h, spin)
	} else {
		body = m.hist.view(w, h, spin)
		bindings = append(bindings, keys.Field, keys.Later, keys.Earlier, keys.HourLater, keys.HourEarly, keys.Submit)
	}
	bindings = append(bindings, keys.SignOut, keys.Quit)

	return lipgloss.NewStyle().Margin(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		"",
		body,
		m.help.ShortHelpView(bindings),
	))
}
