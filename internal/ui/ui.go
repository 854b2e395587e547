package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/filmx/internal/formatter"
	"github.com/desertthunder/filmx/internal/models"
	"github.com/desertthunder/filmx/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CheckingView ViewState = iota
	LoginView
	RegisterView
	ProfileView
)

func (v ViewState) String() string {
	switch v {
	case CheckingView:
		return "checking"
	case LoginView:
		return "login"
	case RegisterView:
		return "register"
	case ProfileView:
		return "profile"
	default:
		return "unknown"
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	session     *session.Manager
	view        ViewState
	state       session.State
	login       form
	register    form
	busy        bool
	notice      string
	err         error
	width       int
	help        help.Model
	keys        keyMap
	changes     chan session.State
	unsubscribe func()
}

// NewModel creates a TUI model bound to mgr and subscribes to its transitions.
//
// Call [Model.Close] once the program exits.
func NewModel(ctx context.Context, mgr *session.Manager) *Model {
	m := &Model{
		ctx:      ctx,
		session:  mgr,
		view:     CheckingView,
		state:    mgr.Current(),
		login:    newLoginForm(),
		register: newRegisterForm(),
		help:     help.New(),
		keys:     newKeyMap(),
		changes:  make(chan session.State, 1),
	}
	m.unsubscribe = mgr.Subscribe(m.publish)
	if m.state.Known() {
		m.apply(m.state)
	}
	return m
}

// publish hands st to the program without blocking the session. Only the latest state is kept.
func (m *Model) publish(st session.State) {
	for {
		select {
		case m.changes <- st:
			return
		default:
		}
		select {
		case <-m.changes:
		default:
		}
	}
}

// Close detaches the model from the session.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Init starts session bootstrap and the subscription loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.bootstrap(), m.waitForChange())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.abort) {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case RegisterView:
			return m.handleRegisterKeys(msg)
		case ProfileView:
			return m.handleProfileKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateForm(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChanged:
		m.apply(msg.state())
		return m, m.waitForChange()

	case MsgBootstrapped:
		m.apply(msg.state())
		return m, nil

	case MsgLoginDone:
		m.busy = false
		res := msg.result()
		if res.err != nil {
			m.err = res.err
			m.login.clear(1)
			return m, nil
		}
		m.err = nil
		m.login.reset()
		m.apply(m.session.Current())
		return m, nil

	case MsgRegisterDone:
		m.busy = false
		res := msg.result()
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.register.reset()
		m.notice = fmt.Sprintf("Account created for %s. Log in to continue.", res.profile.Email)
		m.view = LoginView
		m.login.set(0, res.profile.Email)
		return m, m.login.setFocus(1)

	case MsgRefreshDone:
		m.busy = false
		st := msg.state()
		if !st.Authenticated() {
			m.notice = "Your session has ended. Log in again."
		}
		m.apply(st)
		return m, nil
	}
	return m, nil
}

// apply moves the view to match st. The forms stay put while anonymous.
func (m *Model) apply(st session.State) {
	prev := m.state
	m.state = st

	switch st.Status() {
	case session.StatusUnknown:
		m.view = CheckingView
	case session.StatusAuthenticated:
		m.view = ProfileView
		m.err = nil
		m.notice = ""
	case session.StatusAnonymous:
		if m.view == ProfileView || m.view == CheckingView {
			if prev.Authenticated() && m.notice == "" {
				m.notice = "You have been logged out."
			}
			m.view = LoginView
			m.login.setFocus(0)
		}
	}
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.switchTo):
		m.err, m.notice = nil, ""
		m.view = RegisterView
		return m, m.register.setFocus(0)
	case key.Matches(msg, m.keys.next):
		return m, m.login.next()
	case key.Matches(msg, m.keys.prev):
		return m, m.login.prev()
	case key.Matches(msg, m.keys.submit):
		if !m.login.onLast() {
			return m, m.login.next()
		}
		if m.busy {
			return m, nil
		}
		m.busy, m.err, m.notice = true, nil, ""
		return m, m.submitLogin(m.login.value(0), m.login.secret(1))
	}
	return m, m.login.update(msg)
}

func (m *Model) handleRegisterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.switchTo):
		m.err = nil
		m.view = LoginView
		return m, m.login.setFocus(0)
	case key.Matches(msg, m.keys.next):
		return m, m.register.next()
	case key.Matches(msg, m.keys.prev):
		return m, m.register.prev()
	case key.Matches(msg, m.keys.submit):
		if !m.register.onLast() {
			return m, m.register.next()
		}
		if m.busy {
			return m, nil
		}
		m.busy, m.err, m.notice = true, nil, ""
		return m, m.submitRegister(m.register.value(0), m.register.value(1), m.register.secret(2))
	}
	return m, m.register.update(msg)
}

func (m *Model) handleProfileKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		m.session.Logout()
		m.apply(m.session.Current())
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.refresh()
	}
	return m, nil
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		cmd = m.login.update(msg)
	case RegisterView:
		cmd = m.register.update(msg)
	}
	return m, cmd
}

func (m *Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		return bootstrappedMsg(m.session.Bootstrap(m.ctx))
	}
}

func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case st := <-m.changes:
			return sessionChangedMsg(st)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) submitLogin(email, password string) tea.Cmd {
	return func() tea.Msg {
		profile, err := m.session.Login(m.ctx, email, password)
		return loginDoneMsg(profile, err)
	}
}

func (m *Model) submitRegister(name, email, password string) tea.Cmd {
	return func() tea.Msg {
		profile, err := m.session.Register(m.ctx, name, email, password)
		return registerDoneMsg(profile, err)
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg(m.session.Refresh(m.ctx))
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("filmx") + "\n")
	b.WriteString(m.renderStatus() + "\n\n")

	switch m.view {
	case LoginView:
		b.WriteString(styles.title.Render("Log in") + "\n")
		b.WriteString(m.login.view())
	case RegisterView:
		b.WriteString(styles.title.Render("Create an account") + "\n")
		b.WriteString(m.register.view())
	case ProfileView:
		b.WriteString(m.renderProfile())
	}

	if m.busy {
		b.WriteString("\n" + styles.help.Render("Working...") + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n" + styles.ok.Render(m.notice) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + styles.err.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.keys.forView(m.view)))
	return b.String()
}

func (m *Model) renderStatus() string {
	switch m.state.Status() {
	case session.StatusAuthenticated:
		p, _ := m.state.Profile()
		return styles.banner.Render(fmt.Sprintf("Welcome, %s!", greetingName(p)))
	case session.StatusAnonymous:
		return styles.warn.Render("Not logged in")
	default:
		return styles.help.Render("Checking your session...")
	}
}

func (m *Model) renderProfile() string {
	p, ok := m.state.Profile()
	if !ok {
		return ""
	}
	text, err := formatter.ProfileToText(p)
	if err != nil {
		return styles.err.Render(err.Error()) + "\n"
	}
	return string(text)
}

func greetingName(p models.UserProfile) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
