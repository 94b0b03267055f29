package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/app"
	"shellhost/internal/settings"
	"shellhost/internal/window"
)

// Subscription is an open need-restart channel.
type Subscription interface {
	Next() (string, error)
	Close() error
}

// Controller defines the subset of host operations a surface can reach.
type Controller interface {
	SurfaceInfo(context.Context) (app.Surface, error)
	GetConfig(context.Context) (settings.Settings, error)
	UpdateConfig(context.Context, settings.Settings) error
	WindowAction(context.Context, string) error
	RequestRestart(context.Context) error
	NewWindow(context.Context) (app.Surface, error)
	Subscribe(context.Context) (Subscription, error)
}

type keyMap struct {
	ToggleMenu   key.Binding
	ToggleScroll key.Binding
	Restart      key.Binding
	NewWindow    key.Binding
	Reload       key.Binding
	Minimize     key.Binding
	Maximize     key.Binding
	Close        key.Binding
	Quit         key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		ToggleMenu:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "menu bar")),
		ToggleScroll: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "scrollbars")),
		Restart:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "restart")),
		NewWindow:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new window")),
		Reload:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Minimize:     key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "minimize")),
		Maximize:     key.NewBinding(key.WithKeys("="), key.WithHelp("=", "maximize")),
		Close:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close")),
		Quit:         key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.ToggleMenu, k.ToggleScroll, k.Restart, k.NewWindow, k.Reload, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Minimize, k.Maximize, k.Close}}
}

var (
	titleBarStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	bannerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214")).Padding(0, 1)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Model represents the Bubble Tea state of one surface.
type Model struct {
	controller Controller

	keys     keyMap
	help     help.Model
	viewport viewport.Model

	surface    app.Surface
	hasSurface bool
	settings   settings.Settings
	hasConfig  bool

	sub         Subscription
	needRestart bool
	restarting  bool

	statusMsg string
	err       error

	width  int
	height int
}

// New constructs a surface model.
func New(ctrl Controller) *Model {
	m := &Model{
		controller: ctrl,
		keys:       newKeyMap(),
		help:       help.New(),
		viewport:   viewport.New(0, 0),
		statusMsg:  "Connecting to host…",
	}
	m.applyFrame()
	return m
}

// Run spins up the Bubble Tea program for ctrl.
func Run(ctrl Controller) error {
	m := New(ctrl)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	if m.sub != nil {
		_ = m.sub.Close()
	}
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(loadSurfaceCmd(m.controller), loadConfigCmd(m.controller))
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeViewport()
		return m, nil

	case surfaceMsg:
		first := !m.hasSurface
		m.surface = msg.surface
		m.hasSurface = true
		m.err = nil
		m.applyFrame()
		m.statusMsg = fmt.Sprintf("Attached to surface %d (%s frame).", m.surface.Handle, m.surface.Frame)
		m.refreshContent()
		if first && m.sub == nil {
			return m, subscribeCmd(m.controller)
		}
		return m, nil

	case configMsg:
		m.settings = msg.settings
		m.hasConfig = true
		m.err = nil
		m.refreshContent()
		return m, nil

	case configUpdatedMsg:
		m.settings = msg.settings
		m.statusMsg = "Settings saved."
		m.refreshContent()
		// Live presentation rules may have changed.
		return m, loadSurfaceCmd(m.controller)

	case subscribedMsg:
		m.sub = msg.sub
		return m, waitEventCmd(m.sub)

	case needRestartMsg:
		m.needRestart = true
		m.resizeViewport()
		return m, waitEventCmd(m.sub)

	case pushClosedMsg:
		m.sub = nil
		if msg.err != nil && !errors.Is(msg.err, io.EOF) && !m.restarting {
			m.err = msg.err
		}
		if !m.restarting {
			m.statusMsg = "Host closed the push channel."
		}
		return m, nil

	case restartSentMsg:
		m.restarting = true
		m.statusMsg = "Restart requested; host is relaunching."
		return m, tea.Quit

	case windowOpenedMsg:
		m.statusMsg = fmt.Sprintf("Opened surface %d.", msg.surface.Handle)
		return m, nil

	case actionSentMsg:
		if msg.action == string(window.ActionClose) {
			return m, tea.Quit
		}
		return m, loadSurfaceCmd(m.controller)

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleMenu):
		if !m.hasConfig {
			return m, nil
		}
		next := m.settings.Clone()
		next.MenuBarVisible = !next.MenuBarVisible
		return m, updateConfigCmd(m.controller, next)
	case key.Matches(msg, m.keys.ToggleScroll):
		if !m.hasConfig {
			return m, nil
		}
		next := m.settings.Clone()
		next.HideScrollBar = !next.HideScrollBar
		return m, updateConfigCmd(m.controller, next)
	case key.Matches(msg, m.keys.Restart):
		return m, requestRestartCmd(m.controller)
	case key.Matches(msg, m.keys.NewWindow):
		return m, newWindowCmd(m.controller)
	case key.Matches(msg, m.keys.Reload):
		return m, tea.Batch(loadSurfaceCmd(m.controller), loadConfigCmd(m.controller))
	case key.Matches(msg, m.keys.Minimize):
		return m, windowActionCmd(m.controller, string(window.ActionMinimize))
	case key.Matches(msg, m.keys.Maximize):
		return m, windowActionCmd(m.controller, string(window.ActionMaximize))
	case key.Matches(msg, m.keys.Close):
		return m, windowActionCmd(m.controller, string(window.ActionClose))
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// applyFrame enables the in-page window controls only for custom frames.
func (m *Model) applyFrame() {
	custom := m.surface.CustomFrame()
	m.keys.Minimize.SetEnabled(custom)
	m.keys.Maximize.SetEnabled(custom)
	m.keys.Close.SetEnabled(custom)
	m.resizeViewport()
}

func (m *Model) scrollbarsHidden() bool {
	return m.surface.HasRule(window.RuleHideScrollbars)
}

func (m *Model) resizeViewport() {
	chrome := 4
	if m.surface.CustomFrame() {
		chrome++
	}
	if m.needRestart {
		chrome++
	}
	h := m.height - chrome
	if h < 1 {
		h = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
}

func (m *Model) refreshContent() {
	var b strings.Builder
	if m.hasConfig {
		fmt.Fprintf(&b, "%s: %t\n", settings.KeyMenuBarVisible, m.settings.MenuBarVisible)
		fmt.Fprintf(&b, "%s: %t\n", settings.KeyHideScrollBar, m.settings.HideScrollBar)
		for _, k := range m.settings.Extra() {
			fmt.Fprintf(&b, "%s: %v\n", k, m.settings.Map()[k])
		}
	} else {
		b.WriteString("Loading settings…\n")
	}
	if m.hasSurface {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "surface %d %dx%d", m.surface.Handle, m.surface.Width, m.surface.Height)
		if m.surface.Primary {
			b.WriteString(" primary")
		}
		if m.surface.Maximized {
			b.WriteString(" maximized")
		}
		if m.surface.Minimized {
			b.WriteString(" minimized")
		}
		b.WriteByte('\n')
		fmt.Fprintf(&b, "rules: %s\n", strings.Join(m.surface.Rules, ", "))
	}
	m.viewport.SetContent(b.String())
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	if m.surface.CustomFrame() {
		title := m.surface.Title
		if title == "" {
			title = "shellhost"
		}
		controls := "[-] [=] [x]"
		bar := title + "  " + controls
		b.WriteString(titleBarStyle.Render(bar))
		b.WriteByte('\n')
	}

	if m.needRestart {
		b.WriteString(bannerStyle.Render("Restart required to apply settings. Press R to restart."))
		b.WriteByte('\n')
	}

	b.WriteString(statusStyle.Render(m.statusMsg))
	b.WriteByte('\n')
	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	b.WriteString(m.viewport.View())
	b.WriteByte('\n')
	if !m.scrollbarsHidden() {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100)))
		b.WriteByte('\n')
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

type surfaceMsg struct{ surface app.Surface }

type configMsg struct{ settings settings.Settings }

type configUpdatedMsg struct{ settings settings.Settings }

type subscribedMsg struct{ sub Subscription }

type needRestartMsg struct{}

type pushClosedMsg struct{ err error }

type restartSentMsg struct{}

type windowOpenedMsg struct{ surface app.Surface }

type actionSentMsg struct{ action string }

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

const requestTimeout = 4 * time.Second

func callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func loadSurfaceCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		s, err := ctrl.SurfaceInfo(ctx)
		if err != nil {
			return errMsg{err}
		}
		return surfaceMsg{surface: s}
	}
}

func loadConfigCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		s, err := ctrl.GetConfig(ctx)
		if err != nil {
			return errMsg{err}
		}
		return configMsg{settings: s}
	}
}

func updateConfigCmd(ctrl Controller, next settings.Settings) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		if err := ctrl.UpdateConfig(ctx, next); err != nil {
			return errMsg{err}
		}
		return configUpdatedMsg{settings: next}
	}
}

func subscribeCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		sub, err := ctrl.Subscribe(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return subscribedMsg{sub: sub}
	}
}

func waitEventCmd(sub Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		ev, err := sub.Next()
		if err != nil {
			return pushClosedMsg{err: err}
		}
		if ev == bridgev1.NeedRestart {
			return needRestartMsg{}
		}
		// Unknown events are skipped.
		return subscribedMsg{sub: sub}
	}
}

func requestRestartCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		if err := ctrl.RequestRestart(ctx); err != nil {
			return errMsg{err}
		}
		return restartSentMsg{}
	}
}

func newWindowCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		s, err := ctrl.NewWindow(ctx)
		if err != nil {
			return errMsg{err}
		}
		return windowOpenedMsg{surface: s}
	}
}

func windowActionCmd(ctrl Controller, action string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := callCtx()
		defer cancel()
		if err := ctrl.WindowAction(ctx, action); err != nil {
			return errMsg{err}
		}
		return actionSentMsg{action: action}
	}
}
