package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/app"
	"shellhost/internal/settings"
	"shellhost/internal/window"
)

type fakeSub struct {
	events []string
	closed bool
}

func (s *fakeSub) Next() (string, error) {
	if len(s.events) == 0 {
		return "", io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *fakeSub) Close() error {
	s.closed = true
	return nil
}

type fakeController struct {
	surface  app.Surface
	settings settings.Settings
	updates  []settings.Settings
	actions  []string
	restarts int
	sub      *fakeSub
	err      error
}

func (f *fakeController) SurfaceInfo(context.Context) (app.Surface, error) { return f.surface, f.err }
func (f *fakeController) GetConfig(context.Context) (settings.Settings, error) {
	return f.settings, f.err
}

func (f *fakeController) UpdateConfig(_ context.Context, s settings.Settings) error {
	if f.err != nil {
		return f.err
	}
	f.updates = append(f.updates, s)
	f.settings = s
	return nil
}

func (f *fakeController) WindowAction(_ context.Context, a string) error {
	f.actions = append(f.actions, a)
	return f.err
}

func (f *fakeController) RequestRestart(context.Context) error {
	f.restarts++
	return f.err
}

func (f *fakeController) NewWindow(context.Context) (app.Surface, error) {
	return app.Surface{Handle: f.surface.Handle + 1}, f.err
}

func (f *fakeController) Subscribe(context.Context) (Subscription, error) {
	if f.sub == nil {
		f.sub = &fakeSub{}
	}
	return f.sub, nil
}

func customSurface() app.Surface {
	return app.Surface{Handle: 1, Title: "shellhost", Frame: bridgev1.FrameCustom, Primary: true, Rules: []string{window.RuleMenuStyle}}
}

func nativeSurface() app.Surface {
	return app.Surface{Handle: 1, Title: "shellhost", Frame: bridgev1.FrameNative, Primary: true, Rules: []string{window.RuleMenuStyle}}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run feeds msg to m and returns the message produced by the resulting
// command, if any.
func run(t *testing.T, m *Model, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func attach(t *testing.T, m *Model, ctrl *fakeController) {
	t.Helper()
	run(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	run(t, m, configMsg{settings: ctrl.settings})
	if msg := run(t, m, surfaceMsg{surface: ctrl.surface}); msg != nil {
		if _, ok := msg.(subscribedMsg); !ok {
			t.Fatalf("expected subscribe after attach, got %T", msg)
		}
		m.Update(msg)
	}
}

func TestTitleBarOnlyForCustomFrame(t *testing.T) {
	ctrl := &fakeController{surface: customSurface(), settings: settings.Settings{MenuBarVisible: false}}
	m := New(ctrl)
	attach(t, m, ctrl)
	if !strings.Contains(m.View(), "[-] [=] [x]") {
		t.Fatal("custom frame must render the in-page title bar")
	}

	ctrl = &fakeController{surface: nativeSurface(), settings: settings.Defaults()}
	m = New(ctrl)
	attach(t, m, ctrl)
	if strings.Contains(m.View(), "[-] [=] [x]") {
		t.Fatal("native frame must not render the in-page title bar")
	}
	if msg := run(t, m, keyPress("x")); msg != nil {
		t.Fatalf("close key must be disabled on native frame, got %T", msg)
	}
}

func TestToggleSendsWholeMapping(t *testing.T) {
	ctrl := &fakeController{surface: nativeSurface(), settings: settings.Defaults()}
	m := New(ctrl)
	attach(t, m, ctrl)

	msg := run(t, m, keyPress("m"))
	if _, ok := msg.(configUpdatedMsg); !ok {
		t.Fatalf("expected configUpdatedMsg, got %T", msg)
	}
	if len(ctrl.updates) != 1 {
		t.Fatalf("updates = %v", ctrl.updates)
	}
	sent := ctrl.updates[0]
	if sent.MenuBarVisible || sent.HideScrollBar {
		t.Fatalf("unexpected update %+v", sent)
	}
	m.Update(msg)

	run(t, m, keyPress("s"))
	if got := ctrl.updates[1]; got.MenuBarVisible || !got.HideScrollBar {
		t.Fatalf("second update must build on the first: %+v", got)
	}
}

func TestBannerOnPush(t *testing.T) {
	ctrl := &fakeController{surface: customSurface(), settings: settings.Defaults(), sub: &fakeSub{events: []string{bridgev1.NeedRestart}}}
	m := New(ctrl)
	run(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	sub := run(t, m, surfaceMsg{surface: ctrl.surface})
	ev := run(t, m, sub)
	if _, ok := ev.(needRestartMsg); !ok {
		t.Fatalf("expected needRestartMsg, got %T", ev)
	}
	closed := run(t, m, ev)
	if !m.needRestart || !strings.Contains(m.View(), "Restart required") {
		t.Fatal("banner not shown after push")
	}
	if _, ok := closed.(pushClosedMsg); !ok {
		t.Fatalf("expected pushClosedMsg after EOF, got %T", closed)
	}
	m.Update(closed)
	if m.err != nil {
		t.Fatalf("EOF must not be reported as error: %v", m.err)
	}
}

func TestRestartKey(t *testing.T) {
	ctrl := &fakeController{surface: customSurface(), settings: settings.Defaults()}
	m := New(ctrl)
	attach(t, m, ctrl)
	msg := run(t, m, keyPress("R"))
	if _, ok := msg.(restartSentMsg); !ok {
		t.Fatalf("expected restartSentMsg, got %T", msg)
	}
	if ctrl.restarts != 1 {
		t.Fatalf("restarts = %d", ctrl.restarts)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("surface must exit after requesting restart")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit")
	}
}

func TestScrollIndicatorHiddenByRule(t *testing.T) {
	ctrl := &fakeController{surface: nativeSurface(), settings: settings.Defaults()}
	m := New(ctrl)
	attach(t, m, ctrl)
	if !strings.Contains(m.View(), "%") {
		t.Fatal("scroll indicator missing")
	}
	s := nativeSurface()
	s.Rules = append(s.Rules, window.RuleHideScrollbars)
	m.Update(surfaceMsg{surface: s})
	if strings.Contains(m.View(), "%") {
		t.Fatal("scroll indicator shown despite hide-scrollbars rule")
	}
}

func TestWindowActionsOnCustomFrame(t *testing.T) {
	ctrl := &fakeController{surface: customSurface(), settings: settings.Settings{}}
	m := New(ctrl)
	attach(t, m, ctrl)
	run(t, m, keyPress("-"))
	run(t, m, keyPress("="))
	msg := run(t, m, keyPress("x"))
	want := []string{"minimize", "maximize", "close"}
	if strings.Join(ctrl.actions, ",") != strings.Join(want, ",") {
		t.Fatalf("actions = %v", ctrl.actions)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatal("close must quit the surface")
	}
}

func TestErrorsAreShown(t *testing.T) {
	ctrl := &fakeController{surface: nativeSurface(), settings: settings.Defaults()}
	m := New(ctrl)
	attach(t, m, ctrl)
	ctrl.err = errors.New("rate limit exceeded")
	msg := run(t, m, keyPress("s"))
	m.Update(msg)
	if !strings.Contains(m.View(), "rate limit exceeded") {
		t.Fatal("error not rendered")
	}
	if len(ctrl.updates) != 0 {
		t.Fatal("failed update recorded")
	}
}
