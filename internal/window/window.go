// Package window owns the presentation surfaces of the shell. Only the
// Controller may create, command or destroy a surface.
package window

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"shellhost/internal/settings"
)

// Handle identifies a surface. The zero Handle means "none".
type Handle uint64

// Frame is the chrome mode of a surface, fixed at creation.
type Frame int

const (
	// FrameNative shows the system title bar and menu bar.
	FrameNative Frame = iota
	// FrameCustom hides the native chrome; the page draws its own title bar.
	FrameCustom
)

func (f Frame) String() string {
	switch f {
	case FrameNative:
		return "native"
	case FrameCustom:
		return "custom"
	default:
		return fmt.Sprintf("frame(%d)", int(f))
	}
}

// FrameFor derives the frame mode from settings.
func FrameFor(s settings.Settings) Frame {
	if s.MenuBarVisible {
		return FrameNative
	}
	return FrameCustom
}

// Action is a window command sent by a surface.
type Action string

const (
	ActionMinimize Action = "minimize"
	// ActionMaximize toggles between maximized and restored.
	ActionMaximize Action = "maximize"
	ActionClose    Action = "close"
)

// ErrUnknownAction rejects commands outside the Action set.
var ErrUnknownAction = errors.New("unknown window action")

// ParseAction validates a wire action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionMinimize, ActionMaximize, ActionClose:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Snapshot is a copy of a surface's state.
type Snapshot struct {
	Handle    Handle
	Title     string
	Frame     Frame
	Width     int
	Height    int
	Minimized bool
	Maximized bool
	Focused   bool
	Primary   bool
	Rules     []string
}

// HasRule reports whether the named presentation rule is injected.
func (s Snapshot) HasRule(name string) bool {
	for _, r := range s.Rules {
		if r == name {
			return true
		}
	}
	return false
}

// Options configures a Controller.
type Options struct {
	Backend Backend
	Title   string
	Width   int
	Height  int
	Logger  *zap.Logger
	// OnAllClosed runs after the last surface was closed by a command.
	OnAllClosed func()
}

const (
	defaultWidth  = 800
	defaultHeight = 700
	defaultTitle  = "shellhost"
)

type surface struct {
	handle Handle
	spec   Spec
	native Native
	rules  []Rule
}

// Controller tracks the live surfaces. One of them is the primary surface
// that unaddressed commands are routed to.
type Controller struct {
	mu       sync.Mutex
	opts     Options
	logger   *zap.Logger
	nextID   Handle
	surfaces map[Handle]*surface
	primary  Handle
	onClose  []func(Handle)
}

// NewController returns a controller with no surfaces.
func NewController(opts Options) *Controller {
	if opts.Backend == nil {
		opts.Backend = Headless{}
	}
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.Title == "" {
		opts.Title = defaultTitle
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		opts:     opts,
		logger:   logger,
		nextID:   1,
		surfaces: make(map[Handle]*surface),
	}
}

// Create opens a surface and tracks it as the primary when no primary is
// tracked. Its frame is taken from s and cannot
// change for the surface's lifetime.
func (c *Controller) Create(s settings.Settings) (Handle, error) {
	return c.open(s, true)
}

// NewWindow opens an additional surface with its own settings snapshot. It
// never replaces the primary surface.
func (c *Controller) NewWindow(s settings.Settings) (Handle, error) {
	return c.open(s, false)
}

func (c *Controller) open(s settings.Settings, primary bool) (Handle, error) {
	spec := Spec{
		Title:  c.opts.Title,
		Frame:  FrameFor(s),
		Width:  c.opts.Width,
		Height: c.opts.Height,
	}
	native, err := c.opts.Backend.Open(spec)
	if err != nil {
		return 0, fmt.Errorf("open surface: %w", err)
	}
	rules := RulesFor(s)
	native.InjectRules(rules)

	c.mu.Lock()
	h := c.nextID
	c.nextID++
	c.surfaces[h] = &surface{handle: h, spec: spec, native: native, rules: rules}
	primary = primary && c.primary == 0
	if primary {
		c.primary = h
	}
	c.mu.Unlock()

	c.logger.Info("Surface created",
		zap.Uint64("surface", uint64(h)),
		zap.Stringer("frame", spec.Frame),
		zap.Bool("primary", primary))
	return h, nil
}

// Primary returns the tracked primary surface, or 0 when it was closed.
func (c *Controller) Primary() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primary
}

// OnSurfaceClosed registers fn to run after a surface is closed by a command.
func (c *Controller) OnSurfaceClosed(fn func(Handle)) {
	c.mu.Lock()
	c.onClose = append(c.onClose, fn)
	c.mu.Unlock()
}

// Live reports whether h names an open surface. The zero handle is resolved
// to the primary first.
func (c *Controller) Live(h Handle) bool {
	h = c.Resolve(h)
	c.mu.Lock()
	sf := c.surfaces[h]
	c.mu.Unlock()
	return sf != nil && !sf.native.IsClosed()
}

// Resolve maps the zero handle to the primary surface.
func (c *Controller) Resolve(h Handle) Handle {
	if h != 0 {
		return h
	}
	return c.Primary()
}

// ApplyPresentationRules re-injects the rules derived from s into a live
// surface. It reports false for a stale handle.
func (c *Controller) ApplyPresentationRules(h Handle, s settings.Settings) bool {
	h = c.Resolve(h)
	c.mu.Lock()
	sf := c.surfaces[h]
	if sf == nil {
		c.mu.Unlock()
		return false
	}
	rules := RulesFor(s)
	sf.rules = rules
	native := sf.native
	c.mu.Unlock()

	native.InjectRules(rules)
	c.logger.Debug("Presentation rules applied", zap.Uint64("surface", uint64(h)), zap.Int("rules", len(rules)))
	return true
}

// ApplyPresentationRulesAll re-injects rules into every live surface.
func (c *Controller) ApplyPresentationRulesAll(s settings.Settings) {
	for _, h := range c.Handles() {
		c.ApplyPresentationRules(h, s)
	}
}

// Dispatch runs a window command. Commands for stale handles are dropped
// without error.
func (c *Controller) Dispatch(h Handle, a Action) error {
	if _, err := ParseAction(string(a)); err != nil {
		return err
	}
	h = c.Resolve(h)

	c.mu.Lock()
	sf := c.surfaces[h]
	if sf == nil || sf.native.IsClosed() {
		c.mu.Unlock()
		c.logger.Debug("Dropping command for stale surface", zap.Uint64("surface", uint64(h)), zap.String("action", string(a)))
		return nil
	}
	native := sf.native
	var lastClosed bool
	var hooks []func(Handle)
	if a == ActionClose {
		delete(c.surfaces, h)
		if c.primary == h {
			c.primary = 0
		}
		lastClosed = len(c.surfaces) == 0
		hooks = append(hooks, c.onClose...)
	}
	c.mu.Unlock()

	switch a {
	case ActionMinimize:
		native.Minimize()
	case ActionMaximize:
		if native.IsMaximized() {
			native.Unmaximize()
		} else {
			native.Maximize()
		}
	case ActionClose:
		native.Close()
		c.logger.Info("Surface closed", zap.Uint64("surface", uint64(h)))
		for _, fn := range hooks {
			fn(h)
		}
		if lastClosed && c.opts.OnAllClosed != nil {
			c.opts.OnAllClosed()
		}
	}
	return nil
}

// Focus brings a live surface to the front. Stale handles are ignored.
func (c *Controller) Focus(h Handle) {
	h = c.Resolve(h)
	c.mu.Lock()
	sf := c.surfaces[h]
	c.mu.Unlock()
	if sf != nil {
		sf.native.Focus()
	}
}

// Snapshot returns the state of a live surface.
func (c *Controller) Snapshot(h Handle) (Snapshot, bool) {
	h = c.Resolve(h)
	c.mu.Lock()
	sf := c.surfaces[h]
	if sf == nil || sf.native.IsClosed() {
		c.mu.Unlock()
		return Snapshot{}, false
	}
	snap := Snapshot{
		Handle:  sf.handle,
		Title:   sf.spec.Title,
		Frame:   sf.spec.Frame,
		Width:   sf.spec.Width,
		Height:  sf.spec.Height,
		Primary: c.primary == sf.handle,
		Rules:   make([]string, 0, len(sf.rules)),
	}
	for _, r := range sf.rules {
		snap.Rules = append(snap.Rules, r.Name)
	}
	native := sf.native
	c.mu.Unlock()

	snap.Minimized = native.IsMinimized()
	snap.Maximized = native.IsMaximized()
	snap.Focused = native.IsFocused()
	return snap, true
}

// Handles lists the live surfaces in creation order.
func (c *Controller) Handles() []Handle {
	c.mu.Lock()
	out := make([]Handle, 0, len(c.surfaces))
	for h := range c.surfaces {
		out = append(out, h)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CloseAll destroys every surface without running OnAllClosed. It is used
// on process exit.
func (c *Controller) CloseAll() {
	c.mu.Lock()
	surfaces := c.surfaces
	c.surfaces = make(map[Handle]*surface)
	c.primary = 0
	c.mu.Unlock()
	for _, sf := range surfaces {
		sf.native.Close()
	}
}
