package window

import (
	"errors"
	"sync"
)

// Spec holds the creation-time properties of a surface. None of them can be
// changed once the native surface exists.
type Spec struct {
	Title  string
	Frame  Frame
	Width  int
	Height int
}

// Native is a live toolkit surface.
type Native interface {
	Minimize()
	Maximize()
	Unmaximize()
	IsMaximized() bool
	IsMinimized() bool
	Focus()
	IsFocused() bool
	// InjectRules replaces the presentation rules of the page.
	InjectRules(rules []Rule)
	Close()
	IsClosed() bool
}

// Backend opens native surfaces.
type Backend interface {
	Open(spec Spec) (Native, error)
}

// Headless is a Backend that keeps surface state in memory. Surfaces are
// rendered by whichever script context attaches to them over the bridge.
type Headless struct{}

// Open implements Backend.
func (Headless) Open(spec Spec) (Native, error) {
	if spec.Width <= 0 || spec.Height <= 0 {
		return nil, errors.New("surface dimensions must be positive")
	}
	return &headlessSurface{focused: true}, nil
}

type headlessSurface struct {
	mu        sync.Mutex
	minimized bool
	maximized bool
	focused   bool
	closed    bool
	rules     []Rule
}

func (h *headlessSurface) Minimize() {
	h.mu.Lock()
	h.minimized = true
	h.focused = false
	h.mu.Unlock()
}

func (h *headlessSurface) Maximize() {
	h.mu.Lock()
	h.maximized = true
	h.minimized = false
	h.mu.Unlock()
}

func (h *headlessSurface) Unmaximize() {
	h.mu.Lock()
	h.maximized = false
	h.mu.Unlock()
}

func (h *headlessSurface) IsMaximized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maximized
}

func (h *headlessSurface) IsMinimized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.minimized
}

func (h *headlessSurface) Focus() {
	h.mu.Lock()
	h.focused = true
	h.minimized = false
	h.mu.Unlock()
}

func (h *headlessSurface) IsFocused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

func (h *headlessSurface) InjectRules(rules []Rule) {
	h.mu.Lock()
	h.rules = append([]Rule(nil), rules...)
	h.mu.Unlock()
}

func (h *headlessSurface) Close() {
	h.mu.Lock()
	h.closed = true
	h.focused = false
	h.mu.Unlock()
}

func (h *headlessSurface) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
