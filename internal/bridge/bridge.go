// Package bridge routes the protocol messages exchanged between surfaces and
// the host. It knows nothing about the transport; internal/host exposes it
// over gRPC.
package bridge

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shellhost/internal/restart"
	"shellhost/internal/settings"
	"shellhost/internal/window"
)

var (
	// ErrRateLimited rejects update-config calls above the configured rate.
	ErrRateLimited = errors.New("update-config rate limit exceeded")
	// ErrNoSurface reports a surface handle that is not live.
	ErrNoSurface = errors.New("no such surface")
)

// Options wires a Bridge to the host components.
type Options struct {
	Store   *settings.Store
	Windows *window.Controller
	Restart *restart.Coordinator
	Hub     *Hub
	// Limiter throttles update-config. Nil disables throttling.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// Bridge is the host side of the protocol.
type Bridge struct {
	store   *settings.Store
	windows *window.Controller
	restart *restart.Coordinator
	hub     *Hub
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New returns a bridge over the given components.
func New(opts Options) (*Bridge, error) {
	if opts.Store == nil || opts.Windows == nil || opts.Restart == nil {
		return nil, errors.New("bridge requires store, window controller and restart coordinator")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := opts.Hub
	if hub == nil {
		hub = NewHub(logger)
	}
	opts.Windows.OnSurfaceClosed(hub.Forget)
	return &Bridge{
		store:   opts.Store,
		windows: opts.Windows,
		restart: opts.Restart,
		hub:     hub,
		limiter: opts.Limiter,
		logger:  logger,
	}, nil
}

// Hub returns the push hub.
func (b *Bridge) Hub() *Hub {
	return b.hub
}

// GetConfig answers get-config.
func (b *Bridge) GetConfig() (settings.Settings, error) {
	return b.store.Current()
}

// WindowAction answers window-action for the surface h.
func (b *Bridge) WindowAction(h window.Handle, name string) error {
	action, err := window.ParseAction(name)
	if err != nil {
		b.logger.Warn("Rejected window action", zap.Uint64("surface", uint64(h)), zap.String("action", name))
		return err
	}
	return b.windows.Dispatch(h, action)
}

// UpdateConfig answers update-config. The mapping is validated and persisted
// first; only then is a need-restart notice queued for the calling surface.
// When the caller has no live surface the notice goes to every live surface.
// Presentation rules that can change live are re-applied to every surface.
func (b *Bridge) UpdateConfig(h window.Handle, m map[string]any) error {
	if b.limiter != nil && !b.limiter.Allow() {
		return ErrRateLimited
	}
	next, err := settings.Decode(m)
	if err != nil {
		return err
	}
	prev, err := b.store.Update(next)
	if err != nil {
		if errors.Is(err, settings.ErrNotReady) {
			return err
		}
		b.logger.Error("Failed to persist settings", zap.Error(err))
		return fmt.Errorf("persist settings: %w", err)
	}

	needRestart := b.restart.Observe(prev, next)
	if b.restart.Policy() == restart.PolicyStructural {
		b.windows.ApplyPresentationRulesAll(next)
	}
	if needRestart {
		target := b.windows.Resolve(h)
		if b.windows.Live(target) {
			b.hub.Notify(target, EventNeedRestart)
			b.logger.Info("Queued need-restart", zap.Uint64("surface", uint64(target)))
		} else {
			live := b.windows.Handles()
			b.hub.Broadcast(live, EventNeedRestart)
			b.logger.Info("Caller has no surface, need-restart sent to all",
				zap.Uint64("caller", uint64(h)), zap.Int("surfaces", len(live)))
		}
	}
	return nil
}

// RequestRestart answers request-restart. The host relaunches after the
// response has been sent. It reports false when a relaunch is already under way.
func (b *Bridge) RequestRestart(h window.Handle) bool {
	accepted := b.restart.Request()
	b.logger.Info("Restart requested",
		zap.Uint64("surface", uint64(h)),
		zap.Bool("accepted", accepted),
		zap.Stringer("state", b.restart.State()))
	return accepted
}

// Subscribe opens the need-restart channel for surface h.
func (b *Bridge) Subscribe(h window.Handle) *Subscription {
	return b.hub.Subscribe(b.windows.Resolve(h))
}

// SurfaceInfo describes the calling surface.
func (b *Bridge) SurfaceInfo(h window.Handle) (window.Snapshot, error) {
	snap, ok := b.windows.Snapshot(h)
	if !ok {
		return window.Snapshot{}, fmt.Errorf("%w: %d", ErrNoSurface, h)
	}
	return snap, nil
}

// NewWindow opens an independent surface from the current settings and
// focuses it.
func (b *Bridge) NewWindow() (window.Snapshot, error) {
	cur, err := b.store.Current()
	if err != nil {
		return window.Snapshot{}, err
	}
	h, err := b.windows.NewWindow(cur)
	if err != nil {
		return window.Snapshot{}, err
	}
	b.windows.Focus(h)
	snap, ok := b.windows.Snapshot(h)
	if !ok {
		return window.Snapshot{}, fmt.Errorf("%w: %d", ErrNoSurface, h)
	}
	return snap, nil
}

// MarkRestartPending records a restart cause outside settings and notifies
// every live surface.
func (b *Bridge) MarkRestartPending(reason string) {
	if b.restart.MarkPending(reason) {
		b.hub.Broadcast(b.windows.Handles(), EventNeedRestart)
	}
}
