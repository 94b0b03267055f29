package tui

import (
	"context"
	"sync"
	"time"

	"shellhost/internal/app"
	"shellhost/internal/settings"
)

// appController binds an app.App to the surface it first attaches to, so
// later calls and pushes keep addressing that surface.
type appController struct {
	mu      sync.Mutex
	app     *app.App
	timeout time.Duration
}

// FromApp adapts a to Controller. Every call is bounded by timeout.
func FromApp(a *app.App, timeout time.Duration) Controller {
	return &appController{app: a, timeout: timeout}
}

func (c *appController) current() *app.App {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app
}

func (c *appController) SurfaceInfo(ctx context.Context) (app.Surface, error) {
	s, err := c.current().SurfaceInfo(ctx, c.timeout)
	if err != nil {
		return s, err
	}
	c.mu.Lock()
	if c.app.Surface() == 0 && s.Handle != 0 {
		c.app = c.app.ForSurface(s.Handle)
	}
	c.mu.Unlock()
	return s, nil
}

func (c *appController) GetConfig(ctx context.Context) (settings.Settings, error) {
	return c.current().GetConfig(ctx, c.timeout)
}

func (c *appController) UpdateConfig(ctx context.Context, s settings.Settings) error {
	return c.current().UpdateConfig(ctx, c.timeout, s)
}

func (c *appController) WindowAction(ctx context.Context, action string) error {
	return c.current().WindowAction(ctx, c.timeout, action)
}

func (c *appController) RequestRestart(ctx context.Context) error {
	return c.current().RequestRestart(ctx, c.timeout)
}

func (c *appController) NewWindow(ctx context.Context) (app.Surface, error) {
	return c.current().NewWindow(ctx, c.timeout)
}

func (c *appController) Subscribe(ctx context.Context) (Subscription, error) {
	sub, err := c.current().Subscribe(ctx, c.timeout)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
