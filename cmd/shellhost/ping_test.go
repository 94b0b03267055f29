package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"shellhost/internal/app"
	"shellhost/internal/host"
	"shellhost/internal/settings"
)

type stubController struct {
	pingFunc     func(ctx context.Context, timeout time.Duration) (string, error)
	setFunc      func(ctx context.Context, params app.SetParams) (settings.Settings, error)
	getFunc      func(ctx context.Context, timeout time.Duration) (settings.Settings, error)
	actionFunc   func(ctx context.Context, timeout time.Duration, action string) error
	restartFunc  func(ctx context.Context, timeout time.Duration) error
	serveFunc    func(ctx context.Context, opts app.ServeOptions) (host.Exit, error)
	status       app.HostStatus
	stopped      bool
	stoppedForce bool
}

func (s *stubController) Ping(ctx context.Context, timeout time.Duration) (string, error) {
	if s.pingFunc != nil {
		return s.pingFunc(ctx, timeout)
	}
	return "", errors.New("ping not implemented")
}

func (s *stubController) GetConfig(ctx context.Context, timeout time.Duration) (settings.Settings, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, timeout)
	}
	panic("GetConfig not implemented")
}

func (s *stubController) SetConfig(ctx context.Context, params app.SetParams) (settings.Settings, error) {
	if s.setFunc != nil {
		return s.setFunc(ctx, params)
	}
	panic("SetConfig not implemented")
}

func (s *stubController) WindowAction(ctx context.Context, timeout time.Duration, action string) error {
	if s.actionFunc != nil {
		return s.actionFunc(ctx, timeout, action)
	}
	panic("WindowAction not implemented")
}

func (s *stubController) SurfaceInfo(ctx context.Context, timeout time.Duration) (app.Surface, error) {
	panic("SurfaceInfo not implemented")
}

func (s *stubController) NewWindow(ctx context.Context, timeout time.Duration) (app.Surface, error) {
	panic("NewWindow not implemented")
}

func (s *stubController) RequestRestart(ctx context.Context, timeout time.Duration) error {
	if s.restartFunc != nil {
		return s.restartFunc(ctx, timeout)
	}
	panic("RequestRestart not implemented")
}

func (s *stubController) Status() app.HostStatus {
	return s.status
}

func (s *stubController) StopHost(force bool) error {
	s.stopped = true
	s.stoppedForce = force
	return nil
}

func (s *stubController) Serve(ctx context.Context, opts app.ServeOptions) (host.Exit, error) {
	if s.serveFunc != nil {
		return s.serveFunc(ctx, opts)
	}
	panic("Serve not implemented")
}

func withController(t *testing.T, stub controllerAPI) {
	t.Helper()
	origFactory := controllerFactory
	controllerFactory = func() controllerAPI {
		return stub
	}
	t.Cleanup(func() {
		controllerFactory = origFactory
	})
}

func withOutput(t *testing.T, cmd *cobra.Command) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	origOut := cmd.OutOrStdout()
	cmd.SetOut(buf)
	t.Cleanup(func() { cmd.SetOut(origOut) })
	return buf
}

func withTimeout(t *testing.T, d time.Duration) {
	t.Helper()
	old := requestTimeout
	requestTimeout = d
	t.Cleanup(func() { requestTimeout = old })
}

func TestPingSuccess(t *testing.T) {
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			if timeout != 2*time.Second {
				t.Fatalf("expected timeout 2s, got %v", timeout)
			}
			return "pong", nil
		},
	})
	buf := withOutput(t, cmdPing)
	withTimeout(t, 2*time.Second)

	if err := cmdPing.RunE(cmdPing, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != "pong\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestPingError(t *testing.T) {
	expected := errors.New("host down")
	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			return "", expected
		},
	})
	withTimeout(t, time.Second)

	err := cmdPing.RunE(cmdPing, nil)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error %v, got %v", expected, err)
	}
}

func TestPingUsesConfiguredTimeout(t *testing.T) {
	withTimeout(t, 0)
	oldCfg := hostCfg
	hostCfg.RequestTimeout = 3 * time.Second
	t.Cleanup(func() { hostCfg = oldCfg })

	withController(t, &stubController{
		pingFunc: func(ctx context.Context, timeout time.Duration) (string, error) {
			if timeout != 3*time.Second {
				t.Fatalf("expected timeout 3s, got %v", timeout)
			}
			return "pong", nil
		},
	})
	withOutput(t, cmdPing)
	if err := cmdPing.RunE(cmdPing, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
}
