package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"shellhost/internal/app"
	"shellhost/internal/host"
	"shellhost/internal/settings"
)

func TestConfigSetSendsKey(t *testing.T) {
	var got app.SetParams
	withController(t, &stubController{
		setFunc: func(ctx context.Context, params app.SetParams) (settings.Settings, error) {
			got = params
			s := settings.Defaults()
			s.HideScrollBar = params.Value
			return s, nil
		},
	})
	withTimeout(t, time.Second)
	buf := withOutput(t, cmdConfigSet)

	if err := cmdConfigSet.RunE(cmdConfigSet, []string{"hideScrollBar", "true"}); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got.Key != "hideScrollBar" || !got.Value || got.Timeout != time.Second {
		t.Fatalf("unexpected params %+v", got)
	}
	if !strings.Contains(buf.String(), `"hideScrollBar": true`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestConfigSetRejectsNonBool(t *testing.T) {
	withController(t, &stubController{})
	if err := cmdConfigSet.RunE(cmdConfigSet, []string{"hideScrollBar", "maybe"}); err == nil {
		t.Fatalf("expected error for non-bool value")
	}
}

func TestWindowActionPassesName(t *testing.T) {
	var action string
	withController(t, &stubController{
		actionFunc: func(ctx context.Context, timeout time.Duration, name string) error {
			action = name
			return nil
		},
	})
	withTimeout(t, time.Second)
	if err := cmdWindow.RunE(cmdWindow, []string{"maximize"}); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if action != "maximize" {
		t.Fatalf("expected maximize, got %q", action)
	}
}

func TestRestartReportsRequest(t *testing.T) {
	withController(t, &stubController{
		restartFunc: func(ctx context.Context, timeout time.Duration) error { return nil },
	})
	withTimeout(t, time.Second)
	buf := withOutput(t, cmdRestart)
	if err := cmdRestart.RunE(cmdRestart, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != "Restart requested.\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestStatusOutput(t *testing.T) {
	cases := []struct {
		status app.HostStatus
		want   string
	}{
		{app.HostStatus{Running: true, PID: 42, Socket: "/tmp/s.sock"}, "Host running (pid 42) on /tmp/s.sock\n"},
		{app.HostStatus{PID: 7, StalePID: true}, "Host not running (stale pid file for 7)\n"},
		{app.HostStatus{}, "Host not running\n"},
	}
	for _, tc := range cases {
		withController(t, &stubController{status: tc.status})
		buf := withOutput(t, cmdStatus)
		if err := cmdStatus.RunE(cmdStatus, nil); err != nil {
			t.Fatalf("RunE error: %v", err)
		}
		if got := buf.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestStopSkipsWhenNotRunning(t *testing.T) {
	stub := &stubController{}
	withController(t, stub)
	withOutput(t, cmdStop)
	if err := cmdStop.RunE(cmdStop, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if stub.stopped {
		t.Fatalf("StopHost called for a host that is not running")
	}
}

func TestStopForwardsForce(t *testing.T) {
	stub := &stubController{status: app.HostStatus{Running: true}}
	withController(t, stub)
	withOutput(t, cmdStop)
	old := stopForce
	stopForce = true
	t.Cleanup(func() { stopForce = old })

	if err := cmdStop.RunE(cmdStop, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if !stub.stopped || !stub.stoppedForce {
		t.Fatalf("expected forced stop, got stopped=%v force=%v", stub.stopped, stub.stoppedForce)
	}
}

func TestServeAlreadyRunningIsNotAnError(t *testing.T) {
	withController(t, &stubController{
		serveFunc: func(ctx context.Context, opts app.ServeOptions) (host.Exit, error) {
			return host.ExitStopped, fmt.Errorf("%w (pid 9)", host.ErrAlreadyRunning)
		},
	})
	buf := withOutput(t, cmdServe)
	if err := cmdServe.RunE(cmdServe, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if !strings.Contains(buf.String(), "already running") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestServeReportsExit(t *testing.T) {
	withController(t, &stubController{
		serveFunc: func(ctx context.Context, opts app.ServeOptions) (host.Exit, error) {
			if opts.Ready == nil {
				t.Fatalf("Ready callback not set")
			}
			return host.ExitRelaunched, nil
		},
	})
	buf := withOutput(t, cmdServe)
	if err := cmdServe.RunE(cmdServe, nil); err != nil {
		t.Fatalf("RunE error: %v", err)
	}
	if got := buf.String(); got != "Host relaunched.\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestServePropagatesFailure(t *testing.T) {
	expected := errors.New("settings file is corrupt")
	withController(t, &stubController{
		serveFunc: func(ctx context.Context, opts app.ServeOptions) (host.Exit, error) {
			return host.ExitStopped, expected
		},
	})
	withOutput(t, cmdServe)
	if err := cmdServe.RunE(cmdServe, nil); !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}
