package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shellhost/internal/restart"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		envSettingsPath, envRequestTimeout, envWindowWidth, envWindowHeight,
		envRestartPolicy, envUpdateRate, envUpdateBurst, envWatchExecutable,
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RequestTimeout != defaultRequestTimeout || cfg.WindowWidth != 800 || cfg.WindowHeight != 700 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RestartPolicy != restart.PolicyStructural || cfg.WatchExecutable {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if filepath.Base(cfg.SettingsPath) != "settings.json" {
		t.Fatalf("settings path = %q", cfg.SettingsPath)
	}
}

func TestLoadJSONFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "host.json", `{
  "settings_path": "/tmp/s.json",
  "request_timeout": "750ms",
  "window_width": 1024,
  "restart_policy": "always",
  "update_rate": 0,
  "update_burst": 2,
  "watch_executable": true
}`)
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SettingsPath != "/tmp/s.json" || cfg.RequestTimeout != 750*time.Millisecond {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
	if cfg.WindowWidth != 1024 || cfg.WindowHeight != 700 {
		t.Fatalf("unexpected size %dx%d", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.RestartPolicy != restart.PolicyAlways || cfg.UpdateRate != 0 || cfg.UpdateBurst != 2 || !cfg.WatchExecutable {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "host.yaml", "socket_path: /tmp/sh.sock\nwindow_height: 480\nrestart_policy: structural\n")
	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SocketPath != "/tmp/sh.sock" || cfg.WindowHeight != 480 {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"bad.json":     `{`,
		"timeout.json": `{"request_timeout": "soon"}`,
		"zero.json":    `{"request_timeout": "0s"}`,
		"policy.json":  `{"restart_policy": "never"}`,
		"burst.json":   `{"update_burst": 0}`,
		"size.json":    `{"window_width": -1}`,
	}
	for name, body := range cases {
		if _, err := Load(writeFile(t, name, body), nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "host.json", `{"request_timeout": "1s", "window_width": 640}`)
	t.Setenv(envRequestTimeout, "3s")
	t.Setenv(envWindowWidth, "nope")
	t.Setenv(envRestartPolicy, "always")
	t.Setenv(envWatchExecutable, "true")
	t.Setenv(envSettingsPath, "/tmp/env.json")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.WindowWidth != 640 {
		t.Fatalf("invalid env must be ignored, width = %d", cfg.WindowWidth)
	}
	if cfg.RestartPolicy != restart.PolicyAlways || !cfg.WatchExecutable || cfg.SettingsPath != "/tmp/env.json" {
		t.Fatalf("unexpected cfg %+v", cfg)
	}
}
