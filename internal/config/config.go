package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"shellhost/internal/restart"
)

const (
	defaultRequestTimeout = 2 * time.Second
	defaultWindowWidth    = 800
	defaultWindowHeight   = 700
	defaultUpdateRate     = 5.0
	defaultUpdateBurst    = 10

	envSettingsPath    = "SHELLHOST_SETTINGS"
	envRequestTimeout  = "SHELLHOST_REQUEST_TIMEOUT"
	envWindowWidth     = "SHELLHOST_WINDOW_WIDTH"
	envWindowHeight    = "SHELLHOST_WINDOW_HEIGHT"
	envRestartPolicy   = "SHELLHOST_RESTART_POLICY"
	envUpdateRate      = "SHELLHOST_UPDATE_RATE"
	envUpdateBurst     = "SHELLHOST_UPDATE_BURST"
	envWatchExecutable = "SHELLHOST_WATCH_EXECUTABLE"
)

// Config holds the host's runtime tunables. The user settings document is
// separate and owned by the settings store.
type Config struct {
	SettingsPath string
	// SocketPath overrides the default socket location when set.
	SocketPath     string
	RequestTimeout time.Duration
	WindowWidth    int
	WindowHeight   int
	RestartPolicy  restart.Policy
	// UpdateRate is the sustained update-config rate per second.
	UpdateRate      float64
	UpdateBurst     int
	WatchExecutable bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SettingsPath:   DefaultSettingsPath(),
		RequestTimeout: defaultRequestTimeout,
		WindowWidth:    defaultWindowWidth,
		WindowHeight:   defaultWindowHeight,
		RestartPolicy:  restart.PolicyStructural,
		UpdateRate:     defaultUpdateRate,
		UpdateBurst:    defaultUpdateBurst,
	}
}

// DefaultSettingsPath is settings.json under the user config directory.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shellhost", "settings.json")
}

// Load builds a Config from an optional JSON or YAML file plus environment
// overrides. Invalid environment values are logged and ignored.
func Load(path string, logger *zap.Logger) (Config, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg, logger)
	return cfg, nil
}

type fileConfig struct {
	SettingsPath    string   `json:"settings_path" yaml:"settings_path"`
	SocketPath      string   `json:"socket_path" yaml:"socket_path"`
	RequestTimeout  string   `json:"request_timeout" yaml:"request_timeout"`
	WindowWidth     int      `json:"window_width" yaml:"window_width"`
	WindowHeight    int      `json:"window_height" yaml:"window_height"`
	RestartPolicy   string   `json:"restart_policy" yaml:"restart_policy"`
	UpdateRate      *float64 `json:"update_rate" yaml:"update_rate"`
	UpdateBurst     *int     `json:"update_burst" yaml:"update_burst"`
	WatchExecutable *bool    `json:"watch_executable" yaml:"watch_executable"`
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return err
	}

	if raw.SettingsPath != "" {
		cfg.SettingsPath = raw.SettingsPath
	}
	if raw.SocketPath != "" {
		cfg.SocketPath = raw.SocketPath
	}
	if raw.RequestTimeout != "" {
		dur, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout: %w", err)
		}
		if dur <= 0 {
			return errors.New("request_timeout must be > 0")
		}
		cfg.RequestTimeout = dur
	}
	if raw.WindowWidth < 0 || raw.WindowHeight < 0 {
		return errors.New("window size must be >= 0")
	}
	if raw.WindowWidth > 0 {
		cfg.WindowWidth = raw.WindowWidth
	}
	if raw.WindowHeight > 0 {
		cfg.WindowHeight = raw.WindowHeight
	}
	if raw.RestartPolicy != "" {
		p, err := restart.ParsePolicy(raw.RestartPolicy)
		if err != nil {
			return err
		}
		cfg.RestartPolicy = p
	}
	if raw.UpdateRate != nil {
		if *raw.UpdateRate < 0 {
			return errors.New("update_rate must be >= 0")
		}
		cfg.UpdateRate = *raw.UpdateRate
	}
	if raw.UpdateBurst != nil {
		if *raw.UpdateBurst < 1 {
			return errors.New("update_burst must be >= 1")
		}
		cfg.UpdateBurst = *raw.UpdateBurst
	}
	if raw.WatchExecutable != nil {
		cfg.WatchExecutable = *raw.WatchExecutable
	}
	return nil
}

func applyEnvOverrides(cfg *Config, logger *zap.Logger) {
	invalid := func(key, value string, err error) {
		logger.Warn("Ignoring invalid environment value", zap.String("key", key), zap.String("value", value), zap.Error(err))
	}

	if v := os.Getenv(envSettingsPath); v != "" {
		cfg.SettingsPath = v
	}
	if v := os.Getenv(envRequestTimeout); v != "" {
		if dur, err := time.ParseDuration(v); err != nil {
			invalid(envRequestTimeout, v, err)
		} else if dur <= 0 {
			invalid(envRequestTimeout, v, errors.New("must be > 0"))
		} else {
			cfg.RequestTimeout = dur
		}
	}
	if v := os.Getenv(envWindowWidth); v != "" {
		if n, err := positiveInt(v); err != nil {
			invalid(envWindowWidth, v, err)
		} else {
			cfg.WindowWidth = n
		}
	}
	if v := os.Getenv(envWindowHeight); v != "" {
		if n, err := positiveInt(v); err != nil {
			invalid(envWindowHeight, v, err)
		} else {
			cfg.WindowHeight = n
		}
	}
	if v := os.Getenv(envRestartPolicy); v != "" {
		if p, err := restart.ParsePolicy(v); err != nil {
			invalid(envRestartPolicy, v, err)
		} else {
			cfg.RestartPolicy = p
		}
	}
	if v := os.Getenv(envUpdateRate); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err != nil {
			invalid(envUpdateRate, v, err)
		} else if f < 0 {
			invalid(envUpdateRate, v, errors.New("must be >= 0"))
		} else {
			cfg.UpdateRate = f
		}
	}
	if v := os.Getenv(envUpdateBurst); v != "" {
		if n, err := positiveInt(v); err != nil {
			invalid(envUpdateBurst, v, err)
		} else {
			cfg.UpdateBurst = n
		}
	}
	if v := os.Getenv(envWatchExecutable); v != "" {
		if b, err := strconv.ParseBool(v); err != nil {
			invalid(envWatchExecutable, v, err)
		} else {
			cfg.WatchExecutable = b
		}
	}
}

func positiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be > 0")
	}
	return n, nil
}
