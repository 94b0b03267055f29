package app

import (
	"go.uber.org/zap"

	"shellhost/internal/config"
	"shellhost/internal/host"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional host config file.
	ConfigPath string
	// Config is the loaded host configuration. The zero value selects
	// config.Default.
	Config *config.Config
	Logger *zap.Logger
	// Surface names the calling surface in every request. Zero means the
	// host's primary surface.
	Surface uint64
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
	cfg     config.Config
	socket  string
	surface uint64
	logger  *zap.Logger
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfgPath: opts.ConfigPath,
		cfg:     cfg,
		socket:  host.Resolve(cfg.SocketPath),
		surface: opts.Surface,
		logger:  logger,
	}
}

// ConfigPath returns the configured config file path (if any).
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// Config returns the host configuration in use.
func (a *App) Config() config.Config {
	return a.cfg
}

// Socket returns the host socket path.
func (a *App) Socket() string {
	return a.socket
}

// ForSurface returns a copy of a that addresses surface id.
func (a *App) ForSurface(id uint64) *App {
	cp := *a
	cp.surface = id
	return &cp
}

// Surface returns the surface handle attached to requests.
func (a *App) Surface() uint64 {
	return a.surface
}
