// Package host runs the privileged shell process: it owns the settings
// store and the surfaces and serves the bridge on a per-user UNIX socket.
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"shellhost/internal/bridge"
	"shellhost/internal/config"
	"shellhost/internal/restart"
	"shellhost/internal/settings"
	"shellhost/internal/window"
)

// ErrAlreadyRunning is returned by Run when another host answers on the socket.
var ErrAlreadyRunning = errors.New("host is already running")

// Exit says why Run returned.
type Exit int

const (
	// ExitStopped follows a cancelled context, usually a signal.
	ExitStopped Exit = iota
	// ExitAllClosed follows the last surface being closed.
	ExitAllClosed
	// ExitRelaunched means a fresh copy of the process was started.
	ExitRelaunched
)

func (e Exit) String() string {
	switch e {
	case ExitStopped:
		return "stopped"
	case ExitAllClosed:
		return "all-surfaces-closed"
	case ExitRelaunched:
		return "relaunched"
	default:
		return fmt.Sprintf("exit(%d)", int(e))
	}
}

// Options configures Run.
type Options struct {
	Config config.Config
	Logger *zap.Logger
	// Backend opens surfaces. Nil selects window.Headless.
	Backend window.Backend
	// Launcher starts the replacement process. Nil selects restart.ProcessLauncher.
	Launcher restart.Launcher
	// Force stops a host already serving the socket.
	Force bool
	// Ready is called once the bridge accepts connections.
	Ready func(socket string, primary window.Handle)
}

// Run starts the host and blocks until it should exit. A corrupt settings
// file is fatal.
func Run(ctx context.Context, opts Options) (Exit, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = restart.ProcessLauncher{}
	}
	cfg := opts.Config
	socket := Resolve(cfg.SocketPath)

	if IsRunning(socket) {
		if !opts.Force {
			pid, _ := RunningPID(socket)
			return ExitStopped, fmt.Errorf("%w (pid %d); use --force to replace it", ErrAlreadyRunning, pid)
		}
		logger.Info("Stopping existing host", zap.String("socket", socket))
		if err := StopRunningHost(socket, true, logger); err != nil {
			return ExitStopped, fmt.Errorf("stop running host: %w", err)
		}
	}

	store := settings.NewStore(cfg.SettingsPath, logger.Named("settings"))
	current, err := store.Load()
	if err != nil {
		return ExitStopped, err
	}

	allClosed := make(chan struct{})
	var closeOnce sync.Once
	windows := window.NewController(window.Options{
		Backend: opts.Backend,
		Width:   cfg.WindowWidth,
		Height:  cfg.WindowHeight,
		Logger:  logger.Named("window"),
		OnAllClosed: func() {
			closeOnce.Do(func() { close(allClosed) })
		},
	})
	defer windows.CloseAll()

	primary, err := windows.Create(current)
	if err != nil {
		return ExitStopped, err
	}

	coord := restart.NewCoordinator(cfg.RestartPolicy, logger.Named("restart"))
	b, err := bridge.New(bridge.Options{
		Store:   store,
		Windows: windows,
		Restart: coord,
		Limiter: newLimiter(cfg),
		Logger:  logger.Named("bridge"),
	})
	if err != nil {
		return ExitStopped, err
	}

	srv, err := Listen(socket, b, logger)
	if err != nil {
		return ExitStopped, fmt.Errorf("listen on %s: %w", socket, err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if cfg.WatchExecutable {
		startWatcher(watchCtx, b, logger)
	}

	if restart.Relaunched() {
		logger.Info("Host relaunched", zap.Int("pid", os.Getpid()))
	}
	logger.Info("Host ready",
		zap.String("socket", srv.Path()),
		zap.String("settings", store.Path()),
		zap.Uint64("primary", uint64(primary)))
	if opts.Ready != nil {
		opts.Ready(socket, primary)
	}

	var exit Exit
	select {
	case <-ctx.Done():
		exit = ExitStopped
	case <-allClosed:
		exit = ExitAllClosed
	case <-coord.Requests():
		exit = ExitRelaunched
	}
	logger.Info("Host shutting down",
		zap.Stringer("reason", exit),
		zap.Stringer("restart", coord.State()),
		zap.String("pending", coord.Reason()))

	stopWatch()
	b.Hub().Close()
	if err := srv.Close(); err != nil {
		logger.Warn("Error closing bridge server", zap.Error(err))
	}

	if exit == ExitRelaunched {
		windows.CloseAll()
		if err := restart.Relaunch(launcher); err != nil {
			return exit, fmt.Errorf("relaunch: %w", err)
		}
	}
	return exit, nil
}

// newLimiter builds the update-config limiter. A zero rate disables it.
func newLimiter(cfg config.Config) *rate.Limiter {
	if cfg.UpdateRate <= 0 {
		return nil
	}
	burst := cfg.UpdateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.UpdateRate), burst)
}

func startWatcher(ctx context.Context, b *bridge.Bridge, logger *zap.Logger) {
	exe, err := os.Executable()
	if err != nil {
		logger.Warn("Cannot resolve executable, watcher disabled", zap.Error(err))
		return
	}
	err = restart.WatchExecutable(ctx, exe, logger.Named("watch"), func() {
		b.MarkRestartPending("executable replaced")
	})
	if err != nil {
		logger.Warn("Executable watcher disabled", zap.String("path", exe), zap.Error(err))
	}
}

// Status describes the host serving a socket.
type Status struct {
	Socket  string
	Running bool
	PID     int
	// StalePID is set when a PID file names a process that is gone.
	StalePID bool
}

// Inspect reports the state of the host on socket.
func Inspect(socket string) Status {
	socket = Resolve(socket)
	st := Status{Socket: socket, Running: IsRunning(socket)}
	if pid, err := RunningPID(socket); err == nil {
		st.PID = pid
		st.StalePID = !processAlive(pid)
	}
	return st
}
