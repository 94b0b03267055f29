package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shellhost/internal/app"
	"shellhost/internal/config"
	"shellhost/internal/host"
	"shellhost/internal/settings"
)

var (
	configPath     string
	verbose        bool
	surfaceID      uint64
	requestTimeout time.Duration

	logger  = zap.NewNop()
	hostCfg = config.Default()
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to host config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Uint64Var(&surfaceID, "surface", 0, "Surface handle to address (0 = primary)")
	rootCmd.PersistentFlags().DurationVarP(&requestTimeout, "timeout", "t", 0, "Timeout for host requests (default from config)")
}

var rootCmd = &cobra.Command{
	Use:           "shellhost [command]",
	Short:         "shellhost: settings and window host of the desktop shell",
	Long:          `shellhost runs the privileged host process that owns the shell's settings file and window surfaces, and talks to it over the local bridge.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(verbose)
		cfg, err := config.Load(configPath, logger)
		if err != nil {
			return err
		}
		hostCfg = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// newLogger writes console logs to stderr, colored when it is a terminal.
func newLogger(verbose bool) *zap.Logger {
	fd := os.Stderr.Fd()
	color := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)

	var encCfg zapcore.EncoderConfig
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	var opts []zap.Option
	if verbose {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level.SetLevel(zap.DebugLevel)
		opts = append(opts, zap.AddCaller(), zap.Development())
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(colorable.NewColorableStderr()),
		level,
	)
	return zap.New(core, opts...)
}

// controllerAPI is the part of app.App the commands use.
type controllerAPI interface {
	Ping(ctx context.Context, timeout time.Duration) (string, error)
	GetConfig(ctx context.Context, timeout time.Duration) (settings.Settings, error)
	SetConfig(ctx context.Context, params app.SetParams) (settings.Settings, error)
	WindowAction(ctx context.Context, timeout time.Duration, action string) error
	SurfaceInfo(ctx context.Context, timeout time.Duration) (app.Surface, error)
	NewWindow(ctx context.Context, timeout time.Duration) (app.Surface, error)
	RequestRestart(ctx context.Context, timeout time.Duration) error
	Status() app.HostStatus
	StopHost(force bool) error
	Serve(ctx context.Context, opts app.ServeOptions) (host.Exit, error)
}

func newApp() *app.App {
	cfg := hostCfg
	return app.New(app.Options{
		ConfigPath: configPath,
		Config:     &cfg,
		Logger:     logger,
		Surface:    surfaceID,
	})
}

var controllerFactory = func() controllerAPI {
	return newApp()
}

func controller() controllerAPI {
	return controllerFactory()
}

// timeout returns the --timeout flag or the configured request timeout.
func timeout() time.Duration {
	if requestTimeout != 0 {
		return requestTimeout
	}
	return hostCfg.RequestTimeout
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "shellhost:", err)
		os.Exit(1)
	}
}
