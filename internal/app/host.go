package app

import (
	"context"

	"shellhost/internal/host"
	"shellhost/internal/window"
)

// HostStatus represents current information about the host process.
type HostStatus struct {
	Running bool
	PID     int
	Socket  string
	// StalePID is set when the PID file outlived its process.
	StalePID bool
}

// Status reports whether the host is running and its PID if known.
func (a *App) Status() HostStatus {
	st := host.Inspect(a.socket)
	return HostStatus{Running: st.Running, PID: st.PID, Socket: st.Socket, StalePID: st.StalePID}
}

// StopHost attempts to stop the running host.
func (a *App) StopHost(force bool) error {
	return host.StopRunningHost(a.socket, force, a.logger)
}

// ServeOptions tunes Serve.
type ServeOptions struct {
	Force bool
	Ready func(socket string, primary window.Handle)
}

// Serve runs the host in this process until it exits.
func (a *App) Serve(ctx context.Context, opts ServeOptions) (host.Exit, error) {
	return host.Run(ctx, host.Options{
		Config: a.cfg,
		Logger: a.logger,
		Force:  opts.Force,
		Ready:  opts.Ready,
	})
}
