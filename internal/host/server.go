package host

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/bridge"
)

const gracefulStopTimeout = 2 * time.Second

// Server is the gRPC endpoint of the host on its UNIX socket.
type Server struct {
	grpc   *grpc.Server
	ln     net.Listener
	path   string
	logger *zap.Logger
	done   chan struct{}
}

// NewGRPCServer returns a gRPC server with the bridge service registered.
func NewGRPCServer(b *bridge.Bridge, logger *zap.Logger) *grpc.Server {
	gs := grpc.NewServer()
	bridgev1.RegisterBridgeServer(gs, newService(b, logger))
	return gs
}

// Listen binds socket (mode 0600), writes the PID file and starts serving b.
// A stale socket left by a dead host is removed first.
func Listen(socket string, b *bridge.Bridge, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ensureRuntimeDir(socket); err != nil {
		return nil, fmt.Errorf("create runtime dir: %w", err)
	}
	if _, err := os.Stat(socket); err == nil && !IsRunning(socket) {
		logger.Debug("Removing stale socket", zap.String("socket", socket))
		if err := os.Remove(socket); err != nil {
			return nil, err
		}
	}

	ln, err := net.Listen("unix", socket)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(socket, 0o600); err != nil {
		_ = ln.Close()
		return nil, err
	}
	s := &Server{
		grpc:   NewGRPCServer(b, logger),
		ln:     ln,
		path:   socket,
		logger: logger,
		done:   make(chan struct{}),
	}
	if err := WritePID(socket, os.Getpid()); err != nil {
		_ = ln.Close()
		_ = os.Remove(socket)
		return nil, err
	}
	go func() {
		defer close(s.done)
		if err := s.grpc.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("Bridge server stopped", zap.Error(err))
		}
	}()
	logger.Info("Bridge listening", zap.String("socket", socket), zap.Int("pid", os.Getpid()))
	return s, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Close stops serving, letting in-flight calls finish, and unlinks the
// socket and PID file.
func (s *Server) Close() error {
	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(gracefulStopTimeout):
		s.logger.Warn("Graceful stop timed out, forcing")
		s.grpc.Stop()
	}
	<-s.done

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return RemovePID(s.path)
}

type stopStep struct {
	sig  syscall.Signal
	wait time.Duration
}

// StopRunningHost signals the host on socket and waits until it no longer
// answers. SIGTERM comes first; SIGKILL follows only when force is set.
func StopRunningHost(socket string, force bool, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	pid, err := RunningPID(socket)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if IsRunning(socket) {
			return fmt.Errorf("host answers on %s but has no PID file %s; stop it manually", socket, PIDPath(socket))
		}
		return nil
	case err != nil:
		return fmt.Errorf("read host PID: %w", err)
	case pid == os.Getpid():
		return errors.New("the host on this socket is the current process")
	}

	steps := []stopStep{{sig: syscall.SIGTERM, wait: 3 * time.Second}}
	if force {
		steps = append(steps, stopStep{sig: syscall.SIGKILL, wait: 2 * time.Second})
	}
	for _, st := range steps {
		logger.Info("Signalling host", zap.Int("pid", pid), zap.Stringer("signal", st.sig))
		exited, err := signalHost(pid, st.sig)
		if err != nil {
			return fmt.Errorf("signal host %d: %w", pid, err)
		}
		if exited || hostGone(socket, st.wait) {
			_ = RemovePID(socket)
			logger.Info("Host stopped", zap.Int("pid", pid))
			return nil
		}
		logger.Warn("Host still serving", zap.Int("pid", pid), zap.Duration("waited", st.wait))
	}
	return fmt.Errorf("host process %d still serving %s after %s", pid, socket, steps[len(steps)-1].sig)
}

// signalHost reports exited when the process was already gone.
func signalHost(pid int, sig syscall.Signal) (exited bool, err error) {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}
	if err := proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// hostGone polls the socket until the host stops answering or wait elapses.
func hostGone(socket string, wait time.Duration) bool {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		if !IsRunning(socket) {
			return true
		}
		select {
		case <-deadline.C:
			return !IsRunning(socket)
		case <-tick.C:
		}
	}
}
