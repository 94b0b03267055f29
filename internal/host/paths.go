package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// SocketBaseName is the UNIX socket filename.
const SocketBaseName = "shellhost.sock"

const pidFileName = "shellhost.pid"

// SocketPath returns the default socket location.
// Order of precedence (first wins):
// 1) SHELLHOST_SOCKET (absolute path to socket)
// 2) SHELLHOST_RUNTIME_DIR
// 3) linux: $XDG_RUNTIME_DIR or /run/user/<UID>
// 4) elsewhere: /tmp/shellhost-<UID>.sock
func SocketPath() string {
	if explicit := os.Getenv("SHELLHOST_SOCKET"); explicit != "" {
		return explicit
	}

	uid := currentUID()

	if rd := os.Getenv("SHELLHOST_RUNTIME_DIR"); rd != "" {
		return filepath.Join(rd, SocketBaseName)
	}

	if runtime.GOOS == "linux" {
		if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
			return filepath.Join(v, SocketBaseName)
		}
		return filepath.Join("/run/user", uid, SocketBaseName)
	}

	// Keep it short to stay under the sun_path limit.
	return filepath.Join("/tmp", "shellhost-"+uid+".sock")
}

// Resolve returns socket, or SocketPath when socket is empty.
func Resolve(socket string) string {
	if socket != "" {
		return socket
	}
	return SocketPath()
}

// PIDPath returns the PID file next to socket.
func PIDPath(socket string) string {
	return filepath.Join(filepath.Dir(socket), pidFileName)
}

func ensureRuntimeDir(socket string) error {
	return os.MkdirAll(filepath.Dir(socket), 0o700)
}

// WritePID stores pid in the PID file belonging to socket.
func WritePID(socket string, pid int) error {
	if err := ensureRuntimeDir(socket); err != nil {
		return err
	}
	return os.WriteFile(PIDPath(socket), []byte(fmt.Sprintf("%d\n", pid)), 0o600)
}

// RemovePID removes the PID file if it exists.
func RemovePID(socket string) error {
	if err := os.Remove(PIDPath(socket)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RunningPID returns the pid stored in the PID file.
func RunningPID(socket string) (int, error) {
	data, err := os.ReadFile(PIDPath(socket))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// IsRunning reports whether a host answers ping on socket.
func IsRunning(socket string) bool {
	if _, err := os.Stat(socket); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, conn, err := Dial(ctx, socket)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func currentUID() string {
	u, err := user.Current()
	if err == nil && u != nil && u.Uid != "" {
		return u.Uid
	}
	return "0"
}
