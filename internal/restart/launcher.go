package restart

import (
	"fmt"
	"os"
	"os/exec"
)

// EnvRelaunched is set to "1" in the environment of a relaunched process.
const EnvRelaunched = "SHELLHOST_RELAUNCHED"

// Launcher starts a detached process.
type Launcher interface {
	Launch(exe string, args, env []string) error
}

// ProcessLauncher starts processes with os/exec and does not wait for them.
type ProcessLauncher struct{}

// Launch implements Launcher.
func (ProcessLauncher) Launch(exe string, args, env []string) error {
	if _, err := os.Stat(exe); err != nil {
		return fmt.Errorf("executable not found: %s: %w", exe, err)
	}
	cmd := exec.Command(exe, args...)
	cmd.Env = env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", exe, err)
	}
	return cmd.Process.Release()
}

// Relaunch starts a fresh copy of the running executable with the same
// arguments. The caller is expected to exit right after.
func Relaunch(l Launcher) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	env := append(os.Environ(), EnvRelaunched+"=1")
	return l.Launch(exe, os.Args[1:], env)
}

// Relaunched reports whether this process was started by Relaunch.
func Relaunched() bool {
	return os.Getenv(EnvRelaunched) == "1"
}
