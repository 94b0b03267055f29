// Package restart decides when a settings change needs a process relaunch
// and carries the relaunch out.
package restart

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"shellhost/internal/settings"
)

// State of the coordinator.
type State int

const (
	Idle State = iota
	// Pending means a persisted change only takes effect after relaunch.
	Pending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "restart-pending"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy selects which settings changes require a relaunch.
type Policy string

const (
	// PolicyStructural only relaunches for settings fixed at surface
	// creation (menuBarVisible). Scrollbar changes are applied live.
	PolicyStructural Policy = "structural"
	// PolicyAlways relaunches for every change.
	PolicyAlways Policy = "always"
)

// ParsePolicy validates a policy name. The empty string selects PolicyStructural.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case "":
		return PolicyStructural, nil
	case PolicyStructural, PolicyAlways:
		return p, nil
	default:
		return "", fmt.Errorf("unknown restart policy %q (want %q or %q)", s, PolicyStructural, PolicyAlways)
	}
}

// Coordinator is the Idle → Pending state machine. Pending is left only by
// relaunching the process.
type Coordinator struct {
	policy Policy
	logger *zap.Logger

	mu        sync.Mutex
	state     State
	reason    string
	requested bool
	requests  chan struct{}
}

// NewCoordinator returns an Idle coordinator.
func NewCoordinator(policy Policy, logger *zap.Logger) *Coordinator {
	if policy == "" {
		policy = PolicyStructural
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		policy:   policy,
		logger:   logger,
		requests: make(chan struct{}, 1),
	}
}

// Policy returns the configured policy.
func (c *Coordinator) Policy() Policy {
	return c.policy
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reason returns why a restart is pending, or "" when Idle.
func (c *Coordinator) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// RequiresRestart reports whether moving from prev to next needs a relaunch
// under the configured policy.
func (c *Coordinator) RequiresRestart(prev, next settings.Settings) bool {
	if c.policy == PolicyAlways {
		return !prev.Equal(next)
	}
	return prev.MenuBarVisible != next.MenuBarVisible
}

// Observe records a persisted settings change. It returns true when the
// surface must be told that a restart is needed.
func (c *Coordinator) Observe(prev, next settings.Settings) bool {
	if !c.RequiresRestart(prev, next) {
		return false
	}
	c.mu.Lock()
	c.state = Pending
	c.reason = "settings changed"
	c.mu.Unlock()
	c.logger.Info("Restart required", zap.String("reason", "settings changed"), zap.String("policy", string(c.policy)))
	return true
}

// MarkPending moves to Pending for a reason outside settings, such as the
// executable being replaced. It returns true on the Idle → Pending transition.
func (c *Coordinator) MarkPending(reason string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Pending {
		return false
	}
	c.state = Pending
	c.reason = reason
	c.logger.Info("Restart required", zap.String("reason", reason))
	return true
}

// Request asks the host to relaunch. Only the first request is delivered;
// it returns false for duplicates.
func (c *Coordinator) Request() bool {
	c.mu.Lock()
	if c.requested {
		c.mu.Unlock()
		return false
	}
	c.requested = true
	state := c.state
	c.mu.Unlock()

	c.logger.Info("Relaunch requested", zap.Stringer("state", state))
	c.requests <- struct{}{}
	return true
}

// Requests delivers the relaunch request to the host lifecycle.
func (c *Coordinator) Requests() <-chan struct{} {
	return c.requests
}
