package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/host"
)

var (
	hostIsRunning  = host.IsRunning
	dialHostClient = func(ctx context.Context, socket string) (bridgev1.BridgeClient, io.Closer, error) {
		client, conn, err := host.Dial(ctx, socket)
		if err != nil {
			return nil, nil, err
		}
		return client, conn, nil
	}
)

func resetHostDeps() {
	hostIsRunning = host.IsRunning
	dialHostClient = func(ctx context.Context, socket string) (bridgev1.BridgeClient, io.Closer, error) {
		client, conn, err := host.Dial(ctx, socket)
		if err != nil {
			return nil, nil, err
		}
		return client, conn, nil
	}
}

var errHostNotRunning = errors.New("host is not running")

// withClient runs fn against a fresh connection under a bounded wait.
func (a *App) withClient(ctx context.Context, timeout time.Duration, fn func(context.Context, bridgev1.BridgeClient) error) error {
	if timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	if !hostIsRunning(a.socket) {
		return errHostNotRunning
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, conn, err := dialHostClient(ctx, a.socket)
	if err != nil {
		return fmt.Errorf("connect to host: %w", err)
	}
	if conn != nil {
		defer conn.Close()
	}

	return fn(bridgev1.WithSurface(ctx, a.surface), client)
}
