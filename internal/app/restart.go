package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	bridgev1 "shellhost/api/bridge/v1"
)

// RequestRestart asks the host to relaunch. The host answers before it exits.
func (a *App) RequestRestart(ctx context.Context, timeout time.Duration) error {
	return a.withClient(ctx, timeout, func(ctx context.Context, client bridgev1.BridgeClient) error {
		if _, err := client.RequestRestart(ctx, &emptypb.Empty{}); err != nil {
			return fmt.Errorf("host request-restart RPC failed: %w", err)
		}
		return nil
	})
}

// Subscription is an open need-restart channel.
type Subscription struct {
	stream grpc.ServerStreamingClient[wrapperspb.StringValue]
	conn   io.Closer
	cancel context.CancelFunc
}

// Next blocks until the host pushes an event. It returns io.EOF when the
// host closed the channel.
func (s *Subscription) Next() (string, error) {
	ev, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	return ev.GetValue(), nil
}

// Close ends the subscription.
func (s *Subscription) Close() error {
	s.cancel()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Subscribe opens the need-restart channel for the calling surface. timeout
// bounds connecting; the channel itself lives until ctx ends or Close.
func (a *App) Subscribe(ctx context.Context, timeout time.Duration) (*Subscription, error) {
	if timeout <= 0 {
		return nil, errors.New("timeout must be greater than 0")
	}
	if !hostIsRunning(a.socket) {
		return nil, errHostNotRunning
	}

	dialCtx, cancelDial := context.WithTimeout(ctx, timeout)
	defer cancelDial()
	client, conn, err := dialHostClient(dialCtx, a.socket)
	if err != nil {
		return nil, fmt.Errorf("connect to host: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := client.NeedRestart(bridgev1.WithSurface(streamCtx, a.surface), &emptypb.Empty{})
	if err != nil {
		cancel()
		if conn != nil {
			_ = conn.Close()
		}
		return nil, fmt.Errorf("host need-restart RPC failed: %w", err)
	}
	return &Subscription{stream: stream, conn: conn, cancel: cancel}, nil
}
