package app

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/window"
)

// WindowAction sends minimize, maximize or close for the calling surface.
func (a *App) WindowAction(ctx context.Context, timeout time.Duration, action string) error {
	if _, err := window.ParseAction(action); err != nil {
		return err
	}
	return a.withClient(ctx, timeout, func(ctx context.Context, client bridgev1.BridgeClient) error {
		if _, err := client.WindowAction(ctx, wrapperspb.String(action)); err != nil {
			return fmt.Errorf("host window-action RPC failed: %w", err)
		}
		return nil
	})
}

// SurfaceInfo describes the calling surface.
func (a *App) SurfaceInfo(ctx context.Context, timeout time.Duration) (Surface, error) {
	var out Surface
	err := a.withClient(ctx, timeout, func(ctx context.Context, client bridgev1.BridgeClient) error {
		resp, err := client.SurfaceInfo(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("host surface-info RPC failed: %w", err)
		}
		out = surfaceFromStruct(resp)
		return nil
	})
	return out, err
}

// NewWindow opens an additional surface on the host.
func (a *App) NewWindow(ctx context.Context, timeout time.Duration) (Surface, error) {
	var out Surface
	err := a.withClient(ctx, timeout, func(ctx context.Context, client bridgev1.BridgeClient) error {
		resp, err := client.NewWindow(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("host new-window RPC failed: %w", err)
		}
		out = surfaceFromStruct(resp)
		return nil
	})
	return out, err
}
