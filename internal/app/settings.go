package app

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/settings"
)

// GetConfig fetches the host's current settings.
func (a *App) GetConfig(ctx context.Context, timeout time.Duration) (settings.Settings, error) {
	var out settings.Settings
	err := a.withClient(ctx, timeout, func(ctx context.Context, client bridgev1.BridgeClient) error {
		resp, err := client.GetConfig(ctx, &emptypb.Empty{})
		if err != nil {
			return fmt.Errorf("host get-config RPC failed: %w", err)
		}
		s, err := settings.Decode(resp.AsMap())
		if err != nil {
			return fmt.Errorf("host returned malformed settings: %w", err)
		}
		out = s
		return nil
	})
	return out, err
}

// UpdateConfig sends the whole settings mapping to the host. It returns once
// the host persisted it.
func (a *App) UpdateConfig(ctx context.Context, timeout time.Duration, s settings.Settings) error {
	req, err := structpb.NewStruct(s.Map())
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return a.withClient(ctx, timeout, func(ctx context.Context, client bridgev1.BridgeClient) error {
		if _, err := client.UpdateConfig(ctx, req); err != nil {
			return fmt.Errorf("host update-config RPC failed: %w", err)
		}
		return nil
	})
}

// SetParams names a single setting change.
type SetParams struct {
	Key     string
	Value   bool
	Timeout time.Duration
}

// SetConfig changes one known key, keeping every other key as the host has it.
func (a *App) SetConfig(ctx context.Context, params SetParams) (settings.Settings, error) {
	cur, err := a.GetConfig(ctx, params.Timeout)
	if err != nil {
		return settings.Settings{}, err
	}
	switch params.Key {
	case settings.KeyMenuBarVisible:
		cur.MenuBarVisible = params.Value
	case settings.KeyHideScrollBar:
		cur.HideScrollBar = params.Value
	default:
		return settings.Settings{}, fmt.Errorf("unknown setting %q (want %s or %s)", params.Key, settings.KeyMenuBarVisible, settings.KeyHideScrollBar)
	}
	if err := a.UpdateConfig(ctx, params.Timeout, cur); err != nil {
		return settings.Settings{}, err
	}
	return cur, nil
}
