package host

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/bridge"
	"shellhost/internal/settings"
	"shellhost/internal/window"
)

// service exposes the bridge over gRPC.
type service struct {
	bridge *bridge.Bridge
	logger *zap.Logger
}

var _ bridgev1.BridgeServer = (*service)(nil)

func newService(b *bridge.Bridge, logger *zap.Logger) *service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{bridge: b, logger: logger}
}

func surfaceOf(ctx context.Context) window.Handle {
	return window.Handle(bridgev1.SurfaceFromIncoming(ctx))
}

func (s *service) Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(bridgev1.Pong), nil
}

func (s *service) GetConfig(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	cur, err := s.bridge.GetConfig()
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := structpb.NewStruct(cur.Map())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode settings: %v", err)
	}
	return out, nil
}

func (s *service) WindowAction(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	if err := s.bridge.WindowAction(surfaceOf(ctx), req.GetValue()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *service) UpdateConfig(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "settings mapping is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	if err := s.bridge.UpdateConfig(surfaceOf(ctx), req.AsMap()); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *service) RequestRestart(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	s.bridge.RequestRestart(surfaceOf(ctx))
	return &emptypb.Empty{}, nil
}

func (s *service) NeedRestart(_ *emptypb.Empty, stream grpc.ServerStreamingServer[wrapperspb.StringValue]) error {
	ctx := stream.Context()
	sub := s.bridge.Subscribe(surfaceOf(ctx))
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := stream.Send(wrapperspb.String(ev)); err != nil {
				s.logger.Debug("Push stream closed", zap.Uint64("surface", uint64(sub.Surface())), zap.Error(err))
				return err
			}
		}
	}
}

func (s *service) SurfaceInfo(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.bridge.SurfaceInfo(surfaceOf(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	return snapshotStruct(snap)
}

func (s *service) NewWindow(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	snap, err := s.bridge.NewWindow()
	if err != nil {
		return nil, toStatus(err)
	}
	return snapshotStruct(snap)
}

func snapshotStruct(snap window.Snapshot) (*structpb.Struct, error) {
	rules := make([]any, 0, len(snap.Rules))
	for _, r := range snap.Rules {
		rules = append(rules, r)
	}
	out, err := structpb.NewStruct(map[string]any{
		bridgev1.FieldHandle:    float64(snap.Handle),
		bridgev1.FieldTitle:     snap.Title,
		bridgev1.FieldFrame:     snap.Frame.String(),
		bridgev1.FieldWidth:     float64(snap.Width),
		bridgev1.FieldHeight:    float64(snap.Height),
		bridgev1.FieldMinimized: snap.Minimized,
		bridgev1.FieldMaximized: snap.Maximized,
		bridgev1.FieldFocused:   snap.Focused,
		bridgev1.FieldPrimary:   snap.Primary,
		bridgev1.FieldRules:     rules,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode surface: %v", err)
	}
	return out, nil
}

// toStatus maps component errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, settings.ErrNotReady):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, settings.ErrInvalidSettings), errors.Is(err, window.ErrUnknownAction):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, bridge.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, bridge.ErrNoSurface):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
