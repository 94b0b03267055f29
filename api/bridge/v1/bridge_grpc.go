// Package bridgev1 describes the shellhost bridge protocol as a gRPC service.
//
// The method names are the protocol identifiers used by existing surfaces
// ("get-config", "window-action", ...) and must not be renamed. Payloads are
// protobuf well-known types, so the service is declared by hand instead of
// being generated from a .proto file.
package bridgev1

import (
	"context"
	"strconv"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "shellhost.bridge.v1.Bridge"

// Protocol identifiers.
const (
	GetConfig      = "get-config"
	WindowAction   = "window-action"
	UpdateConfig   = "update-config"
	RequestRestart = "request-restart"
	NeedRestart    = "need-restart"
	SurfaceInfo    = "surface-info"
	NewWindow      = "new-window"
	Ping           = "ping"
)

// Full method names as seen by interceptors and the transport.
const (
	Bridge_GetConfig_FullMethodName      = "/" + ServiceName + "/" + GetConfig
	Bridge_WindowAction_FullMethodName   = "/" + ServiceName + "/" + WindowAction
	Bridge_UpdateConfig_FullMethodName   = "/" + ServiceName + "/" + UpdateConfig
	Bridge_RequestRestart_FullMethodName = "/" + ServiceName + "/" + RequestRestart
	Bridge_NeedRestart_FullMethodName    = "/" + ServiceName + "/" + NeedRestart
	Bridge_SurfaceInfo_FullMethodName    = "/" + ServiceName + "/" + SurfaceInfo
	Bridge_NewWindow_FullMethodName      = "/" + ServiceName + "/" + NewWindow
	Bridge_Ping_FullMethodName           = "/" + ServiceName + "/" + Ping
)

// SurfaceIDKey is the metadata key carrying the calling surface handle.
const SurfaceIDKey = "x-surface-id"

// WithSurface attaches a surface handle to outgoing calls. A zero id leaves
// the context untouched so the host routes to its primary surface.
func WithSurface(ctx context.Context, id uint64) context.Context {
	if id == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, SurfaceIDKey, strconv.FormatUint(id, 10))
}

// SurfaceFromIncoming extracts the surface handle of an incoming call.
// It returns 0 when the caller did not name one.
func SurfaceFromIncoming(ctx context.Context) uint64 {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return 0
	}
	vals := md.Get(SurfaceIDKey)
	if len(vals) == 0 {
		return 0
	}
	id, err := strconv.ParseUint(vals[0], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// BridgeClient is the surface side of the bridge.
type BridgeClient interface {
	GetConfig(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	WindowAction(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	UpdateConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	RequestRestart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error)
	NeedRestart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error)
	SurfaceInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	NewWindow(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type bridgeClient struct {
	cc grpc.ClientConnInterface
}

// NewBridgeClient wraps a connection to the host.
func NewBridgeClient(cc grpc.ClientConnInterface) BridgeClient {
	return &bridgeClient{cc}
}

func (c *bridgeClient) GetConfig(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Bridge_GetConfig_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeClient) WindowAction(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Bridge_WindowAction_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeClient) UpdateConfig(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Bridge_UpdateConfig_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeClient) RequestRestart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, Bridge_RequestRestart_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeClient) NeedRestart(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.StringValue], error) {
	stream, err := c.cc.NewStream(ctx, &Bridge_ServiceDesc.Streams[0], Bridge_NeedRestart_FullMethodName, staticOpts(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, wrapperspb.StringValue]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *bridgeClient) SurfaceInfo(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Bridge_SurfaceInfo_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeClient) NewWindow(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Bridge_NewWindow_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *bridgeClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, Bridge_Ping_FullMethodName, in, out, staticOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func staticOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod()}, opts...)
}

// BridgeServer is the host side of the bridge.
type BridgeServer interface {
	GetConfig(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	WindowAction(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	UpdateConfig(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	RequestRestart(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	NeedRestart(*emptypb.Empty, grpc.ServerStreamingServer[wrapperspb.StringValue]) error
	SurfaceInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	NewWindow(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterBridgeServer registers srv on s.
func RegisterBridgeServer(s grpc.ServiceRegistrar, srv BridgeServer) {
	s.RegisterService(&Bridge_ServiceDesc, srv)
}

func _Bridge_GetConfig_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).GetConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_GetConfig_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).GetConfig(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Bridge_WindowAction_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).WindowAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_WindowAction_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).WindowAction(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Bridge_UpdateConfig_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).UpdateConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_UpdateConfig_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).UpdateConfig(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Bridge_RequestRestart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).RequestRestart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_RequestRestart_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).RequestRestart(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Bridge_NeedRestart_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BridgeServer).NeedRestart(m, &grpc.GenericServerStream[emptypb.Empty, wrapperspb.StringValue]{ServerStream: stream})
}

func _Bridge_SurfaceInfo_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).SurfaceInfo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_SurfaceInfo_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).SurfaceInfo(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Bridge_NewWindow_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).NewWindow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_NewWindow_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).NewWindow(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Bridge_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BridgeServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Bridge_Ping_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(BridgeServer).Ping(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Bridge_ServiceDesc is the grpc.ServiceDesc for the bridge service.
var Bridge_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: GetConfig, Handler: _Bridge_GetConfig_Handler},
		{MethodName: WindowAction, Handler: _Bridge_WindowAction_Handler},
		{MethodName: UpdateConfig, Handler: _Bridge_UpdateConfig_Handler},
		{MethodName: RequestRestart, Handler: _Bridge_RequestRestart_Handler},
		{MethodName: SurfaceInfo, Handler: _Bridge_SurfaceInfo_Handler},
		{MethodName: NewWindow, Handler: _Bridge_NewWindow_Handler},
		{MethodName: Ping, Handler: _Bridge_Ping_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    NeedRestart,
			Handler:       _Bridge_NeedRestart_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "",
}
