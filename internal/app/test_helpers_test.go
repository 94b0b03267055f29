package app

import (
	"context"
	"errors"
	"io"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	bridgev1 "shellhost/api/bridge/v1"
)

type fakeConn struct {
	invoke    func(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error
	newStream func(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error)
	closed    bool
}

func (f *fakeConn) Invoke(ctx context.Context, method string, args interface{}, reply interface{}, opts ...grpc.CallOption) error {
	if f.invoke != nil {
		return f.invoke(ctx, method, args, reply, opts...)
	}
	return nil
}

func (f *fakeConn) NewStream(ctx context.Context, desc *grpc.StreamDesc, method string, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	if f.newStream != nil {
		return f.newStream(ctx, desc, method, opts...)
	}
	return nil, errors.New("not implemented")
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// fakeStream replays events and then reports io.EOF.
type fakeStream struct {
	ctx    context.Context
	events []string
}

func (s *fakeStream) Header() (metadata.MD, error) { return nil, nil }
func (s *fakeStream) Trailer() metadata.MD         { return nil }
func (s *fakeStream) CloseSend() error             { return nil }
func (s *fakeStream) Context() context.Context     { return s.ctx }
func (s *fakeStream) SendMsg(any) error            { return nil }

func (s *fakeStream) RecvMsg(m any) error {
	if len(s.events) == 0 {
		return io.EOF
	}
	m.(*wrapperspb.StringValue).Value = s.events[0]
	s.events = s.events[1:]
	return nil
}

func stubHost(t *testing.T, running bool, dial func(context.Context, string) (bridgev1.BridgeClient, io.Closer, error)) {
	t.Helper()
	resetHostDeps()
	hostIsRunning = func(string) bool { return running }
	if dial == nil {
		dial = func(context.Context, string) (bridgev1.BridgeClient, io.Closer, error) {
			return nil, nil, errors.New("dial not stubbed")
		}
	}
	dialHostClient = dial
	t.Cleanup(resetHostDeps)
}

// withConn stubs a running host reachable through conn.
func withConn(t *testing.T, conn *fakeConn) {
	t.Helper()
	stubHost(t, true, func(context.Context, string) (bridgev1.BridgeClient, io.Closer, error) {
		return bridgev1.NewBridgeClient(conn), conn, nil
	})
}
