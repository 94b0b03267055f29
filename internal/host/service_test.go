package host

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	bridgev1 "shellhost/api/bridge/v1"
	"shellhost/internal/bridge"
	"shellhost/internal/restart"
	"shellhost/internal/settings"
	"shellhost/internal/window"
)

type harness struct {
	client  bridgev1.BridgeClient
	store   *settings.Store
	windows *window.Controller
	restart *restart.Coordinator
	primary window.Handle
}

func startHarness(t *testing.T, load bool, limiter *rate.Limiter) *harness {
	t.Helper()
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"), nil)
	windows := window.NewController(window.Options{})
	var primary window.Handle
	if load {
		s, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if primary, err = windows.Create(s); err != nil {
			t.Fatal(err)
		}
	}
	coord := restart.NewCoordinator(restart.PolicyStructural, nil)
	b, err := bridge.New(bridge.Options{Store: store, Windows: windows, Restart: coord, Limiter: limiter})
	if err != nil {
		t.Fatal(err)
	}

	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(b, nil)
	go func() { _ = gs.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		b.Hub().Close()
		gs.Stop()
	})
	return &harness{client: bridgev1.NewBridgeClient(conn), store: store, windows: windows, restart: coord, primary: primary}
}

func callCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func codeOf(err error) codes.Code {
	return status.Code(err)
}

func TestPingAndGetConfig(t *testing.T) {
	h := startHarness(t, true, nil)
	ctx := callCtx(t)

	pong, err := h.client.Ping(ctx, &emptypb.Empty{})
	if err != nil || pong.GetValue() != bridgev1.Pong {
		t.Fatalf("Ping = %v, %v", pong, err)
	}
	cfg, err := h.client.GetConfig(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	m := cfg.AsMap()
	if m[settings.KeyMenuBarVisible] != true || m[settings.KeyHideScrollBar] != false {
		t.Fatalf("unexpected config %v", m)
	}
}

func TestGetConfigNotReady(t *testing.T) {
	h := startHarness(t, false, nil)
	_, err := h.client.GetConfig(callCtx(t), &emptypb.Empty{})
	if codeOf(err) != codes.Unavailable {
		t.Fatalf("code = %v (%v), want Unavailable", codeOf(err), err)
	}
}

func TestUpdateConfigErrors(t *testing.T) {
	h := startHarness(t, true, rate.NewLimiter(0, 2))
	ctx := callCtx(t)

	bad, _ := structpb.NewStruct(map[string]any{settings.KeyMenuBarVisible: "yes"})
	if _, err := h.client.UpdateConfig(ctx, bad); codeOf(err) != codes.InvalidArgument {
		t.Fatalf("invalid mapping code = %v", codeOf(err))
	}
	good, _ := structpb.NewStruct(settings.Defaults().Map())
	if _, err := h.client.UpdateConfig(ctx, good); err != nil {
		t.Fatalf("UpdateConfig: %v", err)
	}
	if _, err := h.client.UpdateConfig(ctx, good); codeOf(err) != codes.ResourceExhausted {
		t.Fatalf("rate limited code = %v", codeOf(err))
	}
}

func TestWindowActionOverRPC(t *testing.T) {
	h := startHarness(t, true, nil)
	ctx := bridgev1.WithSurface(callCtx(t), uint64(h.primary))

	if _, err := h.client.WindowAction(ctx, wrapperspb.String("launch")); codeOf(err) != codes.InvalidArgument {
		t.Fatalf("unknown action code = %v", codeOf(err))
	}
	if _, err := h.client.WindowAction(ctx, wrapperspb.String("maximize")); err != nil {
		t.Fatal(err)
	}
	info, err := h.client.SurfaceInfo(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	m := info.AsMap()
	if m[bridgev1.FieldMaximized] != true || m[bridgev1.FieldFrame] != bridgev1.FrameNative {
		t.Fatalf("unexpected surface %v", m)
	}
	if m[bridgev1.FieldHandle] != float64(h.primary) {
		t.Fatalf("handle = %v", m[bridgev1.FieldHandle])
	}
}

func TestNeedRestartStream(t *testing.T) {
	h := startHarness(t, true, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := h.client.NeedRestart(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	next, _ := structpb.NewStruct(map[string]any{
		settings.KeyMenuBarVisible: false,
		settings.KeyHideScrollBar:  false,
	})
	if _, err := h.client.UpdateConfig(ctx, next); err != nil {
		t.Fatal(err)
	}
	// Persisted before the push was queued.
	if cur, _ := h.store.Current(); cur.MenuBarVisible {
		t.Fatal("settings not persisted")
	}
	ev, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if ev.GetValue() != bridgev1.NeedRestart {
		t.Fatalf("event = %q", ev.GetValue())
	}
}

func TestNewWindowAndRequestRestart(t *testing.T) {
	h := startHarness(t, true, nil)
	ctx := callCtx(t)

	nw, err := h.client.NewWindow(ctx, &emptypb.Empty{})
	if err != nil {
		t.Fatal(err)
	}
	if nw.AsMap()[bridgev1.FieldPrimary] != false {
		t.Fatalf("new window marked primary: %v", nw.AsMap())
	}
	if len(h.windows.Handles()) != 2 {
		t.Fatalf("handles = %v", h.windows.Handles())
	}
	if _, err := h.client.RequestRestart(ctx, &emptypb.Empty{}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-h.restart.Requests():
	case <-time.After(time.Second):
		t.Fatal("restart request not signalled")
	}
}

func TestSurfaceInfoStaleSurface(t *testing.T) {
	h := startHarness(t, true, nil)
	ctx := bridgev1.WithSurface(callCtx(t), 999)
	if _, err := h.client.SurfaceInfo(ctx, &emptypb.Empty{}); codeOf(err) != codes.NotFound {
		t.Fatalf("code = %v", codeOf(err))
	}
	// Commands for unknown surfaces are dropped without error.
	if _, err := h.client.WindowAction(ctx, wrapperspb.String("close")); err != nil {
		t.Fatalf("stale close: %v", err)
	}
}
