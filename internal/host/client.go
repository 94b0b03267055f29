package host

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"

	bridgev1 "shellhost/api/bridge/v1"
)

// Dial connects to the host on socket. A nil error means the host answered a
// ping before ctx expired.
func Dial(ctx context.Context, socket string) (bridgev1.BridgeClient, *grpc.ClientConn, error) {
	// grpc's unix resolver accepts "unix:/abs" and "unix:rel" alike.
	conn, err := grpc.NewClient("unix:"+socket, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("host client for %s: %w", socket, err)
	}
	client := bridgev1.NewBridgeClient(conn)
	if _, err := client.Ping(ctx, &emptypb.Empty{}, grpc.WaitForReady(true)); err != nil {
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("host on %s not ready: %w", socket, ctxErr)
		}
		return nil, nil, fmt.Errorf("host on %s not ready: %w", socket, err)
	}
	return client, conn, nil
}
