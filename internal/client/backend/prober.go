// Package backend checks whether the backend endpoint is reachable.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Prober runs gRPC health checks against one endpoint.
type Prober struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// NewProber creates a lazy connection to addr; no I/O happens until Ping.
func NewProber(addr string, opts ...grpc.DialOption) (*Prober, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client: %w", err)
	}
	return &Prober{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Ping returns nil when the backend reports SERVING.
func (p *Prober) Ping(ctx context.Context) error {
	resp, err := p.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: backend status %s", common.ErrorUnavailable, resp.GetStatus())
	}
	return nil
}

func (p *Prober) Close() error {
	if p.conn == nil {
		return errors.New("prober is not connected")
	}
	return p.conn.Close()
}
