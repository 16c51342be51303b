// Package grpc serves the standard gRPC health service used by clients to
// probe the server.
package grpc

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/gophdrive/internal/logging"
)

// CheckFunc reports whether a dependency of the server is usable.
type CheckFunc func(ctx context.Context) error

type HealthServer struct {
	address  string
	logger   logging.Logger
	check    CheckFunc
	interval time.Duration
	health   *health.Server
}

// NewHealthServer creates a health endpoint on address. When check is not
// nil it runs every interval and flips the status between SERVING and
// NOT_SERVING.
func NewHealthServer(address string, l logging.Logger, check CheckFunc, interval time.Duration) *HealthServer {
	return &HealthServer{
		address:  address,
		logger:   l.With("module", "grpc_server"),
		check:    check,
		interval: interval,
		health:   health.NewServer(),
	}
}

func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	grpc_health_v1.RegisterHealthServer(srv, s.health)

	s.probe(ctx)
	if s.check != nil && s.interval > 0 {
		go s.watch(ctx)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}

func (s *HealthServer) watch(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.probe(ctx)
		}
	}
}

func (s *HealthServer) probe(ctx context.Context) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if s.check != nil {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.check(cctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "health check failed", "error", err)
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
}
