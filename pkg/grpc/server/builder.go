// Package server builds the gateway's ops gRPC endpoint, which exposes the
// standard grpc.health.v1 service for orchestration probes.
package server

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health entry that tracks the HTTP gateway. The empty
// name tracks the process as a whole.
const ServiceName = "krishi.Gateway"

type Option func(*Options)

type Options struct {
	host          string
	port          int
	logger        *zap.Logger
	reflection    bool
	enableLogging bool
	services      []string
}

// WithHost restricts the listener to one interface; empty binds all.
func WithHost(host string) Option {
	return func(o *Options) {
		o.host = host
	}
}

// WithPort sets the listen port. Zero picks a free port, see Addr.
func WithPort(port int) Option {
	return func(o *Options) {
		o.port = port
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func WithReflection(enabled bool) Option {
	return func(o *Options) {
		o.reflection = enabled
	}
}

func WithLogging(enabled bool) Option {
	return func(o *Options) {
		o.enableLogging = enabled
	}
}

// WithServices adds named health entries besides the process-wide one.
func WithServices(names ...string) Option {
	return func(o *Options) {
		o.services = append(o.services, names...)
	}
}

type Server struct {
	grpcServer   *grpc.Server
	lis          net.Listener
	logger       *zap.Logger
	healthServer *health.Server
	services     []string
}

// New binds the listener and registers the health service. Every entry
// starts NOT_SERVING until MarkServing is called.
func New(opts ...Option) (*Server, error) {
	options := &Options{
		port:   50051,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.port < 0 || options.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 0 and 65535", options.port)
	}

	addr := net.JoinHostPort(options.host, fmt.Sprint(options.port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("grpc-server")

	var serverOpts []grpc.ServerOption
	if options.enableLogging {
		serverOpts = append(serverOpts,
			grpc.ChainUnaryInterceptor(LoggingInterceptor(logger)),
			grpc.ChainStreamInterceptor(StreamLoggingInterceptor(logger)),
		)
	}

	grpcServer := grpc.NewServer(serverOpts...)

	if options.reflection {
		reflection.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	s := &Server{
		grpcServer:   grpcServer,
		lis:          lis,
		logger:       logger,
		healthServer: healthServer,
		services:     append([]string{""}, options.services...),
	}
	s.setAll(healthpb.HealthCheckResponse_NOT_SERVING)
	return s, nil
}

func (s *Server) setAll(status healthpb.HealthCheckResponse_ServingStatus) {
	for _, name := range s.services {
		s.healthServer.SetServingStatus(name, status)
	}
}

// MarkServing flips every health entry to SERVING once dependencies are up.
func (s *Server) MarkServing() {
	s.setAll(healthpb.HealthCheckResponse_SERVING)
	s.logger.Info("health status set", zap.String("status", healthpb.HealthCheckResponse_SERVING.String()))
}

// SetServiceHealth updates the health status of a single entry.
func (s *Server) SetServiceHealth(serviceName string, status healthpb.HealthCheckResponse_ServingStatus) {
	s.healthServer.SetServingStatus(serviceName, status)
	s.logger.Info("updated service health",
		zap.String("service", serviceName),
		zap.String("status", status.String()))
}

// Serve blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Serve() error {
	s.logger.Info("gRPC server starting", zap.String("addr", s.lis.Addr().String()))
	if err := s.grpcServer.Serve(s.lis); err != nil {
		return fmt.Errorf("serve gRPC on %s: %w", s.lis.Addr(), err)
	}
	return nil
}

// Shutdown reports NOT_SERVING, then drains in-flight calls until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("gRPC server shutting down")

	// Pins every entry to NOT_SERVING; later updates are ignored.
	s.healthServer.Shutdown()

	done := make(chan struct{})

	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("forced shutdown due to timeout")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

// Addr returns the server's listening address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
