package server

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// probeLevel keeps health probes, which arrive every few seconds, out of
// info-level logs.
func probeLevel(method string) zapcore.Level {
	if strings.HasPrefix(method, "/grpc.health.v1.Health/") {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

func clientAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}

func logCall(logger *zap.Logger, method, client string, start time.Time, err error) {
	fields := []zap.Field{
		zap.String("method", method),
		zap.String("client_addr", client),
		zap.Duration("duration", time.Since(start)),
		zap.String("status_code", status.Code(err).String()),
	}
	if err != nil {
		logger.Warn("gRPC call failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Log(probeLevel(method), "gRPC call completed", fields...)
}

// LoggingInterceptor logs one line per unary call.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logCall(logger, info.FullMethod, clientAddr(ctx), start, err)
		return resp, err
	}
}

// StreamLoggingInterceptor logs one line when a stream (e.g. Health/Watch) ends.
func StreamLoggingInterceptor(logger *zap.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logCall(logger, info.FullMethod, clientAddr(ss.Context()), start, err)
		return err
	}
}
