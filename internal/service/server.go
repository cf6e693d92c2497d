package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/appointment-queue/internal/logging"
)

// NewGRPCServer собирает gRPC-сервер с сервисом очереди, health и reflection.
func NewGRPCServer(svc QueueServiceServer, log zerolog.Logger) (*grpc.Server, *health.Server) {
	log = log.With().Str("component", "grpc").Logger()

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unaryLogger(log)),
		grpc.ChainStreamInterceptor(streamLogger(log)),
	)
	RegisterQueueServiceServer(srv, svc)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	reflection.Register(srv)
	return srv, hs
}

func unaryLogger(log zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		logCall(logging.FromContext(ctx, log), info.FullMethod, started, err)
		return resp, err
	}
}

func streamLogger(log zerolog.Logger) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		started := time.Now()
		err := handler(srv, ss)
		logCall(logging.FromContext(ss.Context(), log), info.FullMethod, started, err)
		return err
	}
}

func logCall(log zerolog.Logger, method string, started time.Time, err error) {
	code := status.Code(err)
	ev := log.Debug()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("method", method).
		Str("code", code.String()).
		Dur("duration", time.Since(started)).
		Msg("grpc call")
}
