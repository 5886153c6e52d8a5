package handler

import (
	"context"
	"path"
	"time"

	"github.com/fekuna/omnipos-pharmacy/internal/auth"
	"github.com/fekuna/omnipos-pharmacy/internal/logger"
	"github.com/fekuna/omnipos-pharmacy/internal/metrics"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ContextInterceptor lifts the operator headers into the request context
// and records duration and outcome of every unary call.
func ContextInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		op := auth.FromIncomingMetadata(ctx)
		ctx = auth.WithOperator(ctx, op)

		start := time.Now()
		resp, err := next(ctx, req)
		elapsed := time.Since(start)

		code := status.Code(err)
		method := path.Base(info.FullMethod)
		metrics.RPCDuration.WithLabelValues(method, code.String()).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("code", code.String()),
			zap.Duration("elapsed", elapsed),
			zap.String("operator_id", op.OperatorID),
			zap.String("terminal_id", op.TerminalID),
		}
		if err != nil {
			log.Warn("rpc failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("rpc served", fields...)
		}
		return resp, err
	}
}

// RecoveryInterceptor turns a panic in a handler into codes.Internal so one
// bad request cannot stop the server.
func RecoveryInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(func(ctx context.Context, p any) error {
		log.Error("recovered from panic in rpc",
			zap.Any("panic", p),
			zap.String("operator_id", auth.GetOperatorID(ctx)),
			zap.Stack("stack"),
		)
		return status.Error(codes.Internal, "internal error")
	}))
}
