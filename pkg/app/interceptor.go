package app

import (
	"context"

	grpc_logrus "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

const grpcStatusCodeAttributeKey = "grpc.response.statusCode"

func defaultInterceptors(log *logrus.Entry, nr *newrelic.Application) ([]grpc.UnaryServerInterceptor, []grpc.StreamServerInterceptor) {
	recovery := grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
		log.WithField("panic", p).Error("recovered from panic in grpc handler")
		return status.Error(codes.Internal, "internal error")
	})
	logging := grpc_logrus.WithDecider(shouldLogCall)

	unary := []grpc.UnaryServerInterceptor{
		grpc_recovery.UnaryServerInterceptor(recovery),
		grpc_logrus.UnaryServerInterceptor(log, logging),
	}
	stream := []grpc.StreamServerInterceptor{
		grpc_recovery.StreamServerInterceptor(recovery),
		grpc_logrus.StreamServerInterceptor(log, logging),
	}

	if nr != nil {
		unary = append(unary, newRelicUnaryServerInterceptor(nr))
	}
	return unary, stream
}

// shouldLogCall skips successful health checks
func shouldLogCall(fullMethodName string, err error) bool {
	if err != nil {
		return true
	}
	return fullMethodName != healthgrpc.Health_Check_FullMethodName
}

// newRelicUnaryServerInterceptor wraps each call in a New Relic transaction
// available to handlers through the context
func newRelicUnaryServerInterceptor(nr *newrelic.Application) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		txn := nr.StartTransaction(info.FullMethod)
		defer txn.End()

		resp, err := handler(newrelic.NewContext(ctx, txn), req)

		code := status.Code(err)
		txn.AddAttribute(grpcStatusCodeAttributeKey, code.String())
		if code != codes.OK && code != codes.NotFound && code != codes.Canceled {
			txn.NoticeError(err)
		}
		return resp, err
	}
}
