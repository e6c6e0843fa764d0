package server

import (
	"context"
	"crypto/subtle"
	"livechat/errors"
	"livechat/infrastructure/grpc/wire"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// APIKeyInterceptor rejects unary calls whose x-api-key differs from apiKey.
// An empty apiKey disables the check.
func APIKeyInterceptor(apiKey string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := checkAPIKey(ctx, apiKey); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// APIKeyStreamInterceptor is the streaming counterpart of APIKeyInterceptor.
func APIKeyStreamInterceptor(apiKey string) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := checkAPIKey(ss.Context(), apiKey); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func checkAPIKey(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "metadata is missing")
	}
	values := md.Get(wire.APIKeyHeader)
	if len(values) == 0 || subtle.ConstantTimeCompare([]byte(values[0]), []byte(apiKey)) != 1 {
		return errors.MapToGRPCError(errors.ErrInvalidAPIKey)
	}
	return nil
}
