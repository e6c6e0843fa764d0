package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapToGRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{name: "empty text", err: ErrEmptyText, code: codes.InvalidArgument},
		{name: "wrapped invalid query", err: fmt.Errorf("%w: limit", ErrInvalidQuery), code: codes.InvalidArgument},
		{name: "invalid document", err: ErrInvalidDocument, code: codes.InvalidArgument},
		{name: "api key", err: ErrInvalidAPIKey, code: codes.Unauthenticated},
		{name: "store closed", err: ErrStoreClosed, code: codes.Unavailable},
		{name: "queue full", err: ErrQueueFull, code: codes.ResourceExhausted},
		{name: "unknown", err: fmt.Errorf("disk on fire"), code: codes.Internal},
		{name: "already a status", err: status.Error(codes.NotFound, "nope"), code: codes.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.code, status.Code(MapToGRPCError(tt.err)))
		})
	}
	require.NoError(t, MapToGRPCError(nil))
}
