package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidPayload     = fmt.Errorf("invalid event payload")
	ErrEmptyText          = fmt.Errorf("message text is empty")
	ErrEmptyAuthor        = fmt.Errorf("message author is empty")
	ErrInvalidQuery       = fmt.Errorf("invalid query")
	ErrInvalidDocument    = fmt.Errorf("invalid document")
	ErrQueueFull          = fmt.Errorf("outgoing message queue is full")
	ErrSubscriptionClosed = fmt.Errorf("subscription closed")
	ErrStoreClosed        = fmt.Errorf("store closed")
	ErrInvalidAPIKey      = fmt.Errorf("invalid api key")
)

// MapToGRPCError translates domain errors into gRPC status errors.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrEmptyText), errors.Is(err, ErrEmptyAuthor),
		errors.Is(err, ErrInvalidQuery), errors.Is(err, ErrInvalidDocument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrInvalidAPIKey):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, ErrStoreClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrQueueFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
