package server

import (
	"github.com/pkg/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/msto63/agones-sdk-go/internal/localsidecar/service"
)

// toStatus maps service errors to gRPC status errors
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	code := codes.Internal
	switch errors.Cause(err) {
	case service.ErrNotFound:
		code = codes.NotFound
	case service.ErrOutOfRange:
		code = codes.OutOfRange
	case service.ErrAlreadyExists:
		code = codes.AlreadyExists
	case service.ErrInvalidArgument:
		code = codes.InvalidArgument
	case service.ErrClosed:
		code = codes.Unavailable
	}
	return status.Error(code, err.Error())
}
