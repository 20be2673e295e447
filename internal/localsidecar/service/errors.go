package service

import "github.com/pkg/errors"

// Error classes returned by the Service. The gRPC layer maps them to status
// codes; match with errors.Cause.
var (
	ErrNotFound        = errors.New("not found")
	ErrOutOfRange      = errors.New("out of range")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClosed          = errors.New("local sidecar closed")
)
