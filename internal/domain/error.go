package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrAlreadyExists         = errors.New("entity already exists")
	ErrInsufficientBalance   = errors.New("insufficient minute balance")
	ErrSessionClosed         = errors.New("session is closed")
	ErrActiveSessionExists   = errors.New("client already has an active session")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrUnsupportedCapability = errors.New("capability not supported")
)
