package types

import "errors"

// API errors. Client status errors unwrap to one of these so callers can
// match with errors.Is regardless of the exact HTTP status.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrRateLimited    = errors.New("rate limited")
	ErrServer         = errors.New("server error")
)

// Entity validation errors.
var (
	ErrInvalidName        = errors.New("name must not be empty")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidStopType    = errors.New("invalid stop type")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidCategory    = errors.New("invalid trip category")
	ErrInvalidMode        = errors.New("invalid transport mode")
	ErrInvalidDuration    = errors.New("duration must be positive")
	ErrInvalidCost        = errors.New("cost must not be negative")
	ErrInvalidOrder       = errors.New("stop order must be unique and dense")
	ErrInvalidTransition  = errors.New("invalid stop status transition")
	ErrInvalidVisibility  = errors.New("invalid visibility")
)
