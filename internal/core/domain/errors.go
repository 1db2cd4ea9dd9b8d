package domain

import "errors"

// Unauthorized: the action requires a signed-in session.
var (
	ErrUnauthorized       = errors.New("login required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError: malformed input or a value the store refuses to keep.
var (
	ErrValidation    = errors.New("validation failed")
	ErrValueTooLarge = errors.New("preference value exceeds the store limit")
	ErrReadOnlyKey   = errors.New("preference key is managed by the server")
	ErrForbiddenKey  = errors.New("preference key cannot be stored")
)

// RemoteFailure: a backend call failed.
var ErrRemoteFailure = errors.New("remote backend failure")

// NotFound.
var (
	ErrToolNotFound       = errors.New("tool not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrPreferenceNotFound = errors.New("preference not found")
)

var (
	ErrForbidden      = errors.New("access forbidden")
	ErrUserExists     = errors.New("user already exists")
	ErrToggleInFlight = errors.New("favorite toggle already in progress")
)
