package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired indicates the bearer token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked indicates the bearer token was revoked at logout.
	ErrTokenRevoked = errors.New("token revoked")
)
