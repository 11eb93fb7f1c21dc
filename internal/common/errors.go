// Package common contains the sentinel errors and small helpers shared by
// services, repositories and the HTTP layer. Callers match the sentinels
// with errors.Is.
package common

import "errors"

var (
	// ErrorNotFound covers both "entity absent" and "entity owned by another
	// user"; the two cases are deliberately indistinguishable to callers.
	ErrorNotFound = errors.New("not found")

	// ErrorValidation marks malformed input, an illegal block type
	// combination, or a move into the block's own subtree.
	ErrorValidation = errors.New("validation error")

	// ErrorConflict is reserved for concurrent-update conflicts.
	ErrorConflict = errors.New("conflict")

	// ErrorStorage categorizes any backend failure; the underlying cause is
	// attached via wrapping for logging and never leaks to the caller.
	ErrorStorage = errors.New("storage operation failed")

	// Auth errors.
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrInvalidToken        = errors.New("invalid token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
