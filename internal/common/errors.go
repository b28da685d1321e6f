// Package common defines shared sentinel errors used across the VidStash
// server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateVideo = errors.New("duplicate video")

	// Ingestion errors surfaced synchronously to the caller.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrCannotParseURL      = errors.New("could not parse URL")
	ErrNoProvider          = errors.New("cannot determine platform")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
