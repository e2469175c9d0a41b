// Package common defines sentinel errors shared by repositories, services
// and handlers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound        = errors.New("not found")
	ErrAccountNotFound = errors.New("account not found")
	ErrPostNotFound    = errors.New("post not found")
	ErrEdgeNotFound    = errors.New("follow edge not found")
	ErrEmailTaken      = errors.New("email has already been taken")

	// Service-level errors.
	ErrForbidden = errors.New("forbidden")
)
