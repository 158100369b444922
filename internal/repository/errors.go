// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish between
// failure scenarios without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the referenced row does not exist, or when
// an ownership-scoped lookup does not match (absent and not-yours are not
// distinguished). Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique constraint, such
// as registering an email or name that is already taken. Handlers
// translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation on an
// account other than their own. Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("forbidden")
