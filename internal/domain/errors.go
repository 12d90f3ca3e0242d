package domain

import "errors"

// Sentinel errors for domain-level error discrimination. Services wrap
// these with context so handlers can map to HTTP status codes without
// leaking store or transport details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)
