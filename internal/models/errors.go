package models

import "errors"

// Sentinel errors returned by the ledger and directory layers.
// Handlers map these to HTTP status codes; everything else is a 500.
var (
	// ErrInvalidTransition means the requested state change is not reachable
	// from the record's current state. Also returned to the loser of a
	// concurrent transition race on the same record.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownGateStation means the gate station id is not registered.
	ErrUnknownGateStation = errors.New("unknown gate station")

	// ErrUnauthorizedTenant means the caller's property does not match the
	// record's or station's property. Always surfaced as 403, never as 404.
	ErrUnauthorizedTenant = errors.New("property mismatch")

	// ErrInvalidInput marks request validation failures (400).
	ErrInvalidInput = errors.New("invalid input")
)
