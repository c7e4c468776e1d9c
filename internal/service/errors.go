package service

import "errors"

var (
	// ErrValidation covers malformed input: empty cart, bad option index,
	// unknown status value. Rejected before any persistence.
	ErrValidation = errors.New("validation")

	// ErrNotFound is a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is the uniform scope-mismatch result. It carries no detail
	// about whether the entity exists under another tenant.
	ErrInvalid = errors.New("invalid request")

	// ErrRestaurantNotSet marks a server that has not linked a restaurant
	// yet. An onboarding state, not an authorization failure.
	ErrRestaurantNotSet = errors.New("restaurant not set")
)
