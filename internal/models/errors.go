package models

import "errors"

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrInvalidID         = errors.New("invalid ID format")
	ErrOutcomeReferenced = errors.New("outcome is referenced by live wagers and cannot be deleted")
	ErrInsufficientFunds = errors.New("insufficient wallet funds")
)
