package models

import "errors"

// Custom errors
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicateKey         = errors.New("duplicate key violation")
	ErrInvalidID            = errors.New("invalid ID format")
	ErrStrategyNameRequired = errors.New("strategy name is required")
	ErrIncompleteResult     = errors.New("race result is incomplete")
)
