package models

import "errors"

// Custom errors
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrSnapshotNotFound = errors.New("no event snapshot available")
	ErrInvalidStake     = errors.New("total stake must be positive")
	ErrInvalidQuote     = errors.New("invalid market quote")
)
