package errors

import "errors"

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMalformedRecord     = errors.New("malformed match record")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrStoreUnavailable    = errors.New("store unavailable")
	ErrBudgetExhausted     = errors.New("provider call budget exhausted")
)
