package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCapacityExceeded  = errors.New("capacity exceeded")
	ErrContentionTimeout = errors.New("lock contention timeout")
	ErrStorageFailure    = errors.New("storage failure")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidAdjustment = errors.New("invalid seat adjustment")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateRequest  = errors.New("duplicate request")
	ErrConflict          = errors.New("conflict")
)

// IsRetryable reports whether the caller may retry the operation with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrContentionTimeout)
}
