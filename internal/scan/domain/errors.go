package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBarcode1 = errors.New("invalid_barcode1")
	ErrInvalidBarcode2 = errors.New("invalid_barcode2")

	ErrStorage            = errors.New("storage_error")
	ErrStorageTimeout     = errors.New("storage_timeout")
	ErrStorageUnavailable = errors.New("storage_unavailable")
)

// IsValidationError reports whether err was caused by client input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidBarcode1) || errors.Is(err, ErrInvalidBarcode2)
}

// StorageError wraps any failure coming from the record store.
// Unavailable is set when the store could not be reached at all.
type StorageError struct {
	Op          string
	Timeout     bool
	Unavailable bool
	Err         error
}

func NewStorageError(op string, err error, timeout bool) *StorageError {
	return &StorageError{Op: op, Timeout: timeout, Err: err}
}

func (e *StorageError) Error() string {
	kind := "storage error"
	switch {
	case e.Timeout:
		kind = "storage timeout"
	case e.Unavailable:
		kind = "storage unavailable"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	switch target {
	case ErrStorage:
		return true
	case ErrStorageTimeout:
		return e.Timeout
	case ErrStorageUnavailable:
		return e.Unavailable
	default:
		return false
	}
}
