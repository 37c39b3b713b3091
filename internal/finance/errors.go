package finance

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means a referenced entry, account, category or rule
	// does not exist. No mutation has happened.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied means the actor lacks rights over an
	// owner-scoped resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInsufficientFunds means an expense or transfer would push a
	// non-negative account below zero. Checked before any mutation
	// becomes visible.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ValidationError marks malformed or out-of-range input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// notFoundOr translates gorm's record-not-found into the core taxonomy.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
