// Package errors provides common domain error types for playerlink.
//
// This package defines sentinel errors for domain conditions like "not found"
// or "duplicate identifier" that can be used across all packages. Using typed
// errors enables consistent error handling patterns with errors.Is() checks.
//
// Ambiguous and unresolved match attempts are deliberately NOT errors: they
// are first-class resolution outcomes so batch callers can keep processing a
// batch after one record fails to resolve.
//
// Usage:
//
//	import plerrors "github.com/otherjamesbrown/playerlink/pkg/errors"
//
//	// Return a domain error
//	return nil, plerrors.ErrNotFound
//
//	// Check for domain errors
//	if plerrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentifier indicates a write would map an already-claimed
	// (source, external_id) pair to a different player. The write is rejected
	// and the store left unchanged; it is never silently resolved by overwrite.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrStoreUnavailable indicates the underlying identity store is
	// unreachable. Fatal for the current call; the engine performs no retries.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrValidation indicates invalid input, e.g. an empty external id or an
	// unknown source.
	ErrValidation = errors.New("validation error")

	// ErrAlreadyExists indicates the resource already exists.
	ErrAlreadyExists = errors.New("already exists")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateIdentifier reports whether any error in err's chain is ErrDuplicateIdentifier.
func IsDuplicateIdentifier(err error) bool {
	return errors.Is(err, ErrDuplicateIdentifier)
}

// IsStoreUnavailable reports whether any error in err's chain is ErrStoreUnavailable.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsAlreadyExists reports whether any error in err's chain is ErrAlreadyExists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
