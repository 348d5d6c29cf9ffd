package service

import "errors"

// Sentinel errors returned by the services. Handlers match them with
// errors.Is to pick a response status; everything wraps one of these.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrNotFound marks an absent slot or swap request.
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks a caller who is not the authorized party.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidState marks an operation against a slot or request whose
	// current status does not permit it (self-swap, not SWAPPABLE,
	// request already decided).
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict marks an atomic section whose authoritative re-check
	// failed because a concurrent operation got there first. The whole
	// transaction has been rolled back; nothing was mutated.
	ErrConflict = errors.New("conflict")
	// ErrTransient marks an operation aborted by the store itself
	// (timeout, deadlock, unavailability). Safe to retry.
	ErrTransient = errors.New("transient store failure")
)

// IsDomainError reports whether err already carries one of the sentinel
// errors above.
func IsDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTransient)
}
