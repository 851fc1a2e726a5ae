package model

import "errors"

// Lookup errors.
var (
	// ErrEventNotFound is returned when the requested event does not exist.
	ErrEventNotFound = errors.New("event not found")
	// ErrUserNotFound is returned when the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Registration ledger outcomes. All are expected, recoverable conditions
// that handlers translate into user-facing messages.
var (
	// ErrEventNotOpen is returned when the event is cancelled or completed.
	ErrEventNotOpen = errors.New("event is not open for registration")
	// ErrAlreadyRegistered is returned when the same user registers twice.
	ErrAlreadyRegistered = errors.New("user is already registered for this event")
	// ErrEventFull is returned when an event has no remaining capacity.
	ErrEventFull = errors.New("event is fully booked")
	// ErrNotRegistered is returned when unregistering a user who is not an attendee.
	ErrNotRegistered = errors.New("user is not registered for this event")
	// ErrPersistenceFailed is returned when a mutation succeeded in memory
	// but could not be written to durable storage.
	ErrPersistenceFailed = errors.New("change applied in memory but not persisted")
)

// Store and service errors.
var (
	// ErrValidation wraps every rejected-input error so handlers can map
	// the whole family to one status code.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEvent is returned when an active event with the same
	// name already exists on the same date.
	ErrDuplicateEvent = errors.New("an active event with this name and date already exists")
	// ErrInvalidTransition is returned for a disallowed status change.
	ErrInvalidTransition = errors.New("invalid event status transition")
	// ErrUsernameTaken is returned when the username is already in use.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrEmailTaken is returned when the email is already in use.
	ErrEmailTaken = errors.New("email is already in use")
	// ErrUnknownSearchField is returned for an unrecognised search field.
	ErrUnknownSearchField = errors.New("unknown search field")
)

// Auth errors.
var (
	// ErrInvalidCredentials is returned when login fails. It deliberately
	// does not reveal whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned for a missing, malformed, or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrPermissionDenied is returned when the caller's role does not
	// allow the requested action.
	ErrPermissionDenied = errors.New("permission denied")
)
