package library

import "errors"

var (
	// ErrBookUnavailable is returned when a reservation or checkout targets a book that is not Available.
	ErrBookUnavailable = errors.New("book is not available")

	// ErrAlreadyExists is returned when a record id collides with an existing one.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidRecord wraps validation failures from the record builders.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrImportFailed aborts a whole import batch. Nothing from the batch is committed.
	ErrImportFailed = errors.New("could not process the import data, check the format")

	// ErrInvalidCredentials does not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInconsistentState is returned when a transition would leave a book whose status
	// disagrees with its loans and reservations.
	ErrInconsistentState = errors.New("book status disagrees with its loans and reservations")

	// ErrNotAuthenticated is returned when an action needs a logged in member.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrForbidden is returned when the current member lacks an administrative role.
	ErrForbidden = errors.New("administrator role required")

	// ErrKeyNotFound is returned by a Store for a key that was never written.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeysUnsupported is returned when the store cannot list its keys.
	ErrKeysUnsupported = errors.New("store cannot list its keys")
)
