package models

import "errors"

// Failure taxonomy shared by the repositories and the sync engine.
// Callers match with errors.Is; lower-level causes stay attached via
// %w wrapping.
var (
	// ErrNotAuthenticated is returned when a write is attempted
	// without an active author identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUploadFailed is returned when the required photo upload
	// fails; the whole submit aborts and nothing is persisted.
	ErrUploadFailed = errors.New("photo upload failed")

	// ErrStoreUnavailable is returned when the backing store cannot
	// be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when a referenced record does not
	// exist; it is never silently substituted.
	ErrNotFound = errors.New("not found")
)
