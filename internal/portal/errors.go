package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrRenderNotReady is returned when a PDF export is attempted before
	// the working document's view has been realized.
	ErrRenderNotReady = errors.New("view is not realized")

	// ErrSaveInFlight is returned when a save is requested while another
	// save for the same working document is still pending.
	ErrSaveInFlight = errors.New("a save is already in progress")

	// ErrPersistenceDisabled is returned by save and history operations in
	// the edition built without a document store.
	ErrPersistenceDisabled = errors.New("persistence is not enabled")

	// ErrInvalidTransition is returned for view transitions the router
	// does not permit (e.g. editor directly to history).
	ErrInvalidTransition = errors.New("view transition not permitted")

	// ErrTemplateNotFound is returned when opening an editor for an
	// unknown template ID.
	ErrTemplateNotFound = errors.New("template not found")
)

// ValidationError reports input rejected locally, before any call to an
// external collaborator.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthenticationError reports a rejection by the external identity service,
// with a human-readable reason derived from the service's error.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// CapabilityDeniedError reports an operation that requires an authenticated,
// non-anonymous session. The external collaborator is never contacted.
type CapabilityDeniedError struct {
	Capability string
}

func (e *CapabilityDeniedError) Error() string {
	return fmt.Sprintf("%s requires a signed-in account", e.Capability)
}

// ExportError reports a terminal file-generation failure. The operation is
// abandoned; the user may retry manually.
type ExportError struct {
	Format string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export failed: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// PersistenceError reports a document store failure. Local state is left
// unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
