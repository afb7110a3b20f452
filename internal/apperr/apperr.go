// Package apperr defines the error kinds shared by stores, services and handlers.
// Callers wrap a kind with fmt.Errorf("%w: ...") and test it with errors.Is.
package apperr

import "errors"

var (
	// ErrValidation reports missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateKey reports a unique field (serial number, username) already in use.
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	// ErrPermissionDenied reports that the acting user's role forbids the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStorage wraps any failure of the underlying database or filesystem.
	ErrStorage = errors.New("storage failure")
	// ErrFileMissing reports a backup row whose file is no longer on disk.
	ErrFileMissing = errors.New("backup file missing")
	// ErrNoOp reports an update that touched no rows. Not a failure.
	ErrNoOp               = errors.New("no rows changed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Kind returns the sentinel that err wraps, or nil when err carries none.
func Kind(err error) error {
	for _, k := range []error{
		ErrValidation, ErrDuplicateKey, ErrNotFound, ErrPermissionDenied,
		ErrFileMissing, ErrNoOp, ErrInvalidCredentials, ErrStorage,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
