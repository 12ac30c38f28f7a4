package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("not allowed to modify a resource owned by another user")
	ErrInvalidInput = errors.New("invalid input")
	ErrNoIdentity   = errors.New("no identity or remote service available")
)

// PartialUploadError reports an asset that reached the blob host but whose
// metadata document could not be written. The asset is orphaned.
type PartialUploadError struct {
	AssetID  string
	AssetURL string
	Err      error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("asset %s uploaded but not recorded: %v", e.AssetID, e.Err)
}

func (e *PartialUploadError) Unwrap() error {
	return e.Err
}

// Invalid wraps ErrInvalidInput with a description of the offending field.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
