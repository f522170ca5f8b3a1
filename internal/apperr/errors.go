// Package apperr holds the sentinel errors shared by the store, the provider
// and its transports. Callers match them with errors.Is.
package apperr

import "errors"

var (
	// Caller bugs: surfaced immediately, never retried.
	ErrUnknownResource   = errors.New("unknown resource")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidProjection = errors.New("invalid projection")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidValues     = errors.New("invalid values")

	// Storage rejected the write. The caller may retry.
	ErrInsertFailed = errors.New("insert failed")
	ErrWriteFailed  = errors.New("write failed")

	ErrNotFound = errors.New("not found")
)
