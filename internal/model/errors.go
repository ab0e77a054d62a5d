package model

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")

	// ErrTransientStore marks store failures the caller may retry.
	// GetOrCreate is safe to retry as-is; appends must carry the same
	// idempotency key on retry.
	ErrTransientStore = errors.New("transient store failure")

	// ErrReplyService marks failures of the generative reply collaborator.
	ErrReplyService = errors.New("reply service failure")
)
