package model

import "errors"

// Failure classes of a resolution run. None of them aborts the run; they
// are wrapped with context and recorded on the entity's Outcome.
var (
	ErrMalformedAnnotation       = errors.New("malformed annotation")
	ErrClassificationQueryFailed = errors.New("classification query failed")
	ErrKeyLookupFailed           = errors.New("key lookup failed")
	ErrContainmentQueryFailed    = errors.New("containment query failed")
	ErrWriteFailed               = errors.New("write failed")
)
