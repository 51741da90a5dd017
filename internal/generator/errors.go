package generator

import (
	"errors"
	"fmt"
)

// Kind classifies generation failures so callers can map them to responses.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: the request itself is unusable (empty command).
	KindValidation
	// KindUnconfigured: no credential for the active provider.
	KindUnconfigured
	// KindProvider: the model call failed.
	KindProvider
	// KindMalformed: the reply held no parseable JSON.
	KindMalformed
	// KindSchema: the JSON lacked required fields or had the wrong shape.
	KindSchema
	// KindStore: persisting the result failed.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnconfigured:
		return "unconfigured"
	case KindProvider:
		return "provider"
	case KindMalformed:
		return "malformed"
	case KindSchema:
		return "schema"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Error is returned by every Service operation. Message is safe to show to
// the operator; Err carries the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
