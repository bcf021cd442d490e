package shared

import "errors"

var (
	// ErrNotFound indicates an order or document id that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition indicates a lifecycle precondition was not met.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnauthorized indicates the actor may not perform the action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrAllocationExhausted indicates the sequence allocator gave up.
	ErrAllocationExhausted = errors.New("allocation exhausted")
)

var (
	// ErrAlreadyExists is returned when a successor document or record already exists.
	ErrAlreadyExists = wrapKind(ErrInvalidTransition, "already exists")
	// ErrExpired is returned when a quotation is approved past its validity.
	ErrExpired = wrapKind(ErrInvalidTransition, "expired")
)

// Error codes surfaced to callers.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeAllocationExhausted = "ALLOCATION_EXHAUSTED"
	CodeInternal            = "INTERNAL"
)

// CodeOf maps an error chain onto its error code.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrValidation):
		return CodeValidationFailed
	case errors.Is(err, ErrAllocationExhausted):
		return CodeAllocationExhausted
	default:
		return CodeInternal
	}
}

type kindError struct {
	kind error
	msg  string
}

func wrapKind(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.msg
}

func (e *kindError) Unwrap() error {
	return e.kind
}
