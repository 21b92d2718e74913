package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrAuthenticationRequired is returned before any network call when an
	// operation needs a signed-in identity and none is available.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrValidation marks caller-supplied input that failed a precondition.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a missing remote resource.
	ErrNotFound = errors.New("not found")
	// ErrPolicyAgreementRequired is the checkout precondition the UI renders separately.
	ErrPolicyAgreementRequired = errors.New("you must agree to the terms and policies")
)

// ValidationError carries field-level messages for a rejected input.
type ValidationError struct {
	Reason string
	Fields map[string]string
}

// NewValidationError builds a ValidationError; fields may be nil.
func NewValidationError(reason string, fields map[string]string) *ValidationError {
	return &ValidationError{Reason: reason, Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Reason == "" {
			return ErrValidation.Error()
		}
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	reason := e.Reason
	if reason == "" {
		reason = ErrValidation.Error()
	}
	return fmt.Sprintf("%s (%s)", reason, strings.Join(parts, "; "))
}

// Is reports ValidationError as ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RemoteError is a non-2xx response from the commerce API.
type RemoteError struct {
	Operation string
	Status    int
	Message   string
	Payload   []byte
}

func (e *RemoteError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Operation, e.Message, e.Status)
}

// Is lets a 404 RemoteError match ErrNotFound and a 401 match ErrAuthenticationRequired.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrAuthenticationRequired:
		return e.Status == http.StatusUnauthorized
	default:
		return false
	}
}

// StatusOf returns the remote HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Status
	}
	return 0
}

// Invalid wraps a domain sentinel so it matches ErrValidation while keeping the original.
func Invalid(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrValidation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
