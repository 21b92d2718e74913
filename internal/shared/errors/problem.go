// Package errors holds the storefront error taxonomy and the RFC 7807 problem
// documents exchanged with the commerce API.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is an RFC 7807 document; Errors carries field-level messages.
type ProblemDetail struct {
	Type     string              `json:"type"`
	Title    string              `json:"title"`
	Status   int                 `json:"status"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithFieldError returns a copy with an additional field-level message.
func (p ProblemDetail) WithFieldError(field, msg string) ProblemDetail {
	errs := make(map[string][]string, len(p.Errors)+1)
	for k, v := range p.Errors {
		errs[k] = append([]string(nil), v...)
	}
	errs[field] = append(errs[field], msg)
	p.Errors = errs
	return p
}

const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeBadRequest   = "/problems/bad-request"
)

var (
	ProblemNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}

	// ProblemValidation is used for semantically invalid payloads.
	ProblemValidation = ProblemDetail{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusUnprocessableEntity,
	}

	ProblemBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	ProblemInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}

	ProblemUnauthorized = ProblemDetail{
		Type:   TypeUnauthorized,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
	}
)

// NewNotFoundProblem names the missing resource, e.g. `order "42" not found`.
func NewNotFoundProblem(resource string, id string) ProblemDetail {
	return ProblemNotFound.WithDetail(fmt.Sprintf("%s %q not found", resource, id))
}

// NewValidationProblem builds a 422 problem from one message per field.
func NewValidationProblem(fields map[string]string) ProblemDetail {
	p := ProblemValidation
	for field, msg := range fields {
		p = p.WithFieldError(field, msg)
	}
	return p
}
