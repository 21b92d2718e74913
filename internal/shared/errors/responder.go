package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type for Problem Details responses.
const ContentTypeProblemJSON = "application/problem+json"

// Respond sends a ProblemDetail response with proper content type.
func Respond(c *gin.Context, problem ProblemDetail) {
	if problem.Instance == "" && c.Request != nil {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError converts a taxonomy error into a ProblemDetail and responds.
func RespondError(c *gin.Context, err error) {
	Respond(c, ProblemFromError(err))
}

// ProblemFromError maps taxonomy errors onto problem documents.
func ProblemFromError(err error) ProblemDetail {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		p := NewValidationProblem(validation.Fields)
		if validation.Reason != "" {
			p = p.WithDetail(validation.Reason)
		}
		return p
	}
	switch {
	case errors.Is(err, ErrValidation):
		return ProblemValidation.WithDetail(err.Error())
	case errors.Is(err, ErrAuthenticationRequired):
		return ProblemUnauthorized.WithDetail(err.Error())
	case errors.Is(err, ErrNotFound):
		return ProblemNotFound.WithDetail(err.Error())
	default:
		return ProblemInternal.WithDetail(err.Error())
	}
}
