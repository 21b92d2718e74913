package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoteErrorMatchesNotFoundOnlyFor404(t *testing.T) {
	notFound := &RemoteError{Operation: "get cart", Status: http.StatusNotFound, Message: "cart not found"}
	require.ErrorIs(t, notFound, ErrNotFound)
	require.NotErrorIs(t, notFound, ErrAuthenticationRequired)

	serverErr := &RemoteError{Status: http.StatusInternalServerError, Message: "request failed"}
	require.NotErrorIs(t, serverErr, ErrNotFound)
	require.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("wrapped: %w", serverErr)))
	require.Zero(t, StatusOf(errors.New("plain")))
}

func TestValidationErrorIsErrValidation(t *testing.T) {
	err := NewValidationError("billing address incomplete", map[string]string{"city": "is required", "country": "is required"})
	require.ErrorIs(t, err, ErrValidation)
	require.Equal(t, "billing address incomplete (city: is required; country: is required)", err.Error())
}

func TestInvalidKeepsOriginalSentinel(t *testing.T) {
	err := Invalid(ErrPolicyAgreementRequired)
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, ErrPolicyAgreementRequired)
	require.Nil(t, Invalid(nil))
}

func TestProblemFromError(t *testing.T) {
	p := ProblemFromError(NewValidationError("", map[string]string{"quantity": "must be at least 1"}))
	require.Equal(t, http.StatusUnprocessableEntity, p.Status)
	require.Equal(t, []string{"must be at least 1"}, p.Errors["quantity"])

	require.Equal(t, http.StatusUnauthorized, ProblemFromError(ErrAuthenticationRequired).Status)
	require.Equal(t, http.StatusNotFound, ProblemFromError(fmt.Errorf("order: %w", ErrNotFound)).Status)
	require.Equal(t, http.StatusInternalServerError, ProblemFromError(errors.New("boom")).Status)
}
