package domain

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestParseBearerReadsSubjectAndExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	token := signed(t, jwt.MapClaims{"sub": "u-42", "exp": now.Add(time.Hour).Unix()})

	p, err := ParseBearer("Bearer "+token, now)
	require.NoError(t, err)
	require.Equal(t, "u-42", p.UserID)
	require.Equal(t, token, p.Bearer)
	require.True(t, p.Authenticated())
	require.True(t, p.Expired(now.Add(2*time.Hour)))
}

func TestParseBearerFallsBackToUserIDClaim(t *testing.T) {
	token := signed(t, jwt.MapClaims{"userId": float64(7)})
	p, err := ParseBearer(token, time.Now())
	require.NoError(t, err)
	require.Equal(t, "7", p.UserID)
	require.False(t, p.Expired(time.Now().Add(24*time.Hour)))
}

func TestParseBearerRejects(t *testing.T) {
	now := time.Now()
	_, err := ParseBearer("  ", now)
	require.ErrorIs(t, err, ErrEmptyBearer)

	_, err = ParseBearer("not-a-jwt", now)
	require.ErrorIs(t, err, ErrMalformedToken)

	_, err = ParseBearer(signed(t, jwt.MapClaims{"role": "admin"}), now)
	require.ErrorIs(t, err, ErrMissingSubject)

	_, err = ParseBearer(signed(t, jwt.MapClaims{"sub": "u", "exp": now.Add(-time.Minute).Unix()}), now)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthChangeDirection(t *testing.T) {
	user := Principal{UserID: "u", Bearer: "t"}
	require.True(t, AuthChange{Current: user}.SignedIn())
	require.True(t, AuthChange{Previous: user}.SignedOut())
	require.False(t, AuthChange{}.SignedOut())

	other := Principal{UserID: "v", Bearer: "t2"}
	require.True(t, AuthChange{Previous: user, Current: other}.SwitchedAccount())
	require.False(t, AuthChange{Previous: user, Current: Principal{UserID: "u", Bearer: "t3"}}.SwitchedAccount())
	require.False(t, AuthChange{Current: other}.SwitchedAccount())
}
