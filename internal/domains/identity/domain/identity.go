package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuestTokenKey is the fixed local-storage key holding the guest session id.
const GuestTokenKey = "guest_session_id"

var (
	ErrEmptyBearer    = errors.New("bearer token is empty")
	ErrMalformedToken = errors.New("bearer token is malformed")
	ErrMissingSubject = errors.New("bearer token has no subject")
	ErrTokenExpired   = errors.New("bearer token has expired")
)

// GuestState tracks the guest token lifecycle: NoToken -> TokenIssued -> Cleared.
type GuestState string

const (
	GuestNoToken     GuestState = "no_token"
	GuestTokenIssued GuestState = "token_issued"
	GuestCleared     GuestState = "cleared"
)

// Principal is the authenticated identity derived from a bearer token.
// The zero value is the anonymous principal.
type Principal struct {
	UserID    string
	Bearer    string
	ExpiresAt time.Time
}

// Authenticated reports whether p carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != "" && p.Bearer != ""
}

// Expired reports whether the token's expiry has passed at now. Tokens without exp never expire.
func (p Principal) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// AuthChange is delivered to auth-state listeners on every sign-in or sign-out.
type AuthChange struct {
	Previous Principal
	Current  Principal
}

// SignedIn reports whether the change ends in an authenticated state.
func (c AuthChange) SignedIn() bool { return c.Current.Authenticated() }

// SignedOut reports whether the change left an authenticated state for anonymous.
func (c AuthChange) SignedOut() bool {
	return c.Previous.Authenticated() && !c.Current.Authenticated()
}

// SwitchedAccount reports a sign-in that replaced a different signed-in user.
func (c AuthChange) SwitchedAccount() bool {
	return c.Previous.Authenticated() && c.Current.Authenticated() && c.Previous.UserID != c.Current.UserID
}

// ParseBearer reads the subject and expiry claims of a JWT bearer token.
// The signature is not verified here; the remote API remains the authority.
func ParseBearer(bearer string, now time.Time) (Principal, error) {
	bearer = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(bearer), "Bearer "))
	if bearer == "" {
		return Principal{}, ErrEmptyBearer
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(bearer, claims); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	subject := subjectOf(claims)
	if subject == "" {
		return Principal{}, ErrMissingSubject
	}
	p := Principal{UserID: subject, Bearer: bearer}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp != nil {
		p.ExpiresAt = exp.Time
	}
	if p.Expired(now) {
		return Principal{}, ErrTokenExpired
	}
	return p, nil
}

func subjectOf(claims jwt.MapClaims) string {
	if sub, err := claims.GetSubject(); err == nil && strings.TrimSpace(sub) != "" {
		return strings.TrimSpace(sub)
	}
	for _, name := range []string{"userId", "user_id"} {
		switch v := claims[name].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
