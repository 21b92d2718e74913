package sandbox

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

const userKey = "sandbox.user_id"

// IssueToken signs an HS256 bearer token for userID, valid for ttl.
func IssueToken(key []byte, userID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// IssueToken signs a token with the server's key.
func (s *Server) IssueToken(userID string, ttl time.Duration) (string, error) {
	return IssueToken(s.signingKey, userID, ttl)
}

// authenticate resolves an optional bearer token. A present but invalid token is rejected.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			sharederrors.Respond(c, sharederrors.ProblemUnauthorized.WithDetail("authorization header must use the Bearer scheme"))
			return
		}
		userID, err := s.verify(strings.TrimSpace(raw))
		if err != nil {
			sharederrors.Respond(c, sharederrors.ProblemUnauthorized.WithDetail(err.Error()))
			return
		}
		c.Set(userKey, userID)
		c.Next()
	}
}

func (s *Server) verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("invalid token: missing subject")
	}
	return claims.Subject, nil
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == "" {
			sharederrors.Respond(c, sharederrors.ProblemUnauthorized.WithDetail("authentication credentials were not provided"))
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}
