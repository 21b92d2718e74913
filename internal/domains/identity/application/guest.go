package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Apurer/storefront-core/internal/domains/identity/domain"
	"github.com/Apurer/storefront-core/internal/domains/identity/ports"
)

// GuestIdentity issues and persists at most one guest session token per namespace.
type GuestIdentity struct {
	mu        sync.Mutex
	storage   ports.LocalStorage
	namespace string
	newToken  func() string

	loaded bool
	token  string
	state  domain.GuestState
}

// GuestOption configures a GuestIdentity.
type GuestOption func(*GuestIdentity)

// WithTokenGenerator overrides the token source; used by tests.
func WithTokenGenerator(fn func() string) GuestOption {
	return func(g *GuestIdentity) {
		if fn != nil {
			g.newToken = fn
		}
	}
}

// NewGuestIdentity builds the guest identity over storage, partitioned by namespace.
func NewGuestIdentity(storage ports.LocalStorage, namespace string, opts ...GuestOption) *GuestIdentity {
	if storage == nil {
		storage = ports.NoopLocalStorage
	}
	if strings.TrimSpace(namespace) == "" {
		namespace = "default"
	}
	g := &GuestIdentity{
		storage:   storage,
		namespace: namespace,
		newToken:  func() string { return uuid.NewString() },
		state:     domain.GuestNoToken,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// GetOrCreateToken returns the live token, generating and persisting one when none exists.
func (g *GuestIdentity) GetOrCreateToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.load(ctx); err != nil {
		return "", err
	}
	if g.token != "" {
		return g.token, nil
	}
	token := g.newToken()
	if err := g.storage.Put(ctx, g.namespace, domain.GuestTokenKey, token); err != nil {
		return "", fmt.Errorf("persist guest token: %w", err)
	}
	g.token = token
	g.state = domain.GuestTokenIssued
	return token, nil
}

// Current returns the live token without creating one.
func (g *GuestIdentity) Current(ctx context.Context) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.load(ctx); err != nil {
		return "", false, err
	}
	return g.token, g.token != "", nil
}

// Clear discards the token. The next cart interaction starts over from NoToken.
func (g *GuestIdentity) Clear(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.storage.Delete(ctx, g.namespace, domain.GuestTokenKey); err != nil {
		return fmt.Errorf("delete guest token: %w", err)
	}
	g.loaded = true
	if g.token != "" {
		g.state = domain.GuestCleared
	}
	g.token = ""
	return nil
}

// State reports the lifecycle position of the token.
func (g *GuestIdentity) State() domain.GuestState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != "" {
		return domain.GuestTokenIssued
	}
	return g.state
}

func (g *GuestIdentity) load(ctx context.Context) error {
	if g.loaded {
		return nil
	}
	token, ok, err := g.storage.Get(ctx, g.namespace, domain.GuestTokenKey)
	if err != nil {
		return fmt.Errorf("load guest token: %w", err)
	}
	g.loaded = true
	if ok && strings.TrimSpace(token) != "" {
		g.token = token
		g.state = domain.GuestTokenIssued
	}
	return nil
}

var _ ports.GuestIdentity = (*GuestIdentity)(nil)
