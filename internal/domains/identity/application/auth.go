package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Apurer/storefront-core/internal/domains/identity/domain"
	"github.com/Apurer/storefront-core/internal/domains/identity/ports"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// AuthState holds the signed-in principal and notifies subscribers of changes.
type AuthState struct {
	mu        sync.RWMutex
	current   domain.Principal
	listeners map[int]ports.AuthListener
	order     []int
	nextID    int
	now       func() time.Time
}

// AuthOption configures an AuthState.
type AuthOption func(*AuthState)

// WithAuthClock overrides the clock used for expiry checks.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *AuthState) {
		if now != nil {
			a.now = now
		}
	}
}

func NewAuthState(opts ...AuthOption) *AuthState {
	a := &AuthState{listeners: map[int]ports.AuthListener{}, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// SignIn adopts bearer as the current identity and notifies listeners in
// subscription order. Listener failures are joined and returned; the sign-in stands.
func (a *AuthState) SignIn(ctx context.Context, bearer string) error {
	principal, err := domain.ParseBearer(bearer, a.now())
	if err != nil {
		return fmt.Errorf("%w: %w", sharederrors.ErrAuthenticationRequired, err)
	}
	a.mu.Lock()
	previous := a.current
	a.current = principal
	a.mu.Unlock()
	return a.notify(ctx, domain.AuthChange{Previous: previous, Current: principal})
}

// SignOut drops the identity and notifies listeners.
func (a *AuthState) SignOut(ctx context.Context) error {
	a.mu.Lock()
	previous := a.current
	a.current = domain.Principal{}
	a.mu.Unlock()
	if !previous.Authenticated() {
		return nil
	}
	return a.notify(ctx, domain.AuthChange{Previous: previous})
}

// Current returns the principal, anonymous once its token has expired.
func (a *AuthState) Current() domain.Principal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.current.Expired(a.now()) {
		return domain.Principal{}
	}
	return a.current
}

// Credentials returns the live bearer token, if any.
func (a *AuthState) Credentials(_ context.Context) (string, bool) {
	p := a.Current()
	return p.Bearer, p.Authenticated()
}

// Subscribe registers listener and returns a func that removes it.
func (a *AuthState) Subscribe(listener ports.AuthListener) func() {
	if listener == nil {
		return func() {}
	}
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = listener
	a.order = append(a.order, id)
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			delete(a.listeners, id)
			for i, v := range a.order {
				if v == id {
					a.order = append(a.order[:i:i], a.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (a *AuthState) notify(ctx context.Context, change domain.AuthChange) error {
	a.mu.RLock()
	listeners := make([]ports.AuthListener, 0, len(a.order))
	for _, id := range a.order {
		listeners = append(listeners, a.listeners[id])
	}
	a.mu.RUnlock()

	var errs []error
	for _, l := range listeners {
		if err := l(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ ports.AuthState = (*AuthState)(nil)
