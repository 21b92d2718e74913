package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Apurer/storefront-core/internal/domains/cart/domain"
	"github.com/Apurer/storefront-core/internal/domains/cart/ports"
	identitydomain "github.com/Apurer/storefront-core/internal/domains/identity/domain"
	identityports "github.com/Apurer/storefront-core/internal/domains/identity/ports"
	"github.com/Apurer/storefront-core/internal/platform/cache"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// PrincipalSource reports the signed-in identity, if any.
type PrincipalSource interface {
	Current() identitydomain.Principal
}

// Service is the cart store: reads are cached per owner, mutations invalidate
// the cart and count entries once the remote confirms them.
type Service struct {
	remote   ports.Remote
	cache    *cache.Cache
	guest    identityports.GuestIdentity
	identity PrincipalSource
	ttl      time.Duration

	transferMu sync.Mutex
}

// Option configures the cart service.
type Option func(*Service)

// WithTTL overrides the cart read TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func NewService(remote ports.Remote, c *cache.Cache, guest identityports.GuestIdentity, identity PrincipalSource, opts ...Option) *Service {
	if c == nil {
		c = cache.New()
	}
	s := &Service{remote: remote, cache: c, guest: guest, identity: identity, ttl: cache.DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// owner resolves the signed-in user, or the guest session (issued on first use).
func (s *Service) owner(ctx context.Context) (domain.Owner, error) {
	if p := s.identity.Current(); p.Authenticated() {
		return domain.Owner{UserID: p.UserID}, nil
	}
	token, err := s.guest.GetOrCreateToken(ctx)
	if err != nil {
		return domain.Owner{}, fmt.Errorf("resolve guest session: %w", err)
	}
	return domain.Owner{SessionID: token}, nil
}

// GetCart returns the owner's cart; a cart the remote has not created yet reads as empty.
func (s *Service) GetCart(ctx context.Context) (domain.Cart, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return domain.Cart{}, err
	}
	key := cache.Cart.Key("get", owner.Key())
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) (domain.Cart, error) {
		cart, err := s.remote.GetCart(ctx, owner.SessionID)
		if errors.Is(err, sharederrors.ErrNotFound) {
			return domain.Empty(), nil
		}
		return cart, err
	})
}

// AddItem adds quantity of the product; the remote merges an existing (product, variant) line.
func (s *Service) AddItem(ctx context.Context, productID string, quantity int, variantID string) error {
	req := domain.AddItem{ProductID: strings.TrimSpace(productID), VariantID: strings.TrimSpace(variantID), Quantity: quantity}
	if err := req.Validate(); err != nil {
		return mapError(err)
	}
	owner, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if err := s.remote.AddItem(ctx, owner.SessionID, req); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateItem sets a line's quantity. A quantity below 1 removes the line.
func (s *Service) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, itemID)
	}
	if strings.TrimSpace(itemID) == "" {
		return mapError(domain.ErrEmptyItemID)
	}
	owner, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if err := s.remote.UpdateItem(ctx, owner.SessionID, itemID, quantity); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return mapError(domain.ErrEmptyItemID)
	}
	owner, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if err := s.remote.RemoveItem(ctx, owner.SessionID, itemID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Clear empties the cart without deleting it.
func (s *Service) Clear(ctx context.Context) error {
	owner, err := s.owner(ctx)
	if err != nil {
		return err
	}
	if err := s.remote.ClearCart(ctx, owner.SessionID); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// GetCount returns the badge count, cached apart from the full cart.
func (s *Service) GetCount(ctx context.Context) (int, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return 0, err
	}
	key := cache.CartCount.Key("get", owner.Key())
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) (int, error) {
		n, err := s.remote.CartCount(ctx, owner.SessionID)
		if errors.Is(err, sharederrors.ErrNotFound) {
			return 0, nil
		}
		return n, err
	})
}

// TransferToUser merges the guest cart into the signed-in user's cart, then
// discards the guest token. With no guest token it does nothing, so repeated
// calls after a successful transfer are no-ops. On failure the token is kept.
func (s *Service) TransferToUser(ctx context.Context) error {
	s.transferMu.Lock()
	defer s.transferMu.Unlock()

	if !s.identity.Current().Authenticated() {
		return fmt.Errorf("transfer cart: %w", sharederrors.ErrAuthenticationRequired)
	}
	token, ok, err := s.guest.Current(ctx)
	if err != nil {
		return fmt.Errorf("transfer cart: %w", err)
	}
	if !ok {
		return nil
	}
	count, err := s.remote.CartCount(ctx, token)
	if err != nil && !errors.Is(err, sharederrors.ErrNotFound) {
		return err
	}
	if count > 0 {
		if err := s.remote.TransferCart(ctx, token); err != nil {
			return err
		}
	}
	if err := s.guest.Clear(ctx); err != nil {
		return fmt.Errorf("transfer cart: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// OnAuthChange is the auth-state listener that triggers the transfer after sign-in.
func (s *Service) OnAuthChange(ctx context.Context, change identitydomain.AuthChange) error {
	if !change.SignedIn() {
		return nil
	}
	return s.TransferToUser(ctx)
}

// InvalidateCaches drops every cached cart and count read.
func (s *Service) InvalidateCaches(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *Service) invalidate(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cache.Cart.Prefix(""))
	s.cache.InvalidatePrefix(ctx, cache.CartCount.Prefix(""))
}

var _ ports.Service = (*Service)(nil)
