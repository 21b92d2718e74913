package application

import (
	"context"
	"strings"
	"time"

	identitydomain "github.com/Apurer/storefront-core/internal/domains/identity/domain"
	"github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/domains/orders/ports"
	"github.com/Apurer/storefront-core/internal/platform/cache"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// PrincipalSource reports the signed-in identity, if any.
type PrincipalSource interface {
	Current() identitydomain.Principal
}

// Service serves order history, tracking, payments and returns through the
// shared cache. Reads are cached per signed-in user. Not-found responses are
// surfaced, never softened.
type Service struct {
	remote      ports.Remote
	cache       *cache.Cache
	identity    PrincipalSource
	ttl         time.Duration
	trackingTTL time.Duration
}

// userScoped is the key material of a cached read.
type userScoped struct {
	User   string `json:"user"`
	Params any    `json:"params"`
}

// Option configures the service.
type Option func(*Service)

// WithTTL overrides the list/detail TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPrincipal scopes cached reads to the user reported by src.
func WithPrincipal(src PrincipalSource) Option {
	return func(s *Service) {
		s.identity = src
	}
}

// WithTrackingTTL overrides the tracking TTL.
func WithTrackingTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.trackingTTL = ttl
		}
	}
}

func NewService(remote ports.Remote, c *cache.Cache, opts ...Option) *Service {
	if c == nil {
		c = cache.New()
	}
	s := &Service{remote: remote, cache: c, ttl: cache.DefaultTTL, trackingTTL: cache.TrackingTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Service) key(ns cache.Namespace, operation string, params any) string {
	user := ""
	if s.identity != nil {
		user = s.identity.Current().UserID
	}
	return ns.Key(operation, userScoped{User: user, Params: params})
}

func (s *Service) GetOrders(ctx context.Context, q domain.OrderQuery) (domain.Page[domain.Order], error) {
	q.PageQuery = q.PageQuery.Normalize()
	key := s.key(cache.Orders, "list", q)
	return cache.GetOrLoad(ctx, s.cache, key, s.ttl, func(ctx context.Context) (domain.Page[domain.Order], error) {
		return s.remote.ListOrders(ctx, q)
	})
}

func (s *Service) GetOrderDetails(ctx context.Context, id string) (domain.Order, error) {
	if err := requireID(id, domain.ErrEmptyOrderID); err != nil {
		return domain.Order{}, err
	}
	return cache.GetOrLoad(ctx, s.cache, s.key(cache.Orders, "detail", id), s.ttl, func(ctx context.Context) (domain.Order, error) {
		return s.remote.GetOrder(ctx, id)
	})
}

// CancelOrder asks the remote to cancel; every order, tracking and payment read is dropped on success.
func (s *Service) CancelOrder(ctx context.Context, id, reason string) (domain.Order, error) {
	if err := requireID(id, domain.ErrEmptyOrderID); err != nil {
		return domain.Order{}, err
	}
	order, err := s.remote.CancelOrder(ctx, id, strings.TrimSpace(reason))
	if err != nil {
		return domain.Order{}, err
	}
	s.cache.InvalidatePrefix(ctx, cache.Orders.Prefix(""))
	s.cache.InvalidatePrefix(ctx, cache.Tracking.Prefix(""))
	s.cache.InvalidatePrefix(ctx, cache.Payments.Prefix(""))
	return order, nil
}

// TrackOrder is served from cache for TrackingTTL, so polls inside that window stay local.
func (s *Service) TrackOrder(ctx context.Context, id string) (domain.Tracking, error) {
	if err := requireID(id, domain.ErrEmptyOrderID); err != nil {
		return domain.Tracking{}, err
	}
	return cache.GetOrLoad(ctx, s.cache, s.key(cache.Tracking, "get", id), s.trackingTTL, func(ctx context.Context) (domain.Tracking, error) {
		return s.remote.TrackOrder(ctx, id)
	})
}

func (s *Service) GetPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	if err := requireID(orderID, domain.ErrEmptyOrderID); err != nil {
		return nil, err
	}
	return cache.GetOrLoad(ctx, s.cache, s.key(cache.Payments, "order", orderID), s.ttl, func(ctx context.Context) ([]domain.Payment, error) {
		return s.remote.OrderPayments(ctx, orderID)
	})
}

func (s *Service) GetPaymentHistory(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Payment], error) {
	q = q.Normalize()
	return cache.GetOrLoad(ctx, s.cache, s.key(cache.Payments, "list", q), s.ttl, func(ctx context.Context) (domain.Page[domain.Payment], error) {
		return s.remote.ListPayments(ctx, q)
	})
}

// CreateReturn validates locally, then files the return. Return listings and
// order reads (whose item status changes) are invalidated on success.
func (s *Service) CreateReturn(ctx context.Context, req domain.ReturnRequest) (domain.Return, error) {
	req.OrderItemID = strings.TrimSpace(req.OrderItemID)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := req.Validate(); err != nil {
		return domain.Return{}, sharederrors.Invalid(err)
	}
	created, err := s.remote.CreateReturn(ctx, req)
	if err != nil {
		return domain.Return{}, err
	}
	s.cache.InvalidatePrefix(ctx, cache.Returns.Prefix(""))
	s.cache.InvalidatePrefix(ctx, cache.Orders.Prefix(""))
	return created, nil
}

func (s *Service) ListReturns(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Return], error) {
	q = q.Normalize()
	return cache.GetOrLoad(ctx, s.cache, s.key(cache.Returns, "list", q), s.ttl, func(ctx context.Context) (domain.Page[domain.Return], error) {
		return s.remote.ListReturns(ctx, q)
	})
}

func (s *Service) GetReturn(ctx context.Context, id string) (domain.Return, error) {
	if err := requireID(id, domain.ErrEmptyReturnID); err != nil {
		return domain.Return{}, err
	}
	return cache.GetOrLoad(ctx, s.cache, s.key(cache.Returns, "detail", id), s.ttl, func(ctx context.Context) (domain.Return, error) {
		return s.remote.GetReturn(ctx, id)
	})
}

// InvalidateOrderLists drops cached order listings; checkout calls it after placing an order.
func (s *Service) InvalidateOrderLists(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cache.Orders.Prefix("list"))
}

func requireID(id string, sentinel error) error {
	if strings.TrimSpace(id) == "" {
		return sharederrors.Invalid(sentinel)
	}
	return nil
}

var _ ports.Service = (*Service)(nil)
