package application

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/platform/cache"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// ErrSubmitInFlight rejects a second submission while the first is pending.
var ErrSubmitInFlight = errors.New("checkout submission already in progress")

// Service is one checkout session. Submission validates locally, hands the
// addresses to the placer, and invalidates cart and order listings only
// after the order exists. The cart itself is left for the caller to clear.
type Service struct {
	mu         sync.Mutex
	flow       *domain.Flow
	submitting bool

	cart   ports.CartReader
	placer ports.OrderPlacer
	cache  *cache.Cache
}

func NewService(cart ports.CartReader, placer ports.OrderPlacer, c *cache.Cache) *Service {
	if c == nil {
		c = cache.New()
	}
	return &Service{flow: domain.NewFlow(), cart: cart, placer: placer, cache: c}
}

func (s *Service) Step() domain.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Step()
}

func (s *Service) Next(details domain.Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mapError(s.flow.Next(details))
}

func (s *Service) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flow.Back()
}

func (s *Service) GoTo(target domain.Step, details domain.Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mapError(s.flow.GoTo(target, details))
}

func (s *Service) Submit(ctx context.Context, details domain.Details) (ordersdomain.Order, error) {
	if !details.AgreedToPolicies {
		return ordersdomain.Order{}, sharederrors.Invalid(sharederrors.ErrPolicyAgreementRequired)
	}
	if err := s.begin(details); err != nil {
		return ordersdomain.Order{}, err
	}
	order, err := s.place(ctx, details)
	s.finish(err == nil)
	if err != nil {
		return ordersdomain.Order{}, err
	}
	s.cache.InvalidatePrefix(ctx, cache.Cart.Prefix(""))
	s.cache.InvalidatePrefix(ctx, cache.CartCount.Prefix(""))
	s.cache.InvalidatePrefix(ctx, cache.Orders.Prefix("list"))
	return order, nil
}

func (s *Service) begin(details domain.Details) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInFlight
	}
	if err := s.flow.ReadyToSubmit(details); err != nil {
		return mapError(err)
	}
	s.submitting = true
	return nil
}

func (s *Service) finish(placed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if placed {
		_ = s.flow.MarkSubmitted()
	}
}

func (s *Service) place(ctx context.Context, details domain.Details) (ordersdomain.Order, error) {
	if s.cart == nil || s.placer == nil {
		return ordersdomain.Order{}, errors.New("checkout service not configured")
	}
	current, err := s.cart.GetCart(ctx)
	if err != nil {
		return ordersdomain.Order{}, err
	}
	if len(current.Items) == 0 {
		return ordersdomain.Order{}, sharederrors.Invalid(domain.ErrEmptyCart)
	}
	req := ports.PlacementRequest{
		Billing:       details.Billing,
		PaymentMethod: details.PaymentMethod,
		Notes:         strings.TrimSpace(details.Notes),
	}
	if details.UseDifferentShipping {
		shipping := details.Shipping
		req.Shipping = &shipping
	}
	return s.placer.Place(ctx, req)
}

var _ ports.Service = (*Service)(nil)
