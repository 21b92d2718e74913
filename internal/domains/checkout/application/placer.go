package application

import (
	"context"
	"errors"

	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
)

// Placer runs order placement in-process: address lookup, resolution,
// id checks and the create-order call. It never touches the cache.
type Placer struct {
	remote        ports.Remote
	resolver      *Resolver
	onListFailure func(context.Context, error)
}

type PlacerOption func(*Placer)

// WithListFailureHook observes address-list failures that placement tolerates.
func WithListFailureHook(fn func(context.Context, error)) PlacerOption {
	return func(p *Placer) {
		p.onListFailure = fn
	}
}

func NewPlacer(remote ports.Remote, opts ...PlacerOption) *Placer {
	p := &Placer{remote: remote, resolver: NewResolver(remote)}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Placer) Place(ctx context.Context, req ports.PlacementRequest) (ordersdomain.Order, error) {
	if p == nil || p.remote == nil {
		return ordersdomain.Order{}, errors.New("order placer not configured")
	}
	existing := p.ExistingAddresses(ctx)
	order, err := p.Resolve(ctx, req, existing)
	if err != nil {
		return ordersdomain.Order{}, err
	}
	return p.Create(ctx, order)
}

// ExistingAddresses fetches the user's addresses; a failure counts as none.
func (p *Placer) ExistingAddresses(ctx context.Context) []domain.Address {
	existing, err := p.resolver.Existing(ctx)
	if err != nil {
		if p.onListFailure != nil {
			p.onListFailure(ctx, err)
		}
		return nil
	}
	return existing
}

// Resolve turns the placement request into a create-order request, creating
// addresses that have no match among existing.
func (p *Placer) Resolve(ctx context.Context, req ports.PlacementRequest, existing []domain.Address) (domain.OrderRequest, error) {
	billing := req.Billing
	billing.Type = domain.AddressBilling
	resolvedBilling, err := p.resolver.ResolveOrCreate(ctx, billing, existing)
	if err != nil {
		return domain.OrderRequest{}, err
	}
	order := domain.OrderRequest{
		BillingAddressID: resolvedBilling.ID,
		PaymentMethod:    req.PaymentMethod,
		Notes:            req.Notes,
	}
	if req.Shipping == nil {
		return order, nil
	}
	shipping := *req.Shipping
	shipping.Type = domain.AddressShipping
	known := append(existing[:len(existing):len(existing)], resolvedBilling)
	resolvedShipping, err := p.resolver.ResolveOrCreate(ctx, shipping, known)
	if err != nil {
		return domain.OrderRequest{}, err
	}
	order.ShippingAddressID = resolvedShipping.ID
	return order, nil
}

// Create checks the resolved ids, then asks the remote to create the order.
func (p *Placer) Create(ctx context.Context, order domain.OrderRequest) (ordersdomain.Order, error) {
	if err := order.Validate(); err != nil {
		return ordersdomain.Order{}, err
	}
	return p.remote.CreateOrder(ctx, order)
}

var _ ports.OrderPlacer = (*Placer)(nil)
