package ports

import (
	"context"

	cartdomain "github.com/Apurer/storefront-core/internal/domains/cart/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
)

// Remote is the address and order-creation slice of the commerce API.
type Remote interface {
	AddressBook
	CreateOrder(ctx context.Context, req domain.OrderRequest) (ordersdomain.Order, error)
}

// CartReader gives checkout a view of the current cart.
type CartReader interface {
	GetCart(ctx context.Context) (cartdomain.Cart, error)
}

// PlacementRequest is the input of order placement, after local validation.
type PlacementRequest struct {
	Billing       domain.Address
	Shipping      *domain.Address
	PaymentMethod domain.PaymentMethod
	Notes         string
}

// OrderPlacer resolves addresses and creates the order, in-process or durably.
type OrderPlacer interface {
	Place(ctx context.Context, req PlacementRequest) (ordersdomain.Order, error)
}

// AddressBook is the address slice the resolver works against.
type AddressBook interface {
	ListAddresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, address domain.Address) (domain.Address, error)
}

// Service is one checkout session: the step machine plus submission.
type Service interface {
	Step() domain.Step
	Next(details domain.Details) error
	Back() error
	GoTo(target domain.Step, details domain.Details) error
	Submit(ctx context.Context, details domain.Details) (ordersdomain.Order, error)
}
