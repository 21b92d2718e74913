package ports

import (
	"context"

	"github.com/Apurer/storefront-core/internal/domains/cart/domain"
)

// Remote is the cart slice of the commerce API. sessionID is empty for
// signed-in callers, whose bearer credential identifies the cart instead.
type Remote interface {
	GetCart(ctx context.Context, sessionID string) (domain.Cart, error)
	AddItem(ctx context.Context, sessionID string, req domain.AddItem) error
	UpdateItem(ctx context.Context, sessionID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID, itemID string) error
	ClearCart(ctx context.Context, sessionID string) error
	CartCount(ctx context.Context, sessionID string) (int, error)
	TransferCart(ctx context.Context, sessionID string) error
}

// Service exposes cart use cases to the presentation layer.
type Service interface {
	GetCart(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int, variantID string) error
	UpdateItem(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	Clear(ctx context.Context) error
	GetCount(ctx context.Context) (int, error)
	TransferToUser(ctx context.Context) error
}
