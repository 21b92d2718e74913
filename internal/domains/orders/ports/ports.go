package ports

import (
	"context"

	"github.com/Apurer/storefront-core/internal/domains/orders/domain"
)

// Remote is the post-order slice of the commerce API. Every call needs a signed-in identity.
type Remote interface {
	ListOrders(ctx context.Context, q domain.OrderQuery) (domain.Page[domain.Order], error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	CancelOrder(ctx context.Context, id, reason string) (domain.Order, error)
	TrackOrder(ctx context.Context, id string) (domain.Tracking, error)
	OrderPayments(ctx context.Context, orderID string) ([]domain.Payment, error)
	ListPayments(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Payment], error)
	CreateReturn(ctx context.Context, req domain.ReturnRequest) (domain.Return, error)
	ListReturns(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Return], error)
	GetReturn(ctx context.Context, id string) (domain.Return, error)
}

// Service exposes order history, tracking, payments and returns.
type Service interface {
	GetOrders(ctx context.Context, q domain.OrderQuery) (domain.Page[domain.Order], error)
	GetOrderDetails(ctx context.Context, id string) (domain.Order, error)
	CancelOrder(ctx context.Context, id, reason string) (domain.Order, error)
	TrackOrder(ctx context.Context, id string) (domain.Tracking, error)
	GetPayments(ctx context.Context, orderID string) ([]domain.Payment, error)
	GetPaymentHistory(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Payment], error)
	CreateReturn(ctx context.Context, req domain.ReturnRequest) (domain.Return, error)
	ListReturns(ctx context.Context, q domain.PageQuery) (domain.Page[domain.Return], error)
	GetReturn(ctx context.Context, id string) (domain.Return, error)
}
