package commerce

import (
	"context"
	"net/http"
	"net/url"

	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	ordersports "github.com/Apurer/storefront-core/internal/domains/orders/ports"
)

func pageQuery(q ordersdomain.PageQuery, extra ...any) (url.Values, error) {
	pairs := append([]any{"page", q.Page, "page_size", q.PageSize}, extra...)
	return queryParams(pairs...)
}

func (c *Client) ListOrders(ctx context.Context, q ordersdomain.OrderQuery) (ordersdomain.Page[ordersdomain.Order], error) {
	params, err := pageQuery(q.PageQuery, "status", string(q.Status))
	if err != nil {
		return ordersdomain.Page[ordersdomain.Order]{}, err
	}
	var out wirePage[wireOrder]
	if err := c.do(ctx, call{op: "list_orders", method: http.MethodGet, path: []string{"orders"}, query: params, auth: authRequired}, &out); err != nil {
		return ordersdomain.Page[ordersdomain.Order]{}, err
	}
	return toPage(out, q.PageQuery, wireOrder.toDomain), nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (ordersdomain.Order, error) {
	var out wireOrder
	if err := c.do(ctx, call{op: "get_order", method: http.MethodGet, path: []string{"orders", url.PathEscape(id)}, auth: authRequired}, &out); err != nil {
		return ordersdomain.Order{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) CancelOrder(ctx context.Context, id, reason string) (ordersdomain.Order, error) {
	var out wireOrder
	err := c.do(ctx, call{op: "cancel_order", method: http.MethodPost, path: []string{"orders", url.PathEscape(id), "cancel"}, body: cancelBody{Reason: reason}, auth: authRequired}, &out)
	if err != nil {
		return ordersdomain.Order{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) TrackOrder(ctx context.Context, id string) (ordersdomain.Tracking, error) {
	var out wireTracking
	if err := c.do(ctx, call{op: "track_order", method: http.MethodGet, path: []string{"orders", url.PathEscape(id), "tracking"}, auth: authRequired}, &out); err != nil {
		return ordersdomain.Tracking{}, err
	}
	return out.toDomain(id), nil
}

func (c *Client) OrderPayments(ctx context.Context, orderID string) ([]ordersdomain.Payment, error) {
	var out wirePage[wirePayment]
	if err := c.do(ctx, call{op: "order_payments", method: http.MethodGet, path: []string{"orders", url.PathEscape(orderID), "payments"}, auth: authRequired}, &out); err != nil {
		return nil, err
	}
	payments := make([]ordersdomain.Payment, 0, len(out.Results))
	for _, p := range out.Results {
		payments = append(payments, p.toDomain())
	}
	return payments, nil
}

func (c *Client) ListPayments(ctx context.Context, q ordersdomain.PageQuery) (ordersdomain.Page[ordersdomain.Payment], error) {
	params, err := pageQuery(q)
	if err != nil {
		return ordersdomain.Page[ordersdomain.Payment]{}, err
	}
	var out wirePage[wirePayment]
	if err := c.do(ctx, call{op: "list_payments", method: http.MethodGet, path: []string{"payments"}, query: params, auth: authRequired}, &out); err != nil {
		return ordersdomain.Page[ordersdomain.Payment]{}, err
	}
	return toPage(out, q, wirePayment.toDomain), nil
}

func (c *Client) CreateReturn(ctx context.Context, req ordersdomain.ReturnRequest) (ordersdomain.Return, error) {
	images := req.Images
	if images == nil {
		images = []string{}
	}
	body := createReturnBody{
		OrderItemID: req.OrderItemID,
		Reason:      req.Reason,
		Description: req.Description,
		Quantity:    req.Quantity,
		Images:      images,
	}
	var out wireReturn
	if err := c.do(ctx, call{op: "create_return", method: http.MethodPost, path: []string{"returns"}, body: body, auth: authRequired}, &out); err != nil {
		return ordersdomain.Return{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) ListReturns(ctx context.Context, q ordersdomain.PageQuery) (ordersdomain.Page[ordersdomain.Return], error) {
	params, err := pageQuery(q)
	if err != nil {
		return ordersdomain.Page[ordersdomain.Return]{}, err
	}
	var out wirePage[wireReturn]
	if err := c.do(ctx, call{op: "list_returns", method: http.MethodGet, path: []string{"returns"}, query: params, auth: authRequired}, &out); err != nil {
		return ordersdomain.Page[ordersdomain.Return]{}, err
	}
	return toPage(out, q, wireReturn.toDomain), nil
}

func (c *Client) GetReturn(ctx context.Context, id string) (ordersdomain.Return, error) {
	var out wireReturn
	if err := c.do(ctx, call{op: "get_return", method: http.MethodGet, path: []string{"returns", url.PathEscape(id)}, auth: authRequired}, &out); err != nil {
		return ordersdomain.Return{}, err
	}
	return out.toDomain(), nil
}

var _ ordersports.Remote = (*Client)(nil)
