package commerce

import (
	"context"
	"net/http"

	checkoutdomain "github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
)

// ListAddresses returns the signed-in user's saved addresses.
func (c *Client) ListAddresses(ctx context.Context) ([]checkoutdomain.Address, error) {
	var out wirePage[wireAddress]
	if err := c.do(ctx, call{op: "list_addresses", method: http.MethodGet, path: []string{"addresses"}, auth: authRequired}, &out); err != nil {
		return nil, err
	}
	addresses := make([]checkoutdomain.Address, 0, len(out.Results))
	for _, a := range out.Results {
		addresses = append(addresses, a.toDomain())
	}
	return addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, address checkoutdomain.Address) (checkoutdomain.Address, error) {
	var out wireAddress
	err := c.do(ctx, call{op: "create_address", method: http.MethodPost, path: []string{"addresses"}, body: newAddressBody(address), auth: authRequired}, &out)
	if err != nil {
		return checkoutdomain.Address{}, err
	}
	return out.toDomain(), nil
}

// CreateOrder materializes the order from the current cart. An empty
// ShippingAddressID is sent as null.
func (c *Client) CreateOrder(ctx context.Context, req checkoutdomain.OrderRequest) (ordersdomain.Order, error) {
	body := createOrderBody{
		BillingAddressID: req.BillingAddressID,
		PaymentMethod:    string(req.PaymentMethod),
		Notes:            req.Notes,
	}
	if req.ShippingAddressID != "" {
		shipping := req.ShippingAddressID
		body.ShippingAddressID = &shipping
	}
	var out wireOrder
	if err := c.do(ctx, call{op: "create_order", method: http.MethodPost, path: []string{"orders"}, body: body, auth: authRequired}, &out); err != nil {
		return ordersdomain.Order{}, err
	}
	return out.toDomain(), nil
}

var _ checkoutports.Remote = (*Client)(nil)
