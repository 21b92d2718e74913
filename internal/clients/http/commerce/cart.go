package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	cartdomain "github.com/Apurer/storefront-core/internal/domains/cart/domain"
	cartports "github.com/Apurer/storefront-core/internal/domains/cart/ports"
)

func sessionQuery(sessionID string) (url.Values, error) {
	return queryParams("session_id", sessionID)
}

// GetCart fetches the cart of the bearer identity or of sessionID.
func (c *Client) GetCart(ctx context.Context, sessionID string) (cartdomain.Cart, error) {
	q, err := sessionQuery(sessionID)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	var out wireCart
	err = c.do(ctx, call{op: "get_cart", method: http.MethodGet, path: []string{"cart"}, query: q, auth: authOrSession, session: sessionID}, &out)
	if err != nil {
		return cartdomain.Cart{}, err
	}
	return out.toDomain(), nil
}

func (c *Client) AddItem(ctx context.Context, sessionID string, req cartdomain.AddItem) error {
	body := addItemBody{ProductID: req.ProductID, Quantity: req.Quantity, SessionID: sessionID}
	if v := strings.TrimSpace(req.VariantID); v != "" {
		body.VariantID = &v
	}
	return c.do(ctx, call{op: "add_cart_item", method: http.MethodPost, path: []string{"cart", "items"}, body: body, auth: authOrSession, session: sessionID}, nil)
}

func (c *Client) UpdateItem(ctx context.Context, sessionID, itemID string, quantity int) error {
	body := updateItemBody{Quantity: quantity, SessionID: sessionID}
	return c.do(ctx, call{op: "update_cart_item", method: http.MethodPatch, path: []string{"cart", "items", url.PathEscape(itemID)}, body: body, auth: authOrSession, session: sessionID}, nil)
}

func (c *Client) RemoveItem(ctx context.Context, sessionID, itemID string) error {
	q, err := sessionQuery(sessionID)
	if err != nil {
		return err
	}
	return c.do(ctx, call{op: "remove_cart_item", method: http.MethodDelete, path: []string{"cart", "items", url.PathEscape(itemID)}, query: q, auth: authOrSession, session: sessionID}, nil)
}

// ClearCart empties the cart; the cart entity itself remains.
func (c *Client) ClearCart(ctx context.Context, sessionID string) error {
	q, err := sessionQuery(sessionID)
	if err != nil {
		return err
	}
	return c.do(ctx, call{op: "clear_cart", method: http.MethodDelete, path: []string{"cart"}, query: q, auth: authOrSession, session: sessionID}, nil)
}

func (c *Client) CartCount(ctx context.Context, sessionID string) (int, error) {
	q, err := sessionQuery(sessionID)
	if err != nil {
		return 0, err
	}
	var out wireCount
	err = c.do(ctx, call{op: "cart_count", method: http.MethodGet, path: []string{"cart", "count"}, query: q, auth: authOrSession, session: sessionID}, &out)
	if err != nil {
		return 0, err
	}
	return firstInt(out.Count, out.ItemCount), nil
}

// TransferCart merges the guest cart of sessionID into the signed-in user's cart.
func (c *Client) TransferCart(ctx context.Context, sessionID string) error {
	return c.do(ctx, call{op: "transfer_cart", method: http.MethodPost, path: []string{"cart", "transfer"}, body: transferBody{SessionID: sessionID}, auth: authRequired}, nil)
}

var _ cartports.Remote = (*Client)(nil)
