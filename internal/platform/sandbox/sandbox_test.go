package sandbox

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	t      *testing.T
	server *Server
	router *gin.Engine
}

func newHarness(t *testing.T) *harness {
	server := New()
	return &harness{t: t, server: server, router: server.Router()}
}

func (h *harness) token(user string) string {
	tok, err := h.server.IssueToken(user, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(method, path, bearer string, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, BasePath+path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestMissingCartIsNotFound(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/cart?session_id=s-1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, sharederrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))

	rec = h.do(http.MethodGet, "/cart/count?session_id=s-1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartNeedsBearerOrSession(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/cart", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAddressesGuestCartEvenWithBearer(t *testing.T) {
	h := newHarness(t)
	tok := h.token("u-1")

	rec := h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "P1", "quantity": 2, "session_id": "s-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/cart", tok, nil)
	require.Equal(t, http.StatusNotFound, rec.Code, "user cart untouched")

	rec = h.do(http.MethodGet, "/cart?session_id=s-1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartJSON](t, rec)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.ItemCount)
	require.Equal(t, "1598", cart.TotalAmount.String())
}

func TestAddMergesSameProductAndValidates(t *testing.T) {
	h := newHarness(t)
	tok := h.token("u-1")

	h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "P2", "quantity": 1})
	h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "P2", "quantity": 2})
	cart := decode[cartJSON](t, h.do(http.MethodGet, "/cart", tok, nil))
	require.Len(t, cart.Items, 1)
	require.Equal(t, 3, cart.Items[0].Quantity)

	rec := h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "nope", "quantity": 1})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	problem := decode[sharederrors.ProblemDetail](t, rec)
	require.Equal(t, []string{"Unknown product."}, problem.Errors["product_id"])

	rec = h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "P2", "quantity": 0})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTransferMergesGuestCart(t *testing.T) {
	h := newHarness(t)
	tok := h.token("u-1")
	h.do(http.MethodPost, "/cart/items", "", map[string]any{"product_id": "P1", "quantity": 1, "session_id": "s-1"})
	h.do(http.MethodPost, "/cart/items", "", map[string]any{"product_id": "P3", "quantity": 1, "session_id": "s-1"})
	h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "P1", "quantity": 1})

	rec := h.do(http.MethodPost, "/cart/transfer", "", map[string]any{"session_id": "s-1"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/cart/transfer", tok, map[string]any{"session_id": "s-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[cartJSON](t, rec)
	require.Len(t, cart.Items, 2)
	require.Equal(t, 3, cart.ItemCount)

	rec = h.do(http.MethodGet, "/cart?session_id=s-1", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	h := newHarness(t)
	tok := h.token("u-1")

	rec := h.do(http.MethodPost, "/addresses", tok, map[string]any{"first_name": "A"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(http.MethodPost, "/addresses", tok, map[string]any{
		"first_name": "A", "last_name": "B", "address_line1": "X", "city": "C", "postal_code": "1", "country": "IN",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	addr := decode[addressRecord](t, rec)

	rec = h.do(http.MethodPost, "/orders", tok, map[string]any{"billing_address_id": addr.ID, "shipping_address_id": nil, "payment_method": "cod"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, "empty cart")

	h.do(http.MethodPost, "/cart/items", tok, map[string]any{"product_id": "P1", "quantity": 2})
	rec = h.do(http.MethodPost, "/orders", tok, map[string]any{"billing_address_id": addr.ID, "shipping_address_id": nil, "payment_method": "cod"})
	require.Equal(t, http.StatusCreated, rec.Code)
	order := decode[orderRecord](t, rec)
	require.Equal(t, "pending", order.Status)
	require.Nil(t, order.ShippingAddressID)

	rec = h.do(http.MethodGet, "/orders/"+order.ID, h.token("u-2"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code, "orders are private")

	require.NoError(t, h.server.AdvanceOrder(order.ID, "shipped"))
	rec = h.do(http.MethodPost, "/orders/"+order.ID+"/cancel", tok, map[string]any{"reason": "late"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/returns", tok, map[string]any{"order_item_id": order.Items[0].ID, "reason": "damaged", "quantity": 3})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = h.do(http.MethodPost, "/returns", tok, map[string]any{"order_item_id": order.Items[0].ID, "reason": "damaged", "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	page := decode[pageJSON[returnRecord]](t, h.do(http.MethodGet, "/returns?page=1&page_size=5", tok, nil))
	require.Equal(t, 1, page.Count)
	require.Equal(t, "799", page.Results[0].RefundAmount.String())
}

func TestIssueTokenRejectsEmptyUser(t *testing.T) {
	_, err := IssueToken(DevSigningKey, " ", time.Hour)
	require.Error(t, err)
}

func TestSeedOrderIsTrackableByOwner(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.server.SeedOrder("u-1", "order-1", "P2", 2))
	require.Error(t, h.server.SeedOrder("u-1", "order-1", "P2", 1))

	rec := h.do(http.MethodGet, "/orders/order-1/tracking", h.token("u-1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tracking := decode[map[string]any](t, rec)
	require.Equal(t, "pending", tracking["status"])

	h.server.Reset()
	rec = h.do(http.MethodGet, "/orders/order-1/tracking", h.token("u-1"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeedGuestCart(t *testing.T) {
	h := newHarness(t)
	require.Error(t, h.server.SeedGuestCart("s-1", "missing", 1))
	require.NoError(t, h.server.SeedGuestCart("s-1", "P3", 1))

	cart := decode[cartJSON](t, h.do(http.MethodGet, "/cart?session_id=s-1", "", nil))
	require.Equal(t, 1, cart.ItemCount)
	require.Equal(t, "1299", cart.Subtotal.String())
}

func TestUnknownRouteIsProblemNotFound(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/wishlist", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, sharederrors.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	problem := decode[sharederrors.ProblemDetail](t, rec)
	require.Equal(t, sharederrors.TypeNotFound, problem.Type)
	require.Contains(t, problem.Detail, "/api/v1/wishlist")
}
