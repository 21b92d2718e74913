package storefront

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkoutdomain "github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	identitymemory "github.com/Apurer/storefront-core/internal/domains/identity/adapters/memory"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/platform/sandbox"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCore(t *testing.T) (*Core, *sandbox.Server) {
	t.Helper()
	sb := sandbox.New()
	srv := httptest.NewServer(sb.Router())
	t.Cleanup(srv.Close)

	cfg := Config{
		CommerceBaseURL:  srv.URL + sandbox.BasePath,
		CacheTTL:         5 * time.Minute,
		TrackingTTL:      time.Minute,
		StorageNamespace: "test",
		TemporalDisabled: true,
	}
	core, err := New(context.Background(), cfg, nil,
		WithLocalStorage(identitymemory.NewLocalStorage()),
		WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	t.Cleanup(core.Close)
	return core, sb
}

func signIn(t *testing.T, core *Core, sb *sandbox.Server, user string) {
	t.Helper()
	token, err := sb.IssueToken(user, time.Hour)
	require.NoError(t, err)
	require.NoError(t, core.Auth.SignIn(context.Background(), token))
}

func billing() checkoutdomain.Address {
	return checkoutdomain.Address{
		FirstName: "Asha", LastName: "Rao", Line1: "12 MG Road", City: "Pune",
		State: "MH", PostalCode: "411001", Country: "IN", Phone: "+91-9000000000",
	}
}

func reviewed(t *testing.T, core *Core) (checkoutdomain.Details, checkoutports.Service) {
	t.Helper()
	details := checkoutdomain.Details{
		Billing:          billing(),
		PaymentMethod:    checkoutdomain.PaymentCashOnDelivery,
		AgreedToPolicies: true,
	}
	s := core.NewCheckout()
	require.NoError(t, s.Next(details))
	require.NoError(t, s.Next(details))
	require.Equal(t, checkoutdomain.StepReviewing, s.Step())
	return details, s
}

func TestGuestCartAddUpdateClear(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()

	cart, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Empty(t, cart.Items)

	require.NoError(t, core.Cart.AddItem(ctx, "P1", 2, ""))
	cart, err = core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	require.Equal(t, 2, cart.Items[0].Quantity)

	require.NoError(t, core.Cart.UpdateItem(ctx, cart.Items[0].ID, 5))
	cart, err = core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, cart.Items[0].Quantity)

	count, err := core.Cart.GetCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, count)

	require.NoError(t, core.Cart.Clear(ctx))
	cart, err = core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}

func TestUpdateToZeroMatchesRemove(t *testing.T) {
	core, _ := newCore(t)
	ctx := context.Background()
	require.NoError(t, core.Cart.AddItem(ctx, "P1", 1, ""))
	require.NoError(t, core.Cart.AddItem(ctx, "P2", 1, ""))
	cart, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	require.NoError(t, core.Cart.UpdateItem(ctx, cart.Items[0].ID, 0))
	afterUpdate, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, afterUpdate.Items, 1)

	require.NoError(t, core.Cart.RemoveItem(ctx, afterUpdate.Items[0].ID))
	afterRemove, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Empty(t, afterRemove.Items)
}

func TestGuestCartTransfersOnSignIn(t *testing.T) {
	core, sb := newCore(t)
	ctx := context.Background()
	require.NoError(t, core.Cart.AddItem(ctx, "P1", 1, ""))
	require.NoError(t, core.Cart.AddItem(ctx, "P3", 1, ""))
	guestToken, ok, err := core.Guest.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, guestToken)

	signIn(t, core, sb, "u-1")

	_, ok, err = core.Guest.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "guest token cleared after transfer")

	cart, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	products := []string{cart.Items[0].ProductID, cart.Items[1].ProductID}
	assert.ElementsMatch(t, []string{"P1", "P3"}, products)

	require.NoError(t, core.Cart.TransferToUser(ctx))
	cart, err = core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2, "second transfer is a no-op")
}

func TestSignOutResetsCacheAndGuestToken(t *testing.T) {
	core, sb := newCore(t)
	ctx := context.Background()
	signIn(t, core, sb, "u-1")
	require.NoError(t, core.Cart.AddItem(ctx, "P2", 1, ""))
	_, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	require.NotZero(t, core.Cache.Len())

	require.NoError(t, core.Auth.SignOut(ctx))
	assert.Zero(t, core.Cache.Len())
	_, ok, err := core.Guest.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = core.Orders.GetOrders(ctx, ordersdomain.OrderQuery{})
	require.ErrorIs(t, err, sharederrors.ErrAuthenticationRequired)
}

func TestSwitchingAccountsDropsPreviousUsersReads(t *testing.T) {
	core, sb := newCore(t)
	ctx := context.Background()
	signIn(t, core, sb, "u-1")
	require.NoError(t, core.Cart.AddItem(ctx, "P1", 1, ""))
	details, session := reviewed(t, core)
	_, err := session.Submit(ctx, details)
	require.NoError(t, err)

	page, err := core.Orders.GetOrders(ctx, ordersdomain.OrderQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)

	signIn(t, core, sb, "u-2")
	page, err = core.Orders.GetOrders(ctx, ordersdomain.OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Count)

	cart, err := core.Cart.GetCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCheckoutPlacesOrderAndReusesAddress(t *testing.T) {
	core, sb := newCore(t)
	ctx := context.Background()
	signIn(t, core, sb, "u-1")
	require.NoError(t, core.Cart.AddItem(ctx, "P1", 2, ""))

	details, session := reviewed(t, core)
	order, err := session.Submit(ctx, details)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusPending, order.Status)
	require.Equal(t, "1598", order.Total.String())

	page, err := core.Orders.GetOrders(ctx, ordersdomain.OrderQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)

	tracking, err := core.Orders.TrackOrder(ctx, order.ID)
	require.NoError(t, err)
	require.True(t, ordersdomain.ShouldPoll(tracking.Status))

	details, session = reviewed(t, core)
	details.Billing.Phone = "+91-9111111111"
	second, err := session.Submit(ctx, details)
	require.NoError(t, err)
	require.Equal(t, order.BillingAddressID, second.BillingAddressID)

	addresses, err := core.Client.ListAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, addresses, 1)

	page, err = core.Orders.GetOrders(ctx, ordersdomain.OrderQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, page.Count, "listing invalidated by the second submission")
}

func TestCancelAndReturnThroughCore(t *testing.T) {
	core, sb := newCore(t)
	ctx := context.Background()
	signIn(t, core, sb, "u-1")
	require.NoError(t, core.Cart.AddItem(ctx, "P3", 1, ""))
	details, session := reviewed(t, core)
	order, err := session.Submit(ctx, details)
	require.NoError(t, err)

	ret, err := core.Orders.CreateReturn(ctx, ordersdomain.ReturnRequest{
		OrderItemID: order.Items[0].ID, Reason: "damaged", Quantity: 1,
	})
	require.NoError(t, err)
	require.Equal(t, "1299", ret.RefundAmount.String())

	cancelled, err := core.Orders.CancelOrder(ctx, order.ID, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusCancelled, cancelled.Status)

	detail, err := core.Orders.GetOrderDetails(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, ordersdomain.StatusCancelled, detail.Status)

	_, err = core.Orders.GetOrderDetails(ctx, "missing")
	require.ErrorIs(t, err, sharederrors.ErrNotFound)
}
