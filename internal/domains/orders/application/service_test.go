package application

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	identitydomain "github.com/Apurer/storefront-core/internal/domains/identity/domain"
	"github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/platform/cache"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

type fakeRemote struct {
	calls  map[string]int
	orders map[string]domain.Order
	err    error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls: map[string]int{},
		orders: map[string]domain.Order{
			"o-1": {ID: "o-1", Status: domain.StatusShipped, Total: decimal.NewFromInt(250)},
		},
	}
}

func (f *fakeRemote) ListOrders(_ context.Context, q domain.OrderQuery) (domain.Page[domain.Order], error) {
	f.calls["list"]++
	if f.err != nil {
		return domain.Page[domain.Order]{}, f.err
	}
	var results []domain.Order
	for _, o := range f.orders {
		if q.Status == "" || o.Status == q.Status {
			results = append(results, o)
		}
	}
	return domain.Page[domain.Order]{Results: results, Count: len(results), Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeRemote) GetOrder(_ context.Context, id string) (domain.Order, error) {
	f.calls["get"]++
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, &sharederrors.RemoteError{Operation: "get_order", Status: http.StatusNotFound, Message: "order not found"}
	}
	return o, nil
}

func (f *fakeRemote) CancelOrder(_ context.Context, id, _ string) (domain.Order, error) {
	f.calls["cancel"]++
	if f.err != nil {
		return domain.Order{}, f.err
	}
	o := f.orders[id]
	o.Status = domain.StatusCancelled
	f.orders[id] = o
	return o, nil
}

func (f *fakeRemote) TrackOrder(_ context.Context, id string) (domain.Tracking, error) {
	f.calls["track"]++
	return domain.Tracking{OrderID: id, Status: f.orders[id].Status}, nil
}

func (f *fakeRemote) OrderPayments(_ context.Context, orderID string) ([]domain.Payment, error) {
	f.calls["payments"]++
	return []domain.Payment{{ID: "pay-1", OrderID: orderID, Amount: decimal.NewFromInt(250)}}, nil
}

func (f *fakeRemote) ListPayments(_ context.Context, q domain.PageQuery) (domain.Page[domain.Payment], error) {
	f.calls["payment_history"]++
	return domain.Page[domain.Payment]{Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeRemote) CreateReturn(_ context.Context, req domain.ReturnRequest) (domain.Return, error) {
	f.calls["create_return"]++
	if f.err != nil {
		return domain.Return{}, f.err
	}
	return domain.Return{ID: "r-1", OrderItemID: req.OrderItemID, Quantity: req.Quantity, Status: "requested"}, nil
}

func (f *fakeRemote) ListReturns(_ context.Context, q domain.PageQuery) (domain.Page[domain.Return], error) {
	f.calls["list_returns"]++
	return domain.Page[domain.Return]{Page: q.Page, PageSize: q.PageSize}, nil
}

func (f *fakeRemote) GetReturn(_ context.Context, id string) (domain.Return, error) {
	f.calls["get_return"]++
	return domain.Return{ID: id}, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newService(remote *fakeRemote) (*Service, *clock) {
	clk := &clock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return NewService(remote, cache.New(cache.WithClock(clk.Now))), clk
}

func TestTrackOrderPollsWithinAMinuteHitCache(t *testing.T) {
	remote := newFakeRemote()
	svc, clk := newService(remote)
	ctx := context.Background()

	tracking, err := svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)
	require.True(t, domain.ShouldPoll(tracking.Status))

	clk.now = clk.now.Add(45 * time.Second)
	_, err = svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Equal(t, 1, remote.calls["track"])

	clk.now = clk.now.Add(domain.TrackingPollInterval)
	_, err = svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Equal(t, 2, remote.calls["track"])
}

func TestGetOrdersCachedPerQuery(t *testing.T) {
	remote := newFakeRemote()
	svc, clk := newService(remote)
	ctx := context.Background()

	_, err := svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	_, err = svc.GetOrders(ctx, domain.OrderQuery{PageQuery: domain.PageQuery{Page: 1, PageSize: 10}})
	require.NoError(t, err)
	require.Equal(t, 1, remote.calls["list"], "defaults normalize to the same slot")

	_, err = svc.GetOrders(ctx, domain.OrderQuery{Status: domain.StatusShipped})
	require.NoError(t, err)
	require.Equal(t, 2, remote.calls["list"])

	clk.now = clk.now.Add(cache.DefaultTTL + time.Second)
	_, err = svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, remote.calls["list"])
}

func TestGetOrderDetailsSurfacesNotFound(t *testing.T) {
	svc, _ := newService(newFakeRemote())
	_, err := svc.GetOrderDetails(context.Background(), "missing")
	require.ErrorIs(t, err, sharederrors.ErrNotFound)

	_, err = svc.GetOrderDetails(context.Background(), " ")
	require.ErrorIs(t, err, sharederrors.ErrValidation)
}

func TestCancelOrderInvalidatesOrderReads(t *testing.T) {
	remote := newFakeRemote()
	svc, _ := newService(remote)
	ctx := context.Background()

	_, err := svc.GetOrderDetails(ctx, "o-1")
	require.NoError(t, err)
	_, err = svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(ctx, "o-1", "changed my mind")
	require.NoError(t, err)
	require.False(t, domain.ShouldPoll(cancelled.Status))

	order, err := svc.GetOrderDetails(ctx, "o-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, order.Status)
	require.Equal(t, 2, remote.calls["get"])
	_, err = svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Equal(t, 2, remote.calls["track"])
}

func TestCreateReturnValidatesAndInvalidates(t *testing.T) {
	remote := newFakeRemote()
	svc, _ := newService(remote)
	ctx := context.Background()

	_, err := svc.CreateReturn(ctx, domain.ReturnRequest{OrderItemID: "i-1", Reason: "damaged"})
	require.ErrorIs(t, err, sharederrors.ErrValidation)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	require.Zero(t, remote.calls["create_return"])

	_, err = svc.ListReturns(ctx, domain.PageQuery{})
	require.NoError(t, err)

	remote.err = errors.New("remote down")
	_, err = svc.CreateReturn(ctx, domain.ReturnRequest{OrderItemID: "i-1", Reason: "damaged", Quantity: 1})
	require.Error(t, err)
	_, err = svc.ListReturns(ctx, domain.PageQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, remote.calls["list_returns"], "failed create keeps cache")

	remote.err = nil
	created, err := svc.CreateReturn(ctx, domain.ReturnRequest{OrderItemID: "i-1", Reason: "damaged", Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, "r-1", created.ID)
	_, err = svc.ListReturns(ctx, domain.PageQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, remote.calls["list_returns"])
}

func TestPaymentsAndReturnsReadsAreCached(t *testing.T) {
	remote := newFakeRemote()
	svc, _ := newService(remote)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		payments, err := svc.GetPayments(ctx, "o-1")
		require.NoError(t, err)
		require.Len(t, payments, 1)
		_, err = svc.GetPaymentHistory(ctx, domain.PageQuery{Page: 2})
		require.NoError(t, err)
		_, err = svc.GetReturn(ctx, "r-9")
		require.NoError(t, err)
	}
	require.Equal(t, 1, remote.calls["payments"])
	require.Equal(t, 1, remote.calls["payment_history"])
	require.Equal(t, 1, remote.calls["get_return"])
}

func TestInvalidateOrderListsKeepsDetails(t *testing.T) {
	remote := newFakeRemote()
	svc, _ := newService(remote)
	ctx := context.Background()

	_, err := svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	_, err = svc.GetOrderDetails(ctx, "o-1")
	require.NoError(t, err)

	svc.InvalidateOrderLists(ctx)
	_, err = svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	_, err = svc.GetOrderDetails(ctx, "o-1")
	require.NoError(t, err)
	require.Equal(t, 2, remote.calls["list"])
	require.Equal(t, 1, remote.calls["get"])
}

type principal struct{ user string }

func (p *principal) Current() identitydomain.Principal {
	if p.user == "" {
		return identitydomain.Principal{}
	}
	return identitydomain.Principal{UserID: p.user, Bearer: "token-" + p.user}
}

func TestReadsAreCachedPerUser(t *testing.T) {
	remote := newFakeRemote()
	who := &principal{user: "u-1"}
	svc := NewService(remote, cache.New(), WithPrincipal(who))
	ctx := context.Background()

	_, err := svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	_, err = svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)
	_, err = svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, remote.calls["list"])

	who.user = "u-2"
	_, err = svc.GetOrders(ctx, domain.OrderQuery{})
	require.NoError(t, err)
	_, err = svc.TrackOrder(ctx, "o-1")
	require.NoError(t, err)
	require.Equal(t, 2, remote.calls["list"], "another user never reads the first user's listing")
	require.Equal(t, 2, remote.calls["track"])
}
