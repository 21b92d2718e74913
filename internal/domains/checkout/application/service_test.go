package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/Apurer/storefront-core/internal/domains/cart/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/platform/cache"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

type fakeRemote struct {
	addresses  []domain.Address
	listErr    error
	createErr  error
	orderErr   error
	creates    int
	orders     []domain.OrderRequest
	orderCalls int
}

func (f *fakeRemote) ListAddresses(context.Context) ([]domain.Address, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Address(nil), f.addresses...), nil
}

func (f *fakeRemote) CreateAddress(_ context.Context, addr domain.Address) (domain.Address, error) {
	f.creates++
	if f.createErr != nil {
		return domain.Address{}, f.createErr
	}
	addr.ID = fmt.Sprintf("addr-%d", len(f.addresses)+1)
	f.addresses = append(f.addresses, addr)
	return addr, nil
}

func (f *fakeRemote) CreateOrder(_ context.Context, req domain.OrderRequest) (ordersdomain.Order, error) {
	f.orderCalls++
	if f.orderErr != nil {
		return ordersdomain.Order{}, f.orderErr
	}
	f.orders = append(f.orders, req)
	return ordersdomain.Order{ID: fmt.Sprintf("o-%d", len(f.orders)), Status: ordersdomain.StatusPending}, nil
}

type fakeCart struct {
	cart cartdomain.Cart
	err  error
}

func (f fakeCart) GetCart(context.Context) (cartdomain.Cart, error) { return f.cart, f.err }

func filledCart() fakeCart {
	return fakeCart{cart: cartdomain.Cart{Items: []cartdomain.Item{{ID: "ci-1", ProductID: "P1", Quantity: 2}}}}
}

func billingAddress() domain.Address {
	return domain.Address{
		FirstName: "A", LastName: "B", Line1: "X", City: "C", State: "KA",
		PostalCode: "1", Country: "IN", Phone: "+91-1111",
	}
}

func reviewDetails() domain.Details {
	return domain.Details{
		Billing:          billingAddress(),
		PaymentMethod:    domain.PaymentCashOnDelivery,
		AgreedToPolicies: true,
	}
}

func seedCache(c *cache.Cache) []string {
	keys := []string{
		cache.Cart.Key("get", "user:u1"),
		cache.CartCount.Key("get", "user:u1"),
		cache.Orders.Key("list", map[string]int{"page": 1}),
	}
	for _, k := range keys {
		c.Set(k, "stale")
	}
	return keys
}

func readySession(t *testing.T, cart ports.CartReader, placer ports.OrderPlacer, c *cache.Cache) *Service {
	t.Helper()
	svc := NewService(cart, placer, c)
	require.NoError(t, svc.GoTo(domain.StepReviewing, reviewDetails()))
	return svc
}

func TestResolveOrCreateMatchesOnSixFields(t *testing.T) {
	existing := billingAddress()
	existing.ID = "addr-9"
	remote := &fakeRemote{}
	candidate := billingAddress()
	candidate.Phone = "+91-2222"
	candidate.State = "TN"
	candidate.Line2 = "Flat 3"

	got, err := NewResolver(remote).ResolveOrCreate(context.Background(), candidate, []domain.Address{existing})
	require.NoError(t, err)
	require.Equal(t, "addr-9", got.ID)
	require.Zero(t, remote.creates)
}

func TestResolveOrCreateIsCaseSensitive(t *testing.T) {
	existing := billingAddress()
	existing.ID = "addr-9"
	remote := &fakeRemote{}
	candidate := billingAddress()
	candidate.City = "c"

	got, err := NewResolver(remote).ResolveOrCreate(context.Background(), candidate, []domain.Address{existing})
	require.NoError(t, err)
	require.NotEqual(t, "addr-9", got.ID)
	require.Equal(t, 1, remote.creates)
}

func TestSubmitRequiresPolicyAgreement(t *testing.T) {
	remote := &fakeRemote{}
	svc := readySession(t, filledCart(), NewPlacer(remote), cache.New())
	details := reviewDetails()
	details.AgreedToPolicies = false

	_, err := svc.Submit(context.Background(), details)
	require.ErrorIs(t, err, sharederrors.ErrPolicyAgreementRequired)
	require.ErrorIs(t, err, sharederrors.ErrValidation)
	require.Zero(t, remote.orderCalls)
	require.Equal(t, domain.StepReviewing, svc.Step())
}

func TestSubmitOutsideReviewIsRejected(t *testing.T) {
	svc := NewService(filledCart(), NewPlacer(&fakeRemote{}), cache.New())
	_, err := svc.Submit(context.Background(), reviewDetails())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSubmitRejectsEmptyCart(t *testing.T) {
	remote := &fakeRemote{}
	svc := readySession(t, fakeCart{}, NewPlacer(remote), cache.New())

	_, err := svc.Submit(context.Background(), reviewDetails())
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	require.ErrorIs(t, err, sharederrors.ErrValidation)
	require.Zero(t, remote.creates)
}

func TestSubmitReusesMatchingAddress(t *testing.T) {
	existing := billingAddress()
	existing.ID = "addr-1"
	existing.Phone = "+91-9999"
	remote := &fakeRemote{addresses: []domain.Address{existing}}
	c := cache.New()
	keys := seedCache(c)
	svc := readySession(t, filledCart(), NewPlacer(remote), c)

	order, err := svc.Submit(context.Background(), reviewDetails())
	require.NoError(t, err)
	require.Equal(t, "o-1", order.ID)
	require.Zero(t, remote.creates)
	require.Equal(t, domain.OrderRequest{BillingAddressID: "addr-1", PaymentMethod: domain.PaymentCashOnDelivery}, remote.orders[0])
	require.Equal(t, domain.StepSubmitted, svc.Step())
	for _, k := range keys {
		_, ok := c.Get(context.Background(), k)
		assert.False(t, ok, k)
	}
}

func TestSubmitResolvesDifferentShipping(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewService(filledCart(), NewPlacer(remote), cache.New())
	details := reviewDetails()
	details.UseDifferentShipping = true
	details.Shipping = billingAddress()
	details.Shipping.Line1 = "Y"
	require.NoError(t, svc.GoTo(domain.StepReviewing, details))

	_, err := svc.Submit(context.Background(), details)
	require.NoError(t, err)
	require.Equal(t, 2, remote.creates)
	require.Equal(t, "addr-1", remote.orders[0].BillingAddressID)
	require.Equal(t, "addr-2", remote.orders[0].ShippingAddressID)
	require.Equal(t, domain.AddressShipping, remote.addresses[1].Type)
}

func TestSubmitSameShippingAsBillingCreatesOnce(t *testing.T) {
	remote := &fakeRemote{}
	svc := NewService(filledCart(), NewPlacer(remote), cache.New())
	details := reviewDetails()
	details.UseDifferentShipping = true
	details.Shipping = billingAddress()
	require.NoError(t, svc.GoTo(domain.StepReviewing, details))

	_, err := svc.Submit(context.Background(), details)
	require.NoError(t, err)
	require.Equal(t, 1, remote.creates)
	require.Equal(t, remote.orders[0].BillingAddressID, remote.orders[0].ShippingAddressID)
}

func TestSubmitToleratesAddressListFailure(t *testing.T) {
	remote := &fakeRemote{listErr: errors.New("addresses unavailable")}
	var observed error
	placer := NewPlacer(remote, WithListFailureHook(func(_ context.Context, err error) { observed = err }))
	svc := readySession(t, filledCart(), placer, cache.New())

	_, err := svc.Submit(context.Background(), reviewDetails())
	require.NoError(t, err)
	require.Equal(t, 1, remote.creates)
	require.EqualError(t, observed, "addresses unavailable")
}

func TestFailedOrderLeavesCacheAndRetryDoesNotDuplicateAddress(t *testing.T) {
	remote := &fakeRemote{orderErr: errors.New("payment method unavailable")}
	c := cache.New()
	keys := seedCache(c)
	svc := readySession(t, filledCart(), NewPlacer(remote), c)

	_, err := svc.Submit(context.Background(), reviewDetails())
	require.EqualError(t, err, "payment method unavailable")
	require.Equal(t, 1, remote.creates)
	require.Equal(t, domain.StepReviewing, svc.Step())
	for _, k := range keys {
		_, ok := c.Get(context.Background(), k)
		assert.True(t, ok, k)
	}

	remote.orderErr = nil
	_, err = svc.Submit(context.Background(), reviewDetails())
	require.NoError(t, err)
	require.Equal(t, 1, remote.creates, "retry resolves to the address created on the first attempt")
	require.Equal(t, "addr-1", remote.orders[0].BillingAddressID)
}

func TestCreateRejectsMalformedIDs(t *testing.T) {
	remote := &fakeRemote{}
	_, err := NewPlacer(remote).Create(context.Background(), domain.OrderRequest{BillingAddressID: "addr 1/../x"})
	require.ErrorIs(t, err, domain.ErrMalformedAddressID)
	require.Zero(t, remote.orderCalls)
}

func TestStepNavigationValidates(t *testing.T) {
	svc := NewService(filledCart(), NewPlacer(&fakeRemote{}), cache.New())
	details := reviewDetails()
	details.Billing.City = " "

	err := svc.GoTo(domain.StepReviewing, details)
	require.ErrorIs(t, err, sharederrors.ErrValidation)
	require.Equal(t, domain.StepCollectingAddress, svc.Step())

	details = reviewDetails()
	details.PaymentMethod = "bitcoin"
	require.NoError(t, svc.Next(details))
	err = svc.Next(details)
	require.ErrorIs(t, err, sharederrors.ErrValidation)
	require.ErrorIs(t, err, domain.ErrUnknownPaymentMethod)

	require.NoError(t, svc.Back())
	require.Equal(t, domain.StepCollectingAddress, svc.Step())
	require.ErrorIs(t, svc.Back(), domain.ErrInvalidTransition)
}

type blockingPlacer struct {
	release chan struct{}
	entered chan struct{}
}

func (b blockingPlacer) Place(ctx context.Context, _ ports.PlacementRequest) (ordersdomain.Order, error) {
	close(b.entered)
	<-b.release
	return ordersdomain.Order{ID: "o-1"}, nil
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	placer := blockingPlacer{release: make(chan struct{}), entered: make(chan struct{})}
	svc := readySession(t, filledCart(), placer, cache.New())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Submit(context.Background(), reviewDetails())
		done <- err
	}()
	<-placer.entered
	_, err := svc.Submit(context.Background(), reviewDetails())
	require.ErrorIs(t, err, ErrSubmitInFlight)

	close(placer.release)
	require.NoError(t, <-done)
	_, err = svc.Submit(context.Background(), reviewDetails())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
