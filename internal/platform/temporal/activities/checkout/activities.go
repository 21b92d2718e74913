package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/storefront-core/internal/clients/http/commerce"
	checkoutapp "github.com/Apurer/storefront-core/internal/domains/checkout/application"
	checkoutdomain "github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

const (
	// ListAddressesActivityName fetches the user's addresses; failures yield an empty set.
	ListAddressesActivityName = "checkout.activities.ListAddresses"
	// ResolveAddressesActivityName matches or creates billing and shipping addresses.
	ResolveAddressesActivityName = "checkout.activities.ResolveAddresses"
	// CreateOrderActivityName checks resolved ids and creates the order remotely.
	CreateOrderActivityName = "checkout.activities.CreateOrder"
)

const (
	errTypeRemote         = "RemoteError"
	errTypeAuthentication = "AuthenticationRequired"
	errTypeMalformedID    = "MalformedAddressID"
	errTypePlacement      = "PlacementFailed"
)

// ListAddressesInput carries the bearer of the identity placing the order.
type ListAddressesInput struct {
	Bearer string
}

type ResolveAddressesInput struct {
	Bearer   string
	Request  checkoutports.PlacementRequest
	Existing []checkoutdomain.Address
}

type CreateOrderInput struct {
	Bearer string
	Order  checkoutdomain.OrderRequest
}

// Activities runs placement steps against the commerce API on behalf of the pinned bearer.
type Activities struct {
	placer *checkoutapp.Placer
}

func NewActivities(placer *checkoutapp.Placer) *Activities {
	return &Activities{placer: placer}
}

func (a *Activities) ListAddresses(ctx context.Context, input ListAddressesInput) ([]checkoutdomain.Address, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.placer == nil {
		logger.Error("checkout activities not initialized")
		return nil, errors.New("checkout activities not initialized")
	}
	existing := a.placer.ExistingAddresses(commerce.WithBearer(ctx, input.Bearer))
	logger.Info("ListAddresses activity completed", "addresses", len(existing))
	return existing, nil
}

func (a *Activities) ResolveAddresses(ctx context.Context, input ResolveAddressesInput) (checkoutdomain.OrderRequest, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.placer == nil {
		logger.Error("checkout activities not initialized")
		return checkoutdomain.OrderRequest{}, errors.New("checkout activities not initialized")
	}
	order, err := a.placer.Resolve(commerce.WithBearer(ctx, input.Bearer), input.Request, input.Existing)
	if err != nil {
		logger.Error("ResolveAddresses activity failed", "error", err)
		return checkoutdomain.OrderRequest{}, EncodeError(err)
	}
	logger.Info("ResolveAddresses activity completed", "billingAddressId", order.BillingAddressID, "shippingAddressId", order.ShippingAddressID)
	return order, nil
}

func (a *Activities) CreateOrder(ctx context.Context, input CreateOrderInput) (ordersdomain.Order, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.placer == nil {
		logger.Error("checkout activities not initialized")
		return ordersdomain.Order{}, errors.New("checkout activities not initialized")
	}
	order, err := a.placer.Create(commerce.WithBearer(ctx, input.Bearer), input.Order)
	if err != nil {
		logger.Error("CreateOrder activity failed", "error", err)
		return ordersdomain.Order{}, EncodeError(err)
	}
	logger.Info("CreateOrder activity completed", "orderId", order.ID)
	return order, nil
}

type remoteDetails struct {
	Operation string
	Status    int
	Message   string
	Payload   []byte
}

// EncodeError converts err into a non-retryable application error whose type
// lets DecodeError restore the taxonomy on the caller side.
func EncodeError(err error) error {
	var remote *sharederrors.RemoteError
	switch {
	case errors.As(err, &remote):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeRemote, err,
			remoteDetails{Operation: remote.Operation, Status: remote.Status, Message: remote.Message, Payload: remote.Payload})
	case errors.Is(err, sharederrors.ErrAuthenticationRequired):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeAuthentication, err)
	case errors.Is(err, checkoutdomain.ErrMalformedAddressID):
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypeMalformedID, err)
	default:
		return temporal.NewNonRetryableApplicationError(err.Error(), errTypePlacement, err)
	}
}

// DecodeError maps a workflow failure back onto the error taxonomy.
func DecodeError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Type() {
	case errTypeRemote:
		var details remoteDetails
		if appErr.HasDetails() && appErr.Details(&details) == nil {
			return &sharederrors.RemoteError{Operation: details.Operation, Status: details.Status, Message: details.Message, Payload: details.Payload}
		}
	case errTypeAuthentication:
		return fmt.Errorf("%s: %w", appErr.Error(), sharederrors.ErrAuthenticationRequired)
	case errTypeMalformedID:
		return fmt.Errorf("%s: %w", appErr.Error(), checkoutdomain.ErrMalformedAddressID)
	}
	return errors.New(appErr.Error())
}
