package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	checkoutdomain "github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	checkoutactivities "github.com/Apurer/storefront-core/internal/platform/temporal/activities/checkout"
)

// RunOrderPlacementSequence resolves addresses and creates the order. Every
// activity runs once; a failure surfaces to the caller, who decides on a retry.
func RunOrderPlacementSequence(ctx workflow.Context, bearer string, req checkoutports.PlacementRequest) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("order placement sequence started", "paymentMethod", req.PaymentMethod)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var existing []checkoutdomain.Address
	err := workflow.ExecuteActivity(ctx, checkoutactivities.ListAddressesActivityName,
		checkoutactivities.ListAddressesInput{Bearer: bearer}).Get(ctx, &existing)
	if err != nil {
		logger.Warn("order placement sequence continuing without existing addresses", "error", err)
		existing = nil
	}

	var orderReq checkoutdomain.OrderRequest
	err = workflow.ExecuteActivity(ctx, checkoutactivities.ResolveAddressesActivityName,
		checkoutactivities.ResolveAddressesInput{Bearer: bearer, Request: req, Existing: existing}).Get(ctx, &orderReq)
	if err != nil {
		logger.Error("order placement sequence failed to resolve addresses", "error", err)
		return nil, err
	}
	logger.Info("order placement sequence resolved addresses", "billingAddressId", orderReq.BillingAddressID)

	var order ordersdomain.Order
	err = workflow.ExecuteActivity(ctx, checkoutactivities.CreateOrderActivityName,
		checkoutactivities.CreateOrderInput{Bearer: bearer, Order: orderReq}).Get(ctx, &order)
	if err != nil {
		logger.Error("order placement sequence failed to create order", "error", err)
		return nil, err
	}
	logger.Info("order placement sequence completed", "orderId", order.ID)
	return &order, nil
}
