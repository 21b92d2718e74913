package checkout

import (
	"go.temporal.io/sdk/workflow"

	checkoutports "github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	"github.com/Apurer/storefront-core/internal/platform/temporal/sequences"
)

const (
	// OrderPlacementWorkflowName is the public identifier for registering the workflow.
	OrderPlacementWorkflowName = "checkout.workflows.OrderPlacement"
	// OrderPlacementTaskQueue is the queue consumed by the worker placing orders.
	OrderPlacementTaskQueue = "ORDER_PLACEMENT"
)

// OrderPlacementWorkflowInput pins the bearer of the shopper so activities act on their behalf.
type OrderPlacementWorkflowInput struct {
	Request checkoutports.PlacementRequest
	Bearer  string
	TraceID string
}

// OrderPlacementWorkflow runs address resolution and order creation for one checkout submission.
func OrderPlacementWorkflow(ctx workflow.Context, input OrderPlacementWorkflowInput) (*ordersdomain.Order, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OrderPlacementWorkflow started", withTraceID(input.TraceID)...)
	order, err := sequences.RunOrderPlacementSequence(ctx, input.Bearer, input.Request)
	if err != nil {
		logger.Error("OrderPlacementWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("OrderPlacementWorkflow completed", withTraceID(input.TraceID, "orderId", order.ID)...)
	return order, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
