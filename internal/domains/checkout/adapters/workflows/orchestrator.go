package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/storefront-core/internal/clients/http/commerce"
	"github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	identityports "github.com/Apurer/storefront-core/internal/domains/identity/ports"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
	checkoutactivities "github.com/Apurer/storefront-core/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/storefront-core/internal/platform/temporal/workflows/checkout"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

var (
	_ ports.OrderPlacer = (*TemporalOrderPlacer)(nil)
	_ ports.OrderPlacer = (*InlineOrderPlacer)(nil)
)

// TemporalOrderPlacer runs order placement as a workflow on a Temporal cluster.
type TemporalOrderPlacer struct {
	client    client.Client
	creds     identityports.CredentialsProvider
	taskQueue string
}

// NewTemporalOrderPlacer wires a Temporal client into the placer. creds supply
// the bearer the worker acts with.
func NewTemporalOrderPlacer(c client.Client, creds identityports.CredentialsProvider) *TemporalOrderPlacer {
	return &TemporalOrderPlacer{client: c, creds: creds, taskQueue: checkoutworkflows.OrderPlacementTaskQueue}
}

// Place starts the placement workflow and waits for its result. Concurrent
// identical submissions attach to the same run.
func (o *TemporalOrderPlacer) Place(ctx context.Context, req ports.PlacementRequest) (ordersdomain.Order, error) {
	if o == nil || o.client == nil {
		return ordersdomain.Order{}, errors.New("temporal order placer not configured")
	}
	bearer, ok := o.bearer(ctx)
	if !ok {
		return ordersdomain.Order{}, fmt.Errorf("place order: %w", sharederrors.ErrAuthenticationRequired)
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildOrderPlacementWorkflowID(bearer, req)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		checkoutworkflows.OrderPlacementWorkflow,
		checkoutworkflows.OrderPlacementWorkflowInput{Request: req, Bearer: bearer, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return ordersdomain.Order{}, err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var order ordersdomain.Order
	if err := run.Get(ctx, &order); err != nil {
		return ordersdomain.Order{}, checkoutactivities.DecodeError(err)
	}
	return order, nil
}

func (o *TemporalOrderPlacer) bearer(ctx context.Context) (string, bool) {
	if token, ok := commerce.BearerFromContext(ctx); ok {
		return token, true
	}
	if o.creds == nil {
		return "", false
	}
	return o.creds.Credentials(ctx)
}

// InlineOrderPlacer runs placement in-process, useful for tests or dev fallbacks.
type InlineOrderPlacer struct {
	placer ports.OrderPlacer
}

func NewInlineOrderPlacer(placer ports.OrderPlacer) *InlineOrderPlacer {
	return &InlineOrderPlacer{placer: placer}
}

func (o *InlineOrderPlacer) Place(ctx context.Context, req ports.PlacementRequest) (ordersdomain.Order, error) {
	if o == nil || o.placer == nil {
		return ordersdomain.Order{}, errors.New("inline order placer not configured")
	}
	return o.placer.Place(ctx, req)
}

func buildOrderPlacementWorkflowID(bearer string, req ports.PlacementRequest) string {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Sprintf("order-placement-%d", time.Now().UnixNano())
	}
	sum := sha256.New()
	sum.Write([]byte(bearer))
	sum.Write(payload)
	return fmt.Sprintf("order-placement-%s", hex.EncodeToString(sum.Sum(nil)[:8]))
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
