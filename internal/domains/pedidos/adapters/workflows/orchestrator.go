package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/farmasync/internal/domains/pedidos/domain"
	"github.com/Apurer/farmasync/internal/domains/pedidos/ports"
	pedidoworkflows "github.com/Apurer/farmasync/internal/durable/temporal/workflows/pedidos"
	pedidoactivities "github.com/Apurer/farmasync/internal/platform/temporal/activities/pedidos"
	"github.com/Apurer/farmasync/internal/platform/temporal/sequences"
)

var _ ports.StockInOrchestrator = (*TemporalStockIn)(nil)

// TemporalStockIn runs the stock-in phase of order creation as a Temporal workflow and
// waits for its outcome.
type TemporalStockIn struct {
	client    client.Client
	taskQueue string
}

// NewTemporalStockIn wires a Temporal client into the orchestrator.
func NewTemporalStockIn(c client.Client) *TemporalStockIn {
	return &TemporalStockIn{client: c, taskQueue: pedidoworkflows.StockInTaskQueue}
}

// RegisterStockIn starts one workflow per order. A workflow failure tagged StockInFailed is
// reported as a *ports.StockInError naming the product. A retry for an order whose workflow
// already ran attaches to that run instead of moving stock twice.
func (o *TemporalStockIn) RegisterStockIn(ctx context.Context, orderID int64, lines []domain.Line) error {
	if o == nil || o.client == nil {
		return errors.New("temporal stock-in workflows not configured")
	}
	input := pedidoworkflows.StockInWorkflowInput{
		OrderID: orderID,
		Lines:   make([]pedidoactivities.StockInLine, 0, len(lines)),
		TraceID: workflowTraceID(ctx),
	}
	for _, line := range lines {
		input.Lines = append(input.Lines, pedidoactivities.StockInLine{
			OrderID:    orderID,
			ProductRef: line.ProductRef,
			Quantity:   line.Quantity,
		})
	}
	options := o.startOptions(orderID)
	workflowID := options.ID
	run, err := o.client.ExecuteWorkflow(ctx, options, pedidoworkflows.StockInWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return err
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	return toStockInError(run.Get(ctx, nil))
}

// StockInWorkflowTimeout caps the whole run so a request never waits on a workflow that no
// worker picks up.
const StockInWorkflowTimeout = 30 * time.Second

func (o *TemporalStockIn) startOptions(orderID int64) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                       stockInWorkflowID(orderID),
		TaskQueue:                o.taskQueue,
		WorkflowIDReusePolicy:    enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		WorkflowExecutionTimeout: StockInWorkflowTimeout,
	}
}

func stockInWorkflowID(orderID int64) string {
	return fmt.Sprintf("pedido-stock-in-%d", orderID)
}

func toStockInError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) && appErr.Type() == sequences.StockInFailedErrorType {
		var productRef string
		if detailsErr := appErr.Details(&productRef); detailsErr == nil && productRef != "" {
			return &ports.StockInError{ProductRef: productRef, Err: errors.New(appErr.Message())}
		}
	}
	return err
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() && spanCtx.TraceID().IsValid() {
		return spanCtx.TraceID().String()
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}
