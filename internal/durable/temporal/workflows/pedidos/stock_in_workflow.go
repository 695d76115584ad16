package pedidos

import (
	"go.temporal.io/sdk/workflow"

	pedidoactivities "github.com/Apurer/farmasync/internal/platform/temporal/activities/pedidos"
	"github.com/Apurer/farmasync/internal/platform/temporal/sequences"
)

const (
	// StockInWorkflowName is the public identifier for registering the workflow.
	StockInWorkflowName = "pedidos.workflows.StockIn"
	// StockInTaskQueue is the queue consumed by the worker processing order stock-in.
	StockInTaskQueue = "PEDIDOS_STOCK_IN"
)

// StockInWorkflowInput identifies the persisted order and the quantities to receive.
type StockInWorkflowInput struct {
	OrderID int64
	Lines   []pedidoactivities.StockInLine
	TraceID string
}

// StockInWorkflow registers the inventory entries of a freshly created order.
func StockInWorkflow(ctx workflow.Context, input StockInWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("StockInWorkflow started", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	if err := sequences.RunStockInSequence(ctx, input.OrderID, input.Lines); err != nil {
		logger.Error("StockInWorkflow failed", withTraceID(input.TraceID, "orderId", input.OrderID, "error", err)...)
		return err
	}
	logger.Info("StockInWorkflow completed", withTraceID(input.TraceID, "orderId", input.OrderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
