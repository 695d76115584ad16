package sequences

import (
	"errors"
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	pedidoactivities "github.com/Apurer/farmasync/internal/platform/temporal/activities/pedidos"
)

// StockInFailedErrorType tags the workflow failure; its details carry the failing product reference.
const StockInFailedErrorType = "StockInFailed"

// StockInActivityTimeout bounds a single inventory "entrada" call.
const StockInActivityTimeout = 20 * time.Second

// StockInActivityOptions runs each stock-in exactly once. The inventory endpoint is not
// idempotent, so an attempt that timed out after posting must not be repeated.
func StockInActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: StockInActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

// RunStockInSequence registers the stock-in of every line in order and stops at the first
// line whose activity fails.
func RunStockInSequence(ctx workflow.Context, orderID int64, lines []pedidoactivities.StockInLine) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("stock-in sequence started", "orderId", orderID, "lines", len(lines))
	ctx = workflow.WithActivityOptions(ctx, StockInActivityOptions())

	for _, line := range lines {
		line.OrderID = orderID
		err := workflow.ExecuteActivity(ctx, pedidoactivities.RegisterStockInActivityName, line).Get(ctx, nil)
		if err != nil {
			logger.Error("stock-in sequence failed", "orderId", orderID, "productRef", line.ProductRef, "error", err)
			return temporal.NewNonRetryableApplicationError(
				fmt.Sprintf("stock-in failed for product %s: %s", line.ProductRef, causeMessage(err)),
				StockInFailedErrorType,
				err,
				line.ProductRef,
			)
		}
	}
	logger.Info("stock-in sequence completed", "orderId", orderID)
	return nil
}

// causeMessage strips the activity envelope so callers see the inventory message.
func causeMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}
