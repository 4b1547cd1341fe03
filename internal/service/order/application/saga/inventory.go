// internal/service/order/application/saga/inventory.go
package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pkg/errors"
)

// InventoryHandler 负责库存校验与预留步骤。
// 此时追踪记录尚未建立，失败无需补偿。
type InventoryHandler struct {
	NextHandler
}

func (h *InventoryHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.InventoryReserve")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("product.ids", orderCtx.ProductIDs))

	stepCtx, cancel := orderCtx.StepCtx(ctx)
	defer cancel()

	available, err := orderCtx.Inventory.CheckAndReserve(stepCtx, orderCtx.Order.ID, orderCtx.ProductIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inventory check failed")
		return errors.Wrap(err, "inventory check")
	}
	if !available {
		span.AddEvent("order not available")
		return ErrNotAvailable
	}

	span.AddEvent("products reserved")
	return h.executeNext(orderCtx)
}
