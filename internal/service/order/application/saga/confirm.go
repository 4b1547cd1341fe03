// internal/service/order/application/saga/confirm.go
package saga

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"

	"minimall/internal/pkg/logger"
)

// ConfirmHandler 是链的收尾：支付成功后扣减库存并把追踪置为 paid。
type ConfirmHandler struct {
	NextHandler
}

func (h *ConfirmHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Confirm")
	defer span.End()

	stepCtx, cancel := orderCtx.StepCtx(ctx)
	defer cancel()

	// 已扣款成功，库存扣减失败不回滚订单，只能记录等待修复
	if err := orderCtx.Inventory.Fulfill(stepCtx, orderCtx.Order.ID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).
			Str("orderId", orderCtx.Order.ID).
			Msg("paid order could not decrement stock")
	}

	confirmCtx, cancelConfirm := orderCtx.StepCtx(ctx)
	defer cancelConfirm()

	if err := orderCtx.Tracking.UpdateStatus(confirmCtx, orderCtx.TrackerID, "paid"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to confirm tracker as paid")
		return errors.Wrap(err, "confirm tracker")
	}

	span.AddEvent("order confirmed as paid")
	return h.executeNext(orderCtx)
}
