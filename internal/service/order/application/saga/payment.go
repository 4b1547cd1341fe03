// internal/service/order/application/saga/payment.go
package saga

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"

	"minimall/internal/event"
)

// PaymentHandler 负责结算步骤。
// 支付明确拒绝时触发补偿（追踪置为 canceled）；
// 传输或存储错误不做补偿，直接向上抛（结算结果未知，不能武断取消）。
type PaymentHandler struct {
	NextHandler
}

func (h *PaymentHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.SettlePayment")
	defer span.End()

	stepCtx, cancel := orderCtx.StepCtx(ctx)
	defer cancel()

	status, err := orderCtx.Payment.Settle(stepCtx, orderCtx.Order.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment call failed")
		return errors.Wrap(err, "settle payment")
	}

	if status != event.PaymentSuccess {
		span.AddEvent("payment declined")
		orderCtx.TriggerCompensation(ctx)
		return ErrPaymentFailed
	}

	span.AddEvent("payment settled")
	return h.executeNext(orderCtx)
}
