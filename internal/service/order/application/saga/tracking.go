// internal/service/order/application/saga/tracking.go
package saga

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/codes"

	"minimall/internal/pkg/logger"
)

// TrackingHandler 负责建立追踪记录，并注册把它置为 canceled 的补偿。
type TrackingHandler struct {
	NextHandler
}

func (h *TrackingHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateTracker")
	defer span.End()

	stepCtx, cancel := orderCtx.StepCtx(ctx)
	defer cancel()

	trackerID, err := orderCtx.Tracking.Create(stepCtx, orderCtx.Order.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "tracker creation failed")
		// 订单此时没有追踪记录，无从补偿
		return errors.Wrap(err, "create tracker")
	}
	orderCtx.TrackerID = trackerID
	span.AddEvent("tracker created")

	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.CancelTracker")
		defer compSpan.End()

		// 补偿失败需要人工介入，只能记录
		if err := orderCtx.Tracking.UpdateStatus(compCtx, trackerID, "canceled"); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).
				Str("orderId", orderCtx.Order.ID).
				Str("trackerId", trackerID).
				Msg("failed to compensate tracker to canceled")
		}
	})

	return h.executeNext(orderCtx)
}
