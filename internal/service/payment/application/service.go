// internal/service/payment/application/service.go
package application

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimall/internal/event"
	"minimall/internal/pkg/logger"
	"minimall/internal/service/payment/domain"
	"minimall/internal/service/payment/port"
)

// PaymentApplicationService 承载买家余额结算。
// 同步编排直接调用 Settle；编舞路径由 inventory.checked 事件驱动。
type PaymentApplicationService struct {
	repo      domain.PaymentRepository
	publisher port.EventPublisher
	guard     port.IdempotencyGuard
	tracer    trace.Tracer
}

func NewPaymentApplicationService(repo domain.PaymentRepository, publisher port.EventPublisher, guard port.IdempotencyGuard, tracer trace.Tracer) *PaymentApplicationService {
	return &PaymentApplicationService{repo: repo, publisher: publisher, guard: guard, tracer: tracer}
}

// Settle 结算一个订单：总价 = Σ 已预留商品单价×数量，余额足够则一次性扣除。
// 余额不足返回 StatusFailed 且没有任何副作用，绝不会部分扣款。
func (s *PaymentApplicationService) Settle(ctx context.Context, orderID string) (domain.Status, error) {
	ctx, span := s.tracer.Start(ctx, "payment.Settle")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	if orderID == "" {
		return domain.StatusFailed, domain.ErrEmptyOrderID
	}

	total, userID, err := s.repo.OrderTotal(ctx, orderID)
	if err != nil {
		if !errors.Is(err, domain.ErrOrderNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to compute order total")
		}
		return domain.StatusFailed, err
	}
	span.SetAttributes(attribute.Float64("order.total", total))

	debited, err := s.repo.DebitIfSufficient(ctx, userID, total)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "debit failed")
		return domain.StatusFailed, err
	}
	if !debited {
		span.AddEvent("insufficient balance")
		return domain.StatusFailed, nil
	}

	span.AddEvent("balance debited")
	return domain.StatusSuccess, nil
}

// HandleEvent 消费共享主题：只有 inventory.checked{isAvailable:true} 触发结算，
// 结算结果以 payment.processed 发布。幂等标记保证重投不会扣两次款。
func (s *PaymentApplicationService) HandleEvent(ctx context.Context, env event.Envelope) {
	ctx, span := s.tracer.Start(ctx, "payment.HandleEvent", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	if env.Message != event.KindInventoryChecked {
		return
	}
	data, err := env.DecodeInventoryChecked()
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed inventory.checked")
		return
	}
	if !data.IsAvailable {
		// 库存不足的订单由追踪服务直接置为 canceled，支付不参与
		return
	}

	key := fmt.Sprintf("payment:settle:%s", data.OrderID)
	first, err := s.guard.Once(ctx, key)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("idempotency guard unavailable, skipping settlement")
		return
	}
	if !first {
		logger.Ctx(ctx).Debug().Str("orderId", data.OrderID).Msg("settlement already handled, ignoring redelivery")
		return
	}

	status, err := s.Settle(ctx, data.OrderID)
	if err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
		// 结算没有落下任何结果，归还标记，让重投重新尝试
		if relErr := s.guard.Release(ctx, key); relErr != nil {
			logger.Ctx(ctx).Error().Err(relErr).Str("orderId", data.OrderID).Msg("could not release settlement marker, order needs manual resolution")
		}
		logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("settlement failed, retrying on redelivery")
		return
	}

	out, err := event.NewPaymentProcessed(data.OrderID, string(status))
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("could not build payment.processed event")
		return
	}
	if err := s.publisher.Publish(ctx, data.OrderID, out); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("failed to publish payment.processed")
		return
	}
	logger.Ctx(ctx).Info().Str("orderId", data.OrderID).Str("status", string(status)).Msg("payment.processed published")
}
