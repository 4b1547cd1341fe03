// internal/service/inventory/application/service.go
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
	"minimall/internal/service/inventory/domain"
	"minimall/internal/service/inventory/port"
)

// InventoryApplicationService 承载库存校验、预留与履约扣减。
// 同步编排和事件编舞走同一套业务规则。
type InventoryApplicationService struct {
	products  domain.ProductRepository
	publisher port.EventPublisher
	guard     port.IdempotencyGuard
	tracer    trace.Tracer
}

func NewInventoryApplicationService(products domain.ProductRepository, publisher port.EventPublisher, guard port.IdempotencyGuard, tracer trace.Tracer) *InventoryApplicationService {
	return &InventoryApplicationService{products: products, publisher: publisher, guard: guard, tracer: tracer}
}

// CheckAndReserve 判断订单请求的商品能否满足，满足则把预留关系落库。
// 一个请求的商品都不存在时返回 ErrNoProductsFound（同步路径映射为 404）。
func (s *InventoryApplicationService) CheckAndReserve(ctx context.Context, orderID string, productIDs []string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.CheckAndReserve")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.StringSlice("product.ids", productIDs),
	)

	if len(productIDs) == 0 {
		return false, domain.ErrEmptyRequest
	}
	requested := domain.GroupByCount(productIDs)

	ids := make([]string, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	inStock, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if len(inStock) == 0 {
		return false, domain.ErrNoProductsFound
	}

	if !domain.CheckAvailability(requested, inStock) {
		span.AddEvent("stock insufficient")
		return false, nil
	}

	if err := s.products.Reserve(ctx, orderID, requested); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to reserve products")
		return false, err
	}
	span.AddEvent("products reserved")
	return true, nil
}

// Fulfill 在支付成功后把订单预留的库存真正扣掉，按预留数量逐个条件扣减。
func (s *InventoryApplicationService) Fulfill(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "inventory.Fulfill")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	quantities, err := s.products.ReservedQuantities(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if len(quantities) == 0 {
		return domain.ErrOrderNotFound
	}

	for productID, qty := range quantities {
		ok, err := s.products.DecrementStock(ctx, productID, qty)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if !ok {
			// 预留只是软占用，并发订单可能先把库存耗尽
			err := errors.Wrapf(domain.ErrInsufficientStock, "product %s", productID)
			span.RecordError(err)
			span.SetStatus(codes.Error, "stock drained before fulfillment")
			return err
		}
	}
	span.AddEvent("stock decremented")
	return nil
}

// HandleEvent 消费共享主题：
// order.created 触发校验+预留并发布 inventory.checked；
// payment.processed{success} 触发履约扣减（幂等标记保证重投不会扣两次）。
func (s *InventoryApplicationService) HandleEvent(ctx context.Context, env event.Envelope) {
	ctx, span := s.tracer.Start(ctx, "inventory.HandleEvent", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	switch env.Message {
	case event.KindOrderCreated:
		data, err := env.DecodeOrderCreated()
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed order.created")
			return
		}
		available, err := s.CheckAndReserve(ctx, data.OrderID, data.ProductIDs)
		if err != nil {
			if errors.Is(err, domain.ErrNoProductsFound) || errors.Is(err, domain.ErrEmptyRequest) {
				// 异步路径上商品不存在等同于不可满足，而不是错误
				available = false
			} else {
				logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("inventory check failed, leaving order unresolved")
				return
			}
		}
		s.publishChecked(ctx, data.OrderID, available)

	case event.KindPaymentProcessed:
		data, err := env.DecodePaymentProcessed()
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("dropping malformed payment.processed")
			return
		}
		if data.Status != event.PaymentSuccess {
			return
		}
		key := fmt.Sprintf("inventory:fulfill:%s", data.OrderID)
		first, err := s.guard.Once(ctx, key)
		if err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("idempotency guard unavailable, skipping fulfillment")
			return
		}
		if !first {
			logger.Ctx(ctx).Debug().Str("orderId", data.OrderID).Msg("fulfillment already handled, ignoring redelivery")
			return
		}
		if err := s.Fulfill(ctx, data.OrderID); err != nil {
			// 扣减没有完成，归还标记，让重投重新尝试
			if relErr := s.guard.Release(ctx, key); relErr != nil {
				logger.Ctx(ctx).Error().Err(relErr).Str("orderId", data.OrderID).Msg("could not release fulfillment marker, order needs manual resolution")
			}
			logger.Ctx(ctx).Error().Err(err).Str("orderId", data.OrderID).Msg("failed to decrement stock after payment, retrying on redelivery")
		}

	default:
		// inventory.checked 非本服务负责
	}
}

func (s *InventoryApplicationService) publishChecked(ctx context.Context, orderID string, available bool) {
	env, err := event.NewInventoryChecked(orderID, available)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("could not build inventory.checked event")
		return
	}
	if err := s.publisher.Publish(ctx, orderID, env); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", orderID).Msg("failed to publish inventory.checked")
		return
	}
	logger.Ctx(ctx).Info().Str("orderId", orderID).Bool("isAvailable", available).Msg("inventory.checked published")
}
