// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"minimall/internal/pkg/logger"
	"minimall/internal/service/order/application/saga"
	"minimall/internal/service/order/domain"
	"minimall/internal/service/order/port"
)

// ErrBusUnavailable 表示事件总线不可用，异步下单被拒绝。
// 不先检查就创建订单，会留下既无追踪也无待处理事件的孤儿订单。
var ErrBusUnavailable = errors.New("event bus unavailable, refusing async order")

// OrderApplicationService 是订单协调者，驱动两条互斥的协调路径：
// 同步编排（逐个调用下游并在失败时补偿）与异步编舞（发布事件后立即返回）。
type OrderApplicationService struct {
	repo        domain.OrderRepository
	inventory   port.InventoryService
	payment     port.PaymentService
	tracking    port.TrackingService
	publisher   port.OrderEventPublisher
	tracer      trace.Tracer
	buyerID     string
	stepTimeout time.Duration
}

func NewOrderApplicationService(
	repo domain.OrderRepository,
	inventory port.InventoryService,
	payment port.PaymentService,
	tracking port.TrackingService,
	publisher port.OrderEventPublisher,
	tracer trace.Tracer,
	buyerID string,
	stepTimeout time.Duration,
) *OrderApplicationService {
	return &OrderApplicationService{
		repo:      repo,
		inventory: inventory, payment: payment, tracking: tracking,
		publisher: publisher,
		tracer:    tracer,
		buyerID:   buyerID, stepTimeout: stepTimeout,
	}
}

// PlaceOrderSync 执行同步编排：
// 创建订单 → 库存校验预留 → 建立追踪 → 结算 → 确认（扣库存、追踪置 paid）。
// 支付被拒时追踪被补偿为 canceled；调用方同步拿到确定的结果。
func (s *OrderApplicationService) PlaceOrderSync(ctx context.Context, productID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrderSync")
	defer span.End()

	if productID == "" {
		return nil, domain.ErrEmptyProductID
	}
	span.SetAttributes(attribute.String("product.id", productID))

	order, err := domain.NewOrder(s.buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create order")
		return nil, errors.Wrap(err, "create order")
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	orderCtx := &saga.OrderContext{
		Ctx:         ctx,
		Order:       order,
		ProductIDs:  []string{productID},
		Tracer:      s.tracer,
		Inventory:   s.inventory,
		Payment:     s.payment,
		Tracking:    s.tracking,
		StepTimeout: s.stepTimeout,
	}

	logger.Ctx(ctx).Info().Str("orderId", order.ID).Msg("starting synchronous order saga")

	if err := s.buildChain().Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order saga failed")
		logger.Ctx(ctx).Warn().Err(err).Str("orderId", order.ID).Msg("order saga failed")
		return nil, err
	}

	logger.Ctx(ctx).Info().Str("orderId", order.ID).Msg("order paid and confirmed")

	// 重新加载，把库存服务补上的商品关系和追踪状态一起带给调用方
	full, err := s.repo.FindByID(ctx, order.ID)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("orderId", order.ID).Msg("could not reload order after saga")
		return order, nil
	}
	return full, nil
}

// PlaceOrderAsync 执行异步编舞：创建订单并发布 order.created，随即返回。
// 结果只能通过追踪状态观察。总线未就绪或发布失败都必须向调用方暴露为错误。
func (s *OrderApplicationService) PlaceOrderAsync(ctx context.Context, productID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.PlaceOrderAsync")
	defer span.End()

	if productID == "" {
		return nil, domain.ErrEmptyProductID
	}
	if !s.publisher.Ready() {
		span.AddEvent("event bus not ready")
		return nil, ErrBusUnavailable
	}

	order, err := domain.NewOrder(s.buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create order")
		return nil, errors.Wrap(err, "create order")
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := s.publisher.PublishOrderCreated(ctx, order.ID, []string{productID}); err != nil {
		// 订单已落库但没有任何事件在途——这是必须向调用方大声暴露的不一致
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish order.created")
		logger.Ctx(ctx).Error().Err(err).Str("orderId", order.ID).Msg("order created but order.created not published")
		return nil, errors.Wrap(err, "publish order.created")
	}

	logger.Ctx(ctx).Info().Str("orderId", order.ID).Msg("order.created published, returning immediately")
	return order, nil
}

// GetOrder 返回订单及其商品、买家与追踪关联。
func (s *OrderApplicationService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.GetOrder")
	defer span.End()
	return s.repo.FindByID(ctx, id)
}

func (s *OrderApplicationService) buildChain() saga.Handler {
	chain := new(saga.InventoryHandler)
	chain.
		SetNext(new(saga.TrackingHandler)).
		SetNext(new(saga.PaymentHandler)).
		SetNext(new(saga.ConfirmHandler))
	return chain
}
