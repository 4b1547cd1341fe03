// internal/service/order/application/saga/handler.go
package saga

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"minimall/internal/pkg/logger"
	"minimall/internal/service/order/domain"
	"minimall/internal/service/order/port"
)

// 编排路径的业务性失败。HTTP 层据此映射为 400，其余错误一律 500。
var (
	ErrNotAvailable  = errors.New("order is not available")
	ErrPaymentFailed = errors.New("order couldn't be paid")
)

// OrderContext 在 Saga 链中传递一次下单所需的全部数据。
// 所有外部依赖都是抽象端口，便于测试替换。
type OrderContext struct {
	Ctx        context.Context
	Order      *domain.Order
	ProductIDs []string
	Tracer     trace.Tracer

	Inventory port.InventoryService
	Payment   port.PaymentService
	Tracking  port.TrackingService

	// TrackerID 在追踪步骤成功后写入，供后续步骤与补偿使用
	TrackerID string

	// StepTimeout 约束每一步下游调用，超时按该步失败处理
	StepTimeout time.Duration

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// StepCtx 给一步下游调用派生带超时的 context。
func (c *OrderContext) StepCtx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.StepTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.StepTimeout)
}

// AddCompensation 把一个补偿函数推入栈，后注册的先执行。
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 按 LIFO 执行所有已注册的补偿。
func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().
		Str("orderId", c.Order.ID).
		Int("count", len(c.compensations)).
		Msg("executing saga compensations")
	for _, comp := range c.compensations {
		comp(ctx)
	}
}

// Handler 定义链中每个节点的接口。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

// NextHandler 嵌入到具体处理器中，承担链接逻辑。
type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
