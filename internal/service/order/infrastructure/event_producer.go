// internal/service/order/infrastructure/event_producer.go
package infrastructure

import (
	"context"

	"minimall/internal/event"
	"minimall/internal/pkg/mq"
)

// OrderEventProducer 把事件总线网关适配为编舞路径的出站端口。
type OrderEventProducer struct {
	bus *mq.Bus
}

func NewOrderEventProducer(bus *mq.Bus) *OrderEventProducer {
	return &OrderEventProducer{bus: bus}
}

func (p *OrderEventProducer) Ready() bool {
	return p.bus.Ready()
}

// PublishOrderCreated 以订单号为分区键发布 order.created，
// 保证同一订单的后续事件在主题上保持相对顺序。
func (p *OrderEventProducer) PublishOrderCreated(ctx context.Context, orderID string, productIDs []string) error {
	env, err := event.NewOrderCreated(orderID, productIDs)
	if err != nil {
		return err
	}
	return p.bus.Publish(ctx, orderID, env)
}
