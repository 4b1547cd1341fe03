// internal/service/payment/infrastructure/event_publisher.go
package infrastructure

import (
	"context"

	"minimall/internal/event"
	"minimall/internal/pkg/mq"
)

// BusPublisher 把 mq 网关适配为支付服务的出站事件端口。
type BusPublisher struct {
	bus *mq.Bus
}

func NewBusPublisher(bus *mq.Bus) *BusPublisher {
	return &BusPublisher{bus: bus}
}

func (p *BusPublisher) Publish(ctx context.Context, key string, env event.Envelope) error {
	return p.bus.Publish(ctx, key, env)
}
