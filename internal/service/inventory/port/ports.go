// internal/service/inventory/port/ports.go
package port

import (
	"context"

	"minimall/internal/event"
)

// EventPublisher 是库存服务的出站事件端口，由 mq 网关适配实现。
type EventPublisher interface {
	Publish(ctx context.Context, key string, env event.Envelope) error
}

// IdempotencyGuard 吸收 at-least-once 投递带来的重复消息。
// Once 首次返回 true；同一 key 的后续调用返回 false。
// 拿到标记后动作失败且没有留下副作用时，必须 Release 把标记还回去，
// 否则这条消息的重投会被永远跳过。
type IdempotencyGuard interface {
	Once(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}
